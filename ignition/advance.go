package ignition

import (
	"math"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/fuel"
	"github.com/sarchlab/ecucore/protect"
	"github.com/sarchlab/ecucore/status"
)

const (
	tempOffset = 40

	// flexOffset is the offset of the flex advance curve, which is stored
	// unsigned.
	flexOffset = 40

	// cltAdvanceOffset is the offset of the coolant advance curve.
	cltAdvanceOffset = 15
)

// An Advancer computes the spark advance in degrees before TDC.
type Advancer struct {
	soft *protect.SoftLimiter
}

// NewAdvancer creates an Advancer that retards through soft at the soft rev
// limit.
func NewAdvancer(soft *protect.SoftLimiter) *Advancer {
	return &Advancer{soft: soft}
}

// Compute looks up the base advance, runs the corrections and blends in the
// secondary spark table. dfcoTaper is the progress of the DFCO taper as
// reported by the fuel corrector. The result is written to st.Advance.
func (a *Advancer) Compute(
	tune *config.Tune,
	st *status.Status,
	dfcoTaper uint8,
) int8 {
	ig := tune.Ignition

	st.IgnLoad = fuel.Load(ig.LoadSource, st)
	st.Advance1 = clampI8(int32(ig.Advance.Lookup(int32(st.RPM), int32(st.IgnLoad))))

	advance := a.Corrections(tune, st, st.Advance1, dfcoTaper)
	st.Flags.Spark2Active = false

	sec := ig.Secondary
	if sec.Mode != config.SecondaryOff {
		load := fuel.Load(sec.LoadSource, st)
		st.Advance2 = clampI8(int32(sec.Advance.Lookup(int32(st.RPM), int32(load))))

		switch sec.Mode {
		case config.SecondaryMultiply:
			adv2 := max(int32(st.Advance2), 0)
			advance = clampI8(min(int32(advance)*adv2/100, math.MaxInt8))
			st.Flags.Spark2Active = true
		case config.SecondaryAdd:
			advance = clampI8(int32(advance) + int32(st.Advance2))
			st.Flags.Spark2Active = true
		case config.SecondaryConditional:
			if fuel.SwitchCondition(sec.SwitchOn, sec.SwitchValue, st) {
				advance = a.Corrections(tune, st, st.Advance2, dfcoTaper)
				st.Flags.Spark2Active = true
			}
		case config.SecondaryInput:
			if st.Spark2Input {
				advance = a.Corrections(tune, st, st.Advance2, dfcoTaper)
				st.Flags.Spark2Active = true
			}
		}

		advance = fixedTiming(ig, st, advance)
	}

	st.Advance = advance

	return advance
}

// Corrections applies every advance correction to advance in order. The
// fixed and cranking timing come last and override everything else.
func (a *Advancer) Corrections(
	tune *config.Tune,
	st *status.Status,
	advance int8,
	dfcoTaper uint8,
) int8 {
	ig := tune.Ignition
	adv := int32(advance)

	st.FlexIgnCorrection = 0
	if ig.FlexEnabled {
		st.FlexIgnCorrection = clampI8(
			int32(ig.FlexAdvance.Lookup(int32(st.EthanolPct))) - flexOffset)
		adv += int32(st.FlexIgnCorrection)
	}

	adv -= int32(ig.IATRetard.Lookup(int32(st.IAT)))
	adv += int32(ig.CLTAdvance.Lookup(int32(st.Coolant)+tempOffset)) -
		cltAdvanceOffset

	adv = int32(a.soft.Apply(tune, st, clampI8(adv)))

	adv -= nitrousRetard(tune, st)

	if st.LaunchingSoft {
		adv = int32(tune.Launch.LaunchRetard)
	}

	if st.FlatShiftActive {
		adv = int32(tune.Launch.FlatShiftRetard)
	}

	adv -= dfcoRetard(tune.DFCO, st, dfcoTaper)

	return fixedTiming(ig, st, clampI8(adv))
}

func nitrousRetard(tune *config.Tune, st *status.Status) int32 {
	if !tune.Nitrous.Enabled {
		return 0
	}

	rpm := st.RPMDiv100()
	retard := int32(0)

	for _, s := range []struct {
		stage status.NitrousStage
		cal   config.NitrousStage
	}{
		{status.NitrousStage1, tune.Nitrous.Stage1},
		{status.NitrousStage2, tune.Nitrous.Stage2},
	} {
		if st.Nitrous.Has(s.stage) && rpm >= s.cal.MinRPM && rpm <= s.cal.MaxRPM {
			retard += int32(s.cal.Retard)
		}
	}

	return retard
}

// dfcoRetard tapers the advance down while DFCO tapers the fuel, and keeps
// the full retard once the fuel is cut.
func dfcoRetard(d config.DFCO, st *status.Status, taper uint8) int32 {
	if !d.TaperEnabled || !st.Flags.DFCO {
		return 0
	}

	if taper == 0 || d.TaperTime == 0 {
		return int32(d.TaperAdvance)
	}

	return (int32(taper) - int32(d.TaperTime)) * int32(d.TaperAdvance) /
		-int32(d.TaperTime)
}

func fixedTiming(ig config.Ignition, st *status.Status, advance int8) int8 {
	if ig.FixedTiming {
		advance = ig.FixedAngle
	}

	if st.Cranking {
		advance = ig.CrankAngle
	}

	return advance
}

func clampI8(v int32) int8 {
	if v < math.MinInt8 {
		return math.MinInt8
	}

	if v > math.MaxInt8 {
		return math.MaxInt8
	}

	return int8(v)
}

func clampU8(v int32) uint8 {
	if v < 0 {
		return 0
	}

	if v > math.MaxUint8 {
		return math.MaxUint8
	}

	return uint8(v)
}
