package protect

import (
	"math"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

// pendingRevolutions is how long a channel re-enabled by the rolling cut
// waits before it may spark again.
const pendingRevolutions = 2

// RevolutionsToCut returns how many revolutions a rolling cut decision
// holds. A four-stroke engine needs two revolutions per cycle and a
// non-sequential layout needs two cycles so that no cylinder gets half a
// cycle of fuel.
func RevolutionsToCut(tune *config.Tune) uint32 {
	revs := uint32(1)

	if tune.Engine.Strokes == config.FourStroke {
		revs *= 2

		if tune.Engine.SparkMode != config.SparkSequential ||
			tune.Engine.InjLayout != config.InjSequential {
			revs *= 2
		}
	}

	return revs
}

// CalculateFuelIgnitionChannelCut evaluates every limit and latches the
// resulting per-channel decision into st.Cut. Nothing is cut before the
// engine has completed StgCycles revolutions.
//
// A launch or flat shift hard cut, and the full cut type, cut every channel
// the cut type covers. The rolling cut cuts each channel with a probability
// taken from the rolling curve and the RPM overshoot. It rolls once per
// RevolutionsToCut revolutions, except at or past the top of the curve where
// every channel in use is cut on every evaluation.
func (p *Protector) CalculateFuelIgnitionChannelCut(
	tune *config.Tune,
	st *status.Status,
	now uint64,
) status.Cut {
	cut := p.channelCut(tune, st, now)
	st.Cut.Latch(cut)

	return cut
}

func (p *Protector) channelCut(
	tune *config.Tune,
	st *status.Status,
	now uint64,
) status.Cut {
	prot := tune.Protection

	protectActive := p.CheckEngineProtect(tune, st, now)

	limit := p.CheckRevLimit(tune, st)
	if protectActive && prot.MaxRPM < limit {
		limit = prot.MaxRPM
		st.CurrentLimitRPM = limit
	}

	hardCut := tune.Launch.Enabled && (st.LaunchingHard || st.FlatShiftHard)

	if prot.CutType == config.CutOff ||
		st.StartRevolutions < uint32(tune.Engine.StgCycles) {
		st.Cut.ResetRoll()
		return status.NoCut()
	}

	switch {
	case hardCut:
		st.Cut.ResetRoll()
		return fullCut(prot.CutType)
	case prot.HardCutType == config.HardCutFull:
		if protectActive || st.RPMDiv100() >= limit {
			st.Cut.ResetRoll()
			return fullCut(prot.CutType)
		}
	case prot.HardCutType == config.HardCutRolling:
		step := rpmStep(st.RPM, limit)
		if protectActive || step >= int32(prot.Rolling.Axis[0]) {
			return p.rollingCut(tune, st, step, protectActive)
		}
	}

	st.Cut.ResetRoll()

	return status.NoCut()
}

// rpmStep is the signed distance from the limit in units of 10 RPM,
// saturated to the range of a curve axis.
func rpmStep(rpm uint16, limit uint8) int32 {
	delta := (int32(rpm) - int32(limit)*100) / 10
	if delta > math.MaxInt16 {
		return math.MaxInt16
	}

	if delta < math.MinInt16 {
		return math.MinInt16
	}

	return delta
}

func fullCut(ct config.CutType) status.Cut {
	c := status.NoCut()

	if ct.CutsSpark() {
		c.Ignition = 0
	}

	if ct.CutsFuel() {
		c.Fuel = 0
	}

	return c
}

func (p *Protector) rollingCut(
	tune *config.Tune,
	st *status.Status,
	step int32,
	protectActive bool,
) status.Cut {
	ct := tune.Protection.CutType
	curve := tune.Protection.Rolling

	percent := uint8(100)
	if !protectActive && step < int32(curve.Axis[curve.Len()-1]) {
		percent = clampU8(int32(curve.Lookup(step)))
	}

	prev := st.Cut.Load()
	revs := RevolutionsToCut(tune)
	lastRoll, rolled := st.Cut.LastRoll()

	if percent < 100 && rolled && st.StartRevolutions < lastRoll+revs {
		if prev.PendingIgnition != 0 &&
			st.StartRevolutions >= lastRoll+pendingRevolutions {
			prev.PendingIgnition = 0
		}

		return prev
	}

	out := tune.Outputs()
	channels := max(out.MaxIgn, out.MaxInj)
	cut := prev

	for ch := uint8(0); ch < channels && ch < status.Channels; ch++ {
		bit := uint8(1) << ch

		if percent >= 100 || p.rand.Percent() < percent {
			if ct.CutsSpark() {
				cut.Ignition &^= bit
			}

			if ct.CutsFuel() {
				cut.Fuel &^= bit
			}

			cut.PendingIgnition &^= bit

			continue
		}

		if revs == 4 && ct == config.CutBoth && cut.Fuel&bit == 0 {
			cut.PendingIgnition |= bit
		}

		cut.Ignition |= bit
		cut.Fuel |= bit
	}

	st.Cut.MarkRoll(st.StartRevolutions)

	return cut
}
