// Package protect decides when the engine is beyond a safe limit and which
// output channels must be cut.
//
// Every check reads the status snapshot and the calibration, updates the
// matching protection flag in the status, and reports whether it is active.
// Checks that wait before activating take the current time in µs.
package protect

import (
	"math"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

const (
	tempOffset = 40

	tenthSecond = uint64(100_000)
)

// A Protector holds the timers of the delayed protections and the random
// source of the rolling cut.
type Protector struct {
	rand RandomSource

	oilTiming bool
	oilStart  uint64

	afrCounting bool
	afrStart    uint64
	afrActive   bool
}

// NewProtector creates a Protector that rolls the rolling cut with rand.
func NewProtector(rand RandomSource) *Protector {
	return &Protector{rand: rand}
}

// CheckBoost reports whether MAP is above the boost ceiling.
func (p *Protector) CheckBoost(tune *config.Tune, st *status.Status) bool {
	st.Protect.MAP = false

	b := tune.Protection.Boost
	if tune.Protection.CutType == config.CutOff || !b.Enabled {
		return false
	}

	if uint32(st.MAP) > uint32(b.Limit)*2 {
		st.Protect.MAP = true
	}

	return st.Protect.MAP
}

// CheckOil reports whether the oil pressure has stayed below the minimum for
// the current engine speed for longer than the activation delay. Once active
// it stays active until the pressure recovers.
func (p *Protector) CheckOil(tune *config.Tune, st *status.Status, now uint64) bool {
	alreadyActive := st.Protect.Oil
	st.Protect.Oil = false

	o := tune.Protection.Oil
	if tune.Protection.CutType == config.CutOff || !o.Enabled {
		p.oilTiming = false
		return false
	}

	limit := int32(o.Min.Lookup(int32(st.RPMDiv100())))
	if int32(st.OilPressure) >= limit {
		p.oilTiming = false
		return false
	}

	if !p.oilTiming {
		p.oilTiming = true
		p.oilStart = now
	}

	if alreadyActive || now >= p.oilStart+uint64(o.Time)*tenthSecond {
		st.Protect.Oil = true
	}

	return st.Protect.Oil
}

// CheckAFR reports whether the engine runs lean under load. It needs a warm
// wideband sensor. The lean condition must hold for the cut time before the
// protection activates, and once active it only re-arms when the throttle
// drops to the reactivation position.
func (p *Protector) CheckAFR(tune *config.Tune, st *status.Status, now uint64) bool {
	a := tune.Protection.AFR
	if tune.Protection.CutType == config.CutOff ||
		a.Mode == config.AFRProtectOff ||
		tune.EGO.Type != config.EGOWideband {
		p.afrActive = false
		p.afrCounting = false
		st.Protect.AFR = false

		return false
	}

	var lean bool
	switch a.Mode {
	case config.AFRProtectFixed:
		lean = st.O2 >= a.Deviation
	case config.AFRProtectTable:
		lean = uint32(st.O2) >= uint32(st.AFRTarget)+uint32(a.Deviation)
	}

	loaded := uint32(st.MAP) >= uint32(a.MinMAP)*2 &&
		st.RPMDiv100() >= a.MinRPM &&
		st.TPS >= a.MinTPS
	warm := st.RunSecs > uint16(tune.EGO.Delay)

	if lean && loaded && warm {
		if !p.afrCounting {
			p.afrCounting = true
			p.afrStart = now
		}

		if now >= p.afrStart+uint64(a.CutTime)*tenthSecond {
			p.afrActive = true
		}
	} else {
		p.afrCounting = false
	}

	if p.afrActive && st.TPS <= a.ReactivationTPS {
		p.afrActive = false
		p.afrCounting = false
	}

	st.Protect.AFR = p.afrActive

	return p.afrActive
}

// CheckEngineProtect reports whether boost, oil or AFR protection is active
// above the protection engine speed. All three checks run so that their
// flags stay current.
func (p *Protector) CheckEngineProtect(
	tune *config.Tune,
	st *status.Status,
	now uint64,
) bool {
	boost := p.CheckBoost(tune, st)
	oil := p.CheckOil(tune, st, now)
	afr := p.CheckAFR(tune, st, now)

	return (boost || oil || afr) && st.RPMDiv100() > tune.Protection.MaxRPM
}

// CheckRevLimit returns the highest allowed engine speed in 100 RPM, or 255
// when protection is off. In fixed mode the limit drops to the soft limit
// once the soft limiter has run for its maximum time, so the channel cut
// takes over from the retard. In coolant
// mode the limit follows the coolant temperature.
func (p *Protector) CheckRevLimit(tune *config.Tune, st *status.Status) uint8 {
	st.Protect.RPM = false
	st.Protect.Coolant = false
	st.Flags.HardLimit = false

	prot := tune.Protection
	limit := uint8(math.MaxUint8)
	rpm := st.RPMDiv100()

	if prot.CutType == config.CutOff {
		st.CurrentLimitRPM = limit
		return limit
	}

	switch prot.HardRevMode {
	case config.HardRevFixed:
		limit = prot.HardRevLim
		if st.SoftLimitTime >= prot.SoftLimMax && prot.SoftRevLim < limit {
			limit = prot.SoftRevLim
		}

		if rpm >= limit {
			st.Protect.RPM = true
			st.Flags.HardLimit = true
		}
	case config.HardRevCoolant:
		v := prot.CoolantLimit.Lookup(int32(st.Coolant) + tempOffset)
		limit = clampU8(int32(v))

		if rpm > limit {
			st.Protect.Coolant = true
			st.Protect.RPM = true
			st.Flags.HardLimit = true
		}
	}

	st.CurrentLimitRPM = limit

	return limit
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
