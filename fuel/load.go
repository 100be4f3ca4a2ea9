// Package fuel computes injector pulse widths from the engine status and the
// calibration.
//
// The pipeline runs once per control loop iteration: VE lookup, the
// multiplicative corrections, the base pulse width, the nitrous adders,
// staging and finally the fan-out to the injector channels. Everything here
// returns plain values; saturation and "off" modes are normal results.
package fuel

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

// Load returns the engine load metric used to index a table.
func Load(source config.LoadSource, st *status.Status) int16 {
	switch source {
	case config.LoadTPS:
		return int16(st.TPS) * 2
	case config.LoadIMAPEMAP:
		if st.EMAP == 0 {
			return int16(st.MAP)
		}

		return int16(uint32(st.MAP) * 100 / uint32(st.EMAP))
	default:
		return int16(st.MAP)
	}
}

// SwitchCondition reports whether the conditional switch of a secondary
// table is met.
func SwitchCondition(
	on config.SwitchVariable,
	value uint16,
	st *status.Status,
) bool {
	switch on {
	case config.SwitchRPM:
		return st.RPM > value
	case config.SwitchMAP:
		return st.MAP > value
	case config.SwitchTPS:
		return uint16(st.TPS) > value
	case config.SwitchEthanol:
		return uint16(st.EthanolPct) > value
	default:
		return false
	}
}

func clampU8(v int32) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// ComputeVE looks up the primary VE table and blends in the secondary table.
// It writes FuelLoad, VE1, VE2, VE and the Fuel2Active flag.
func ComputeVE(tune *config.Tune, st *status.Status) uint8 {
	st.FuelLoad = Load(tune.Fuel.LoadSource, st)
	st.VE1 = clampU8(int32(tune.Fuel.VE.Lookup(int32(st.RPM), int32(st.FuelLoad))))
	st.VE = st.VE1
	st.Flags.Fuel2Active = false

	sec := tune.Fuel.Secondary
	ve2 := func() uint8 {
		load := Load(sec.LoadSource, st)
		st.VE2 = clampU8(int32(sec.VE.Lookup(int32(st.RPM), int32(load))))
		return st.VE2
	}

	switch sec.Mode {
	case config.SecondaryMultiply:
		st.VE = clampU8(int32(st.VE1) * int32(ve2()) / 100)
	case config.SecondaryAdd:
		st.VE = clampU8(int32(st.VE1) + int32(ve2()))
	case config.SecondaryConditional:
		if SwitchCondition(sec.SwitchOn, sec.SwitchValue, st) {
			st.Flags.Fuel2Active = true
			st.VE = ve2()
		}
	case config.SecondaryInput:
		if st.Fuel2Input {
			st.Flags.Fuel2Active = true
			st.VE = ve2()
		}
	}

	return st.VE
}

// ComputeAFRTarget returns the target AFR ×10. The table is only consulted
// when the AFR is incorporated into the pulse width or an O2 sensor is
// fitted and past its warm-up; before that the target follows the sensor.
func ComputeAFRTarget(tune *config.Tune, st *status.Status) uint8 {
	lookup := func() uint8 {
		return clampU8(int32(tune.Fuel.AFRTarget.Lookup(
			int32(st.RPM), int32(st.FuelLoad))))
	}

	if tune.Fuel.IncorporateAFR {
		return lookup()
	}

	if tune.EGO.Type != config.EGOOff {
		if st.RunSecs > uint16(tune.EGO.Delay) {
			return lookup()
		}

		return st.O2
	}

	return st.AFRTarget
}
