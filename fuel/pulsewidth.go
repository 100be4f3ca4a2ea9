package fuel

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

const maxPW = 65535

// RequiredFuel converts the per-cylinder required fuel (tenths of a ms) into
// microseconds per squirt. A four-stroke engine fires its injectors twice
// per cycle unless it runs sequential with full sync, so it needs half the
// reference amount per squirt.
func RequiredFuel(
	reqFuel uint8,
	strokes config.Strokes,
	layout config.InjLayout,
	halfSync bool,
) uint16 {
	us := uint16(reqFuel) * 100

	if strokes == config.TwoStroke {
		return us
	}

	if layout == config.InjSequential && !halfSync {
		return us
	}

	return us / 2
}

// OpenTime returns the injector opening time in µs. In open time mode the
// battery correction scales the opening time; in whole mode it is applied to
// the corrections aggregate instead.
func OpenTime(injOpen uint8, mode config.BattCorMode, batCorrection uint8) uint16 {
	if mode == config.BattCorOpenTime {
		return uint16(injOpen) * uint16(batCorrection)
	}

	return uint16(injOpen) * 100
}

// PWOptions are the parts of the status and calibration that modify the base
// pulse width beyond VE and corrections.
type PWOptions struct {
	MultiplyMAP config.MultiplyMAP
	Baro        uint8

	// IncludeAFR multiplies by measured/target AFR. It must already account
	// for the sensor type and warm-up.
	IncludeAFR bool

	// IncorporateAFR multiplies by stoich/target AFR.
	IncorporateAFR bool

	O2        uint8
	AFRTarget uint8
	Stoich    uint8

	// AEAdder adds ReqFuel*(AEAmount-100)/100 on top of the pulse.
	AEAdder  bool
	AEAmount uint16
}

// OptionsFor derives the pulse width options from the calibration and the
// status.
func OptionsFor(tune *config.Tune, st *status.Status) PWOptions {
	include := tune.Fuel.IncludeAFR &&
		tune.EGO.Type == config.EGOWideband &&
		st.RunSecs > uint16(tune.EGO.Delay)

	return PWOptions{
		MultiplyMAP:    tune.Fuel.MultiplyMAP,
		Baro:           st.Baro,
		IncludeAFR:     include,
		IncorporateAFR: tune.Fuel.IncorporateAFR && !tune.Fuel.IncludeAFR,
		O2:             st.O2,
		AFRTarget:      st.AFRTarget,
		Stoich:         tune.Fuel.Stoich,
		AEAdder: tune.Accel.Apply == config.AEAdder &&
			st.Flags.Accelerating,
		AEAmount: st.AEAmount,
	}
}

// scale multiplies by num/den with 7 fractional bits, the way every
// multiplier of the pulse width is applied.
func scale(v uint32, num, den uint32) uint32 {
	if den == 0 {
		return v
	}

	return (v * ((num << 7) / den)) >> 7
}

// PulseWidth computes the primary pulse width in µs:
// reqFuel × VE% × MAP% × AFR ratio × corrections% + openTime.
//
// Corrections are applied with 7 fractional bits below 512 %, 6 below
// 1024 % and 5 above, so that the product fits in 32 bits. A zero result
// stays zero and the open time is not added. The result saturates at
// 65535 µs.
func PulseWidth(
	reqFuel uint16,
	ve uint8,
	mapKPa uint16,
	corrections uint16,
	openTime uint16,
	opts PWOptions,
) uint16 {
	pw := scale(uint32(reqFuel), uint32(ve), 100)

	switch opts.MultiplyMAP {
	case config.MultiplyMAP100:
		pw = scale(pw, uint32(mapKPa), 100)
	case config.MultiplyMAPBaro:
		pw = scale(pw, uint32(mapKPa), uint32(opts.Baro))
	}

	switch {
	case opts.IncludeAFR:
		pw = scale(pw, uint32(opts.O2), uint32(opts.AFRTarget))
	case opts.IncorporateAFR:
		pw = scale(pw, uint32(opts.Stoich), uint32(opts.AFRTarget))
	}

	pw = applyCorrections(pw, corrections)

	if pw != 0 {
		pw += uint32(openTime)

		if opts.AEAdder && opts.AEAmount > 100 {
			pw += uint32(reqFuel) * uint32(opts.AEAmount-100) / 100
		}
	}

	if pw > maxPW {
		return maxPW
	}

	return uint16(pw)
}

func applyCorrections(pw uint32, corrections uint16) uint32 {
	c := uint32(corrections)

	switch {
	case c < 512:
		return (pw * ((c << 7) / 100)) >> 7
	case c < 1024:
		return (pw * ((c << 6) / 100)) >> 6
	default:
		return (pw * ((c << 5) / 100)) >> 5
	}
}

// PWLimit returns the longest pulse the injector duty limit allows for one
// squirt. It saturates at 65535 µs, which happens at low engine speed.
func PWLimit(
	dutyLim uint8,
	revolutionTime uint32,
	strokes config.Strokes,
	nSquirts uint8,
) uint16 {
	limit := uint64(dutyLim) * uint64(revolutionTime) / 100
	if strokes == config.FourStroke {
		limit *= 2
	}

	if nSquirts > 1 {
		limit /= uint64(nSquirts)
	}

	if limit > maxPW {
		return maxPW
	}

	return uint16(limit)
}

// ApplyPWLimit clamps pw to limit. There is no limit while cranking, nor
// with staging enabled, where the limit moves fuel to the secondaries
// instead.
func ApplyPWLimit(pw, limit uint16, cranking, stagingEnabled bool) uint16 {
	if cranking || stagingEnabled {
		return pw
	}

	if pw > limit {
		return limit
	}

	return pw
}

// mapRange is the integer linear map used by every taper: x in
// [inMin, inMax] onto [outMin, outMax], truncating.
func mapRange(x, inMin, inMax, outMin, outMax int32) int32 {
	if inMax == inMin {
		return outMin
	}

	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func nitrousAdder(stage config.NitrousStage, rpmDiv100 uint8) uint32 {
	if rpmDiv100 < stage.MinRPM || rpmDiv100 > stage.MaxRPM {
		return 0
	}

	adder := mapRange(int32(rpmDiv100),
		int32(stage.MinRPM), int32(stage.MaxRPM),
		int32(stage.AdderMin), int32(stage.AdderMax))
	if adder < 0 {
		return 0
	}

	return uint32(adder) * 100
}

// ApplyNitrous adds the fuel of every armed nitrous stage whose RPM window
// contains the current speed. A zero pulse width is a fuel cut and stays
// zero.
func ApplyNitrous(pw uint16, tune *config.Tune, st *status.Status) uint16 {
	if pw == 0 || !tune.Nitrous.Enabled || st.Nitrous == status.NitrousOff {
		return pw
	}

	total := uint32(pw)
	rpm := st.RPMDiv100()

	if st.Nitrous.Has(status.NitrousStage1) {
		total += nitrousAdder(tune.Nitrous.Stage1, rpm)
	}

	if st.Nitrous.Has(status.NitrousStage2) {
		total += nitrousAdder(tune.Nitrous.Stage2, rpm)
	}

	if total > maxPW {
		return maxPW
	}

	return uint16(total)
}
