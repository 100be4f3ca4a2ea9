// Package ignition computes the coil dwell and the spark advance.
package ignition

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

// ComputeDwell returns the requested dwell in µs before any correction. The
// calibration stores dwell in tenths of a millisecond.
func ComputeDwell(tune *config.Tune, st *status.Status) uint32 {
	ig := tune.Ignition

	switch {
	case st.Cranking:
		return uint32(ig.DwellCrank) * 100
	case ig.UseDwellMap:
		v := ig.Dwell.Lookup(int32(st.RPM), int32(st.IgnLoad))
		if v < 0 {
			v = 0
		}

		return uint32(v) * 100
	default:
		return uint32(ig.DwellRun) * 100
	}
}

// CorrectDwell applies the dwell limit and the battery voltage correction,
// then shortens the dwell when dwell plus spark no longer fit in one
// revolution. The result is written to st.Dwell.
func CorrectDwell(tune *config.Tune, st *status.Status, dwell uint32) uint16 {
	ig := tune.Ignition

	if ig.DwellLimit != 0 && dwell > uint32(ig.DwellLimit)*1000 {
		dwell = uint32(ig.DwellLimit) * 1000
	}

	st.DwellCorrection = clampU8(int32(ig.DwellCorrection.Lookup(int32(st.Battery10))))
	if st.DwellCorrection != 100 {
		dwell = dwell / 100 * uint32(st.DwellCorrection)
	}

	sparkDur := uint32(ig.SparkDur) * 100
	perRevolution := dwell + sparkDur

	pulses := uint32(1)
	if tune.Engine.SparkMode == config.SparkSingle && tune.Engine.Cylinders > 1 {
		pulses = uint32(tune.Engine.Cylinders) / 2
		perRevolution *= pulses
	}

	revTime := st.RevolutionTime
	if revTime != 0 && perRevolution > revTime {
		adjustedSpark := uint32(uint64(sparkDur) * uint64(revTime) /
			uint64(perRevolution))
		dwell = revTime/pulses - adjustedSpark
	}

	if dwell > 0xFFFF {
		dwell = 0xFFFF
	}

	st.Dwell = uint16(dwell)
	if st.ActualDwell == 0 {
		st.ActualDwell = st.Dwell
	}

	return st.Dwell
}

// AngleConverter turns a duration into crank degrees at the current engine
// speed.
type AngleConverter interface {
	TimeToAngle(us uint32) uint16
}

// DwellAngle returns how many crank degrees the dwell spans.
func DwellAngle(dwell uint16, conv AngleConverter) uint16 {
	return conv.TimeToAngle(uint32(dwell))
}
