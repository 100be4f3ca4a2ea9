package schedule

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

const (
	// primingDelay is the time, in µs, from the request to the pulse.
	primingDelay = 100

	// primingUnit is the µs per priming table step of 0.5 ms.
	primingUnit = 100 * 5

	tempOffset = 40
)

// PrimingPulse fires one priming squirt on every injector channel in use. It
// is meant to run once, when the controller powers up. It returns the number
// of channels armed.
func PrimingPulse(
	tune *config.Tune, st *status.Status, injectors []*FuelSchedule,
) int {
	if tune.Fuel.Priming == nil {
		return 0
	}

	value := tune.Fuel.Priming.Lookup(int32(st.Coolant) + tempOffset)
	if value <= 0 || st.TPS >= tune.Corrections.FloodClear {
		return 0
	}

	duration := uint32(value) * primingUnit
	channels := min(int(tune.Outputs().MaxInj), len(injectors))

	armed := 0
	for _, inj := range injectors[:channels] {
		if inj.Set(primingDelay, duration, false) {
			armed++
		}
	}

	return armed
}
