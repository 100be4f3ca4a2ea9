package ecu

import (
	"fmt"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/status"
	"github.com/sarchlab/ecucore/timing"
)

// Outputs are the injector and coil schedules of an ECU, each running on its
// own compare timer.
type Outputs struct {
	Injectors []*schedule.FuelSchedule
	Coils     []*schedule.IgnitionSchedule
	Converter *schedule.AngleConverter
}

// NewOutputs creates one injector and one coil schedule per channel. The
// timers tick every tickUs µs on engine. driver is switched when an output
// opens or closes.
func NewOutputs(
	engine timing.EventScheduler,
	registry *timing.FrequencyRegistry,
	driver OutputDriver,
	tune *config.Tune,
	tickUs uint32,
) (*Outputs, error) {
	layout := tune.Outputs()
	o := &Outputs{}

	for i := 0; i < status.Channels; i++ {
		ch := i

		injTimer, err := schedule.NewCompareTimer(
			fmt.Sprintf("inj%d", ch+1), engine, registry, tickUs)
		if err != nil {
			return nil, fmt.Errorf("ecu: injector %d: %w", ch+1, err)
		}

		inj := schedule.NewFuelSchedule(injTimer.Name(), injTimer,
			func() { driver.OpenInjector(ch) },
			func() { driver.CloseInjector(ch) },
			layout.CrankAngleMaxInj)
		injTimer.SetMatchHandler(inj)
		o.Injectors = append(o.Injectors, inj)

		ignTimer, err := schedule.NewCompareTimer(
			fmt.Sprintf("ign%d", ch+1), engine, registry, tickUs)
		if err != nil {
			return nil, fmt.Errorf("ecu: coil %d: %w", ch+1, err)
		}

		coil := schedule.NewIgnitionSchedule(ignTimer.Name(), ignTimer,
			func() { driver.BeginCoilCharge(ch) },
			func() { driver.FireCoil(ch) },
			layout.CrankAngleMaxIgn)
		ignTimer.SetMatchHandler(coil)
		o.Coils = append(o.Coils, coil)

		if o.Converter == nil {
			o.Converter = schedule.NewAngleConverter(injTimer.MaxPeriod())
		}
	}

	return o, nil
}

// Schedules returns every schedule, injectors first.
func (o *Outputs) Schedules() []*schedule.Schedule {
	all := make([]*schedule.Schedule, 0, len(o.Injectors)+len(o.Coils))
	for _, inj := range o.Injectors {
		all = append(all, inj.Schedule)
	}

	for _, coil := range o.Coils {
		all = append(all, coil.Schedule)
	}

	return all
}
