package ecu

import (
	"log"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/fuel"
	"github.com/sarchlab/ecucore/ignition"
	"github.com/sarchlab/ecucore/protect"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/status"
)

// Builder creates Controllers.
type Builder struct {
	tune      *config.Tune
	tunes     TuneSource
	st        *status.Status
	decoder   Decoder
	sensors   SensorReader
	random    protect.RandomSource
	conv      *schedule.AngleConverter
	injectors []*schedule.FuelSchedule
	coils     []*schedule.IgnitionSchedule
	logger    *log.Logger
	priming   bool
}

// MakeBuilder creates a Builder with priming enabled and a random source
// seeded with 1.
func MakeBuilder() Builder {
	return Builder{
		random:  protect.NewRandomSource(1),
		priming: true,
	}
}

// WithTune sets the calibration.
func (b Builder) WithTune(tune *config.Tune) Builder {
	b.tune = tune
	return b
}

// WithTuneStore makes the controller follow the active tune of a store
// instead of a fixed tune.
func (b Builder) WithTuneStore(s TuneSource) Builder {
	b.tunes = s
	return b
}

// WithStatus sets the status the controller owns. A fresh one is created if
// none is given.
func (b Builder) WithStatus(st *status.Status) Builder {
	b.st = st
	return b
}

// WithDecoder sets the crank decoder.
func (b Builder) WithDecoder(d Decoder) Builder {
	b.decoder = d
	return b
}

// WithSensors sets the sensor reader.
func (b Builder) WithSensors(s SensorReader) Builder {
	b.sensors = s
	return b
}

// WithRandomSource sets the dice of the rolling cut.
func (b Builder) WithRandomSource(r protect.RandomSource) Builder {
	b.random = r
	return b
}

// WithAngleConverter sets the converter shared with the schedules.
func (b Builder) WithAngleConverter(c *schedule.AngleConverter) Builder {
	b.conv = c
	return b
}

// WithInjectors sets the injector schedules, one per channel.
func (b Builder) WithInjectors(s []*schedule.FuelSchedule) Builder {
	b.injectors = s
	return b
}

// WithCoils sets the coil schedules, one per channel.
func (b Builder) WithCoils(s []*schedule.IgnitionSchedule) Builder {
	b.coils = s
	return b
}

// WithLogger makes the controller log engine start, stall and priming.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithoutPriming skips the priming pulse on the first iteration.
func (b Builder) WithoutPriming() Builder {
	b.priming = false
	return b
}

// Build creates the Controller. A missing tune, decoder, sensor reader or
// angle converter is a wiring error and panics.
func (b Builder) Build() *Controller {
	tune := b.tune
	if b.tunes != nil {
		tune = b.tunes.Active()
	}

	switch {
	case tune == nil:
		panic("ecu: controller needs a tune")
	case b.decoder == nil:
		panic("ecu: controller needs a decoder")
	case b.sensors == nil:
		panic("ecu: controller needs a sensor reader")
	case b.conv == nil:
		panic("ecu: controller needs an angle converter")
	}

	st := b.st
	if st == nil {
		st = status.New()
	}

	soft := protect.NewSoftLimiter()

	return &Controller{
		tune:      tune,
		tunes:     b.tunes,
		st:        st,
		decoder:   b.decoder,
		sensors:   b.sensors,
		corrector: fuel.NewCorrector(),
		soft:      soft,
		advancer:  ignition.NewAdvancer(soft),
		protector: protect.NewProtector(b.random),
		conv:      b.conv,
		injectors: b.injectors,
		coils:     b.coils,
		logger:    b.logger,
		primed:    !b.priming,
	}
}
