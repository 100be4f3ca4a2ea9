// Package ecu runs the control loop that ties the fuel, ignition and
// protection calculations to the output schedules.
//
// A Controller reads the crank position from a Decoder and the sensors from
// a SensorReader, recomputes the engine outputs and arms the injector and
// coil schedules. The schedules call back into an OutputDriver when an
// output opens or closes.
package ecu

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

// Decoder reports where the crank is.
type Decoder interface {
	// Update writes RPM, sync, crank angle, revolution time and the
	// revolution count at time now, in µs.
	Update(st *status.Status, now uint64)
}

// TuneSource hands out the calibration in force. The controller asks for it
// on every iteration, so committed calibration writes apply from the next
// one.
type TuneSource interface {
	Active() *config.Tune
}

// SensorReader samples the engine sensors.
type SensorReader interface {
	// Read writes the sensor fields, including the previous TPS and MAP
	// readings and their rates of change, at time now, in µs.
	Read(st *status.Status, now uint64)
}

// OutputDriver switches the physical outputs. Channels count from 0.
type OutputDriver interface {
	OpenInjector(ch int)
	CloseInjector(ch int)
	BeginCoilCharge(ch int)
	FireCoil(ch int)
}
