package ecu

import (
	"math"

	"github.com/sarchlab/ecucore/timing"
)

// Clock tells the time in µs.
type Clock interface {
	NowMicros() uint64
}

// EngineClock reads the time of a discrete-event engine.
type EngineClock struct {
	TimeTeller timing.TimeTeller
	Registry   *timing.FrequencyRegistry
}

// NowMicros converts the engine time to µs.
func (c EngineClock) NowMicros() uint64 {
	sec := float64(c.Registry.CyclesToSeconds(c.TimeTeller.CurrentTime()))
	return uint64(math.Round(sec * 1e6))
}
