// Package timing provides the discrete-event timeline the ECU runs on.
//
// Time advances in integer cycles of a single global resolution. Clock
// domains (the microsecond system clock, the prescaled output-compare timers)
// register their frequency and get a stride in global cycles. Interrupts and
// control-loop iterations are events handed to a SerialEngine.
package timing

// VTimeInCycle is a point on the global timeline, in global cycles.
type VTimeInCycle uint64

// VTimeInSec is a duration or point in time expressed in seconds.
type VTimeInSec float64

// FreqInHz is a clock frequency.
type FreqInHz uint64

// Frequency units.
const (
	Hz  FreqInHz = 1
	KHz FreqInHz = 1000 * Hz
	MHz FreqInHz = 1000 * KHz
	GHz FreqInHz = 1000 * MHz
)
