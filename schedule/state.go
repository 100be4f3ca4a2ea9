// Package schedule drives the injector and coil outputs. Each output channel
// owns a Schedule: a small state machine on top of one output-compare timer
// that opens the output when the compare first matches and closes it when it
// matches again.
package schedule

// Status is the state of a Schedule.
type Status uint8

// Schedule states.
const (
	// Off means nothing is armed and the timer is disabled.
	Off Status = iota

	// Pending means the start compare is armed.
	Pending

	// Running means the output is open and the end compare is armed.
	Running

	// RunningWithNext is Running with a follow-up start already queued.
	RunningWithNext
)

func (s Status) String() string {
	switch s {
	case Off:
		return "Off"
	case Pending:
		return "Pending"
	case Running:
		return "Running"
	case RunningWithNext:
		return "RunningWithNext"
	default:
		return "Unknown"
	}
}

// IsRunning reports whether the output is currently open.
func (s Status) IsRunning() bool {
	return s == Running || s == RunningWithNext
}
