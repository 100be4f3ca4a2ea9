// Package tracing turns the state changes of output schedules into pulses.
//
// A schedule raises a hook on every transition. CollectTrace attaches a hook
// that recognises when an output opens (Pending to Running) and when it
// closes (leaving a running state for Off or Pending) and reports both ends
// of the pulse to a Tracer. The tracers in this package total, count, store
// or list the pulses they see.
package tracing
