package schedule

import (
	"sync"

	"github.com/sarchlab/ecucore/idgen"
	"github.com/sarchlab/ecucore/instrumentation/hooking"
)

// HookPosTransition marks every change of a schedule's state. The hook item
// is a Transition.
var HookPosTransition = &hooking.HookPos{Name: "ScheduleTransition"}

// Transition describes one state change of a schedule.
type Transition struct {
	Schedule string
	From     Status
	To       Status

	// ID identifies the armed event the transition belongs to.
	ID idgen.ID

	// Counter is the timer counter at the transition.
	Counter uint16
}

// Callback opens or closes an output.
type Callback func()

// TransitionFunc performs one state transition. It runs inside the
// schedule's critical section.
type TransitionFunc func(s *Schedule)

// Transitions are the functions applied on a compare match, one per state
// that can see a match.
type Transitions struct {
	PendingToRunning TransitionFunc
	RunningToOff     TransitionFunc
	RunningToPending TransitionFunc
}

// DefaultTransitions returns the plain open and close transitions.
func DefaultTransitions() Transitions {
	return Transitions{
		PendingToRunning: DefaultPendingToRunning,
		RunningToOff:     DefaultRunningToOff,
		RunningToPending: DefaultRunningToPending,
	}
}

// Schedule is one output channel. The control loop arms it with Set and the
// compare interrupt walks it through its states with OnCompareMatch.
//
// Callbacks run inside the critical section and must not call back into the
// same schedule.
type Schedule struct {
	*hooking.HookableBase

	mu sync.Mutex

	name        string
	timer       Timer
	start       Callback
	end         Callback
	transitions Transitions
	ids         idgen.Generator

	status           Status
	disabled         bool
	duration         uint32
	nextStartCompare uint16
	currentID        idgen.ID
	nextID           idgen.ID
}

// NewSchedule creates an idle schedule on the given timer.
func NewSchedule(name string, timer Timer, start, end Callback) *Schedule {
	return &Schedule{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		timer:        timer,
		start:        start,
		end:          end,
		transitions:  DefaultTransitions(),
	}
}

// Name returns the name of the schedule.
func (s *Schedule) Name() string {
	return s.name
}

// SetTransitions replaces the compare-match transitions.
func (s *Schedule) SetTransitions(t Transitions) {
	s.mu.Lock()
	s.transitions = t
	s.mu.Unlock()
}

// SetIDGenerator makes the schedule tag every armed event with an ID.
func (s *Schedule) SetIDGenerator(g idgen.Generator) {
	s.mu.Lock()
	s.ids = g
	s.mu.Unlock()
}

// Status returns the current state.
func (s *Schedule) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Duration returns the duration of the armed or running event in µs.
func (s *Schedule) Duration() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.duration
}

// IsDisabled reports whether arming is blocked.
func (s *Schedule) IsDisabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.disabled
}

// Set asks for the output to open timeout µs from now and stay open for
// duration µs. It returns false if the request was dropped.
//
// An idle or pending schedule is re-armed. A running schedule keeps its
// current event and, if allowQueue is set, remembers the request as the next
// one.
func (s *Schedule) Set(timeout, duration uint32, allowQueue bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxPeriod := s.timer.MaxPeriod()
	if s.disabled || timeout == 0 || timeout >= maxPeriod || duration == 0 {
		return false
	}

	if duration >= maxPeriod {
		duration = maxPeriod - 1
	}

	from := s.status
	switch s.status {
	case Off, Pending:
		s.duration = duration
		s.currentID = s.generateID()
		s.timer.SetCompare(s.timer.Counter() + s.timer.MicrosToTicks(timeout))
		s.status = Pending
		s.timer.Enable()
	default:
		if !allowQueue {
			return false
		}

		// The end compare of the running event is already set, so the
		// duration can be replaced here.
		s.duration = duration
		s.nextID = s.generateID()
		s.nextStartCompare = s.timer.Counter() + s.timer.MicrosToTicks(timeout)
		s.status = RunningWithNext
	}

	s.notify(from)

	return true
}

// OnCompareMatch is the compare interrupt of the schedule's timer.
func (s *Schedule) OnCompareMatch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.moveToNextState(s.transitions)
}

// MoveToNextState advances the schedule with the given transitions instead
// of the configured ones.
func (s *Schedule) MoveToNextState(
	pendingToRunning, runningToOff, runningToPending TransitionFunc,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.moveToNextState(Transitions{
		PendingToRunning: pendingToRunning,
		RunningToOff:     runningToOff,
		RunningToPending: runningToPending,
	})
}

func (s *Schedule) moveToNextState(t Transitions) {
	from := s.status

	switch s.status {
	case Pending:
		t.PendingToRunning(s)
	case Running:
		t.RunningToOff(s)
	case RunningWithNext:
		t.RunningToPending(s)
	default:
		// Spurious match.
		s.timer.Disable()
		return
	}

	s.notify(from)
}

// Disable blocks further arming. A pending event is dropped and a queued one
// forgotten. An open output still closes on time.
func (s *Schedule) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disabled = true

	from := s.status
	switch s.status {
	case Pending:
		s.status = Off
		s.timer.Disable()
	case RunningWithNext:
		s.status = Running
	}

	if from != s.status {
		s.notify(from)
	}
}

// Enable allows arming again.
func (s *Schedule) Enable() {
	s.mu.Lock()
	s.disabled = false
	s.mu.Unlock()
}

// DefaultPendingToRunning opens the output and arms the end compare.
func DefaultPendingToRunning(s *Schedule) {
	s.callStart()
	s.status = Running
	s.timer.SetCompare(s.timer.Counter() + s.timer.MicrosToTicks(s.duration))
}

// DefaultRunningToOff closes the output and stops the timer.
func DefaultRunningToOff(s *Schedule) {
	s.callEnd()
	s.status = Off
	s.timer.Disable()
}

// DefaultRunningToPending closes the output and arms the queued start.
func DefaultRunningToPending(s *Schedule) {
	s.callEnd()
	s.currentID = s.nextID
	s.timer.SetCompare(s.nextStartCompare)
	s.status = Pending
}

func (s *Schedule) callStart() {
	if s.start != nil {
		s.start()
	}
}

func (s *Schedule) callEnd() {
	if s.end != nil {
		s.end()
	}
}

func (s *Schedule) generateID() idgen.ID {
	if s.ids == nil {
		return 0
	}

	return s.ids.Generate()
}

func (s *Schedule) notify(from Status) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosTransition,
		Item: Transition{
			Schedule: s.name,
			From:     from,
			To:       s.status,
			ID:       s.currentID,
			Counter:  s.timer.Counter(),
		},
	})
}
