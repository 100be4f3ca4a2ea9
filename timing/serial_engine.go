package timing

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/sarchlab/ecucore/instrumentation/hooking"
)

// SerialEngine handles scheduled events one at a time in time order.
type SerialEngine struct {
	*hooking.HookableBase

	timeLock sync.RWMutex
	now      VTimeInCycle

	queue          eventQueue
	secondaryQueue eventQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine at time 0.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		HookableBase:   hooking.NewHookableBase(),
		queue:          newScheduledEventQueue(),
		secondaryQueue: newScheduledEventQueue(),
	}
}

// Schedule registers an event to be handled in the future. Scheduling in the
// past is a programming error and panics.
func (e *SerialEngine) Schedule(evt ScheduledEvent) {
	now := e.readNow()
	if evt.Time < now {
		panic(fmt.Sprintf(
			"timing: cannot schedule event in the past, evt %s @ %d, now %d",
			reflect.TypeOf(evt.Event), evt.Time, now,
		))
	}

	eventCopy := evt
	if evt.IsSecondary {
		e.secondaryQueue.Push(&eventCopy)
		return
	}

	e.queue.Push(&eventCopy)
}

func (e *SerialEngine) readNow() VTimeInCycle {
	e.timeLock.RLock()
	t := e.now
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInCycle) {
	e.timeLock.Lock()
	e.now = t
	e.timeLock.Unlock()
}

// Run handles events until the queues are empty or a handler fails.
func (e *SerialEngine) Run() error {
	return e.run(func(*ScheduledEvent) bool { return true })
}

// RunUntil handles every event due at or before deadline and then moves the
// current time to deadline. Later events stay queued.
func (e *SerialEngine) RunUntil(deadline VTimeInCycle) error {
	err := e.run(func(next *ScheduledEvent) bool {
		return next.Time <= deadline
	})
	if err != nil {
		return err
	}

	if e.readNow() < deadline {
		e.writeNow(deadline)
	}

	return nil
}

func (e *SerialEngine) run(due func(*ScheduledEvent) bool) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		e.pauseLock.Lock()

		next := e.peekEvent()
		if next == nil || !due(next) {
			e.pauseLock.Unlock()
			return nil
		}

		evt := e.nextEvent()
		if err := e.handle(evt); err != nil {
			e.pauseLock.Unlock()
			return err
		}

		e.pauseLock.Unlock()
	}
}

func (e *SerialEngine) handle(evt *ScheduledEvent) error {
	now := e.readNow()
	if evt.Time < now {
		panic(fmt.Sprintf(
			"timing: cannot run event in the past, evt %s @ %d, now %d",
			reflect.TypeOf(evt.Event), evt.Time, now,
		))
	}

	e.writeNow(evt.Time)

	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	if evt.Handler != nil {
		if err := evt.Handler.Handle(evt.Event); err != nil {
			return fmt.Errorf("timing: handling %s @ %d: %w",
				reflect.TypeOf(evt.Event), evt.Time, err)
		}
	}

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	return nil
}

func (e *SerialEngine) peekEvent() *ScheduledEvent {
	primary := e.queue.Peek()
	secondary := e.secondaryQueue.Peek()

	switch {
	case primary == nil:
		return secondary
	case secondary == nil:
		return primary
	case primary.Time <= secondary.Time:
		return primary
	default:
		return secondary
	}
}

func (e *SerialEngine) nextEvent() *ScheduledEvent {
	if e.queue.Len() == 0 {
		return e.secondaryQueue.Pop()
	}

	if e.secondaryQueue.Len() == 0 {
		return e.queue.Pop()
	}

	primary := e.queue.Peek()
	secondary := e.secondaryQueue.Peek()

	if primary.Time <= secondary.Time {
		return e.queue.Pop()
	}

	return e.secondaryQueue.Pop()
}

// Pending returns the number of events waiting in the queues.
func (e *SerialEngine) Pending() int {
	return e.queue.Len() + e.secondaryQueue.Len()
}

// Pause stops event handling until Continue is called.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue resumes event handling after Pause.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// IsPaused reports whether the engine is paused.
func (e *SerialEngine) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}

// CurrentTime returns the time of the event being or last handled.
func (e *SerialEngine) CurrentTime() VTimeInCycle {
	return e.readNow()
}

var _ EventScheduler = (*SerialEngine)(nil)
