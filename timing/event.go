package timing

// Handler processes events. Events are plain data; handlers switch on the
// concrete type:
//
//	func (c *Channel) Handle(event any) error {
//	    switch e := event.(type) {
//	    case *CompareMatchEvent:
//	        // fire the interrupt
//	    default:
//	        return fmt.Errorf("unknown event type: %T", event)
//	    }
//	    return nil
//	}
type Handler interface {
	Handle(event any) error
}

// TimeTeller exposes the current time of the timeline.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler schedules events in the timeline.
type EventScheduler interface {
	TimeTeller
	Schedule(event ScheduledEvent)
}

// ScheduledEvent wraps a user event with the metadata the engine needs.
type ScheduledEvent struct {
	// Event is the payload delivered to the handler, usually a pointer.
	Event any

	// Time is the cycle at which the event is handled.
	Time VTimeInCycle

	// Handler receives the event.
	Handler Handler

	// IsSecondary events run after all primary events of the same cycle.
	// The control loop is secondary so that interrupts due in the same
	// cycle are serviced first.
	IsSecondary bool

	seq uint64
}
