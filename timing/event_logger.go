package timing

import (
	"log"
	"reflect"

	"github.com/sarchlab/ecucore/instrumentation/hooking"
)

// EventLogger is a hook that prints every event before it is handled.
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger returns an EventLogger writing into logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)

	h.logger = logger

	return h
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*ScheduledEvent)
	if !ok {
		return
	}

	handler := "<nil>"
	if evt.Handler != nil {
		handler = reflect.TypeOf(evt.Handler).String()
	}

	h.logger.Printf("%d, %s -> %s", evt.Time, reflect.TypeOf(evt.Event), handler)
}
