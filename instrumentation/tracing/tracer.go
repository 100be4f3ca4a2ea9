package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/ecucore/idgen"
	"github.com/sarchlab/ecucore/instrumentation/hooking"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/timing"
)

// Pulse is one opening of an output.
type Pulse struct {
	ID      idgen.ID
	Channel string
	Start   timing.VTimeInCycle
	End     timing.VTimeInCycle
}

// Width returns the open time of a closed pulse in cycles.
func (p Pulse) Width() timing.VTimeInCycle {
	return p.End - p.Start
}

// Tracer receives pulses. EndPulse gets the same ID and channel as the
// matching StartPulse.
type Tracer interface {
	StartPulse(p Pulse)
	EndPulse(p Pulse)
}

// CollectTrace makes tracer see the pulses of a schedule. Attaching the same
// tracer twice panics.
func CollectTrace(
	domain hooking.Hookable,
	tracer Tracer,
	timeTeller timing.TimeTeller,
) {
	for _, h := range domain.Hooks() {
		if th, ok := h.(*traceHook); ok && th.t == tracer {
			panic(fmt.Sprintf("tracing: domain already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&traceHook{
		t:          tracer,
		timeTeller: timeTeller,
		open:       make(map[string]idgen.ID),
	})
}

// traceHook pairs the opening and closing transitions of each channel. A
// channel has at most one pulse open at a time.
type traceHook struct {
	t          Tracer
	timeTeller timing.TimeTeller
	open       map[string]idgen.ID
}

func (h *traceHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != schedule.HookPosTransition {
		return
	}

	tr, ok := ctx.Item.(schedule.Transition)
	if !ok {
		return
	}

	now := h.timeTeller.CurrentTime()

	switch {
	case tr.From == schedule.Pending && tr.To == schedule.Running:
		h.open[tr.Schedule] = tr.ID
		h.t.StartPulse(Pulse{ID: tr.ID, Channel: tr.Schedule, Start: now})
	case tr.From.IsRunning() && !tr.To.IsRunning():
		id, wasOpen := h.open[tr.Schedule]
		if !wasOpen {
			return
		}

		delete(h.open, tr.Schedule)
		h.t.EndPulse(Pulse{ID: id, Channel: tr.Schedule, End: now})
	}
}
