package tracing

import (
	"fmt"
	"sync"

	"github.com/sarchlab/ecucore/instrumentation/hooking"
	"github.com/sarchlab/ecucore/schedule"
)

// TransitionCountTracer counts how often each kind of transition happens.
// It is a hook and is attached directly with AcceptHook.
type TransitionCountTracer struct {
	lock   sync.Mutex
	names  []string
	counts map[string]uint64
}

// NewTransitionCountTracer creates a TransitionCountTracer.
func NewTransitionCountTracer() *TransitionCountTracer {
	return &TransitionCountTracer{counts: make(map[string]uint64)}
}

func transitionName(from, to schedule.Status) string {
	return fmt.Sprintf("%s->%s", from, to)
}

// Func counts one transition.
func (t *TransitionCountTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != schedule.HookPosTransition {
		return
	}

	tr := ctx.Item.(schedule.Transition)
	name := transitionName(tr.From, tr.To)

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, seen := t.counts[name]; !seen {
		t.names = append(t.names, name)
	}

	t.counts[name]++
}

// Names returns the transitions seen, in order of first appearance.
func (t *TransitionCountTracer) Names() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.names...)
}

// Count returns how often the transition from one state to another was
// taken.
func (t *TransitionCountTracer) Count(from, to schedule.Status) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[transitionName(from, to)]
}

// CountOf returns the count of a transition as named by Names.
func (t *TransitionCountTracer) CountOf(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[name]
}
