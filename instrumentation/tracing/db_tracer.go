package tracing

import (
	"sync"

	"github.com/sarchlab/ecucore/datarecording"
	"github.com/sarchlab/ecucore/instrumentation/hooking"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/timing"
)

// Table names written by the DB tracers.
const (
	PulseTable      = "pulses"
	TransitionTable = "transitions"
)

// SecondsConverter converts engine cycles to seconds.
type SecondsConverter interface {
	CyclesToSeconds(cycles timing.VTimeInCycle) timing.VTimeInSec
}

// DBTracer stores every closed pulse as a row of the pulses table.
type DBTracer struct {
	mu       sync.Mutex
	backend  datarecording.DataRecorder
	conv     SecondsConverter
	kinds    map[string]string
	inflight map[string]Pulse
}

// NewDBTracer creates the pulses table on backend.
func NewDBTracer(
	backend datarecording.DataRecorder,
	conv SecondsConverter,
) *DBTracer {
	backend.CreateTable(PulseTable, datarecording.PulseEntry{})

	return &DBTracer{
		backend:  backend,
		conv:     conv,
		kinds:    make(map[string]string),
		inflight: make(map[string]Pulse),
	}
}

// SetKind labels the pulses of a channel, for example "injection" or
// "dwell".
func (t *DBTracer) SetKind(channel, kind string) {
	t.mu.Lock()
	t.kinds[channel] = kind
	t.mu.Unlock()
}

// StartPulse remembers when the pulse opened.
func (t *DBTracer) StartPulse(p Pulse) {
	t.mu.Lock()
	t.inflight[p.Channel] = p
	t.mu.Unlock()
}

// EndPulse writes the pulse.
func (t *DBTracer) EndPulse(p Pulse) {
	t.mu.Lock()
	open, ok := t.inflight[p.Channel]
	delete(t.inflight, p.Channel)
	kind := t.kinds[p.Channel]
	t.mu.Unlock()

	if !ok {
		return
	}

	start := float64(t.conv.CyclesToSeconds(open.Start))
	end := float64(t.conv.CyclesToSeconds(p.End))

	t.backend.InsertData(PulseTable, datarecording.PulseEntry{
		ID:      uint64(open.ID),
		Channel: p.Channel,
		Kind:    kind,
		Start:   start,
		End:     end,
		WidthUs: (end - start) * 1e6,
	})
}

// Terminate flushes the backend.
func (t *DBTracer) Terminate() {
	t.backend.Flush()
}

// TransitionRecorder is a hook that stores every schedule transition as a
// row of the transitions table.
type TransitionRecorder struct {
	backend    datarecording.DataRecorder
	timeTeller timing.TimeTeller
	conv       SecondsConverter
}

// NewTransitionRecorder creates the transitions table on backend.
func NewTransitionRecorder(
	backend datarecording.DataRecorder,
	timeTeller timing.TimeTeller,
	conv SecondsConverter,
) *TransitionRecorder {
	backend.CreateTable(TransitionTable, datarecording.TransitionEntry{})

	return &TransitionRecorder{
		backend:    backend,
		timeTeller: timeTeller,
		conv:       conv,
	}
}

// Func stores one transition.
func (r *TransitionRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != schedule.HookPosTransition {
		return
	}

	tr := ctx.Item.(schedule.Transition)
	r.backend.InsertData(TransitionTable, datarecording.TransitionEntry{
		Time:     float64(r.conv.CyclesToSeconds(r.timeTeller.CurrentTime())),
		Schedule: tr.Schedule,
		EventID:  uint64(tr.ID),
		From:     tr.From.String(),
		To:       tr.To.String(),
	})
}
