package tracing

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// PulsePrinter prints a pulse.
type PulsePrinter interface {
	Print(p Pulse)
}

type defaultPulsePrinter struct {
	w io.Writer
}

func (p defaultPulsePrinter) Print(pulse Pulse) {
	fmt.Fprintf(p.w, "%s open since %d (event %d)\n",
		pulse.Channel, pulse.Start, pulse.ID)
}

// BackTraceTracer keeps the pulses that have opened but not closed, which is
// what a stuck output looks like.
type BackTraceTracer struct {
	printer PulsePrinter
	lock    sync.Mutex
	open    map[string]Pulse
}

// NewBackTraceTracer creates a BackTraceTracer. A nil printer prints to
// stderr.
func NewBackTraceTracer(printer PulsePrinter) *BackTraceTracer {
	if printer == nil {
		printer = defaultPulsePrinter{w: os.Stderr}
	}

	return &BackTraceTracer{
		printer: printer,
		open:    make(map[string]Pulse),
	}
}

// StartPulse records an open pulse.
func (t *BackTraceTracer) StartPulse(p Pulse) {
	t.lock.Lock()
	t.open[p.Channel] = p
	t.lock.Unlock()
}

// EndPulse forgets a closed pulse.
func (t *BackTraceTracer) EndPulse(p Pulse) {
	t.lock.Lock()
	delete(t.open, p.Channel)
	t.lock.Unlock()
}

// Open returns the open pulses ordered by channel.
func (t *BackTraceTracer) Open() []Pulse {
	t.lock.Lock()
	defer t.lock.Unlock()

	pulses := make([]Pulse, 0, len(t.open))
	for _, p := range t.open {
		pulses = append(pulses, p)
	}

	sort.Slice(pulses, func(i, j int) bool {
		return pulses[i].Channel < pulses[j].Channel
	})

	return pulses
}

// DumpBackTrace prints every open pulse.
func (t *BackTraceTracer) DumpBackTrace() {
	for _, p := range t.Open() {
		t.printer.Print(p)
	}
}
