package ecu

import (
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/ecucore/status"
)

// OutputKind tells injectors from coils.
type OutputKind int

// Output kinds.
const (
	Injector OutputKind = iota
	Coil
)

func (k OutputKind) String() string {
	if k == Injector {
		return "injection"
	}

	return "dwell"
}

// OutputStats is what an OutputRecorder measured on one channel. Widths are
// in µs. Stray counts closes that had no matching open.
type OutputStats struct {
	Opens     uint64
	Closes    uint64
	Stray     uint64
	LastWidth uint64
	Total     uint64
	Min       uint64
	Max       uint64

	open   bool
	openAt uint64
}

// IsOpen reports whether the output is on.
func (s OutputStats) IsOpen() bool {
	return s.open
}

// Average returns the mean width of the closed pulses in µs.
func (s OutputStats) Average() uint64 {
	if s.Closes == 0 {
		return 0
	}

	return s.Total / s.Closes
}

// OutputRecorder is an OutputDriver that measures the realised injector
// pulses and coil dwells instead of switching hardware.
type OutputRecorder struct {
	mu     sync.Mutex
	clock  Clock
	logger *log.Logger
	stats  [2][status.Channels]OutputStats
}

// NewOutputRecorder creates an OutputRecorder. Logger may be nil; if set,
// outputs that close without having opened are reported.
func NewOutputRecorder(clock Clock, logger *log.Logger) *OutputRecorder {
	return &OutputRecorder{clock: clock, logger: logger}
}

// OpenInjector starts an injector pulse.
func (r *OutputRecorder) OpenInjector(ch int) {
	r.open(Injector, ch)
}

// CloseInjector ends an injector pulse.
func (r *OutputRecorder) CloseInjector(ch int) {
	r.close(Injector, ch)
}

// BeginCoilCharge starts a dwell.
func (r *OutputRecorder) BeginCoilCharge(ch int) {
	r.open(Coil, ch)
}

// FireCoil ends a dwell with a spark.
func (r *OutputRecorder) FireCoil(ch int) {
	r.close(Coil, ch)
}

// Stats returns the measurements of one channel.
func (r *OutputRecorder) Stats(kind OutputKind, ch int) OutputStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stats[kind][ch]
}

func (r *OutputRecorder) open(kind OutputKind, ch int) {
	now := r.clock.NowMicros()

	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.stats[kind][ch]
	s.Opens++
	s.open = true
	s.openAt = now
}

func (r *OutputRecorder) close(kind OutputKind, ch int) {
	now := r.clock.NowMicros()

	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.stats[kind][ch]
	if !s.open {
		s.Stray++
		r.logf("%s channel %d closed while not open", kind, ch+1)

		return
	}

	width := now - s.openAt
	s.Closes++
	s.open = false
	s.LastWidth = width
	s.Total += width

	if s.Closes == 1 || width < s.Min {
		s.Min = width
	}

	s.Max = max(s.Max, width)
}

func (r *OutputRecorder) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Output(2, fmt.Sprintf(format, args...))
	}
}
