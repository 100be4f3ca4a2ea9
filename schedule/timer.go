package schedule

import (
	"fmt"
	"sync"

	"github.com/sarchlab/ecucore/timing"
)

// Timer is one output-compare channel of a free running 16-bit counter.
type Timer interface {
	// Counter returns the current counter value.
	Counter() uint16

	// SetCompare sets the value at which the next match fires.
	SetCompare(compare uint16)

	// Enable turns the compare interrupt on.
	Enable()

	// Disable turns the compare interrupt off.
	Disable()

	// MicrosToTicks converts a duration in µs to counter ticks. The duration
	// must be shorter than MaxPeriod. A non-zero duration is at least one
	// tick.
	MicrosToTicks(us uint32) uint16

	// TicksToMicros converts counter ticks to µs.
	TicksToMicros(ticks uint16) uint32

	// MaxPeriod is the longest duration, in µs, the counter can represent.
	MaxPeriod() uint32
}

// CompareHandler receives compare matches.
type CompareHandler interface {
	OnCompareMatch()
}

// CompareMatchEvent is delivered by the timing engine when a compare is due.
type CompareMatchEvent struct {
	generation uint64
}

// CompareTimer is a Timer running on a timing engine. The counter is derived
// from the engine time, so it never needs to be advanced by hand.
type CompareTimer struct {
	mu sync.Mutex

	name    string
	engine  timing.EventScheduler
	domain  *timing.FreqDomain
	tickUs  uint32
	handler CompareHandler

	compare    uint16
	enabled    bool
	generation uint64
}

// NewCompareTimer registers a clock of one tick every tickUs µs and returns
// a timer counting on it.
func NewCompareTimer(
	name string,
	engine timing.EventScheduler,
	registry *timing.FrequencyRegistry,
	tickUs uint32,
) (*CompareTimer, error) {
	if tickUs == 0 || uint32(timing.MHz)%tickUs != 0 {
		return nil, fmt.Errorf("schedule: tick of %d µs does not divide 1 s", tickUs)
	}

	domain, err := registry.RegisterFrequency(timing.MHz / timing.FreqInHz(tickUs))
	if err != nil {
		return nil, fmt.Errorf("schedule: timer %s: %w", name, err)
	}

	return &CompareTimer{
		name:   name,
		engine: engine,
		domain: domain,
		tickUs: tickUs,
	}, nil
}

// Name returns the name of the timer.
func (t *CompareTimer) Name() string {
	return t.name
}

// SetMatchHandler sets who is interrupted on a compare match.
func (t *CompareTimer) SetMatchHandler(h CompareHandler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Counter returns the current counter value.
func (t *CompareTimer) Counter() uint16 {
	return uint16(t.domain.TickCount(t.engine.CurrentTime()))
}

// SetCompare sets the compare value. An enabled timer is re-armed.
func (t *CompareTimer) SetCompare(compare uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.compare = compare
	if t.enabled {
		t.arm()
	}
}

// Enable turns the compare interrupt on.
func (t *CompareTimer) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = true
	t.arm()
}

// Disable turns the compare interrupt off. A match already scheduled in the
// engine is dropped when it arrives.
func (t *CompareTimer) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = false
	t.generation++
}

// IsEnabled reports whether the compare interrupt is on.
func (t *CompareTimer) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.enabled
}

// MicrosToTicks converts µs to ticks, truncating. A non-zero span shorter
// than a tick becomes one tick, since a compare equal to the counter would
// wait a full wrap.
func (t *CompareTimer) MicrosToTicks(us uint32) uint16 {
	ticks := uint16(us / t.tickUs)
	if ticks == 0 && us != 0 {
		return 1
	}

	return ticks
}

// TicksToMicros converts ticks to µs.
func (t *CompareTimer) TicksToMicros(ticks uint16) uint32 {
	return uint32(ticks) * t.tickUs
}

// MaxPeriod returns the span of a full counter wrap minus one tick.
func (t *CompareTimer) MaxPeriod() uint32 {
	return 0xFFFF * t.tickUs
}

// arm schedules the next match. A compare equal to the counter matches after
// a full wrap, like the hardware does.
func (t *CompareTimer) arm() {
	t.generation++

	now := t.engine.CurrentTime()
	stride := t.domain.Stride()
	counter := uint16(t.domain.TickCount(now))

	delta := timing.VTimeInCycle(t.compare - counter)
	if delta == 0 {
		delta = 1 << 16
	}

	t.engine.Schedule(timing.ScheduledEvent{
		Event:   &CompareMatchEvent{generation: t.generation},
		Time:    now - now%stride + delta*stride,
		Handler: t,
	})
}

// Handle fires the compare interrupt.
func (t *CompareTimer) Handle(event any) error {
	evt, ok := event.(*CompareMatchEvent)
	if !ok {
		return fmt.Errorf("schedule: timer %s cannot handle %T", t.name, event)
	}

	t.mu.Lock()
	live := t.enabled && evt.generation == t.generation
	handler := t.handler
	t.mu.Unlock()

	if !live || handler == nil {
		return nil
	}

	handler.OnCompareMatch()

	return nil
}

var _ Timer = (*CompareTimer)(nil)
