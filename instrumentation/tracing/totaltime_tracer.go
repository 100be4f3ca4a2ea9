package tracing

import (
	"sync"

	"github.com/sarchlab/ecucore/timing"
)

// ChannelTime is what a TotalTimeTracer collected for one channel.
type ChannelTime struct {
	Pulses uint64
	Total  timing.VTimeInCycle
	Min    timing.VTimeInCycle
	Max    timing.VTimeInCycle
}

// Average returns the mean pulse width.
func (c ChannelTime) Average() timing.VTimeInCycle {
	if c.Pulses == 0 {
		return 0
	}

	return c.Total / timing.VTimeInCycle(c.Pulses)
}

// TotalTimeTracer adds up how long each channel was open.
type TotalTimeTracer struct {
	lock     sync.Mutex
	inflight map[string]Pulse
	channels map[string]ChannelTime
}

// NewTotalTimeTracer creates a TotalTimeTracer.
func NewTotalTimeTracer() *TotalTimeTracer {
	return &TotalTimeTracer{
		inflight: make(map[string]Pulse),
		channels: make(map[string]ChannelTime),
	}
}

// Channel returns the totals of one channel.
func (t *TotalTimeTracer) Channel(name string) ChannelTime {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.channels[name]
}

// StartPulse remembers when the pulse opened.
func (t *TotalTimeTracer) StartPulse(p Pulse) {
	t.lock.Lock()
	t.inflight[p.Channel] = p
	t.lock.Unlock()
}

// EndPulse adds the pulse to the channel totals.
func (t *TotalTimeTracer) EndPulse(p Pulse) {
	t.lock.Lock()
	defer t.lock.Unlock()

	open, ok := t.inflight[p.Channel]
	if !ok {
		return
	}

	delete(t.inflight, p.Channel)

	width := p.End - open.Start
	c := t.channels[p.Channel]
	if c.Pulses == 0 || width < c.Min {
		c.Min = width
	}

	c.Max = max(c.Max, width)
	c.Total += width
	c.Pulses++
	t.channels[p.Channel] = c
}
