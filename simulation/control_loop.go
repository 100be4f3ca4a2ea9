package simulation

import (
	"fmt"

	"github.com/sarchlab/ecucore/ecu"
	"github.com/sarchlab/ecucore/timing"
)

// iterateEvent asks the control loop for one iteration.
type iterateEvent struct {
	seq uint64
}

// controlLoop runs the controller on every tick of its clock domain. It is a
// secondary event so interrupts due in the same cycle run first.
type controlLoop struct {
	engine     timing.EventScheduler
	domain     *timing.FreqDomain
	registry   *timing.FrequencyRegistry
	clock      ecu.Clock
	controller *ecu.Controller
	snapshots  *ecu.SnapshotRecorder

	isStarted bool
	seq       uint64
}

func (l *controlLoop) started() bool {
	return l.isStarted
}

func (l *controlLoop) start(now timing.VTimeInCycle) {
	l.isStarted = true
	l.scheduleAt(l.domain.ThisTick(now))
}

func (l *controlLoop) scheduleAt(t timing.VTimeInCycle) {
	l.seq++
	l.engine.Schedule(timing.ScheduledEvent{
		Event:       &iterateEvent{seq: l.seq},
		Time:        t,
		Handler:     l,
		IsSecondary: true,
	})
}

// Handle runs one iteration and books the next one.
func (l *controlLoop) Handle(event any) error {
	switch e := event.(type) {
	case *iterateEvent:
		if e.seq != l.seq {
			return fmt.Errorf("control loop: iteration %d overtook %d",
				e.seq, l.seq)
		}

		l.iterate()
	default:
		return fmt.Errorf("control loop: unknown event type %T", event)
	}

	return nil
}

func (l *controlLoop) iterate() {
	now := l.engine.CurrentTime()

	l.controller.Iterate(l.clock.NowMicros())
	l.snapshots.Record(
		float64(l.registry.CyclesToSeconds(now)), l.controller.Status())

	l.scheduleAt(l.domain.NextTick(now))
}
