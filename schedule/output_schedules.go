package schedule

import "sync/atomic"

// dwellAverageAlpha is the weight, out of 256, of the previous average.
const dwellAverageAlpha = 30

// FuelSchedule drives one injector channel.
type FuelSchedule struct {
	*Schedule

	crankAngleMax atomic.Uint32
}

// NewFuelSchedule creates an injector schedule.
func NewFuelSchedule(
	name string, timer Timer, openInjector, closeInjector Callback,
	crankAngleMax uint16,
) *FuelSchedule {
	s := &FuelSchedule{
		Schedule: NewSchedule(name, timer, openInjector, closeInjector),
	}
	s.crankAngleMax.Store(uint32(crankAngleMax))

	return s
}

// SetCrankAngleMax sets the crank angle of one injection cycle.
func (s *FuelSchedule) SetCrankAngleMax(crankAngleMax uint16) {
	s.crankAngleMax.Store(uint32(crankAngleMax))
}

// SetFuelSchedule arms an injection. A follow-up is only queued behind a
// running injection when a whole injection cycle fits the timer range.
func (s *FuelSchedule) SetFuelSchedule(
	conv *AngleConverter, timeout, duration uint32,
) bool {
	allowQueue := conv.CycleFits(uint16(s.crankAngleMax.Load()))

	return s.Set(timeout, duration, allowQueue)
}

// IgnitionSchedule drives one coil channel. The output opens at the start of
// the dwell and the spark fires when it closes.
type IgnitionSchedule struct {
	*Schedule

	crankAngleMax atomic.Uint32
	count         atomic.Uint32
	actualDwell   atomic.Uint32

	dwellStart uint16
}

// NewIgnitionSchedule creates a coil schedule. beginCharge and fire drive the
// coil.
func NewIgnitionSchedule(
	name string, timer Timer, beginCharge, fire Callback, crankAngleMax uint16,
) *IgnitionSchedule {
	s := &IgnitionSchedule{
		Schedule: NewSchedule(name, timer, beginCharge, fire),
	}
	s.crankAngleMax.Store(uint32(crankAngleMax))

	s.SetTransitions(Transitions{
		PendingToRunning: s.beginDwell,
		RunningToOff:     s.fireAndStop,
		RunningToPending: s.fireAndContinue,
	})

	return s
}

// SetCrankAngleMax sets the crank angle of one spark cycle.
func (s *IgnitionSchedule) SetCrankAngleMax(crankAngleMax uint16) {
	s.crankAngleMax.Store(uint32(crankAngleMax))
}

// SetIgnitionSchedule arms a dwell. A follow-up is only queued behind a
// running dwell when a whole spark cycle fits the timer range.
func (s *IgnitionSchedule) SetIgnitionSchedule(
	conv *AngleConverter, timeout, duration uint32,
) bool {
	allowQueue := conv.CycleFits(uint16(s.crankAngleMax.Load()))

	return s.Set(timeout, duration, allowQueue)
}

// Count returns the number of sparks fired.
func (s *IgnitionSchedule) Count() uint32 {
	return s.count.Load()
}

// ActualDwell returns the running average of the measured dwell in µs.
func (s *IgnitionSchedule) ActualDwell() uint16 {
	return uint16(s.actualDwell.Load())
}

func (s *IgnitionSchedule) beginDwell(sch *Schedule) {
	s.dwellStart = sch.timer.Counter()
	DefaultPendingToRunning(sch)
}

func (s *IgnitionSchedule) fireAndStop(sch *Schedule) {
	s.recordSpark(sch)
	DefaultRunningToOff(sch)
}

func (s *IgnitionSchedule) fireAndContinue(sch *Schedule) {
	s.recordSpark(sch)
	DefaultRunningToPending(sch)
}

func (s *IgnitionSchedule) recordSpark(sch *Schedule) {
	s.count.Add(1)

	measured := sch.timer.TicksToMicros(sch.timer.Counter() - s.dwellStart)
	prev := s.actualDwell.Load()
	if prev == 0 {
		s.actualDwell.Store(measured)
		return
	}

	avg := (measured*(256-dwellAverageAlpha) + prev*dwellAverageAlpha) >> 8
	s.actualDwell.Store(avg)
}
