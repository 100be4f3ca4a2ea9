package ecu

import (
	"log"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/fuel"
	"github.com/sarchlab/ecucore/ignition"
	"github.com/sarchlab/ecucore/protect"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/status"
)

const (
	// tickPeriod is the µs between two 10 Hz ticks.
	tickPeriod = 100000

	ticksPerSecond = 10
)

// Controller is the engine control loop. It is not safe for concurrent use;
// only the schedules it arms are shared with the output interrupts.
type Controller struct {
	tune      *config.Tune
	tunes     TuneSource
	st        *status.Status
	decoder   Decoder
	sensors   SensorReader
	corrector *fuel.Corrector
	soft      *protect.SoftLimiter
	advancer  *ignition.Advancer
	protector *protect.Protector
	conv      *schedule.AngleConverter
	injectors []*schedule.FuelSchedule
	coils     []*schedule.IgnitionSchedule
	logger    *log.Logger

	iterations uint64
	lastTick   uint64
	ticks      uint8
	primed     bool
}

// Status returns the status the controller writes.
func (c *Controller) Status() *status.Status {
	return c.st
}

// Tune returns the calibration in use.
func (c *Controller) Tune() *config.Tune {
	return c.tune
}

// Iterations returns how many times Iterate has run.
func (c *Controller) Iterations() uint64 {
	return c.iterations
}

// Iterate runs one pass of the control loop at time now, in µs. The order
// is fixed: inputs, VE, corrections, pulse width, advance, dwell, the
// protection cut and finally the schedules.
func (c *Controller) Iterate(now uint64) {
	c.iterations++

	if c.tunes != nil {
		c.tune = c.tunes.Active()
	}

	c.decoder.Update(c.st, now)
	c.sensors.Read(c.st, now)
	c.tick(now)
	c.updateEngineState()
	c.conv.SetRevolutionTime(c.st.RevolutionTime)

	if !c.primed {
		c.prime()
	}

	if !c.st.Running {
		c.st.PW = [status.Channels]uint16{}
		return
	}

	fuel.ComputeVE(c.tune, c.st)
	c.st.AFRTarget = fuel.ComputeAFRTarget(c.tune, c.st)
	c.corrector.Compute(c.tune, c.st, now)
	fuel.ComputePulseWidths(c.tune, c.st)

	c.advancer.Compute(c.tune, c.st, c.corrector.DFCOTaper())
	ignition.CorrectDwell(c.tune, c.st, ignition.ComputeDwell(c.tune, c.st))

	cut := c.protector.CalculateFuelIgnitionChannelCut(c.tune, c.st, now)

	out := c.tune.Outputs()
	c.armInjectors(cut, out)
	c.armCoils(cut, out)
	c.collectSparkStats()
}

func (c *Controller) tick(now uint64) {
	if c.iterations == 1 {
		c.lastTick = now
		return
	}

	for now-c.lastTick >= tickPeriod {
		c.lastTick += tickPeriod
		c.corrector.Tick10Hz()
		c.soft.Tick10Hz()

		c.ticks++
		if c.ticks < ticksPerSecond {
			continue
		}

		c.ticks = 0
		if c.st.Running && c.st.RunSecs < 0xFFFF {
			c.st.RunSecs++
		}
	}
}

func (c *Controller) updateEngineState() {
	st := c.st
	wasRunning := st.Running

	st.Running = st.RPM > 0 && st.Sync != status.SyncNone
	st.Cranking = st.Running &&
		uint32(st.RPM) < uint32(c.tune.Engine.CrankRPM)*10

	switch {
	case st.Running && !wasRunning:
		c.logf("engine started at %d rpm", st.RPM)
	case !st.Running && wasRunning:
		st.RunSecs = 0
		st.Cut.ResetRoll()
		c.logf("engine stopped after %d ignitions", st.IgnitionCount)
	}
}

func (c *Controller) prime() {
	c.primed = true

	armed := schedule.PrimingPulse(c.tune, c.st, c.injectors)
	if armed > 0 {
		c.logf("priming %d injectors", armed)
	}
}

func (c *Controller) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
