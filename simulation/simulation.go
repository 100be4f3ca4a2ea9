// Package simulation wires an ECU to a virtual engine on a discrete-event
// timeline and records what its outputs do.
package simulation

import (
	"fmt"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/datarecording"
	"github.com/sarchlab/ecucore/ecu"
	"github.com/sarchlab/ecucore/instrumentation/tracing"
	"github.com/sarchlab/ecucore/monitoring"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/status"
	"github.com/sarchlab/ecucore/timing"
)

// progressStepUs is how much simulated time runs between progress updates.
const progressStepUs = 100000

// A Simulation is an ECU running against a virtual engine.
type Simulation struct {
	id       string
	engine   *timing.SerialEngine
	registry *timing.FrequencyRegistry
	clock    ecu.Clock

	tune           *config.Tune
	tunes          *config.Store
	status         *status.Status
	virtualEngine  *ecu.VirtualEngine
	controller     *ecu.Controller
	outputs        *ecu.Outputs
	outputRecorder *ecu.OutputRecorder
	loop           *controlLoop

	schedules     []*schedule.Schedule
	scheduleIndex map[string]int

	dataRecorder datarecording.DataRecorder
	runRecorder  *datarecording.RunRecorder
	snapshots    *ecu.SnapshotRecorder
	dbTracer     *tracing.DBTracer
	pulseTimes   *tracing.TotalTimeTracer
	transitions  *tracing.TransitionCountTracer
	openPulses   *tracing.BackTraceTracer

	monitor *monitoring.Monitor
}

// ID returns the unique name of the run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() *timing.SerialEngine {
	return s.engine
}

// GetFrequencyRegistry returns the registry that converts engine cycles.
func (s *Simulation) GetFrequencyRegistry() *timing.FrequencyRegistry {
	return s.registry
}

// GetController returns the ECU.
func (s *Simulation) GetController() *ecu.Controller {
	return s.controller
}

// GetTuneStore returns the store calibration writes go through. The
// controller follows its active tune from the next iteration on.
func (s *Simulation) GetTuneStore() *config.Store {
	return s.tunes
}

// GetOutputs returns the injector and coil schedules.
func (s *Simulation) GetOutputs() *ecu.Outputs {
	return s.outputs
}

// GetOutputRecorder returns what the output pins saw.
func (s *Simulation) GetOutputRecorder() *ecu.OutputRecorder {
	return s.outputRecorder
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, nil when monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetPulseTimes returns the per channel pulse width statistics.
func (s *Simulation) GetPulseTimes() *tracing.TotalTimeTracer {
	return s.pulseTimes
}

// GetTransitionCounts returns how often each schedule transition happened.
func (s *Simulation) GetTransitionCounts() *tracing.TransitionCountTracer {
	return s.transitions
}

// GetOpenPulses returns the tracer that knows which outputs are on.
func (s *Simulation) GetOpenPulses() *tracing.BackTraceTracer {
	return s.openPulses
}

// SnapshotsWritten returns the number of engine snapshots recorded.
func (s *Simulation) SnapshotsWritten() uint64 {
	return s.snapshots.Written()
}

func (s *Simulation) registerSchedule(sch *schedule.Schedule) {
	name := sch.Name()
	if _, found := s.scheduleIndex[name]; found {
		panic("schedule " + name + " already registered")
	}

	s.schedules = append(s.schedules, sch)
	s.scheduleIndex[name] = len(s.schedules) - 1
}

// Schedules returns all output schedules, injectors first.
func (s *Simulation) Schedules() []*schedule.Schedule {
	return s.schedules
}

// GetScheduleByName returns the schedule with the given name, or nil.
func (s *Simulation) GetScheduleByName(name string) *schedule.Schedule {
	i, found := s.scheduleIndex[name]
	if !found {
		return nil
	}

	return s.schedules[i]
}

// Run simulates the next duration µs of engine time.
func (s *Simulation) Run(durationUs uint64) error {
	if !s.loop.started() {
		s.runRecorder.Start()
		s.loop.start(s.engine.CurrentTime())
	}

	s.runRecorder.Set("Duration (us)", fmt.Sprint(durationUs))

	duration, err := s.microsToCycles(durationUs)
	if err != nil {
		return err
	}

	step, err := s.microsToCycles(progressStepUs)
	if err != nil {
		return err
	}

	start := s.engine.CurrentTime()
	deadline := start + duration

	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar("Simulation", durationUs)
		defer s.monitor.CompleteProgressBar(bar)
	}

	for now := start; now < deadline; {
		next := min(now+step, deadline)
		if err := s.engine.RunUntil(next); err != nil {
			return fmt.Errorf("simulation: at %d: %w", now, err)
		}

		if bar != nil {
			bar.IncrementFinished(s.cyclesToMicros(next - now))
		}

		now = next
	}

	s.runRecorder.Set("Iterations", fmt.Sprint(s.controller.Iterations()))
	s.runRecorder.End()

	return nil
}

func (s *Simulation) microsToCycles(us uint64) (timing.VTimeInCycle, error) {
	c, err := s.registry.SecondsToCycles(timing.VTimeInSec(float64(us) / 1e6))
	if err != nil {
		return 0, fmt.Errorf("simulation: %d µs: %w", us, err)
	}

	return c, nil
}

func (s *Simulation) cyclesToMicros(c timing.VTimeInCycle) uint64 {
	return uint64(float64(s.registry.CyclesToSeconds(c))*1e6 + 0.5)
}

// Terminate stops the monitor, flushes the tracers and closes the recorder.
// Outputs still on are reported on stderr.
func (s *Simulation) Terminate() error {
	if s.monitor != nil {
		if err := s.monitor.StopServer(); err != nil {
			return fmt.Errorf("simulation: stopping monitor: %w", err)
		}
	}

	s.openPulses.DumpBackTrace()
	s.dbTracer.Terminate()

	return s.dataRecorder.Close()
}
