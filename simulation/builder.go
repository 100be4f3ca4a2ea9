package simulation

import (
	"fmt"
	"log"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/datarecording"
	"github.com/sarchlab/ecucore/ecu"
	"github.com/sarchlab/ecucore/idgen"
	"github.com/sarchlab/ecucore/instrumentation/tracing"
	"github.com/sarchlab/ecucore/monitoring"
	"github.com/sarchlab/ecucore/protect"
	"github.com/sarchlab/ecucore/status"
	"github.com/sarchlab/ecucore/timing"
)

const (
	defaultLoopPeriodUs  = 1000
	defaultTimerTickUs   = 4
	defaultSnapshotEvery = 10
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	outputFileName string
	recorderConfig *datarecording.RecorderConfig

	tune          *config.Tune
	profile       *ecu.Profile
	seed          uint64
	loopPeriodUs  uint64
	timerTickUs   uint32
	snapshotEvery uint64
	traceEvents   bool
	logger        *log.Logger
}

// MakeBuilder creates a new builder. It runs the demo tune through the
// default drive profile with the monitor on.
func MakeBuilder() Builder {
	return Builder{
		monitorOn:     true,
		seed:          1,
		loopPeriodUs:  defaultLoopPeriodUs,
		timerTickUs:   defaultTimerTickUs,
		snapshotEvery: defaultSnapshotEvery,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitor page in a browser once the server is up.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithOutputFileName sets the SQLite file the run is recorded into, without
// the extension.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithRecorderConfig records into the backend described by cfg instead of
// the default SQLite file.
func (b Builder) WithRecorderConfig(cfg datarecording.RecorderConfig) Builder {
	b.recorderConfig = &cfg
	return b
}

// WithTune sets the calibration the ECU runs.
func (b Builder) WithTune(tune *config.Tune) Builder {
	b.tune = tune
	return b
}

// WithProfile sets the drive profile of the virtual engine.
func (b Builder) WithProfile(p *ecu.Profile) Builder {
	b.profile = p
	return b
}

// WithSeed seeds the rolling cut randomness.
func (b Builder) WithSeed(seed uint64) Builder {
	b.seed = seed
	return b
}

// WithLoopPeriod sets the time between control loop iterations, in µs. It
// must divide one second.
func (b Builder) WithLoopPeriod(us uint64) Builder {
	b.loopPeriodUs = us
	return b
}

// WithTimerTick sets the resolution of the output compare timers, in µs.
func (b Builder) WithTimerTick(us uint32) Builder {
	b.timerTickUs = us
	return b
}

// WithSnapshotEvery stores an engine snapshot every n control loop
// iterations.
func (b Builder) WithSnapshotEvery(n uint64) Builder {
	b.snapshotEvery = n
	return b
}

// WithEventLogging prints every handled event into the logger.
func (b Builder) WithEventLogging() Builder {
	b.traceEvents = true
	return b
}

// WithLogger sets where the simulation reports engine starts, stops and
// stray outputs.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		panic("browser cannot be opened when monitoring is disabled")
	}

	if b.traceEvents && b.logger == nil {
		panic("event logging needs a logger")
	}
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	if b.loopPeriodUs == 0 || uint64(timing.MHz)%b.loopPeriodUs != 0 {
		return nil, fmt.Errorf(
			"simulation: loop period %d µs does not divide one second",
			b.loopPeriodUs)
	}

	tune := b.tune
	if tune == nil {
		tune = config.Default()
	}

	if err := tune.Validate(); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}

	profile := b.profile
	if profile == nil {
		profile = ecu.DefaultProfile()
	}

	store, err := config.NewStore(tune)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	store.LockLayout()

	s := &Simulation{
		id:            idgen.RunID(),
		tune:          store.Active(),
		tunes:         store,
		scheduleIndex: make(map[string]int),
	}

	recorder, err := b.buildRecorder(s.id)
	if err != nil {
		return nil, err
	}
	s.dataRecorder = recorder

	if err := b.buildTimeline(s); err != nil {
		s.dataRecorder.Close()
		return nil, err
	}

	if err := b.buildOutputs(s); err != nil {
		s.dataRecorder.Close()
		return nil, err
	}

	b.buildTracers(s)

	s.virtualEngine = ecu.NewVirtualEngine(profile)
	s.status = status.New()
	s.controller = ecu.MakeBuilder().
		WithTuneStore(s.tunes).
		WithStatus(s.status).
		WithDecoder(s.virtualEngine).
		WithSensors(s.virtualEngine).
		WithRandomSource(protect.NewRandomSource(b.seed)).
		WithAngleConverter(s.outputs.Converter).
		WithInjectors(s.outputs.Injectors).
		WithCoils(s.outputs.Coils).
		WithLogger(b.logger).
		Build()

	s.snapshots = ecu.NewSnapshotRecorder(s.dataRecorder, b.snapshotEvery)
	s.runRecorder = datarecording.NewRunRecorder(s.dataRecorder)
	s.runRecorder.Set("Run ID", s.id)
	s.runRecorder.Set("Seed", fmt.Sprint(b.seed))

	if err := b.buildControlLoop(s); err != nil {
		s.dataRecorder.Close()
		return nil, err
	}

	if b.monitorOn {
		b.buildMonitor(s)
	}

	return s, nil
}

func (b Builder) buildRecorder(id string) (datarecording.DataRecorder, error) {
	if b.recorderConfig != nil {
		return datarecording.NewDataRecorderWithConfig(*b.recorderConfig)
	}

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "ecusim_" + id
	}

	return datarecording.New(outputPath)
}

func (b Builder) buildTimeline(s *Simulation) error {
	s.engine = timing.NewSerialEngine()
	s.registry = timing.NewFrequencyRegistry()

	if _, err := s.registry.RegisterFrequency(timing.MHz); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	s.clock = ecu.EngineClock{TimeTeller: s.engine, Registry: s.registry}

	if b.traceEvents {
		s.engine.AcceptHook(timing.NewEventLogger(b.logger))
	}

	return nil
}

func (b Builder) buildOutputs(s *Simulation) error {
	s.outputRecorder = ecu.NewOutputRecorder(s.clock, b.logger)

	outputs, err := ecu.NewOutputs(
		s.engine, s.registry, s.outputRecorder, s.tune, b.timerTickUs)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	s.outputs = outputs

	ids := idgen.New()
	for _, sch := range outputs.Schedules() {
		sch.SetIDGenerator(ids)
		s.registerSchedule(sch)
	}

	return nil
}

func (b Builder) buildTracers(s *Simulation) {
	s.dbTracer = tracing.NewDBTracer(s.dataRecorder, s.registry)
	s.pulseTimes = tracing.NewTotalTimeTracer()
	s.transitions = tracing.NewTransitionCountTracer()
	s.openPulses = tracing.NewBackTraceTracer(nil)
	transitionRecorder := tracing.NewTransitionRecorder(
		s.dataRecorder, s.engine, s.registry)

	for _, inj := range s.outputs.Injectors {
		s.dbTracer.SetKind(inj.Name(), ecu.Injector.String())
	}

	for _, coil := range s.outputs.Coils {
		s.dbTracer.SetKind(coil.Name(), ecu.Coil.String())
	}

	for _, sch := range s.schedules {
		tracing.CollectTrace(sch, s.dbTracer, s.engine)
		tracing.CollectTrace(sch, s.pulseTimes, s.engine)
		tracing.CollectTrace(sch, s.openPulses, s.engine)
		sch.AcceptHook(s.transitions)
		sch.AcceptHook(transitionRecorder)
	}
}

func (b Builder) buildControlLoop(s *Simulation) error {
	domain, err := s.registry.RegisterFrequency(
		timing.MHz / timing.FreqInHz(b.loopPeriodUs))
	if err != nil {
		return fmt.Errorf("simulation: control loop: %w", err)
	}

	s.loop = &controlLoop{
		engine:     s.engine,
		domain:     domain,
		registry:   s.registry,
		clock:      s.clock,
		controller: s.controller,
		snapshots:  s.snapshots,
	}

	return nil
}

func (b Builder) buildMonitor(s *Simulation) {
	s.monitor = monitoring.NewMonitor()
	if b.monitorPort > 0 {
		s.monitor.WithPortNumber(b.monitorPort)
	}

	if b.openBrowser {
		s.monitor.WithBrowser()
	}

	s.monitor.RegisterEngine(s.engine)
	s.monitor.RegisterFrequencyRegistry(s.registry)
	s.monitor.RegisterObject("status", s.status)
	s.monitor.RegisterTuneStore(s.tunes)
	s.monitor.RegisterObject("outputs", s.outputRecorder)

	for _, sch := range s.schedules {
		s.monitor.RegisterSchedule(sch)
	}

	s.monitor.StartServer()
}
