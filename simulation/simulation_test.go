package simulation

import (
	"bytes"
	"context"
	"log"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/datarecording"
	"github.com/sarchlab/ecucore/ecu"
	"github.com/sarchlab/ecucore/instrumentation/tracing"
	"github.com/sarchlab/ecucore/schedule"
)

var _ = Describe("Simulation", func() {
	var (
		path       string
		simulation *Simulation
		logs       *bytes.Buffer
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "run")
		logs = new(bytes.Buffer)

		var err error
		simulation, err = MakeBuilder().
			WithoutMonitoring().
			WithOutputFileName(path).
			WithLogger(log.New(logs, "", 0)).
			Build()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if simulation != nil {
			Expect(simulation.Terminate()).To(Succeed())
		}
	})

	readBack := func(table string, sample any) []any {
		Expect(simulation.Terminate()).To(Succeed())
		simulation = nil

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(table, sample)
		rows, _, err := reader.Query(context.Background(), table,
			datarecording.QueryParams{OrderBy: "rowid"})
		Expect(err).NotTo(HaveOccurred())

		return rows
	}

	It("should panic when the monitor port is set without monitoring", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithoutMonitoring().WithMonitorPort(8080).Build()
		}).To(Panic())
	})

	It("should reject a loop period that does not divide a second", func() {
		_, err := MakeBuilder().
			WithoutMonitoring().
			WithOutputFileName(path + "_bad").
			WithLoopPeriod(3000).
			Build()
		Expect(err).To(MatchError(ContainSubstring("does not divide")))
	})

	It("should register every output schedule by name", func() {
		Expect(simulation.Schedules()).To(HaveLen(16))
		Expect(simulation.GetScheduleByName("inj1")).
			To(BeIdenticalTo(simulation.GetOutputs().Injectors[0].Schedule))
		Expect(simulation.GetScheduleByName("ign8")).
			To(BeIdenticalTo(simulation.GetOutputs().Coils[7].Schedule))
		Expect(simulation.GetScheduleByName("inj9")).To(BeNil())
	})

	It("should iterate once per loop period, including both ends", func() {
		Expect(simulation.Run(1000)).To(Succeed())
		Expect(simulation.GetController().Iterations()).To(Equal(uint64(2)))

		Expect(simulation.Run(1000)).To(Succeed())
		Expect(simulation.GetController().Iterations()).To(Equal(uint64(3)))
	})

	It("should crank and start the engine", func() {
		Expect(simulation.Run(1500000)).To(Succeed())

		st := simulation.GetController().Status()
		Expect(st.Running).To(BeTrue())
		Expect(st.Cranking).To(BeFalse())
		Expect(simulation.GetController().Iterations()).
			To(Equal(uint64(1501)))
		Expect(logs.String()).To(ContainSubstring("engine started"))

		inj := simulation.GetOutputRecorder().Stats(ecu.Injector, 0)
		Expect(inj.Opens).To(BeNumerically(">", 3))
		Expect(inj.Stray).To(BeZero())

		coil := simulation.GetOutputRecorder().Stats(ecu.Coil, 0)
		Expect(coil.Closes).To(BeNumerically(">", 3))

		Expect(simulation.GetPulseTimes().Channel("inj1").Pulses).
			To(Equal(inj.Closes))
		Expect(simulation.GetTransitionCounts().
			Count(schedule.Pending, schedule.Running)).
			To(BeNumerically(">", 0))

		Expect(simulation.GetOutputRecorder().Stats(ecu.Injector, 7).Opens).
			To(BeZero())
	})

	It("should record pulses and snapshots", func() {
		Expect(simulation.Run(1500000)).To(Succeed())
		Expect(simulation.SnapshotsWritten()).To(Equal(uint64(151)))

		pulses := readBack(tracing.PulseTable, datarecording.PulseEntry{})
		Expect(pulses).NotTo(BeEmpty())

		kinds := map[string]bool{}
		for _, row := range pulses {
			p := row.(*datarecording.PulseEntry)
			Expect(p.End).To(BeNumerically(">=", p.Start))
			Expect(p.WidthUs).To(BeNumerically(">", 0))
			kinds[p.Kind] = true
		}

		Expect(kinds).To(HaveKey("injection"))
		Expect(kinds).To(HaveKey("dwell"))
	})

	It("should store the run information", func() {
		Expect(simulation.Run(10000)).To(Succeed())

		rows := readBack(datarecording.RunTableName, datarecording.RunInfo{})
		props := map[string]string{}
		for _, row := range rows {
			info := row.(*datarecording.RunInfo)
			props[info.Property] = info.Value
		}

		Expect(props).To(HaveKeyWithValue("Run ID", simulation.ID()))
		Expect(props).To(HaveKeyWithValue("Iterations", "11"))
		Expect(props).To(HaveKey("Start Time"))
		Expect(props).To(HaveKey("End Time"))
	})

	It("should run a custom tune", func() {
		Expect(simulation.Terminate()).To(Succeed())

		tune := config.Default()
		tune.Engine.Cylinders = 6

		var err error
		simulation, err = MakeBuilder().
			WithoutMonitoring().
			WithOutputFileName(path + "_six").
			WithTune(tune).
			WithSeed(7).
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(simulation.Run(1500000)).To(Succeed())
		Expect(simulation.GetOutputRecorder().Stats(ecu.Coil, 2).Closes).
			To(BeNumerically(">", 0))
	})

	It("should apply calibration writes between runs", func() {
		store := simulation.GetTuneStore()
		Expect(simulation.GetController().Tune()).To(BeIdenticalTo(store.Active()))

		Expect(simulation.Run(1000)).To(Succeed())

		staged, err := store.Stage()
		Expect(err).NotTo(HaveOccurred())
		staged.Fuel.ReqFuel = 120
		Expect(store.Commit()).To(Succeed())

		Expect(simulation.Run(1000)).To(Succeed())

		Expect(simulation.GetController().Tune().Fuel.ReqFuel).
			To(Equal(uint8(120)))

		staged, err = store.Stage()
		Expect(err).NotTo(HaveOccurred())
		staged.Engine.Cylinders = 6
		Expect(store.Commit()).To(MatchError(config.ErrLayoutChanged))
		store.Discard()
	})
})
