package simulation

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/datarecording"
	"github.com/sarchlab/ecucore/ecu"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/timing"
)

var _ = Describe("Control loop", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEventScheduler
		recorder datarecording.DataRecorder
		loop     *controlLoop
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEventScheduler(mockCtrl)

		registry := timing.NewFrequencyRegistry()
		_, err := registry.RegisterFrequency(timing.MHz)
		Expect(err).NotTo(HaveOccurred())
		domain, err := registry.RegisterFrequency(timing.KHz)
		Expect(err).NotTo(HaveOccurred())

		recorder, err = datarecording.New(GinkgoT().TempDir() + "/loop")
		Expect(err).NotTo(HaveOccurred())

		virtual := ecu.NewVirtualEngine(ecu.DefaultProfile())
		controller := ecu.MakeBuilder().
			WithTune(config.Default()).
			WithDecoder(virtual).
			WithSensors(virtual).
			WithAngleConverter(schedule.NewAngleConverter(262140)).
			WithoutPriming().
			Build()

		loop = &controlLoop{
			engine:     engine,
			domain:     domain,
			registry:   registry,
			clock:      ecu.EngineClock{TimeTeller: engine, Registry: registry},
			controller: controller,
			snapshots:  ecu.NewSnapshotRecorder(recorder, 1),
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
		Expect(recorder.Close()).To(Succeed())
	})

	It("should start on the next tick as a secondary event", func() {
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e timing.ScheduledEvent) {
			Expect(e.Time).To(Equal(timing.VTimeInCycle(2000)))
			Expect(e.IsSecondary).To(BeTrue())
			Expect(e.Handler).To(BeIdenticalTo(loop))
		})

		loop.start(1500)

		Expect(loop.started()).To(BeTrue())
	})

	It("should iterate and book the following tick", func() {
		var booked timing.ScheduledEvent
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e timing.ScheduledEvent) { booked = e }).
			Times(2)
		engine.EXPECT().CurrentTime().Return(timing.VTimeInCycle(0)).AnyTimes()

		loop.start(0)
		first := booked

		Expect(loop.Handle(first.Event)).To(Succeed())

		Expect(loop.controller.Iterations()).To(Equal(uint64(1)))
		Expect(loop.snapshots.Written()).To(Equal(uint64(1)))
		Expect(booked.Time).To(Equal(timing.VTimeInCycle(1000)))
	})

	It("should refuse a stale iteration", func() {
		var booked timing.ScheduledEvent
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e timing.ScheduledEvent) { booked = e }).
			Times(2)
		engine.EXPECT().CurrentTime().Return(timing.VTimeInCycle(0)).AnyTimes()

		loop.start(0)
		first := booked
		Expect(loop.Handle(first.Event)).To(Succeed())

		Expect(loop.Handle(first.Event)).
			To(MatchError(ContainSubstring("overtook")))
	})

	It("should refuse unknown events", func() {
		Expect(loop.Handle("tick")).
			To(MatchError(ContainSubstring("unknown event type")))
	})
})
