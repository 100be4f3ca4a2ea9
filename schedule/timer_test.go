package schedule

import (
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ecucore/timing"
)

var _ = Describe("CompareTimer", func() {
	var (
		mockCtrl *gomock.Controller
		handler  *MockCompareHandler
		engine   *timing.SerialEngine
		registry *timing.FrequencyRegistry
		timer    *CompareTimer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		handler = NewMockCompareHandler(mockCtrl)
		engine = timing.NewSerialEngine()
		registry = timing.NewFrequencyRegistry()

		_, err := registry.RegisterFrequency(timing.MHz)
		Expect(err).NotTo(HaveOccurred())

		timer, err = NewCompareTimer("inj1", engine, registry, 4)
		Expect(err).NotTo(HaveOccurred())
		timer.SetMatchHandler(handler)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should reject ticks that do not divide a second", func() {
		_, err := NewCompareTimer("bad", engine, registry, 0)
		Expect(err).To(HaveOccurred())

		_, err = NewCompareTimer("bad", engine, registry, 3)
		Expect(err).To(HaveOccurred())
	})

	It("should convert between µs and ticks", func() {
		Expect(timer.Name()).To(Equal("inj1"))
		Expect(timer.MaxPeriod()).To(Equal(uint32(262140)))
		Expect(timer.MicrosToTicks(1000)).To(Equal(uint16(250)))
		Expect(timer.MicrosToTicks(1003)).To(Equal(uint16(250)))
		Expect(timer.TicksToMicros(250)).To(Equal(uint32(1000)))

		Expect(timer.MicrosToTicks(0)).To(BeZero())
		Expect(timer.MicrosToTicks(1)).To(Equal(uint16(1)))
		Expect(timer.MicrosToTicks(3)).To(Equal(uint16(1)))
	})

	It("should fire a sub-tick timeout on the next tick", func() {
		Expect(engine.RunUntil(1002)).To(Succeed())

		timer.SetCompare(timer.Counter() + timer.MicrosToTicks(3))
		timer.Enable()

		handler.EXPECT().OnCompareMatch().Do(func() {
			Expect(engine.CurrentTime()).To(Equal(timing.VTimeInCycle(1004)))
		})

		Expect(engine.Run()).To(Succeed())
	})

	It("should count with the engine time", func() {
		Expect(engine.RunUntil(1003)).To(Succeed())
		Expect(timer.Counter()).To(Equal(uint16(250)))

		Expect(engine.RunUntil(70000 * 4)).To(Succeed())
		Expect(timer.Counter()).To(Equal(uint16(70000 - 65536)))
	})

	It("should fire on the compare tick", func() {
		Expect(engine.RunUntil(1002)).To(Succeed())

		timer.SetCompare(260)
		timer.Enable()

		handler.EXPECT().OnCompareMatch().Do(func() {
			Expect(engine.CurrentTime()).To(Equal(timing.VTimeInCycle(1040)))
		})

		Expect(engine.Run()).To(Succeed())
	})

	It("should not fire while disabled", func() {
		timer.SetCompare(100)
		Expect(timer.IsEnabled()).To(BeFalse())

		timer.Enable()
		timer.Disable()

		Expect(engine.Run()).To(Succeed())
		Expect(timer.IsEnabled()).To(BeFalse())
	})

	It("should drop the old match when the compare moves", func() {
		timer.SetCompare(100)
		timer.Enable()
		timer.SetCompare(50)

		handler.EXPECT().OnCompareMatch().Do(func() {
			Expect(engine.CurrentTime()).To(Equal(timing.VTimeInCycle(200)))
		})

		Expect(engine.Run()).To(Succeed())
	})

	It("should wait a full wrap for a compare equal to the counter", func() {
		timer.SetCompare(0)
		timer.Enable()

		handler.EXPECT().OnCompareMatch().Do(func() {
			Expect(engine.CurrentTime()).
				To(Equal(timing.VTimeInCycle(65536 * 4)))
		})

		Expect(engine.Run()).To(Succeed())
	})

	It("should wrap the compare past the counter overflow", func() {
		Expect(engine.RunUntil(65500 * 4)).To(Succeed())

		timer.SetCompare(timer.Counter() + 100)
		timer.Enable()

		handler.EXPECT().OnCompareMatch().Do(func() {
			Expect(engine.CurrentTime()).
				To(Equal(timing.VTimeInCycle(65600 * 4)))
		})

		Expect(engine.Run()).To(Succeed())
	})

	It("should refuse foreign events", func() {
		Expect(timer.Handle("tick")).To(HaveOccurred())
	})
})
