package schedule

import (
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
)

var _ = Describe("Angle calculations", func() {
	var (
		conv *AngleConverter
	)

	BeforeEach(func() {
		conv = NewAngleConverter(262140)
		conv.SetRevolutionTime(20000)
	})

	It("should place the injection before its end angle", func() {
		Expect(InjectorStartAngle(355, 0, 60, 720)).To(Equal(uint16(295)))
		Expect(InjectorStartAngle(355, 360, 60, 720)).To(Equal(uint16(655)))
		Expect(InjectorStartAngle(30, 0, 60, 720)).To(Equal(uint16(690)))
		Expect(InjectorStartAngle(700, 360, 20, 720)).To(Equal(uint16(320)))
		Expect(InjectorStartAngle(355, 0, 60, 0)).To(BeZero())
	})

	It("should time an injection still ahead of the crank", func() {
		Expect(InjectorTimeout(conv, Off, 295, 0, 100, 720)).
			To(Equal(uint32(10833)))
	})

	It("should not time an injection the crank has passed", func() {
		Expect(InjectorTimeout(conv, Off, 295, 0, 300, 720)).To(BeZero())
	})

	It("should push a running channel to the next cycle", func() {
		Expect(InjectorTimeout(conv, Running, 295, 0, 300, 720)).
			To(Equal(uint32(39722)))
	})

	It("should measure angles relative to the channel", func() {
		Expect(InjectorTimeout(conv, Off, 655, 360, 100, 720)).To(BeZero())
		Expect(InjectorTimeout(conv, Off, 655, 360, 400, 720)).
			To(Equal(uint32(14166)))
	})

	It("should place the dwell before the spark", func() {
		start, end := IgnitionAngles(0, 15, 30, 360)
		Expect(end).To(Equal(345))
		Expect(start).To(Equal(315))

		start, end = IgnitionAngles(180, 15, 30, 360)
		Expect(end).To(Equal(165))
		Expect(start).To(Equal(135))
	})

	It("should wrap the ignition angles", func() {
		start, end := IgnitionAngles(0, -10, 30, 360)
		Expect(end).To(Equal(10))
		Expect(start).To(Equal(340))

		start, end = IgnitionAngles(10, 20, 30, 360)
		Expect(end).To(Equal(350))
		Expect(start).To(Equal(320))
	})

	It("should time the dwell like an injection", func() {
		Expect(IgnitionTimeout(conv, Off, 315, 0, 225, 360)).
			To(Equal(uint32(5000)))
	})

	It("should spread channels over the cycle", func() {
		Expect(ChannelDegrees(4, 180, 720)).
			To(Equal([]uint16{0, 180, 360, 540}))
		Expect(ChannelDegrees(3, 120, 360)).
			To(Equal([]uint16{0, 120, 240}))
		Expect(ChannelDegrees(0, 180, 720)).To(BeEmpty())
	})

	It("should fold channels that share a cycle position", func() {
		Expect(ChannelDegrees(4, 180, 360)).
			To(Equal([]uint16{0, 180, 0, 180}))
		Expect(ChannelDegrees(2, 180, 0)).To(Equal([]uint16{0, 0}))
	})
})
