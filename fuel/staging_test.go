package fuel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
	"github.com/sarchlab/ecucore/table"
)

var _ = Describe("CalculateStaging", func() {
	var (
		tune *config.Tune
		st   *status.Status
	)

	withSplit := func(split int16) {
		tune.Staging.Mode = config.StagingTable
		tune.Staging.Split = table.NewUniformTable3D(
			[]int16{500, 7000}, []int16{20, 200}, split)
	}

	BeforeEach(func() {
		tune = config.Default()
		tune.Staging.Enabled = true
		tune.Staging.InjSizePri = 250
		tune.Staging.InjSizeSec = 500

		st = status.New()
		st.RPM = 3000
		st.FuelLoad = 60
	})

	It("should derive the bank multipliers from the flow rates", func() {
		pri, sec := StagingMultipliers(250, 500)

		Expect(pri).To(Equal(uint32(300)))
		Expect(sec).To(Equal(uint32(150)))
	})

	DescribeTable("table mode",
		func(split int16, pri, sec uint16, active bool) {
			withSplit(split)

			s := CalculateStaging(1500, 0, 1501, tune, st)

			Expect(s.Used).To(BeTrue())
			Expect(s.Primary).To(BeNumerically("~", pri, 30))
			Expect(s.Secondary).To(BeNumerically("~", sec, 30))
			Expect(s.Active).To(Equal(active))
		},
		Entry("no split", int16(0), uint16(4500), uint16(0), false),
		Entry("a third", int16(33), uint16(3000), uint16(750), true),
		Entry("two thirds", int16(66), uint16(1500), uint16(1500), true),
		Entry("all secondary", int16(100), uint16(0), uint16(2250), true),
	)

	It("should move the excess to the secondaries in auto mode", func() {
		tune.Staging.Mode = config.StagingAuto

		s := CalculateStaging(1500, 0, 1000, tune, st)

		Expect(s).To(Equal(Staged{
			Primary: 1000, Secondary: 1750, Used: true, Active: true,
		}))
	})

	It("should keep everything on the primaries below the limit", func() {
		tune.Staging.Mode = config.StagingAuto

		s := CalculateStaging(500, 0, 1500, tune, st)

		Expect(s).To(Equal(Staged{Primary: 1500, Used: true}))
	})

	It("should add the open time to both banks", func() {
		tune.Staging.Mode = config.StagingAuto

		s := CalculateStaging(2500, 1000, 1000, tune, st)

		Expect(s.Primary).To(Equal(uint16(1000)))
		Expect(s.Secondary).To(Equal(uint16(3250)))
	})

	It("should not stage a pulse that is only open time", func() {
		s := CalculateStaging(1000, 1000, 1000, tune, st)

		Expect(s).To(Equal(Staged{Primary: 1000}))
	})

	It("should pass the pulse through when disabled", func() {
		tune.Staging.Enabled = false

		s := CalculateStaging(1500, 0, 1000, tune, st)

		Expect(s).To(Equal(Staged{Primary: 1500}))
	})
})

var _ = Describe("ApplyPWToInjectorChannels", func() {
	const (
		p = uint16(1000)
		s = uint16(600)
	)

	var (
		tune *config.Tune
	)

	BeforeEach(func() {
		tune = config.Default()
	})

	It("should copy the primary to the used channels without staging", func() {
		pw := ApplyPWToInjectorChannels(Staged{Primary: p}, tune, 3)

		Expect(pw).To(Equal([8]uint16{p, p, p, 0, 0, 0, 0, 0}))
	})

	DescribeTable("staged fan-out",
		func(cyl uint8, layout config.InjLayout, want [8]uint16) {
			tune.Engine.Cylinders = cyl
			tune.Engine.InjLayout = layout

			pw := ApplyPWToInjectorChannels(
				Staged{Primary: p, Secondary: s, Used: true, Active: true},
				tune, 8)

			Expect(pw).To(Equal(want))
		},
		Entry("1 cylinder", uint8(1), config.InjPaired,
			[8]uint16{p, s}),
		Entry("2 cylinders", uint8(2), config.InjPaired,
			[8]uint16{p, p, s, s}),
		Entry("3 cylinders", uint8(3), config.InjPaired,
			[8]uint16{p, p, p, s, s, s}),
		Entry("4 cylinders paired", uint8(4), config.InjPaired,
			[8]uint16{p, p, s, s}),
		Entry("4 cylinders sequential", uint8(4), config.InjSequential,
			[8]uint16{p, p, p, p, s, s, s, s}),
		Entry("4 cylinders semi-sequential", uint8(4), config.InjSemiSequential,
			[8]uint16{p, p, p, p, s, s, s, s}),
		Entry("5 cylinders paired", uint8(5), config.InjPaired,
			[8]uint16{p, p, p, p, s, s}),
		Entry("5 cylinders sequential", uint8(5), config.InjSequential,
			[8]uint16{p, p, p, p, p, s}),
		Entry("6 cylinders paired", uint8(6), config.InjPaired,
			[8]uint16{p, p, p, s, s, s}),
		Entry("6 cylinders sequential", uint8(6), config.InjSequential,
			[8]uint16{p, p, p, p, p, p, s, s}),
		Entry("8 cylinders paired", uint8(8), config.InjPaired,
			[8]uint16{p, p, p, p, s, s, s, s}),
		Entry("8 cylinders sequential", uint8(8), config.InjSequential,
			[8]uint16{p, p, p, p, p, p, p, p}),
		Entry("other counts", uint8(7), config.InjPaired,
			[8]uint16{p, p, s, s}),
	)

	It("should keep the staged layout with a zero secondary", func() {
		tune.Engine.Cylinders = 4

		pw := ApplyPWToInjectorChannels(
			Staged{Primary: p, Used: true}, tune, 4)

		Expect(pw).To(Equal([8]uint16{p, p, 0, 0}))
	})
})

var _ = Describe("InjectorSlots", func() {
	var (
		tune *config.Tune
	)

	BeforeEach(func() {
		tune = config.Default()
		tune.Staging.Enabled = true
	})

	It("should give every channel its own slot without staging", func() {
		tune.Staging.Enabled = false

		Expect(InjectorSlots(tune)).To(Equal([8]uint8{0, 1, 2, 3, 4, 5, 6, 7}))
	})

	DescribeTable("staged layouts",
		func(cyl uint8, layout config.InjLayout, want [8]uint8) {
			tune.Engine.Cylinders = cyl
			tune.Engine.InjLayout = layout

			Expect(InjectorSlots(tune)).To(Equal(want))
		},
		Entry("4 cylinders paired", uint8(4), config.InjPaired,
			[8]uint8{0, 1, 0, 1}),
		Entry("4 cylinders sequential", uint8(4), config.InjSequential,
			[8]uint8{0, 1, 2, 3, 0, 1, 2, 3}),
		Entry("5 cylinders sequential", uint8(5), config.InjSequential,
			[8]uint8{0, 1, 2, 3, 4, 0}),
		Entry("6 cylinders paired", uint8(6), config.InjPaired,
			[8]uint8{0, 1, 2, 0, 1, 2}),
		Entry("6 cylinders sequential", uint8(6), config.InjSequential,
			[8]uint8{0, 1, 2, 3, 4, 5, 0, 3}),
		Entry("8 cylinders sequential", uint8(8), config.InjSequential,
			[8]uint8{0, 1, 2, 3, 4, 5, 6, 7}),
	)
})
