package ecu

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

var _ = Describe("Injector timing", func() {
	var (
		tune *config.Tune
	)

	BeforeEach(func() {
		tune = config.Default()
		tune.Engine.Strokes = config.FourStroke
	})

	DescribeTable("channel angles",
		func(
			cyl uint8,
			layout config.InjLayout,
			staged bool,
			want [status.Channels]uint16,
		) {
			tune.Engine.Cylinders = cyl
			tune.Engine.InjLayout = layout
			tune.Engine.Squirts = 2
			tune.Staging.Enabled = staged

			out := tune.Outputs()
			got := injectorDegrees(tune, out)

			Expect(got[:out.MaxInj]).To(Equal(want[:out.MaxInj]))
		},
		Entry("4 cylinders paired", uint8(4), config.InjPaired, false,
			[status.Channels]uint16{0, 180}),
		Entry("4 cylinders paired staged", uint8(4), config.InjPaired, true,
			[status.Channels]uint16{0, 180, 0, 180}),
		Entry("4 cylinders sequential staged", uint8(4), config.InjSequential,
			true, [status.Channels]uint16{0, 180, 360, 540, 0, 180, 360, 540}),
		Entry("5 cylinders sequential staged", uint8(5), config.InjSequential,
			true, [status.Channels]uint16{0, 144, 288, 432, 576, 0}),
		Entry("6 cylinders sequential", uint8(6), config.InjSequential, false,
			[status.Channels]uint16{0, 120, 240, 360, 480, 600}),
		Entry("6 cylinders sequential staged", uint8(6), config.InjSequential,
			true, [status.Channels]uint16{0, 120, 240, 360, 480, 600, 0, 360}),
		Entry("8 cylinders sequential staged", uint8(8), config.InjSequential,
			true, [status.Channels]uint16{0, 90, 180, 270, 360, 450, 540, 630}),
	)

	It("should time every staged channel inside the cycle", func() {
		tune.Engine.Cylinders = 6
		tune.Engine.InjLayout = config.InjSequential
		tune.Staging.Enabled = true

		out := tune.Outputs()
		for ch, deg := range injectorDegrees(tune, out) {
			Expect(deg).To(BeNumerically("<", out.CrankAngleMaxInj),
				"channel %d", ch)
		}
	})
})
