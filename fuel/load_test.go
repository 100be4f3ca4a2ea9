package fuel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
	"github.com/sarchlab/ecucore/table"
)

var _ = Describe("Load", func() {
	var (
		st *status.Status
	)

	BeforeEach(func() {
		st = status.New()
		st.MAP = 150
		st.EMAP = 200
		st.TPS = 40
	})

	It("should pick the configured source", func() {
		Expect(Load(config.LoadMAP, st)).To(Equal(int16(150)))
		Expect(Load(config.LoadTPS, st)).To(Equal(int16(80)))
		Expect(Load(config.LoadIMAPEMAP, st)).To(Equal(int16(75)))
	})

	It("should fall back to MAP without an exhaust pressure reading", func() {
		st.EMAP = 0

		Expect(Load(config.LoadIMAPEMAP, st)).To(Equal(int16(150)))
	})
})

var _ = Describe("ComputeVE", func() {
	var (
		tune *config.Tune
		st   *status.Status
	)

	BeforeEach(func() {
		tune = config.Default()
		st = status.New()
		st.RPM = 2000
		st.MAP = 55
	})

	It("should use the primary table alone by default", func() {
		Expect(ComputeVE(tune, st)).To(Equal(uint8(68)))
		Expect(st.FuelLoad).To(Equal(int16(55)))
		Expect(st.Flags.Fuel2Active).To(BeFalse())
	})

	It("should multiply the tables", func() {
		tune.Fuel.Secondary.Mode = config.SecondaryMultiply
		tune.Fuel.Secondary.VE = table.NewUniformTable3D(
			[]int16{500, 7000}, []int16{20, 200}, 150)

		Expect(ComputeVE(tune, st)).To(Equal(uint8(102)))
		Expect(st.VE2).To(Equal(uint8(150)))
	})

	It("should add the tables and saturate", func() {
		tune.Fuel.Secondary.Mode = config.SecondaryAdd
		tune.Fuel.Secondary.VE = table.NewUniformTable3D(
			[]int16{500, 7000}, []int16{20, 200}, 200)

		Expect(ComputeVE(tune, st)).To(Equal(uint8(255)))
	})

	It("should switch on a condition", func() {
		tune.Fuel.Secondary.Mode = config.SecondaryConditional
		tune.Fuel.Secondary.SwitchOn = config.SwitchRPM
		tune.Fuel.Secondary.SwitchValue = 4000

		Expect(ComputeVE(tune, st)).To(Equal(uint8(68)))
		Expect(st.Flags.Fuel2Active).To(BeFalse())

		st.RPM = 5500
		Expect(ComputeVE(tune, st)).To(Equal(uint8(100)))
		Expect(st.VE1).To(Equal(uint8(86)))
		Expect(st.Flags.Fuel2Active).To(BeTrue())
	})

	It("should switch on the input", func() {
		tune.Fuel.Secondary.Mode = config.SecondaryInput

		Expect(ComputeVE(tune, st)).To(Equal(uint8(68)))

		st.Fuel2Input = true
		Expect(ComputeVE(tune, st)).To(Equal(uint8(100)))
		Expect(st.Flags.Fuel2Active).To(BeTrue())
	})

	It("should test every switch variable", func() {
		st.TPS = 50
		st.EthanolPct = 85

		Expect(SwitchCondition(config.SwitchMAP, 50, st)).To(BeTrue())
		Expect(SwitchCondition(config.SwitchMAP, 55, st)).To(BeFalse())
		Expect(SwitchCondition(config.SwitchTPS, 49, st)).To(BeTrue())
		Expect(SwitchCondition(config.SwitchEthanol, 85, st)).To(BeFalse())
		Expect(SwitchCondition(config.SwitchEthanol, 10, st)).To(BeTrue())
	})
})

var _ = Describe("ComputeAFRTarget", func() {
	var (
		tune *config.Tune
		st   *status.Status
	)

	BeforeEach(func() {
		tune = config.Default()
		st = status.New()
		st.RPM = 2000
		st.FuelLoad = 55
		st.O2 = 150
		st.AFRTarget = 140
	})

	It("should use the table when incorporating the AFR", func() {
		tune.Fuel.IncorporateAFR = true

		Expect(ComputeAFRTarget(tune, st)).To(Equal(uint8(135)))
	})

	It("should follow the sensor during warm-up", func() {
		st.RunSecs = 5

		Expect(ComputeAFRTarget(tune, st)).To(Equal(uint8(150)))

		st.RunSecs = 30
		Expect(ComputeAFRTarget(tune, st)).To(Equal(uint8(135)))
	})

	It("should keep the previous target without a sensor", func() {
		tune.EGO.Type = config.EGOOff

		Expect(ComputeAFRTarget(tune, st)).To(Equal(uint8(140)))
	})
})
