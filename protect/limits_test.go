package protect

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

func cruising() *status.Status {
	st := status.New()
	st.Running = true
	st.RPM = 3000
	st.MAP = 60
	st.TPS = 20
	st.Coolant = 90
	st.OilPressure = 80
	st.O2 = 147
	st.AFRTarget = 147
	st.RunSecs = 60

	return st
}

var _ = Describe("Protector", func() {
	var (
		tune *config.Tune
		st   *status.Status
		p    *Protector
	)

	BeforeEach(func() {
		tune = config.Default()
		st = cruising()
		p = NewProtector(NewRandomSource(1))
	})

	Context("boost", func() {
		It("should trip above the ceiling", func() {
			st.MAP = 240
			Expect(p.CheckBoost(tune, st)).To(BeFalse())

			st.MAP = 241
			Expect(p.CheckBoost(tune, st)).To(BeTrue())
			Expect(st.Protect.MAP).To(BeTrue())

			st.MAP = 100
			Expect(p.CheckBoost(tune, st)).To(BeFalse())
			Expect(st.Protect.MAP).To(BeFalse())
		})

		It("should be off when disabled", func() {
			st.MAP = 300

			tune.Protection.Boost.Enabled = false
			Expect(p.CheckBoost(tune, st)).To(BeFalse())

			tune.Protection.Boost.Enabled = true
			tune.Protection.CutType = config.CutOff
			Expect(p.CheckBoost(tune, st)).To(BeFalse())
		})
	})

	Context("oil pressure", func() {
		BeforeEach(func() {
			st.RPM = 2000
			st.OilPressure = 5
		})

		It("should wait for the activation delay", func() {
			Expect(p.CheckOil(tune, st, 0)).To(BeFalse())
			Expect(p.CheckOil(tune, st, 999_999)).To(BeFalse())
			Expect(p.CheckOil(tune, st, 1_000_000)).To(BeTrue())
			Expect(st.Protect.Oil).To(BeTrue())
		})

		It("should recover and restart the timer", func() {
			p.CheckOil(tune, st, 0)
			p.CheckOil(tune, st, 1_000_000)

			st.OilPressure = 15
			Expect(p.CheckOil(tune, st, 1_100_000)).To(BeFalse())
			Expect(st.Protect.Oil).To(BeFalse())

			st.OilPressure = 5
			Expect(p.CheckOil(tune, st, 2_000_000)).To(BeFalse())
			Expect(p.CheckOil(tune, st, 3_000_000)).To(BeTrue())
		})

		It("should activate at once with no delay", func() {
			tune.Protection.Oil.Time = 0

			Expect(p.CheckOil(tune, st, 0)).To(BeTrue())
		})

		It("should follow the minimum curve", func() {
			st.RPM = 6000
			st.OilPressure = 35
			tune.Protection.Oil.Time = 0

			Expect(p.CheckOil(tune, st, 0)).To(BeTrue())

			st.RPM = 1000
			Expect(p.CheckOil(tune, st, 0)).To(BeFalse())
		})
	})

	Context("AFR", func() {
		BeforeEach(func() {
			st.MAP = 130
			st.RPM = 4500
			st.TPS = 70
			st.O2 = 161
		})

		It("should cut after the delay when lean of target", func() {
			Expect(p.CheckAFR(tune, st, 0)).To(BeFalse())
			Expect(p.CheckAFR(tune, st, 499_999)).To(BeFalse())
			Expect(p.CheckAFR(tune, st, 500_000)).To(BeTrue())
			Expect(st.Protect.AFR).To(BeTrue())
		})

		It("should restart the delay when the condition breaks", func() {
			p.CheckAFR(tune, st, 0)

			st.O2 = 160
			Expect(p.CheckAFR(tune, st, 300_000)).To(BeFalse())

			st.O2 = 161
			Expect(p.CheckAFR(tune, st, 600_000)).To(BeFalse())
			Expect(p.CheckAFR(tune, st, 1_100_000)).To(BeTrue())
		})

		It("should hold until the throttle closes", func() {
			p.CheckAFR(tune, st, 0)
			p.CheckAFR(tune, st, 500_000)

			st.O2 = 147
			Expect(p.CheckAFR(tune, st, 600_000)).To(BeTrue())

			st.TPS = 20
			Expect(p.CheckAFR(tune, st, 700_000)).To(BeFalse())
			Expect(st.Protect.AFR).To(BeFalse())
		})

		It("should compare with a fixed value in fixed mode", func() {
			tune.Protection.AFR.Mode = config.AFRProtectFixed
			tune.Protection.AFR.Deviation = 160

			p.CheckAFR(tune, st, 0)
			Expect(p.CheckAFR(tune, st, 500_000)).To(BeTrue())
		})

		It("should need a warm wideband sensor", func() {
			st.RunSecs = 5
			p.CheckAFR(tune, st, 0)
			Expect(p.CheckAFR(tune, st, 500_000)).To(BeFalse())

			st.RunSecs = 60
			tune.EGO.Type = config.EGONarrowband
			p.CheckAFR(tune, st, 0)
			Expect(p.CheckAFR(tune, st, 500_000)).To(BeFalse())
		})
	})

	Context("engine protection", func() {
		It("should need the protection speed", func() {
			st.MAP = 250

			Expect(p.CheckEngineProtect(tune, st, 0)).To(BeFalse())
			Expect(st.Protect.MAP).To(BeTrue())

			st.RPM = 3100
			Expect(p.CheckEngineProtect(tune, st, 0)).To(BeTrue())
		})
	})

	Context("rev limit", func() {
		It("should return the fixed hard limit", func() {
			st.RPM = 6700
			Expect(p.CheckRevLimit(tune, st)).To(Equal(uint8(68)))
			Expect(st.Protect.RPM).To(BeFalse())

			st.RPM = 6800
			Expect(p.CheckRevLimit(tune, st)).To(Equal(uint8(68)))
			Expect(st.Protect.RPM).To(BeTrue())
			Expect(st.Flags.HardLimit).To(BeTrue())
		})

		It("should apply the hard limit at the soft limit after the soft time", func() {
			st.RPM = 6600
			p.CheckRevLimit(tune, st)
			Expect(st.Protect.RPM).To(BeFalse())

			st.SoftLimitTime = 20
			Expect(p.CheckRevLimit(tune, st)).To(Equal(uint8(65)))
			Expect(st.Protect.RPM).To(BeTrue())
			Expect(st.CurrentLimitRPM).To(Equal(uint8(65)))

			st.RPM = 6400
			Expect(p.CheckRevLimit(tune, st)).To(Equal(uint8(65)))
			Expect(st.Protect.RPM).To(BeFalse())
		})

		It("should follow the coolant curve in coolant mode", func() {
			tune.Protection.HardRevMode = config.HardRevCoolant
			st.Coolant = 0
			st.RPM = 4500

			Expect(p.CheckRevLimit(tune, st)).To(Equal(uint8(45)))
			Expect(st.Protect.Coolant).To(BeFalse())

			st.RPM = 5000
			Expect(p.CheckRevLimit(tune, st)).To(Equal(uint8(45)))
			Expect(st.Protect.Coolant).To(BeTrue())
			Expect(st.Protect.RPM).To(BeTrue())
			Expect(st.CurrentLimitRPM).To(Equal(uint8(45)))

			st.Coolant = 50
			Expect(p.CheckRevLimit(tune, st)).To(Equal(uint8(68)))
			Expect(st.Protect.Coolant).To(BeFalse())
		})

		It("should not limit with protection off", func() {
			tune.Protection.CutType = config.CutOff
			st.RPM = 9000

			Expect(p.CheckRevLimit(tune, st)).To(Equal(uint8(255)))
			Expect(st.Protect.Any()).To(BeFalse())
		})
	})
})
