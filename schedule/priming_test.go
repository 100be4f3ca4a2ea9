package schedule

import (
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
	"github.com/sarchlab/ecucore/table"
)

var _ = Describe("PrimingPulse", func() {
	var (
		r         *rig
		tune      *config.Tune
		st        *status.Status
		edges     [4][]edge
		injectors []*FuelSchedule
	)

	BeforeEach(func() {
		r = newRig()
		tune = config.Default()
		st = &status.Status{}
		edges = [4][]edge{}

		injectors = nil
		for i := range edges {
			injectors = append(injectors, r.fuel("inj", &edges[i]))
		}
	})

	It("should prime every injector in use once", func() {
		Expect(PrimingPulse(tune, st, injectors)).To(Equal(2))

		Expect(injectors[0].Status()).To(Equal(Pending))
		Expect(injectors[1].Status()).To(Equal(Pending))
		Expect(injectors[2].Status()).To(Equal(Off))

		Expect(r.engine.Run()).To(Succeed())

		Expect(edges[0]).To(Equal([]edge{{true, 100}, {false, 22100}}))
		Expect(edges[1]).To(Equal(edges[0]))
		Expect(edges[2]).To(BeEmpty())
	})

	It("should not prime a flooded engine", func() {
		st.TPS = 95

		Expect(PrimingPulse(tune, st, injectors)).To(BeZero())
	})

	It("should not prime when the table says zero", func() {
		tune.Fuel.Priming = table.MustNewTable2D(
			[]int16{0, 160}, []int16{0, 0})

		Expect(PrimingPulse(tune, st, injectors)).To(BeZero())
		Expect(r.engine.Pending()).To(BeZero())
	})
})
