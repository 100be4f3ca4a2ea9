package table

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Table2D", func() {
	var (
		curve *Table2D
	)

	BeforeEach(func() {
		curve = MustNewTable2D(
			[]int16{5, 23, 59, 101, 127, 167, 199, 211, 251},
			[]int16{251, 211, 199, 167, 127, 101, 59, 23, 5},
		)
	})

	It("should reject malformed shapes", func() {
		_, err := NewTable2D([]int16{1}, []int16{1})
		Expect(err).To(MatchError(ErrAxisLength))

		_, err = NewTable2D([]int16{1, 2, 3}, []int16{1, 2})
		Expect(err).To(MatchError(ErrShapeMismatch))
	})

	It("should interpolate between two bins", func() {
		Expect(curve.Lookup(114)).To(Equal(int16(147)))
		Expect(curve.Lookup(40)).To(Equal(int16(205)))
	})

	It("should return the stored value on an exact axis match", func() {
		for i := range curve.Axis {
			Expect(curve.Lookup(int32(curve.Axis[i]))).
				To(Equal(curve.Values[i]))
		}
	})

	It("should clamp above the axis", func() {
		Expect(curve.Lookup(300)).To(Equal(int16(5)))
		Expect(curve.Lookup(32000)).To(Equal(int16(5)))
	})

	It("should clamp below the axis", func() {
		Expect(curve.Lookup(0)).To(Equal(int16(251)))
		Expect(curve.Lookup(-400)).To(Equal(int16(251)))
	})

	It("should give the same answer with a warm or a cold cache", func() {
		inputs := []int32{250, 7, 114, 115, 200, 60, 60, 3, 252}
		warm := make([]int16, 0, len(inputs))
		for _, x := range inputs {
			warm = append(warm, curve.Lookup(x))
		}

		for i, x := range inputs {
			curve.Invalidate()
			Expect(curve.Lookup(x)).To(Equal(warm[i]))
		}
	})

	It("should see cell writes", func() {
		Expect(curve.Lookup(101)).To(Equal(int16(167)))

		curve.SetValue(3, 170)

		Expect(curve.Value(3)).To(Equal(int16(170)))
		Expect(curve.Lookup(101)).To(Equal(int16(170)))
	})

	It("should handle negative axes and values", func() {
		c := MustNewTable2D(
			[]int16{-30, -20, -10, 0},
			[]int16{-50, -10, 10, 60},
		)

		Expect(c.Lookup(-25)).To(Equal(int16(-30)))
		Expect(c.Lookup(-5)).To(Equal(int16(35)))
		Expect(c.Lookup(-100)).To(Equal(int16(-50)))
	})

	It("should resolve repeated axis entries", func() {
		c := MustNewTable2D([]int16{10, 10, 20}, []int16{1, 2, 3})

		Expect(c.Lookup(10)).To(Equal(int16(1)))
		Expect(c.Lookup(15)).To(Equal(int16(3)))
	})
})
