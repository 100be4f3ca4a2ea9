package table

import "fmt"

// Table2D is a curve: a single axis and one value per axis entry.
type Table2D struct {
	Axis   []int16 `yaml:"axis"`
	Values []int16 `yaml:"values"`

	bin        binCache
	lastInput  int32
	lastOutput int16
	hasLast    bool
}

// NewTable2D creates a curve. The axis and values are copied.
func NewTable2D(axis, values []int16) (*Table2D, error) {
	t := &Table2D{
		Axis:   append([]int16(nil), axis...),
		Values: append([]int16(nil), values...),
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// MustNewTable2D is NewTable2D that panics on a malformed shape. It is meant
// for tables built from constants.
func MustNewTable2D(axis, values []int16) *Table2D {
	t, err := NewTable2D(axis, values)
	if err != nil {
		panic(err)
	}

	return t
}

// Validate checks the shape of the curve. Axis ordering is not checked.
func (t *Table2D) Validate() error {
	if err := checkAxis(t.Axis); err != nil {
		return fmt.Errorf("curve axis has %d bins: %w", len(t.Axis), err)
	}

	if len(t.Values) != len(t.Axis) {
		return fmt.Errorf("curve has %d values for %d bins: %w",
			len(t.Values), len(t.Axis), ErrShapeMismatch)
	}

	return nil
}

// Len returns the number of bins.
func (t *Table2D) Len() int {
	return len(t.Axis)
}

// Lookup interpolates the curve at x. Values outside the axis are clamped to
// the edge bins.
func (t *Table2D) Lookup(x int32) int16 {
	if t.hasLast && t.lastInput == x {
		return t.lastOutput
	}

	p := resolve(t.Axis, x, &t.bin)
	lo := t.Values[p.upper-1]
	hi := t.Values[p.upper]

	out := int16((blend(lo, hi, p.frac) + fracOne/2) >> fracBits)

	t.lastInput = x
	t.lastOutput = out
	t.hasLast = true

	return out
}

// Value returns the stored value of bin i.
func (t *Table2D) Value(i int) int16 {
	return t.Values[i]
}

// SetValue overwrites the value of bin i.
func (t *Table2D) SetValue(i int, v int16) {
	t.Values[i] = v
	t.Invalidate()
}

// SetAxis overwrites axis entry i.
func (t *Table2D) SetAxis(i int, v int16) {
	t.Axis[i] = v
	t.Invalidate()
}

// Invalidate drops the lookup cache.
func (t *Table2D) Invalidate() {
	t.bin.invalidate()
	t.hasLast = false
}
