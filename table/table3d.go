package table

import "fmt"

// Table3D is a map addressed by an X axis (engine speed) and a Y axis (load).
// Values are indexed [y][x]; row 0 belongs to the lowest Y bin.
type Table3D struct {
	XAxis  []int16   `yaml:"x_axis"`
	YAxis  []int16   `yaml:"y_axis"`
	Values [][]int16 `yaml:"values"`

	xBin binCache
	yBin binCache

	lastX, lastY int32
	lastOutput   int16
	hasLast      bool
}

// NewTable3D creates a map. All slices are copied.
func NewTable3D(xAxis, yAxis []int16, values [][]int16) (*Table3D, error) {
	rows := make([][]int16, len(values))
	for i, r := range values {
		rows[i] = append([]int16(nil), r...)
	}

	t := &Table3D{
		XAxis:  append([]int16(nil), xAxis...),
		YAxis:  append([]int16(nil), yAxis...),
		Values: rows,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// MustNewTable3D is NewTable3D that panics on a malformed shape.
func MustNewTable3D(xAxis, yAxis []int16, values [][]int16) *Table3D {
	t, err := NewTable3D(xAxis, yAxis, values)
	if err != nil {
		panic(err)
	}

	return t
}

// NewUniformTable3D creates a map where every cell holds v.
func NewUniformTable3D(xAxis, yAxis []int16, v int16) *Table3D {
	rows := make([][]int16, len(yAxis))
	for i := range rows {
		rows[i] = make([]int16, len(xAxis))
		for j := range rows[i] {
			rows[i][j] = v
		}
	}

	return MustNewTable3D(xAxis, yAxis, rows)
}

// Validate checks the shape of the map. Axis ordering is not checked.
func (t *Table3D) Validate() error {
	if err := checkAxis(t.XAxis); err != nil {
		return fmt.Errorf("x axis has %d bins: %w", len(t.XAxis), err)
	}

	if err := checkAxis(t.YAxis); err != nil {
		return fmt.Errorf("y axis has %d bins: %w", len(t.YAxis), err)
	}

	if len(t.Values) != len(t.YAxis) {
		return fmt.Errorf("map has %d rows for %d y bins: %w",
			len(t.Values), len(t.YAxis), ErrShapeMismatch)
	}

	for i, r := range t.Values {
		if len(r) != len(t.XAxis) {
			return fmt.Errorf("row %d has %d values for %d x bins: %w",
				i, len(r), len(t.XAxis), ErrShapeMismatch)
		}
	}

	return nil
}

// Rows returns the number of Y bins.
func (t *Table3D) Rows() int {
	return len(t.YAxis)
}

// Cols returns the number of X bins.
func (t *Table3D) Cols() int {
	return len(t.XAxis)
}

// Lookup interpolates the map at (x, y). Inputs outside an axis are clamped
// to its edge bin.
func (t *Table3D) Lookup(x, y int32) int16 {
	if t.hasLast && t.lastX == x && t.lastY == y {
		return t.lastOutput
	}

	xp := resolve(t.XAxis, x, &t.xBin)
	yp := resolve(t.YAxis, y, &t.yBin)

	lowRow := t.Values[yp.upper-1]
	highRow := t.Values[yp.upper]

	bottom := blend(lowRow[xp.upper-1], lowRow[xp.upper], xp.frac)
	top := blend(highRow[xp.upper-1], highRow[xp.upper], xp.frac)

	sum := bottom*(fracOne-yp.frac) + top*yp.frac
	out := int16((sum + int64(1)<<(2*fracBits-1)) >> (2 * fracBits))

	t.lastX = x
	t.lastY = y
	t.lastOutput = out
	t.hasLast = true

	return out
}

// Value returns the cell at the given Y row and X column.
func (t *Table3D) Value(row, col int) int16 {
	return t.Values[row][col]
}

// SetValue overwrites a cell.
func (t *Table3D) SetValue(row, col int, v int16) {
	t.Values[row][col] = v
	t.hasLast = false
}

// SetXAxis overwrites X axis entry i.
func (t *Table3D) SetXAxis(i int, v int16) {
	t.XAxis[i] = v
	t.Invalidate()
}

// SetYAxis overwrites Y axis entry i.
func (t *Table3D) SetYAxis(i int, v int16) {
	t.YAxis[i] = v
	t.Invalidate()
}

// Invalidate drops all cached lookup state.
func (t *Table3D) Invalidate() {
	t.xBin.invalidate()
	t.yBin.invalidate()
	t.hasLast = false
}
