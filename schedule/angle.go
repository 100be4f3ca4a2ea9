package schedule

// minRevolutionTime keeps degrees per µs inside UQ1.15.
const minRevolutionTime = 181

// AngleConverter converts between crank degrees and µs at the current engine
// speed. Both factors are fixed point: µs per degree is UQ24.8 and degrees
// per µs is UQ1.15.
type AngleConverter struct {
	revolutionTime  uint32
	microsPerDegree uint32
	degreesPerMicro uint16
	maxPeriod       uint32
}

// NewAngleConverter creates a converter whose checked conversions reject
// times of maxPeriod µs or more.
func NewAngleConverter(maxPeriod uint32) *AngleConverter {
	return &AngleConverter{maxPeriod: maxPeriod}
}

// SetRevolutionTime updates both factors from the time of one revolution in
// µs.
func (c *AngleConverter) SetRevolutionTime(revolutionTime uint32) {
	if revolutionTime == c.revolutionTime {
		return
	}

	c.revolutionTime = revolutionTime
	if revolutionTime == 0 {
		c.microsPerDegree = 0
		c.degreesPerMicro = 0

		return
	}

	c.microsPerDegree = uint32((uint64(revolutionTime) << 8) / 360)

	rt := max(revolutionTime, minRevolutionTime)
	c.degreesPerMicro = uint16((uint64(360)<<15 + uint64(rt)/2) / uint64(rt))
}

// RevolutionTime returns the revolution time the factors were built from.
func (c *AngleConverter) RevolutionTime() uint32 {
	return c.revolutionTime
}

// AngleToTime returns the time the crank needs to turn angle degrees.
func (c *AngleConverter) AngleToTime(angle uint16) uint32 {
	return uint32((uint64(angle)*uint64(c.microsPerDegree) + 1<<7) >> 8)
}

// AngleToTimeChecked is AngleToTime that also reports whether the result
// fits the compare range.
func (c *AngleConverter) AngleToTimeChecked(angle uint16) (uint32, bool) {
	t := c.AngleToTime(angle)

	return t, t < c.maxPeriod
}

// TimeToAngle returns the degrees the crank turns in us µs.
func (c *AngleConverter) TimeToAngle(us uint32) uint16 {
	return uint16((uint64(us)*uint64(c.degreesPerMicro) + 1<<14) >> 15)
}

// CycleFits reports whether a full cycle of crankAngleMax degrees fits the
// compare range, which is what queueing a follow-up event needs.
func (c *AngleConverter) CycleFits(crankAngleMax uint16) bool {
	_, ok := c.AngleToTimeChecked(crankAngleMax)

	return ok
}
