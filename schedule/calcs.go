package schedule

// InjectorStartAngle returns the crank angle at which an injection of
// pwDegrees must start to end at injAngle on a channel offset by
// channelDegrees.
func InjectorStartAngle(
	injAngle, channelDegrees, pwDegrees, crankAngleMax uint16,
) uint16 {
	if crankAngleMax == 0 {
		return 0
	}

	start := uint32(injAngle) + uint32(channelDegrees)
	if start < uint32(pwDegrees) {
		start += uint32(crankAngleMax)
	}

	start -= uint32(pwDegrees)
	for start > uint32(crankAngleMax) {
		start -= uint32(crankAngleMax)
	}

	return uint16(start)
}

// InjectorTimeout returns how long from now the injection starting at
// startAngle is due, or 0 if the angle has already passed.
func InjectorTimeout(
	conv *AngleConverter,
	status Status,
	startAngle, channelDegrees, crankAngle, crankAngleMax int,
) uint32 {
	return timeout(conv, status, startAngle, channelDegrees, crankAngle,
		crankAngleMax)
}

// IgnitionTimeout returns how long from now the dwell starting at startAngle
// is due, or 0 if the angle has already passed.
func IgnitionTimeout(
	conv *AngleConverter,
	status Status,
	startAngle, channelDegrees, crankAngle, crankAngleMax int,
) uint32 {
	return timeout(conv, status, startAngle, channelDegrees, crankAngle,
		crankAngleMax)
}

// timeout measures both angles relative to the channel so that the wrap at
// crankAngleMax happens at the same place for both. A running channel cannot
// be re-armed for the current cycle, so its start moves a full cycle later.
func timeout(
	conv *AngleConverter,
	status Status,
	startAngle, channelDegrees, crankAngle, crankAngleMax int,
) uint32 {
	crank := wrapBelow(crankAngle-channelDegrees, crankAngleMax)
	start := wrapBelow(startAngle-channelDegrees, crankAngleMax)

	if start <= crank && status.IsRunning() {
		start += crankAngleMax
	}

	if start <= crank {
		return 0
	}

	return conv.AngleToTime(uint16(start - crank))
}

func wrapBelow(angle, crankAngleMax int) int {
	if angle < 0 {
		return angle + crankAngleMax
	}

	return angle
}

// IgnitionAngles returns where the dwell of a channel starts and where the
// spark fires, given the advance and the dwell in degrees.
func IgnitionAngles(
	channelDegrees int, advance int8, dwellAngle uint16, crankAngleMax int,
) (start, end int) {
	if channelDegrees == 0 {
		channelDegrees = crankAngleMax
	}

	end = channelDegrees - int(advance)
	if end > crankAngleMax {
		end -= crankAngleMax
	}

	if end < 0 {
		end += crankAngleMax
	}

	start = end - int(dwellAngle)
	if start < 0 {
		start += crankAngleMax
	}

	return start, end
}

// ChannelDegrees returns the crank offset of each of n channels that fire
// spacing degrees apart. Offsets wrap at crankAngleMax, so channels that share
// a cycle position, such as the second bank of a semi-sequential layout, get
// the same offset.
func ChannelDegrees(n uint8, spacing, crankAngleMax uint16) []uint16 {
	degrees := make([]uint16, n)
	if crankAngleMax == 0 {
		return degrees
	}

	for i := range degrees {
		degrees[i] = uint16(uint32(i) * uint32(spacing) % uint32(crankAngleMax))
	}

	return degrees
}
