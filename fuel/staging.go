package fuel

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

// Staged is the result of splitting one pulse width over the primary and
// secondary injector banks.
type Staged struct {
	Primary   uint16
	Secondary uint16

	// Used is set when the pulse went through staging, so the channels
	// follow the staged layout even if the secondary share is zero.
	Used bool

	// Active is set when the secondary share is not zero.
	Active bool
}

// StagingMultipliers returns the percentages by which the total pulse is
// scaled for the primary and the secondary bank, given their flow rates.
func StagingMultipliers(priSize, secSize uint16) (pri, sec uint32) {
	total := uint32(priSize) + uint32(secSize)
	if priSize != 0 {
		pri = 100 * total / uint32(priSize)
	}

	if secSize != 0 {
		sec = 100 * total / uint32(secSize)
	}

	return pri, sec
}

// StagingUsable reports whether staging can run with the current pulse
// width. The engine needs a secondary channel per primary unless the
// injectors sit in a throttle body, and a pulse no longer than the open time
// is a fuel cut.
func StagingUsable(tune *config.Tune, pw, openTime uint16) bool {
	return tune.Staging.Enabled &&
		(tune.Engine.Cylinders <= status.Channels ||
			tune.Engine.InjType == config.InjThrottleBody) &&
		pw > openTime
}

func saturate16(v uint32) uint16 {
	if v > maxPW {
		return maxPW
	}

	return uint16(v)
}

// CalculateStaging splits pw between the banks. In table mode the split
// table gives the secondary share directly. In auto mode the primaries run up
// to limit and the excess moves to the secondaries, rescaled by the bank
// sizes. Both outputs include the open time again.
func CalculateStaging(
	pw, openTime, limit uint16,
	tune *config.Tune,
	st *status.Status,
) Staged {
	if !StagingUsable(tune, pw, openTime) {
		return Staged{Primary: pw}
	}

	multPri, multSec := StagingMultipliers(
		tune.Staging.InjSizePri, tune.Staging.InjSizeSec)

	fuel := uint32(pw - openTime)
	pri := fuel * multPri / 100

	if tune.Staging.Mode == config.StagingTable {
		split := uint32(clampU8(int32(tune.Staging.Split.Lookup(
			int32(st.RPM), int32(st.FuelLoad)))))
		if split > 100 {
			split = 100
		}

		out := Staged{
			Primary: saturate16((100-split)*pri/100 + uint32(openTime)),
			Used:    true,
		}

		if split > 0 {
			sec := fuel * multSec / 100
			out.Secondary = saturate16(split*sec/100 + uint32(openTime))
			out.Active = true
		}

		return out
	}

	if pri > uint32(limit) {
		extra := pri - uint32(limit) + uint32(openTime)

		return Staged{
			Primary:   limit,
			Secondary: saturate16(extra*multSec/multPri + uint32(openTime)),
			Used:      true,
			Active:    true,
		}
	}

	return Staged{Primary: saturate16(pri + uint32(openTime)), Used: true}
}

// ApplyPWToInjectorChannels fans the primary and secondary pulse widths out
// to the eight injector channels. Without staging the primary width goes to
// the first maxInjOutputs channels and the rest stay closed.
func ApplyPWToInjectorChannels(
	staged Staged,
	tune *config.Tune,
	maxInjOutputs uint8,
) [status.Channels]uint16 {
	var pw [status.Channels]uint16

	if !staged.Used {
		for i := 0; i < int(maxInjOutputs) && i < status.Channels; i++ {
			pw[i] = staged.Primary
		}

		return pw
	}

	for i, secondary := range stagedLayout(tune) {
		pw[i] = staged.Primary
		if secondary {
			pw[i] = staged.Secondary
		}
	}

	return pw
}

// InjectorSlots returns, for every injector channel, the index of the
// cylinder whose timing the channel follows. Unstaged channels follow their
// own index. With staging on, the primaries take the cylinders in order and
// the secondaries are spread evenly over the primaries.
func InjectorSlots(tune *config.Tune) [status.Channels]uint8 {
	var slots [status.Channels]uint8
	for i := range slots {
		slots[i] = uint8(i)
	}

	if !tune.Staging.Enabled {
		return slots
	}

	layout := stagedLayout(tune)

	var primaries, secondaries []int
	for ch, secondary := range layout {
		if secondary {
			secondaries = append(secondaries, ch)
		} else {
			primaries = append(primaries, ch)
		}
	}

	for k, ch := range primaries {
		slots[ch] = uint8(k)
	}

	for j, ch := range secondaries {
		slots[ch] = uint8(j * len(primaries) / len(secondaries))
	}

	for ch := len(layout); ch < status.Channels; ch++ {
		slots[ch] = 0
	}

	return slots
}

// stagedLayout lists the injector channels used while staging, true for
// the ones carrying the secondary pulse.
func stagedLayout(tune *config.Tune) []bool {
	seq := tune.Engine.InjLayout == config.InjSequential
	semi := tune.Engine.InjLayout == config.InjSemiSequential

	switch tune.Engine.Cylinders {
	case 1:
		return banks(1, 1)
	case 2:
		return banks(2, 2)
	case 3:
		return banks(3, 3)
	case 4:
		if seq || semi {
			return banks(4, 4)
		}

		return banks(2, 2)
	case 5:
		if seq {
			return banks(5, 1)
		}

		return banks(4, 2)
	case 6:
		if seq {
			return banks(6, 2)
		}

		return banks(3, 3)
	case 8:
		if seq {
			return banks(8, 0)
		}

		return banks(4, 4)
	default:
		return banks(2, 2)
	}
}

func banks(primaries, secondaries int) []bool {
	layout := make([]bool, primaries+secondaries)
	for i := primaries; i < len(layout); i++ {
		layout[i] = true
	}

	return layout
}
