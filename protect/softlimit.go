package protect

import (
	"math"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

// SoftLimiter retards the ignition above the soft rev limit for at most
// SoftLimMax tenths of a second. The time spent at the limit is kept in
// status.SoftLimitTime, where CheckRevLimit reads it.
type SoftLimiter struct {
	tick bool
}

// NewSoftLimiter creates a SoftLimiter.
func NewSoftLimiter() *SoftLimiter {
	return &SoftLimiter{}
}

// Tick10Hz records that a tenth of a second elapsed. The next Apply counts
// it.
func (s *SoftLimiter) Tick10Hz() {
	s.tick = true
}

// Apply returns the advance after the soft rev limit. A pending tick is
// consumed, so applying twice in one iteration counts the time once.
func (s *SoftLimiter) Apply(tune *config.Tune, st *status.Status, advance int8) int8 {
	tick := s.tick
	s.tick = false

	prot := tune.Protection
	st.Flags.SoftLimit = false

	if !prot.CutType.CutsSpark() {
		return advance
	}

	if st.RPMDiv100() < prot.SoftRevLim {
		if tick {
			st.SoftLimitTime = 0
		}

		return advance
	}

	st.Flags.SoftLimit = true

	if st.SoftLimitTime >= prot.SoftLimMax {
		return advance
	}

	switch prot.SoftLimitMode {
	case config.SoftLimitFixed:
		advance = clampI8(int32(prot.SoftLimRetard))
	case config.SoftLimitRelative:
		advance = clampI8(int32(advance) - int32(prot.SoftLimRetard))
	}

	if tick {
		st.SoftLimitTime++
	}

	return advance
}

func clampI8(v int32) int8 {
	if v < math.MinInt8 {
		return math.MinInt8
	}

	if v > math.MaxInt8 {
		return math.MaxInt8
	}

	return int8(v)
}
