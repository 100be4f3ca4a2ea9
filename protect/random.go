package protect

import "math/rand/v2"

// RandomSource decides the rolling cut coin flips.
type RandomSource interface {
	// Percent returns a number from 1 to 100. A channel is cut when the
	// number is below the cut percentage.
	Percent() uint8
}

type pcgSource struct {
	r *rand.Rand
}

// NewRandomSource returns a RandomSource backed by a PCG generator. The same
// seed gives the same sequence.
func NewRandomSource(seed uint64) RandomSource {
	return &pcgSource{
		r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *pcgSource) Percent() uint8 {
	return uint8(s.r.IntN(100)) + 1
}
