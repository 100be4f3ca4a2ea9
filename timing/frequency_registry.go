package timing

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

var (
	// ErrZeroFrequency is returned when a clock domain of 0 Hz is registered.
	ErrZeroFrequency = errors.New("timing: frequency must be positive")

	// ErrNoFrequencyDomains is returned when a conversion is requested before
	// any clock domain exists.
	ErrNoFrequencyDomains = errors.New("timing: no frequency domains registered")

	// ErrTickPrecisionLoss is returned when a duration is not a whole number
	// of global cycles.
	ErrTickPrecisionLoss = errors.New("timing: duration is not cycle aligned")

	// ErrTickOverflow is returned when a value does not fit the cycle range.
	ErrTickOverflow = errors.New("timing: cycle count overflows")
)

// FrequencyRegistry derives one global cycle resolution from all registered
// clock domains. The global frequency is the least common multiple of every
// domain, so each domain ticks on a whole number of global cycles.
type FrequencyRegistry struct {
	global  FreqInHz
	domains map[FreqInHz]*FreqDomain
}

// NewFrequencyRegistry builds an empty registry.
func NewFrequencyRegistry() *FrequencyRegistry {
	return &FrequencyRegistry{
		domains: make(map[FreqInHz]*FreqDomain),
	}
}

// RegisterFrequency adds a clock domain and returns its descriptor.
// Registering the same frequency twice returns the same domain.
func (r *FrequencyRegistry) RegisterFrequency(
	freq FreqInHz,
) (*FreqDomain, error) {
	if freq == 0 {
		return nil, ErrZeroFrequency
	}

	if domain, exists := r.domains[freq]; exists {
		return domain, nil
	}

	if r.global == 0 {
		r.global = freq
	} else {
		newGlobal, err := lcmFreq(r.global, freq)
		if err != nil {
			return nil, err
		}
		r.global = newGlobal
	}

	domain := &FreqDomain{
		freq:     freq,
		registry: r,
	}
	r.domains[freq] = domain

	return domain, nil
}

// GlobalFrequency returns the frequency of one global cycle.
func (r *FrequencyRegistry) GlobalFrequency() FreqInHz {
	return r.global
}

// CyclesToSeconds converts a global cycle count to seconds.
func (r *FrequencyRegistry) CyclesToSeconds(cycles VTimeInCycle) VTimeInSec {
	if r.global == 0 {
		return 0
	}

	return VTimeInSec(float64(cycles) / float64(r.global))
}

// SecondsToCycles converts a duration in seconds to global cycles. The
// duration must land on a whole cycle.
func (r *FrequencyRegistry) SecondsToCycles(
	sec VTimeInSec,
) (VTimeInCycle, error) {
	if r.global == 0 {
		return 0, ErrNoFrequencyDomains
	}

	if sec < 0 {
		return 0, fmt.Errorf(
			"timing: negative durations are not supported: %.12g", sec)
	}

	scaled := float64(sec) * float64(r.global)
	rounded := math.Round(scaled)

	if math.Abs(scaled-rounded) > cycleAlignmentTolerance(scaled) {
		return 0, fmt.Errorf("%w: duration %.12g s exceeds cycle %.12g s",
			ErrTickPrecisionLoss, sec, 1.0/float64(r.global))
	}

	if rounded > float64(math.MaxUint64) {
		return 0, ErrTickOverflow
	}

	return VTimeInCycle(rounded), nil
}

func (r *FrequencyRegistry) strideFor(freq FreqInHz) VTimeInCycle {
	return VTimeInCycle(r.global / freq)
}

func cycleAlignmentTolerance(scaled float64) float64 {
	return math.Max(1e-9, math.Abs(scaled)*1e-12)
}

func gcdFreq(a, b FreqInHz) FreqInHz {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

func lcmFreq(a, b FreqInHz) (FreqInHz, error) {
	g := gcdFreq(a, b)

	hi, lo := bits.Mul64(uint64(a/g), uint64(b))
	if hi != 0 {
		return 0, fmt.Errorf("%w: lcm(%d, %d)", ErrTickOverflow, a, b)
	}

	return FreqInHz(lo), nil
}

// FreqDomain describes one clock inside a FrequencyRegistry. Its stride is
// read from the registry on every call, so domains registered earlier stay
// valid after the global resolution changes.
type FreqDomain struct {
	freq     FreqInHz
	registry *FrequencyRegistry
}

// FrequencyHz returns the frequency of the domain.
func (d *FreqDomain) FrequencyHz() FreqInHz {
	return d.freq
}

// Stride returns the number of global cycles per domain tick.
func (d *FreqDomain) Stride() VTimeInCycle {
	return d.registry.strideFor(d.freq)
}

// ThisTick returns now if it is on a tick boundary, otherwise the next tick.
func (d *FreqDomain) ThisTick(now VTimeInCycle) VTimeInCycle {
	stride := d.Stride()

	rem := now % stride
	if rem == 0 {
		return now
	}

	return saturatingAdd(now, stride-rem)
}

// NextTick returns the first tick strictly after now.
func (d *FreqDomain) NextTick(now VTimeInCycle) VTimeInCycle {
	stride := d.Stride()

	return saturatingAdd(now-now%stride, stride)
}

// NTicksLater returns the time n ticks after the tick at or after now.
func (d *FreqDomain) NTicksLater(now, n VTimeInCycle) VTimeInCycle {
	hi, delta := bits.Mul64(uint64(n), uint64(d.Stride()))
	if hi != 0 {
		return VTimeInCycle(math.MaxUint64)
	}

	return saturatingAdd(d.ThisTick(now), VTimeInCycle(delta))
}

// TickCount returns the number of whole ticks elapsed at now.
func (d *FreqDomain) TickCount(now VTimeInCycle) uint64 {
	return uint64(now / d.Stride())
}

func saturatingAdd(a, b VTimeInCycle) VTimeInCycle {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return VTimeInCycle(math.MaxUint64)
	}

	return VTimeInCycle(sum)
}
