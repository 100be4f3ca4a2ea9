package status

import "sync"

// AllChannels is a mask with every output channel enabled.
const AllChannels uint8 = 0xFF

// Cut is the per-channel output decision of one evaluation. A set bit in
// Fuel or Ignition means the channel may fire. A set bit in
// PendingIgnition means the channel was re-enabled and must wait for a full
// dwell before it sparks again.
type Cut struct {
	Fuel            uint8
	Ignition        uint8
	PendingIgnition uint8
}

// NoCut enables every channel.
func NoCut() Cut {
	return Cut{Fuel: AllChannels, Ignition: AllChannels}
}

// FuelOn reports whether injector channel ch (0-based) may fire.
func (c Cut) FuelOn(ch int) bool {
	return c.Fuel&(1<<ch) != 0
}

// IgnitionOn reports whether coil channel ch (0-based) may fire.
func (c Cut) IgnitionOn(ch int) bool {
	return c.Ignition&(1<<ch) != 0 && c.PendingIgnition&(1<<ch) == 0
}

// CutState is the cut decision shared between the control loop, which
// latches it, and the output interrupts, which read it.
type CutState struct {
	mu sync.Mutex

	cut             Cut
	lastRollRev     uint32
	rollInitialized bool
}

// NewCutState creates a CutState with every channel enabled.
func NewCutState() *CutState {
	return &CutState{cut: NoCut()}
}

// Latch publishes a new decision.
func (s *CutState) Latch(c Cut) {
	s.mu.Lock()
	s.cut = c
	s.mu.Unlock()
}

// Load returns the latest decision. All three masks come from the same
// Latch call.
func (s *CutState) Load() Cut {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cut
}

// LastRoll returns the revolution at which the rolling cut last rolled its
// dice, and false if it has not rolled since the cut was released.
func (s *CutState) LastRoll() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastRollRev, s.rollInitialized
}

// MarkRoll records the revolution of the latest roll.
func (s *CutState) MarkRoll(rev uint32) {
	s.mu.Lock()
	s.lastRollRev = rev
	s.rollInitialized = true
	s.mu.Unlock()
}

// ResetRoll forgets the last roll. The next rolling cut starts counting from
// the revolution it is first evaluated at.
func (s *CutState) ResetRoll() {
	s.mu.Lock()
	s.lastRollRev = 0
	s.rollInitialized = false
	s.mu.Unlock()
}
