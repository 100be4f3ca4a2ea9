package config

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
)

// ErrNothingStaged is returned by Commit when Stage was not called.
var ErrNothingStaged = errors.New("no staged tune")

// ErrLayoutChanged is returned by Commit when the layout is locked and the
// staged tune needs a different set of output channels.
var ErrLayoutChanged = errors.New("output layout changed")

// Store owns the active tune and coordinates calibration writes. Writes go to
// a staged deep copy and become visible to the control loop only on Commit.
type Store struct {
	mu        sync.RWMutex
	active    *Tune
	staged    *Tune
	hasStaged bool
	revision  uint64
	layout    *Outputs
}

// NewStore creates a store whose active tune is a deep copy of tune.
func NewStore(tune *Tune) (*Store, error) {
	copyVal, err := deepCopy(tune)
	if err != nil {
		return nil, fmt.Errorf("config: unable to copy tune: %w", err)
	}

	return &Store{active: copyVal}, nil
}

// LockLayout makes Commit refuse tunes whose output layout differs from the
// active one. Outputs wired to hardware cannot follow a layout change.
func (s *Store) LockLayout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.active.Outputs()
	s.layout = &out
}

// Active returns the tune the control loop should use. The returned value is
// shared and must not be written to; table lookup caches live in it.
func (s *Store) Active() *Tune {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// Revision counts the commits so far.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.revision
}

// Snapshot returns a deep copy of the active tune.
func (s *Store) Snapshot() (*Tune, error) {
	return deepCopy(s.Active())
}

// Stage returns a mutable copy of the active tune. The same staged value is
// returned until it is committed or discarded.
func (s *Store) Stage() (*Tune, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasStaged {
		return s.staged, nil
	}

	copyVal, err := deepCopy(s.active)
	if err != nil {
		return nil, fmt.Errorf("config: unable to copy tune: %w", err)
	}

	s.staged = copyVal
	s.hasStaged = true

	return s.staged, nil
}

// Commit validates the staged tune and makes it active.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasStaged {
		return fmt.Errorf("config: %w", ErrNothingStaged)
	}

	if err := s.staged.Validate(); err != nil {
		return fmt.Errorf("config: staged tune rejected: %w", err)
	}

	if s.layout != nil && s.staged.Outputs() != *s.layout {
		return fmt.Errorf("config: staged tune rejected: %w", ErrLayoutChanged)
	}

	s.staged.InvalidateTables()
	s.active = s.staged
	s.staged = nil
	s.hasStaged = false
	s.revision++

	return nil
}

// Discard forgets the staged tune.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.staged = nil
	s.hasStaged = false
}

func deepCopy(tune *Tune) (*Tune, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(tune); err != nil {
		return nil, err
	}

	out := new(Tune)
	if err := gob.NewDecoder(&buf).Decode(out); err != nil {
		return nil, err
	}

	return out, nil
}
