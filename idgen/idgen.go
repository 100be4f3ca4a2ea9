// Package idgen generates identifiers for armed output events and for
// simulation runs.
package idgen

import (
	"sync/atomic"

	"github.com/rs/xid"
)

// ID identifies one armed output event.
type ID uint64

// Generator produces unique identifiers.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first emitted ID is 1.
func New() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() ID {
	return ID(atomic.AddUint64(&g.next, 1))
}

// RunID returns a globally unique, sortable name for a simulation run.
func RunID() string {
	return xid.New().String()
}
