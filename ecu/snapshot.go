package ecu

import (
	"github.com/sarchlab/ecucore/datarecording"
	"github.com/sarchlab/ecucore/status"
)

// SnapshotTable is the table the SnapshotRecorder writes.
const SnapshotTable = "snapshots"

// SnapshotRecorder stores a copy of the main status values every few
// control loop iterations.
type SnapshotRecorder struct {
	backend datarecording.DataRecorder
	every   uint64
	seen    uint64
	written uint64
}

// NewSnapshotRecorder creates the snapshot table. A snapshot is taken every
// every-th call to Record; 0 means every call.
func NewSnapshotRecorder(
	backend datarecording.DataRecorder,
	every uint64,
) *SnapshotRecorder {
	backend.CreateTable(SnapshotTable, datarecording.SnapshotEntry{})

	return &SnapshotRecorder{backend: backend, every: max(every, 1)}
}

// Record stores st if it is due. seconds is the simulation time.
func (r *SnapshotRecorder) Record(seconds float64, st *status.Status) {
	r.seen++
	if (r.seen-1)%r.every != 0 {
		return
	}

	cut := st.Cut.Load()
	r.backend.InsertData(SnapshotTable, datarecording.SnapshotEntry{
		Time:        seconds,
		RPM:         st.RPM,
		MAP:         st.MAP,
		TPS:         st.TPS,
		Coolant:     st.Coolant,
		VE:          st.VE,
		Corrections: st.Corrections,
		PW1:         st.PW[0],
		Advance:     st.Advance,
		Dwell:       st.Dwell,
		CutFuel:     cut.Fuel,
		CutIgnition: cut.Ignition,
		Protecting:  st.Protect.Any(),
	})
	r.written++
}

// Written returns the number of snapshots stored.
func (r *SnapshotRecorder) Written() uint64 {
	return r.written
}
