package datarecording

// RunInfo is one property of a simulation run.
type RunInfo struct {
	Property string
	Value    string
}

// PulseEntry is one realised output pulse: an injection or a coil dwell.
type PulseEntry struct {
	ID      uint64
	Channel string `ecu_data:"index"`
	Kind    string
	Start   float64 `ecu_data:"index"`
	End     float64
	WidthUs float64
}

// TransitionEntry is one state change of an output schedule.
type TransitionEntry struct {
	Time     float64 `ecu_data:"index"`
	Schedule string  `ecu_data:"index"`
	EventID  uint64
	From     string
	To       string
}

// SnapshotEntry is the engine state after one control loop iteration.
type SnapshotEntry struct {
	Time        float64 `ecu_data:"index"`
	RPM         uint16
	MAP         uint16
	TPS         uint8
	Coolant     int16
	VE          uint8
	Corrections uint16
	PW1         uint16
	Advance     int8
	Dwell       uint16
	CutFuel     uint8
	CutIgnition uint8
	Protecting  bool
}
