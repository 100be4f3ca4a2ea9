// Package status holds the engine state snapshot that every control loop
// iteration reads and writes.
//
// A Status is owned by the control loop and passed by pointer into the fuel,
// ignition and protection calculations. The only fields shared with
// interrupt handlers live in CutState, which carries its own lock.
package status

// Channels is the number of injector and ignition output channels.
const Channels = 8

// SyncStatus is the decoder's confidence in the crank position.
type SyncStatus uint8

// Sync states reported by the decoder.
const (
	SyncNone SyncStatus = iota
	SyncPartial
	SyncFull
)

// NitrousStage tells which nitrous stages are armed.
type NitrousStage uint8

// Nitrous stages.
const (
	NitrousOff NitrousStage = iota
	NitrousStage1
	NitrousStage2
	NitrousBoth
)

// Has reports whether stage s is part of n.
func (n NitrousStage) Has(s NitrousStage) bool {
	return n == s || n == NitrousBoth
}

// Status is the snapshot of the engine condition.
type Status struct {
	// Decoder
	RPM              uint16
	Sync             SyncStatus
	HalfSync         bool
	CrankAngle       int16
	RevolutionTime   uint32
	StartRevolutions uint32
	Cranking         bool
	Running          bool
	RunSecs          uint16

	// Sensors
	MAP         uint16
	MAPLast     uint16
	EMAP        uint16
	Baro        uint8
	TPS         uint8
	TPSLast     uint8
	TPSDot      int16
	MAPDot      int16
	Coolant     int16
	IAT         int16
	FuelTemp    int16
	Battery10   uint8
	O2          uint8
	EthanolPct  uint8
	OilPressure uint8
	Fuel2Input  bool
	Spark2Input bool

	// Driver inputs
	LaunchingHard   bool
	LaunchingSoft   bool
	FlatShiftActive bool
	FlatShiftHard   bool
	Nitrous         NitrousStage

	// Computed loads and tables
	FuelLoad  int16
	IgnLoad   int16
	VE1       uint8
	VE2       uint8
	VE        uint8
	AFRTarget uint8
	Advance1  int8
	Advance2  int8
	Advance   int8

	// Corrections
	WUECorrection      uint8
	ASEValue           uint8
	CrankingEnrich     uint16
	AEAmount           uint16
	EGOCorrection      uint8
	BatCorrection      uint8
	IATCorrection      uint8
	BaroCorrection     uint8
	FlexCorrection     uint8
	FuelTempCorrection uint8
	LaunchCorrection   uint8
	FlexIgnCorrection  int8
	Corrections        uint16
	DwellCorrection    uint8

	// Computed outputs
	ReqFuel      uint16
	OpenTime     uint16
	PW           [Channels]uint16
	Dwell        uint16
	ActualDwell  uint16
	NSquirts     uint8
	MaxInjOutput uint8
	MaxIgnOutput uint8

	// Flags
	Flags Flags

	// Protection
	Protect         ProtectFlags
	SoftLimitTime   uint8
	CurrentLimitRPM uint8
	IgnitionCount   uint16
	Cut             *CutState
}

// Flags mirror the engine and status bits the corrections raise.
type Flags struct {
	Warmup        bool
	ASE           bool
	Accelerating  bool
	Decelerating  bool
	DFCO          bool
	Fuel2Active   bool
	Spark2Active  bool
	StagingActive bool
	SoftLimit     bool
	HardLimit     bool
}

// ProtectFlags record which protection is active.
type ProtectFlags struct {
	RPM     bool
	MAP     bool
	Oil     bool
	AFR     bool
	Coolant bool
}

// Any reports whether any protection is active.
func (p ProtectFlags) Any() bool {
	return p.RPM || p.MAP || p.Oil || p.AFR || p.Coolant
}

// New returns a status with a fresh CutState and every channel enabled.
func New() *Status {
	return &Status{
		Baro:          100,
		Battery10:     125,
		EGOCorrection: 100,
		AEAmount:      100,
		ASEValue:      100,
		Cut:           NewCutState(),
	}
}

// RPMDiv100 returns RPM in hundreds, the resolution of most RPM limits.
func (s *Status) RPMDiv100() uint8 {
	d := s.RPM / 100
	if d > 255 {
		return 255
	}

	return uint8(d)
}
