package ecu

import (
	"github.com/sarchlab/ecucore/status"
)

const (
	// microDegreesPerRevolution is 360 degrees in millionths of a degree.
	microDegreesPerRevolution = 360 * 1000000

	// cycleDegrees is the crank angle of a four stroke cycle.
	cycleDegrees = 720

	idleMAP = 30
	wotMAP  = 100
)

// VirtualEngine is a deterministic engine that follows a drive profile. It
// acts as both the crank decoder and the sensors.
type VirtualEngine struct {
	profile *Profile

	started     bool
	lastNow     uint64
	microDegree uint64
	revolutions uint32

	sampled    bool
	lastSample uint64
}

// NewVirtualEngine creates a VirtualEngine that follows p.
func NewVirtualEngine(p *Profile) *VirtualEngine {
	return &VirtualEngine{profile: p}
}

// Profile returns the drive profile.
func (e *VirtualEngine) Profile() *Profile {
	return e.profile
}

// Update turns the crank from the previous call to now at the profile RPM.
func (e *VirtualEngine) Update(st *status.Status, now uint64) {
	p := e.profile.At(now)

	if e.started && now > e.lastNow {
		// 6 degrees per µs at 1 million RPM
		e.microDegree += uint64(p.RPM) * 6 * (now - e.lastNow)
	}

	e.started = true
	e.lastNow = now

	e.revolutions = uint32(e.microDegree / microDegreesPerRevolution)

	st.RPM = p.RPM
	st.StartRevolutions = e.revolutions
	st.CrankAngle = int16(e.microDegree / 1000000 % cycleDegrees)

	switch {
	case p.RPM == 0:
		st.Sync = status.SyncNone
		st.RevolutionTime = 0
	case e.revolutions < 2:
		st.Sync = status.SyncPartial
		st.HalfSync = true
		st.RevolutionTime = 60000000 / uint32(p.RPM)
	default:
		st.Sync = status.SyncFull
		st.HalfSync = false
		st.RevolutionTime = 60000000 / uint32(p.RPM)
	}
}

// Read samples the sensors from the profile. MAP follows the throttle.
func (e *VirtualEngine) Read(st *status.Status, now uint64) {
	p := e.profile.At(now)

	var elapsed uint64
	if e.sampled && now > e.lastSample {
		elapsed = now - e.lastSample
	}

	e.sampled = true
	e.lastSample = now

	st.TPSLast = st.TPS
	st.MAPLast = st.MAP

	st.TPS = p.TPS
	st.MAP = uint16(idleMAP + (wotMAP-idleMAP)*uint32(p.TPS)/100)
	if p.RPM == 0 {
		st.MAP = uint16(st.Baro)
	}

	if elapsed > 0 {
		st.TPSDot = int16((int64(st.TPS) - int64(st.TPSLast)) * 1000000 /
			int64(elapsed))
		st.MAPDot = int16((int64(st.MAP) - int64(st.MAPLast)) * 1000000 /
			int64(elapsed))
	}

	st.Coolant = p.Coolant
	st.IAT = 25
	st.FuelTemp = 25
	st.Battery10 = 138
	st.O2 = 147
	st.EthanolPct = 0

	st.OilPressure = p.Oil
	if p.Oil == 0 && p.RPM > 0 {
		st.OilPressure = 40
	}

	st.LaunchingHard = p.Launch
}
