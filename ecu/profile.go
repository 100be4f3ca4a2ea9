package ecu

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrEmptyProfile is returned for a drive profile without points.
var ErrEmptyProfile = errors.New("drive profile has no points")

// ProfilePoint is the driver input at one moment. Between two points every
// value moves linearly.
type ProfilePoint struct {
	// At is the time of the point in ms.
	At uint64 `yaml:"at"`

	RPM     uint16 `yaml:"rpm"`
	TPS     uint8  `yaml:"tps"`
	Coolant int16  `yaml:"coolant"`

	// Oil is the oil pressure in psi. Zero means the sensor reads healthy.
	Oil uint8 `yaml:"oil"`

	// Launch holds the launch control button.
	Launch bool `yaml:"launch"`
}

// Profile is a drive cycle for the virtual engine.
type Profile struct {
	Points []ProfilePoint `yaml:"points"`
}

// LoadProfile reads a YAML drive profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ecu: reading profile: %w", err)
	}

	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("ecu: parsing profile %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("ecu: profile %s: %w", path, err)
	}

	return p, nil
}

// Validate checks that the profile has points and sorts them by time.
func (p *Profile) Validate() error {
	if len(p.Points) == 0 {
		return ErrEmptyProfile
	}

	sort.SliceStable(p.Points, func(i, j int) bool {
		return p.Points[i].At < p.Points[j].At
	})

	return nil
}

// Duration returns the time of the last point in µs.
func (p *Profile) Duration() uint64 {
	if len(p.Points) == 0 {
		return 0
	}

	return p.Points[len(p.Points)-1].At * 1000
}

// At interpolates the profile at time now, in µs. Before the first point
// and after the last the edge point holds.
func (p *Profile) At(now uint64) ProfilePoint {
	ms := now / 1000
	pts := p.Points

	if ms <= pts[0].At {
		return pts[0]
	}

	last := pts[len(pts)-1]
	if ms >= last.At {
		return last
	}

	i := sort.Search(len(pts), func(i int) bool { return pts[i].At > ms })
	lo, hi := pts[i-1], pts[i]

	span := int64(hi.At-lo.At) * 1000
	pos := int64(now) - int64(lo.At)*1000
	lerp := func(a, b int64) int64 {
		return a + (b-a)*pos/span
	}

	return ProfilePoint{
		At:      ms,
		RPM:     uint16(lerp(int64(lo.RPM), int64(hi.RPM))),
		TPS:     uint8(lerp(int64(lo.TPS), int64(hi.TPS))),
		Coolant: int16(lerp(int64(lo.Coolant), int64(hi.Coolant))),
		Oil:     uint8(lerp(int64(lo.Oil), int64(hi.Oil))),
		Launch:  lo.Launch,
	}
}

// DefaultProfile cranks the engine, lets it idle, blips the throttle and
// runs it into the rev limiter.
func DefaultProfile() *Profile {
	return &Profile{Points: []ProfilePoint{
		{At: 0, RPM: 0, TPS: 0, Coolant: 20},
		{At: 200, RPM: 250, TPS: 0, Coolant: 20},
		{At: 800, RPM: 300, TPS: 0, Coolant: 20},
		{At: 1200, RPM: 900, TPS: 2, Coolant: 22},
		{At: 3000, RPM: 850, TPS: 2, Coolant: 30},
		{At: 3300, RPM: 3000, TPS: 60, Coolant: 32},
		{At: 4000, RPM: 5500, TPS: 100, Coolant: 35},
		{At: 4500, RPM: 7200, TPS: 100, Coolant: 38},
		{At: 5000, RPM: 2000, TPS: 0, Coolant: 40},
		{At: 6000, RPM: 900, TPS: 2, Coolant: 42},
	}}
}
