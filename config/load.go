package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTune is wrapped by every Validate failure.
var ErrInvalidTune = errors.New("invalid tune")

// Table is the part of a calibration table the loader needs.
type Table interface {
	Validate() error
	Invalidate()
}

// NamedTable pairs a table with its YAML path.
type NamedTable struct {
	Name  string
	Table Table
}

// Tables lists every table of the tune in a stable order. Nil tables are
// included so that Validate can report them.
func (t *Tune) Tables() []NamedTable {
	return []NamedTable{
		{"fuel.ve", t.Fuel.VE},
		{"fuel.afr_target", t.Fuel.AFRTarget},
		{"fuel.secondary.ve", t.Fuel.Secondary.VE},
		{"fuel.priming", t.Fuel.Priming},
		{"staging.split", t.Staging.Split},
		{"corrections.wue", t.Corrections.WUE},
		{"corrections.ase", t.Corrections.ASE},
		{"corrections.ase_count", t.Corrections.ASECount},
		{"corrections.cranking", t.Corrections.Cranking},
		{"corrections.battery", t.Corrections.Battery},
		{"corrections.iat", t.Corrections.IAT},
		{"corrections.baro", t.Corrections.Baro},
		{"corrections.flex", t.Corrections.Flex},
		{"corrections.fuel_temp", t.Corrections.FuelTemp},
		{"accel.tps_dots", t.Accel.TPSDots},
		{"accel.map_dots", t.Accel.MAPDots},
		{"ignition.advance", t.Ignition.Advance},
		{"ignition.secondary.advance", t.Ignition.Secondary.Advance},
		{"ignition.dwell", t.Ignition.Dwell},
		{"ignition.dwell_correction", t.Ignition.DwellCorrection},
		{"ignition.flex_advance", t.Ignition.FlexAdvance},
		{"ignition.iat_retard", t.Ignition.IATRetard},
		{"ignition.clt_advance", t.Ignition.CLTAdvance},
		{"protection.coolant_limit", t.Protection.CoolantLimit},
		{"protection.oil.min", t.Protection.Oil.Min},
		{"protection.rolling", t.Protection.Rolling},
	}
}

func isNil(t Table) bool {
	if t == nil {
		return true
	}

	v := reflect.ValueOf(t)

	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Validate checks the engine layout and the shape of every table. The
// values themselves are not range checked; a wrong calibration yields wrong
// but bounded outputs.
func (t *Tune) Validate() error {
	var errs []error

	if t.Engine.Cylinders == 0 || t.Engine.Cylinders > 8 {
		errs = append(errs, fmt.Errorf("engine.cylinders %d not in 1..8: %w",
			t.Engine.Cylinders, ErrInvalidTune))
	}

	if t.Engine.Squirts == 0 {
		errs = append(errs, fmt.Errorf("engine.squirts must be positive: %w",
			ErrInvalidTune))
	}

	if t.Staging.Enabled &&
		(t.Staging.InjSizePri == 0 || t.Staging.InjSizeSec == 0) {
		errs = append(errs, fmt.Errorf(
			"staging needs both injector sizes: %w", ErrInvalidTune))
	}

	for _, nt := range t.Tables() {
		if isNil(nt.Table) {
			errs = append(errs, fmt.Errorf("%s is missing: %w",
				nt.Name, ErrInvalidTune))
			continue
		}

		if err := nt.Table.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", nt.Name, err))
		}
	}

	return errors.Join(errs...)
}

// InvalidateTables drops the lookup caches of every table. It must follow
// any write to table cells or axes.
func (t *Tune) InvalidateTables() {
	for _, nt := range t.Tables() {
		if !isNil(nt.Table) {
			nt.Table.Invalidate()
		}
	}
}

// Load reads a tune from a YAML file on top of Default. A missing file
// yields the default tune.
func Load(path string) (*Tune, error) {
	tune := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tune, nil
		}

		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := Decode(data, tune); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	if err := tune.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	tune.InvalidateTables()

	return tune, nil
}

// Decode applies a YAML document onto tune. Fields the document leaves out
// keep their values, so a document may carry a single table or scalar.
func Decode(data []byte, tune *Tune) error {
	if err := yaml.Unmarshal(data, tune); err != nil {
		return fmt.Errorf("parsing tune: %w", err)
	}

	return nil
}

// Encode returns the tune as YAML.
func Encode(tune *Tune) ([]byte, error) {
	data, err := yaml.Marshal(tune)
	if err != nil {
		return nil, fmt.Errorf("config: encoding tune: %w", err)
	}

	return data, nil
}

// Save writes the tune as YAML, creating parent directories as needed.
func Save(path string, tune *Tune) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}

	data, err := Encode(tune)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}

	return nil
}
