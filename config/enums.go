package config

import (
	"fmt"
	"strings"
)

func marshalEnum[T ~uint8](v T, names []string) ([]byte, error) {
	if int(v) >= len(names) {
		return nil, fmt.Errorf("config: enum value %d out of range", v)
	}

	return []byte(names[v]), nil
}

func unmarshalEnum[T ~uint8](text []byte, names []string, out *T) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))

	for i, n := range names {
		if n == s {
			*out = T(i)
			return nil
		}
	}

	return fmt.Errorf("config: unknown value %q, want one of %s",
		s, strings.Join(names, ", "))
}

// Strokes is the engine cycle.
type Strokes uint8

// Engine cycles.
const (
	FourStroke Strokes = iota
	TwoStroke
)

var strokesNames = []string{"four_stroke", "two_stroke"}

func (v Strokes) MarshalText() ([]byte, error) { return marshalEnum(v, strokesNames) }

func (v *Strokes) UnmarshalText(b []byte) error { return unmarshalEnum(b, strokesNames, v) }

// InjLayout is the way injectors are wired to the output channels.
type InjLayout uint8

// Injector layouts.
const (
	InjPaired InjLayout = iota
	InjSemiSequential
	InjBanked
	InjSequential
)

var injLayoutNames = []string{"paired", "semi_sequential", "banked", "sequential"}

func (v InjLayout) MarshalText() ([]byte, error) { return marshalEnum(v, injLayoutNames) }

func (v *InjLayout) UnmarshalText(b []byte) error { return unmarshalEnum(b, injLayoutNames, v) }

// InjType is the injector mounting.
type InjType uint8

// Injector mountings.
const (
	InjPort InjType = iota
	InjThrottleBody
)

var injTypeNames = []string{"port", "throttle_body"}

func (v InjType) MarshalText() ([]byte, error) { return marshalEnum(v, injTypeNames) }

func (v *InjType) UnmarshalText(b []byte) error { return unmarshalEnum(b, injTypeNames, v) }

// LoadSource is the engine load metric that indexes a table.
type LoadSource uint8

// Load sources.
const (
	LoadMAP LoadSource = iota
	LoadTPS
	LoadIMAPEMAP
)

var loadSourceNames = []string{"map", "tps", "imap_emap"}

func (v LoadSource) MarshalText() ([]byte, error) { return marshalEnum(v, loadSourceNames) }

func (v *LoadSource) UnmarshalText(b []byte) error { return unmarshalEnum(b, loadSourceNames, v) }

// MultiplyMAP selects how MAP scales the pulse width.
type MultiplyMAP uint8

// MAP multiply modes.
const (
	MultiplyMAPOff MultiplyMAP = iota
	MultiplyMAPBaro
	MultiplyMAP100
)

var multiplyMAPNames = []string{"off", "baro", "fixed_100"}

func (v MultiplyMAP) MarshalText() ([]byte, error) { return marshalEnum(v, multiplyMAPNames) }

func (v *MultiplyMAP) UnmarshalText(b []byte) error { return unmarshalEnum(b, multiplyMAPNames, v) }

// BattCorMode selects what the battery voltage correction scales.
type BattCorMode uint8

// Battery correction modes.
const (
	BattCorWhole BattCorMode = iota
	BattCorOpenTime
)

var battCorModeNames = []string{"whole", "open_time"}

func (v BattCorMode) MarshalText() ([]byte, error) { return marshalEnum(v, battCorModeNames) }

func (v *BattCorMode) UnmarshalText(b []byte) error { return unmarshalEnum(b, battCorModeNames, v) }

// SecondaryMode combines a secondary fuel or spark table with the primary.
type SecondaryMode uint8

// Secondary table modes.
const (
	SecondaryOff SecondaryMode = iota
	SecondaryMultiply
	SecondaryAdd
	SecondaryConditional
	SecondaryInput
)

var secondaryModeNames = []string{"off", "multiply", "add", "conditional", "input"}

func (v SecondaryMode) MarshalText() ([]byte, error) { return marshalEnum(v, secondaryModeNames) }

func (v *SecondaryMode) UnmarshalText(b []byte) error { return unmarshalEnum(b, secondaryModeNames, v) }

// SwitchVariable is the input compared by a conditional secondary table.
type SwitchVariable uint8

// Conditional switch inputs.
const (
	SwitchRPM SwitchVariable = iota
	SwitchMAP
	SwitchTPS
	SwitchEthanol
)

var switchVariableNames = []string{"rpm", "map", "tps", "ethanol"}

func (v SwitchVariable) MarshalText() ([]byte, error) { return marshalEnum(v, switchVariableNames) }

func (v *SwitchVariable) UnmarshalText(b []byte) error {
	return unmarshalEnum(b, switchVariableNames, v)
}

// StagingMode selects how fuel is split across injector banks.
type StagingMode uint8

// Staging modes.
const (
	StagingTable StagingMode = iota
	StagingAuto
)

var stagingModeNames = []string{"table", "auto"}

func (v StagingMode) MarshalText() ([]byte, error) { return marshalEnum(v, stagingModeNames) }

func (v *StagingMode) UnmarshalText(b []byte) error { return unmarshalEnum(b, stagingModeNames, v) }

// AEMode is the sensor acceleration enrichment watches.
type AEMode uint8

// Acceleration enrichment sensors.
const (
	AEModeTPS AEMode = iota
	AEModeMAP
)

var aeModeNames = []string{"tps", "map"}

func (v AEMode) MarshalText() ([]byte, error) { return marshalEnum(v, aeModeNames) }

func (v *AEMode) UnmarshalText(b []byte) error { return unmarshalEnum(b, aeModeNames, v) }

// AEApply selects how the enrichment reaches the pulse width.
type AEApply uint8

// Acceleration enrichment application modes.
const (
	AEMultiplier AEApply = iota
	AEAdder
)

var aeApplyNames = []string{"multiplier", "adder"}

func (v AEApply) MarshalText() ([]byte, error) { return marshalEnum(v, aeApplyNames) }

func (v *AEApply) UnmarshalText(b []byte) error { return unmarshalEnum(b, aeApplyNames, v) }

// EGOType is the oxygen sensor fitted.
type EGOType uint8

// Oxygen sensor types.
const (
	EGOOff EGOType = iota
	EGONarrowband
	EGOWideband
)

var egoTypeNames = []string{"off", "narrowband", "wideband"}

func (v EGOType) MarshalText() ([]byte, error) { return marshalEnum(v, egoTypeNames) }

func (v *EGOType) UnmarshalText(b []byte) error { return unmarshalEnum(b, egoTypeNames, v) }

// EGOAlgorithm is the closed loop fuel trim strategy.
type EGOAlgorithm uint8

// Closed loop algorithms.
const (
	EGOSimple EGOAlgorithm = iota
	EGONoCorrection
)

var egoAlgorithmNames = []string{"simple", "none"}

func (v EGOAlgorithm) MarshalText() ([]byte, error) { return marshalEnum(v, egoAlgorithmNames) }

func (v *EGOAlgorithm) UnmarshalText(b []byte) error { return unmarshalEnum(b, egoAlgorithmNames, v) }

// SparkMode is the way coils are fired.
type SparkMode uint8

// Spark modes.
const (
	SparkWasted SparkMode = iota
	SparkSingle
	SparkSequential
)

var sparkModeNames = []string{"wasted", "single", "sequential"}

func (v SparkMode) MarshalText() ([]byte, error) { return marshalEnum(v, sparkModeNames) }

func (v *SparkMode) UnmarshalText(b []byte) error { return unmarshalEnum(b, sparkModeNames, v) }

// CutType selects the outputs engine protection is allowed to cut.
type CutType uint8

// Protection cut types.
const (
	CutOff CutType = iota
	CutSpark
	CutFuel
	CutBoth
)

var cutTypeNames = []string{"off", "spark", "fuel", "both"}

func (v CutType) MarshalText() ([]byte, error) { return marshalEnum(v, cutTypeNames) }

func (v *CutType) UnmarshalText(b []byte) error { return unmarshalEnum(b, cutTypeNames, v) }

// CutsFuel reports whether the cut type removes fuel.
func (v CutType) CutsFuel() bool { return v == CutFuel || v == CutBoth }

// CutsSpark reports whether the cut type removes spark.
func (v CutType) CutsSpark() bool { return v == CutSpark || v == CutBoth }

// HardCutType selects how a hard limit removes outputs.
type HardCutType uint8

// Hard cut types.
const (
	HardCutFull HardCutType = iota
	HardCutRolling
)

var hardCutTypeNames = []string{"full", "rolling"}

func (v HardCutType) MarshalText() ([]byte, error) { return marshalEnum(v, hardCutTypeNames) }

func (v *HardCutType) UnmarshalText(b []byte) error { return unmarshalEnum(b, hardCutTypeNames, v) }

// HardRevMode selects where the hard rev limit comes from.
type HardRevMode uint8

// Hard rev limit modes.
const (
	HardRevFixed HardRevMode = iota
	HardRevCoolant
)

var hardRevModeNames = []string{"fixed", "coolant"}

func (v HardRevMode) MarshalText() ([]byte, error) { return marshalEnum(v, hardRevModeNames) }

func (v *HardRevMode) UnmarshalText(b []byte) error { return unmarshalEnum(b, hardRevModeNames, v) }

// SoftLimitMode selects how the soft rev limiter retards timing.
type SoftLimitMode uint8

// Soft limiter modes.
const (
	SoftLimitFixed SoftLimitMode = iota
	SoftLimitRelative
)

var softLimitModeNames = []string{"fixed", "relative"}

func (v SoftLimitMode) MarshalText() ([]byte, error) { return marshalEnum(v, softLimitModeNames) }

func (v *SoftLimitMode) UnmarshalText(b []byte) error {
	return unmarshalEnum(b, softLimitModeNames, v)
}

// AFRProtectMode selects the lean limit of AFR protection.
type AFRProtectMode uint8

// AFR protection modes.
const (
	AFRProtectOff AFRProtectMode = iota
	AFRProtectFixed
	AFRProtectTable
)

var afrProtectModeNames = []string{"off", "fixed", "table"}

func (v AFRProtectMode) MarshalText() ([]byte, error) { return marshalEnum(v, afrProtectModeNames) }

func (v *AFRProtectMode) UnmarshalText(b []byte) error {
	return unmarshalEnum(b, afrProtectModeNames, v)
}
