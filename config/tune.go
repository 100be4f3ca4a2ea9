// Package config holds the tunable calibration of the engine controller.
//
// Scalars keep the storage units the calibration is written in: temperatures
// carry a +40 offset, MAP limits are stored in kPa/2, RPM limits in 100 RPM
// and times in tenths of a millisecond or tenths of a second, as noted on each
// field.
package config

import "github.com/sarchlab/ecucore/table"

// Tune is the whole calibration.
type Tune struct {
	Engine      Engine      `yaml:"engine"`
	Fuel        Fuel        `yaml:"fuel"`
	Staging     Staging     `yaml:"staging"`
	Nitrous     Nitrous     `yaml:"nitrous"`
	Corrections Corrections `yaml:"corrections"`
	Accel       Accel       `yaml:"accel"`
	EGO         EGO         `yaml:"ego"`
	DFCO        DFCO        `yaml:"dfco"`
	Ignition    Ignition    `yaml:"ignition"`
	Protection  Protection  `yaml:"protection"`
	Launch      Launch      `yaml:"launch"`
}

// Engine describes the engine layout.
type Engine struct {
	Cylinders uint8     `yaml:"cylinders"`
	Strokes   Strokes   `yaml:"strokes"`
	InjLayout InjLayout `yaml:"inj_layout"`
	InjType   InjType   `yaml:"inj_type"`
	SparkMode SparkMode `yaml:"spark_mode"`

	// Squirts is the number of injections per engine cycle.
	Squirts uint8 `yaml:"squirts"`

	// CrankRPM is the cranking threshold in 10 RPM.
	CrankRPM uint8 `yaml:"crank_rpm"`

	// StgCycles is the number of revolutions after start before any cut is
	// allowed.
	StgCycles uint8 `yaml:"stg_cycles"`

	// InjAngle is the crank angle at which the primary injection ends.
	InjAngle uint16 `yaml:"inj_angle"`
}

// Fuel is the base fuel calibration.
type Fuel struct {
	// ReqFuel is the required fuel per cylinder in tenths of a millisecond.
	ReqFuel uint8 `yaml:"req_fuel"`

	// InjOpen is the injector opening time in tenths of a millisecond.
	InjOpen uint8 `yaml:"inj_open"`

	LoadSource     LoadSource  `yaml:"load_source"`
	MultiplyMAP    MultiplyMAP `yaml:"multiply_map"`
	IncludeAFR     bool        `yaml:"include_afr"`
	IncorporateAFR bool        `yaml:"incorporate_afr"`
	BattCorMode    BattCorMode `yaml:"batt_cor_mode"`

	// Stoich is the stoichiometric AFR ×10.
	Stoich uint8 `yaml:"stoich"`

	// DutyLim is the maximum injector duty cycle in percent.
	DutyLim uint8 `yaml:"duty_lim"`

	VE        *table.Table3D `yaml:"ve"`
	AFRTarget *table.Table3D `yaml:"afr_target"`

	Secondary SecondaryFuel `yaml:"secondary"`

	// Priming is the start-up priming pulse in half milliseconds against
	// coolant.
	Priming *table.Table2D `yaml:"priming"`
}

// SecondaryFuel is the second VE table and the way it is blended in.
type SecondaryFuel struct {
	Mode        SecondaryMode  `yaml:"mode"`
	LoadSource  LoadSource     `yaml:"load_source"`
	SwitchOn    SwitchVariable `yaml:"switch_on"`
	SwitchValue uint16         `yaml:"switch_value"`
	VE          *table.Table3D `yaml:"ve"`
}

// Staging splits fuel between two injector banks.
type Staging struct {
	Enabled bool        `yaml:"enabled"`
	Mode    StagingMode `yaml:"mode"`

	// Injector flow rates in cc/min.
	InjSizePri uint16 `yaml:"inj_size_pri"`
	InjSizeSec uint16 `yaml:"inj_size_sec"`

	// Split is the secondary share in percent by RPM and fuel load.
	Split *table.Table3D `yaml:"split"`
}

// NitrousStage is one nitrous stage.
type NitrousStage struct {
	// RPM window in 100 RPM.
	MinRPM uint8 `yaml:"min_rpm"`
	MaxRPM uint8 `yaml:"max_rpm"`

	// Fuel adders in tenths of a millisecond at the window edges.
	AdderMin uint8 `yaml:"adder_min"`
	AdderMax uint8 `yaml:"adder_max"`

	// Retard is the ignition retard in degrees.
	Retard uint8 `yaml:"retard"`
}

// Nitrous holds both stages. Which stage is armed comes from the driver
// inputs.
type Nitrous struct {
	Enabled bool         `yaml:"enabled"`
	Stage1  NitrousStage `yaml:"stage1"`
	Stage2  NitrousStage `yaml:"stage2"`
}

// Corrections holds the fuel correction curves. Curves on temperature use
// the +40 offset on their axis.
type Corrections struct {
	WUE *table.Table2D `yaml:"wue"`

	ASE      *table.Table2D `yaml:"ase"`
	ASECount *table.Table2D `yaml:"ase_count"`

	// ASETaperTime is the after-start taper in tenths of a second.
	ASETaperTime uint8 `yaml:"ase_taper_time"`

	// Cranking is stored in 5 % steps.
	Cranking *table.Table2D `yaml:"cranking"`

	// CrankingTaper is the post-cranking taper in tenths of a second.
	CrankingTaper uint8 `yaml:"cranking_taper"`

	// FloodClear is the TPS above which cranking fuel is cut.
	FloodClear uint8 `yaml:"flood_clear"`

	// Battery is the correction against battery voltage ×10.
	Battery *table.Table2D `yaml:"battery"`

	IAT  *table.Table2D `yaml:"iat"`
	Baro *table.Table2D `yaml:"baro"`

	FlexEnabled bool           `yaml:"flex_enabled"`
	Flex        *table.Table2D `yaml:"flex"`

	FuelTempEnabled bool           `yaml:"fuel_temp_enabled"`
	FuelTemp        *table.Table2D `yaml:"fuel_temp"`
}

// Accel is the acceleration enrichment calibration.
type Accel struct {
	Mode  AEMode  `yaml:"mode"`
	Apply AEApply `yaml:"apply"`

	// TPSThresh is in %/s and MAPThresh in kPa/s.
	TPSThresh uint8  `yaml:"tps_thresh"`
	MAPThresh uint16 `yaml:"map_thresh"`

	TPSMinChange uint8 `yaml:"tps_min_change"`
	MAPMinChange uint8 `yaml:"map_min_change"`

	// Time is the event length in 10 ms.
	Time uint8 `yaml:"time"`

	// Dot curves are keyed on the rate of change / 10.
	TPSDots *table.Table2D `yaml:"tps_dots"`
	MAPDots *table.Table2D `yaml:"map_dots"`

	// RPM taper window in 100 RPM.
	TaperMin uint8 `yaml:"taper_min"`
	TaperMax uint8 `yaml:"taper_max"`

	// Cold taper: ColdPct at ColdTaperMin rising to 100 % at ColdTaperMax.
	ColdPct      uint8 `yaml:"cold_pct"`
	ColdTaperMin uint8 `yaml:"cold_taper_min"`
	ColdTaperMax uint8 `yaml:"cold_taper_max"`

	DecelAmount uint8 `yaml:"decel_amount"`
}

// EGO is the closed loop fuel trim calibration.
type EGO struct {
	Type      EGOType      `yaml:"type"`
	Algorithm EGOAlgorithm `yaml:"algorithm"`

	Temp   uint8 `yaml:"temp"`
	RPM    uint8 `yaml:"rpm"`
	TPSMax uint8 `yaml:"tps_max"`

	// O2 window, AFR ×10.
	Min uint8 `yaml:"min"`
	Max uint8 `yaml:"max"`

	// Delay is the sensor warm-up in seconds after start.
	Delay uint8 `yaml:"delay"`

	// Count is the number of ignitions between steps.
	Count uint8 `yaml:"count"`
	Limit uint8 `yaml:"limit"`

	// MAP window in kPa/2.
	MAPMin uint8 `yaml:"map_min"`
	MAPMax uint8 `yaml:"map_max"`
}

// DFCO is the deceleration fuel cut-off calibration.
type DFCO struct {
	Enabled bool `yaml:"enabled"`

	// RPM is in 10 RPM and Hyster in 2 RPM.
	RPM    uint8 `yaml:"rpm"`
	Hyster uint8 `yaml:"hyster"`

	TPSThresh uint8 `yaml:"tps_thresh"`
	MinCLT    uint8 `yaml:"min_clt"`

	// Delay is in tenths of a second.
	Delay uint8 `yaml:"delay"`

	TaperEnabled bool  `yaml:"taper_enabled"`
	TaperTime    uint8 `yaml:"taper_time"`
	TaperFuel    uint8 `yaml:"taper_fuel"`
	TaperAdvance uint8 `yaml:"taper_advance"`
}

// SecondarySpark is the second spark table and the way it is blended in.
type SecondarySpark struct {
	Mode        SecondaryMode  `yaml:"mode"`
	LoadSource  LoadSource     `yaml:"load_source"`
	SwitchOn    SwitchVariable `yaml:"switch_on"`
	SwitchValue uint16         `yaml:"switch_value"`
	Advance     *table.Table3D `yaml:"advance"`
}

// Ignition is the spark calibration.
type Ignition struct {
	LoadSource LoadSource     `yaml:"load_source"`
	Advance    *table.Table3D `yaml:"advance"`
	Secondary  SecondarySpark `yaml:"secondary"`

	// Dwell settings in tenths of a millisecond.
	DwellCrank  uint8          `yaml:"dwell_crank"`
	DwellRun    uint8          `yaml:"dwell_run"`
	UseDwellMap bool           `yaml:"use_dwell_map"`
	Dwell       *table.Table3D `yaml:"dwell"`
	SparkDur    uint8          `yaml:"spark_dur"`

	// DwellLimit is the longest allowed dwell in milliseconds, 0 for none.
	DwellLimit uint8 `yaml:"dwell_limit"`

	DwellCorrection *table.Table2D `yaml:"dwell_correction"`

	// FlexAdvance is stored unsigned with a 40 degree offset.
	FlexEnabled bool           `yaml:"flex_enabled"`
	FlexAdvance *table.Table2D `yaml:"flex_advance"`

	IATRetard *table.Table2D `yaml:"iat_retard"`

	// CLTAdvance is stored with a 15 degree offset.
	CLTAdvance *table.Table2D `yaml:"clt_advance"`

	FixedTiming bool `yaml:"fixed_timing"`
	FixedAngle  int8 `yaml:"fixed_angle"`
	CrankAngle  int8 `yaml:"crank_angle"`
}

// BoostProtect cuts above a MAP ceiling.
type BoostProtect struct {
	Enabled bool `yaml:"enabled"`

	// Limit is in kPa/2.
	Limit uint8 `yaml:"limit"`
}

// OilProtect cuts below a minimum oil pressure.
type OilProtect struct {
	Enabled bool `yaml:"enabled"`

	// Time is the activation delay in tenths of a second.
	Time uint8 `yaml:"time"`

	// Min is the minimum pressure against RPM/100.
	Min *table.Table2D `yaml:"min"`
}

// AFRProtect cuts when the mixture runs lean under load.
type AFRProtect struct {
	Mode      AFRProtectMode `yaml:"mode"`
	Deviation uint8          `yaml:"deviation"`

	MinMAP uint8 `yaml:"min_map"`
	MinRPM uint8 `yaml:"min_rpm"`
	MinTPS uint8 `yaml:"min_tps"`

	// CutTime is the delay in tenths of a second.
	CutTime         uint8 `yaml:"cut_time"`
	ReactivationTPS uint8 `yaml:"reactivation_tps"`
}

// Protection is the engine protection calibration.
type Protection struct {
	CutType     CutType     `yaml:"cut_type"`
	HardCutType HardCutType `yaml:"hard_cut_type"`

	// MaxRPM is the engine speed in 100 RPM above which boost, oil and AFR
	// protection cut.
	MaxRPM uint8 `yaml:"max_rpm"`

	HardRevMode  HardRevMode    `yaml:"hard_rev_mode"`
	HardRevLim   uint8          `yaml:"hard_rev_lim"`
	CoolantLimit *table.Table2D `yaml:"coolant_limit"`

	SoftRevLim    uint8         `yaml:"soft_rev_lim"`
	SoftLimRetard uint8         `yaml:"soft_lim_retard"`
	SoftLimMax    uint8         `yaml:"soft_lim_max"`
	SoftLimitMode SoftLimitMode `yaml:"soft_limit_mode"`

	Boost BoostProtect `yaml:"boost"`
	Oil   OilProtect   `yaml:"oil"`
	AFR   AFRProtect   `yaml:"afr"`

	// Rolling maps the RPM overshoot in 10 RPM to a cut percentage.
	Rolling *table.Table2D `yaml:"rolling"`
}

// Launch is the launch control and flat shift calibration.
type Launch struct {
	Enabled   bool  `yaml:"enabled"`
	FuelAdder uint8 `yaml:"fuel_adder"`

	// Retards are absolute advance in degrees.
	LaunchRetard    int8 `yaml:"launch_retard"`
	FlatShiftRetard int8 `yaml:"flat_shift_retard"`
}
