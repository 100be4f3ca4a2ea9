package fuel

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
	"github.com/sarchlab/ecucore/table"
)

// tempOffset is the offset of every temperature axis.
const tempOffset = 40

// maxCorrections caps the aggregate correction percentage.
const maxCorrections = 1500

// aeTimeUnit is the unit of Accel.Time in µs.
const aeTimeUnit = 10000

// Corrector computes the aggregate fuel correction. It keeps the state of
// the corrections that taper or wait across iterations.
type Corrector struct {
	tick bool

	crankTaper uint8
	aseTaper   uint8

	aeEndTime   uint64
	activateDot int32

	egoNextCycle int32

	dfcoDelay uint8
	dfcoTaper uint8
}

// NewCorrector creates a Corrector with no correction in progress.
func NewCorrector() *Corrector {
	return &Corrector{}
}

// Tick10Hz records that a tenth of a second elapsed. Tapers and delays
// advance on the next Compute.
func (c *Corrector) Tick10Hz() {
	c.tick = true
}

func pct(v uint32, p uint32) uint32 {
	return v * p / 100
}

func curveAt(t *table.Table2D, x int32) int32 {
	return int32(t.Lookup(x))
}

// Compute runs every correction in order and returns the aggregate
// percentage, capped at 1500. The individual results are written to st.
// now is the current time in µs.
func (c *Corrector) Compute(tune *config.Tune, st *status.Status, now uint64) uint16 {
	defer func() { c.tick = false }()

	sum := uint32(100)
	apply := func(p uint32) {
		if p != 100 {
			sum = pct(sum, p)
		}
	}

	st.WUECorrection = c.wue(tune, st)
	apply(uint32(st.WUECorrection))

	st.ASEValue = c.ase(tune, st)
	apply(uint32(st.ASEValue))

	st.CrankingEnrich = c.cranking(tune, st)
	apply(uint32(st.CrankingEnrich))

	st.AEAmount = c.accel(tune, st, now)
	if tune.Accel.Apply == config.AEMultiplier || st.Flags.Decelerating {
		apply(uint32(st.AEAmount))
	}

	apply(floodClear(tune, st))

	st.EGOCorrection = c.closedLoop(tune, st)
	apply(uint32(st.EGOCorrection))

	st.BatCorrection = clampU8(curveAt(tune.Corrections.Battery, int32(st.Battery10)))
	st.OpenTime = OpenTime(tune.Fuel.InjOpen, tune.Fuel.BattCorMode, st.BatCorrection)
	if tune.Fuel.BattCorMode == config.BattCorWhole {
		apply(uint32(st.BatCorrection))
	}

	st.IATCorrection = clampU8(curveAt(tune.Corrections.IAT,
		int32(st.IAT)+tempOffset))
	apply(uint32(st.IATCorrection))

	st.BaroCorrection = clampU8(curveAt(tune.Corrections.Baro, int32(st.Baro)))
	apply(uint32(st.BaroCorrection))

	st.FlexCorrection = 100
	if tune.Corrections.FlexEnabled {
		st.FlexCorrection = clampU8(curveAt(tune.Corrections.Flex,
			int32(st.EthanolPct)))
	}
	apply(uint32(st.FlexCorrection))

	st.FuelTempCorrection = 100
	if tune.Corrections.FuelTempEnabled {
		st.FuelTempCorrection = clampU8(curveAt(tune.Corrections.FuelTemp,
			int32(st.FuelTemp)+tempOffset))
	}
	apply(uint32(st.FuelTempCorrection))

	st.LaunchCorrection = 100
	if st.LaunchingHard || st.LaunchingSoft {
		st.LaunchCorrection = clampU8(100 + int32(tune.Launch.FuelAdder))
	}
	apply(uint32(st.LaunchCorrection))

	st.Flags.DFCO = c.dfco(tune, st)
	taper := c.dfcoFuel(tune, st)
	if taper == 0 {
		sum = 0
	} else {
		apply(taper)
	}

	if sum > maxCorrections {
		sum = maxCorrections
	}

	st.Corrections = uint16(sum)

	return st.Corrections
}

// wue is the warm-up enrichment. Above the last axis bin the engine counts
// as warm and the last value applies without interpolation.
func (c *Corrector) wue(tune *config.Tune, st *status.Status) uint8 {
	t := tune.Corrections.WUE
	last := t.Len() - 1

	if int32(st.Coolant) > int32(t.Axis[last])-tempOffset {
		st.Flags.Warmup = false
		return clampU8(int32(t.Value(last)))
	}

	st.Flags.Warmup = true

	return clampU8(curveAt(t, int32(st.Coolant)+tempOffset))
}

// ase is the after-start enrichment. It holds for ASECount seconds after the
// engine starts and then tapers to nothing over ASETaperTime.
func (c *Corrector) ase(tune *config.Tune, st *status.Status) uint8 {
	if st.Cranking {
		st.Flags.ASE = false
		return 100
	}

	if !c.tick && st.ASEValue != 0 {
		return st.ASEValue
	}

	clt := int32(st.Coolant) + tempOffset
	amount := curveAt(tune.Corrections.ASE, clt)
	value := int32(100)

	switch {
	case int32(st.RunSecs) < curveAt(tune.Corrections.ASECount, clt):
		st.Flags.ASE = true
		value = 100 + amount
		c.aseTaper = 0
	case c.aseTaper < tune.Corrections.ASETaperTime:
		st.Flags.ASE = true
		value = 100 + mapRange(int32(c.aseTaper),
			0, int32(tune.Corrections.ASETaperTime), amount, 0)
		c.aseTaper++
	default:
		st.Flags.ASE = false
	}

	return clampU8(value)
}

// cranking is the cranking enrichment, stored in 5 % steps. After cranking
// it tapers down to 100 % starting from a value that keeps the product with
// the after-start enrichment continuous.
func (c *Corrector) cranking(tune *config.Tune, st *status.Status) uint16 {
	clt := int32(st.Coolant) + tempOffset

	if st.Cranking {
		c.crankTaper = 0
		return uint16(curveAt(tune.Corrections.Cranking, clt) * 5)
	}

	if c.crankTaper >= tune.Corrections.CrankingTaper {
		return 100
	}

	crank := curveAt(tune.Corrections.Cranking, clt) * 5

	start := crank * 100
	if st.ASEValue != 0 {
		start /= int32(st.ASEValue)
	}

	value := mapRange(int32(c.crankTaper),
		0, int32(tune.Corrections.CrankingTaper), start, 100)
	if value < 100 {
		value = 100
	}

	if c.tick {
		c.crankTaper++
	}

	return uint16(value)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}

	return v
}

// accel is the acceleration enrichment. An event starts when the rate of
// change of TPS or MAP crosses its threshold and lasts Accel.Time. A faster
// movement during an event restarts it.
func (c *Corrector) accel(tune *config.Tune, st *status.Status, now uint64) uint16 {
	a := tune.Accel
	mapMode := a.Mode == config.AEModeMAP

	var change, dot int32
	if mapMode {
		change = int32(st.MAP) - int32(st.MAPLast)
		dot = int32(st.MAPDot)
	} else {
		change = int32(st.TPS) - int32(st.TPSLast)
		dot = int32(st.TPSDot)
	}

	value := int32(100)

	if st.Flags.Accelerating || st.Flags.Decelerating {
		if now >= c.aeEndTime {
			st.Flags.Accelerating = false
			st.Flags.Decelerating = false
			c.clearDot(st, mapMode)

			return 100
		}

		value = int32(st.AEAmount)

		if abs32(dot) > c.activateDot {
			st.Flags.Accelerating = false
			st.Flags.Decelerating = false
		}
	}

	if st.Flags.Accelerating || st.Flags.Decelerating {
		return uint16(value)
	}

	minChange, thresh, dots := int32(a.TPSMinChange), int32(a.TPSThresh), a.TPSDots
	if mapMode {
		minChange, thresh, dots = int32(a.MAPMinChange), int32(a.MAPThresh), a.MAPDots
	}

	if abs32(change) <= minChange {
		c.clearDot(st, mapMode)
		return 100
	}

	if abs32(dot) <= thresh {
		return uint16(value)
	}

	c.activateDot = abs32(dot)
	c.aeEndTime = now + uint64(a.Time)*aeTimeUnit

	if dot < 0 {
		st.Flags.Decelerating = true
		return uint16(a.DecelAmount)
	}

	st.Flags.Accelerating = true
	value = curveAt(dots, dot/10)
	value = rpmTaper(value, a, st.RPM)
	value = coldTaper(value, a, st.Coolant)

	return uint16(100 + value)
}

func (c *Corrector) clearDot(st *status.Status, mapMode bool) {
	if mapMode {
		st.MAPDot = 0
	} else {
		st.TPSDot = 0
	}
}

func rpmTaper(value int32, a config.Accel, rpm uint16) int32 {
	lo := int32(a.TaperMin) * 100
	hi := int32(a.TaperMax) * 100
	r := int32(rpm)

	if r <= lo {
		return value
	}

	if r > hi {
		return 0
	}

	taper := (r - lo) * 100 / (hi - lo)

	return (100 - taper) * value / 100
}

func coldTaper(value int32, a config.Accel, coolant int16) int32 {
	clt := int32(coolant)
	if clt >= int32(a.ColdTaperMax)-tempOffset {
		return value
	}

	if clt <= int32(a.ColdTaperMin)-tempOffset {
		return int32(a.ColdPct) * value / 100
	}

	span := int32(a.ColdTaperMax) - int32(a.ColdTaperMin)
	taper := (clt + tempOffset - int32(a.ColdTaperMin)) * 100 / span
	coldPct := 100 + (100-taper)*(int32(a.ColdPct)-100)/100

	return value * coldPct / 100
}

// floodClear cuts all fuel while cranking with the throttle wide open.
func floodClear(tune *config.Tune, st *status.Status) uint32 {
	if st.Cranking && st.TPS >= tune.Corrections.FloodClear {
		return 0
	}

	return 100
}

// closedLoop is the simple closed loop trim. Every EGO.Count ignitions it
// steps 1 % towards the target, up to EGO.Limit either way.
func (c *Corrector) closedLoop(tune *config.Tune, st *status.Status) uint8 {
	e := tune.EGO
	if e.Type == config.EGOOff || st.Flags.DFCO {
		return 100
	}

	value := st.EGOCorrection
	count := int32(st.IgnitionCount)

	if count < c.egoNextCycle && count >= c.egoNextCycle-int32(e.Count) {
		return value
	}

	c.egoNextCycle = count + int32(e.Count)

	if !egoWindow(e, st) || e.Algorithm != config.EGOSimple {
		return 100
	}

	switch {
	case st.O2 > st.AFRTarget && int32(value) < 100+int32(e.Limit):
		value++
	case st.O2 < st.AFRTarget && int32(value) > 100-int32(e.Limit):
		value--
	}

	return value
}

func egoWindow(e config.EGO, st *status.Status) bool {
	return int32(st.Coolant) > int32(e.Temp)-tempOffset &&
		uint32(st.RPM) > uint32(e.RPM)*100 &&
		st.TPS <= e.TPSMax &&
		st.O2 < e.Max &&
		st.O2 > e.Min &&
		st.RunSecs > uint16(e.Delay) &&
		!st.Flags.DFCO &&
		uint32(st.MAP) <= uint32(e.MAPMax)*2 &&
		uint32(st.MAP) >= uint32(e.MAPMin)*2
}

// dfco decides whether deceleration fuel cut-off is on. It engages after
// DFCO.Delay with the throttle closed above the RPM threshold plus
// hysteresis, and drops out as soon as either condition fails.
func (c *Corrector) dfco(tune *config.Tune, st *status.Status) bool {
	d := tune.DFCO
	if !d.Enabled {
		return false
	}

	rpmOn := uint32(d.RPM) * 10

	if st.Flags.DFCO {
		on := uint32(st.RPM) > rpmOn && st.TPS < d.TPSThresh
		if !on {
			c.dfcoDelay = 0
		}

		return on
	}

	if st.TPS < d.TPSThresh &&
		int32(st.Coolant) >= int32(d.MinCLT)-tempOffset &&
		uint32(st.RPM) > rpmOn+uint32(d.Hyster)*2 {
		if c.dfcoDelay < d.Delay {
			if c.tick {
				c.dfcoDelay++
			}

			return false
		}

		return true
	}

	c.dfcoDelay = 0

	return false
}

// dfcoFuel is the fuel scale while DFCO is on: a taper from 100 % down to
// TaperFuel, then a full cut.
func (c *Corrector) dfcoFuel(tune *config.Tune, st *status.Status) uint32 {
	d := tune.DFCO

	if !st.Flags.DFCO {
		c.dfcoTaper = d.TaperTime
		return 100
	}

	if !d.TaperEnabled || c.dfcoTaper == 0 {
		return 0
	}

	if c.dfcoTaper > d.TaperTime {
		c.dfcoTaper = d.TaperTime
	}

	value := mapRange(int32(c.dfcoTaper), int32(d.TaperTime), 0,
		100, int32(d.TaperFuel))

	if c.tick {
		c.dfcoTaper--
	}

	return uint32(value)
}

// DFCOTaper returns the progress of the DFCO taper, counting down from
// DFCO.TaperTime. The ignition taper follows the same counter.
func (c *Corrector) DFCOTaper() uint8 {
	return c.dfcoTaper
}
