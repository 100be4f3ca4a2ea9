package config

// Outputs is the channel layout derived from the engine settings.
type Outputs struct {
	MaxInj   uint8
	MaxIgn   uint8
	NSquirts uint8

	// Crank angle covered by one injection and one spark cycle.
	CrankAngleMaxInj uint16
	CrankAngleMaxIgn uint16
}

// Outputs derives how many injector and coil channels the engine uses.
func (t *Tune) Outputs() Outputs {
	e := t.Engine
	cyl := e.Cylinders
	fourStroke := e.Strokes == FourStroke

	out := Outputs{
		NSquirts:         e.Squirts,
		CrankAngleMaxIgn: 360,
	}
	if out.NSquirts == 0 {
		out.NSquirts = 1
	}

	switch {
	case e.SparkMode == SparkSingle:
		out.MaxIgn = 1
	case e.SparkMode == SparkWasted && cyl >= 4 && cyl%2 == 0:
		out.MaxIgn = cyl / 2
	default:
		out.MaxIgn = cyl
	}

	if e.SparkMode == SparkSequential && fourStroke {
		out.CrankAngleMaxIgn = 720
	}

	cycle := uint16(360)
	if fourStroke {
		cycle = 720
	}

	if e.InjLayout == InjSequential && fourStroke {
		out.MaxInj = cyl
		out.NSquirts = 1
	} else {
		out.MaxInj = pairedInjOutputs(cyl, e.InjLayout)
	}

	if t.Staging.Enabled {
		switch {
		case cyl == 5:
			out.MaxInj = 6
		case out.MaxInj*2 > 8:
			out.MaxInj = 8
		default:
			out.MaxInj *= 2
		}
	}

	if out.MaxInj > 8 {
		out.MaxInj = 8
	}

	out.CrankAngleMaxInj = cycle / uint16(out.NSquirts)

	return out
}

func pairedInjOutputs(cyl uint8, layout InjLayout) uint8 {
	switch cyl {
	case 0, 1:
		return 1
	case 4:
		if layout == InjSemiSequential {
			return 4
		}

		return 2
	case 5:
		return 4
	case 6:
		return 3
	case 8:
		return 4
	default:
		return cyl
	}
}
