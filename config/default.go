package config

import "github.com/sarchlab/ecucore/table"

var (
	rpmAxis  = []int16{500, 1000, 1500, 2000, 3000, 4000, 5500, 7000}
	loadAxis = []int16{20, 30, 40, 55, 70, 85, 100, 120}
	cltAxis  = []int16{0, 20, 40, 55, 70, 90, 110, 130, 150, 160}
)

func curve(axis, values []int16) *table.Table2D {
	return table.MustNewTable2D(axis, values)
}

// grid fills an 8×8 map with base + dx*col + dy*row.
func grid(xAxis, yAxis []int16, base, dx, dy int16) *table.Table3D {
	values := make([][]int16, len(yAxis))
	for r := range values {
		values[r] = make([]int16, len(xAxis))
		for c := range values[r] {
			values[r][c] = base + dx*int16(c) + dy*int16(r)
		}
	}

	return table.MustNewTable3D(xAxis, yAxis, values)
}

// Default returns a demo calibration for a naturally aspirated 2 litre four
// cylinder with paired injection and wasted spark.
func Default() *Tune {
	return &Tune{
		Engine: Engine{
			Cylinders: 4,
			Strokes:   FourStroke,
			InjLayout: InjPaired,
			InjType:   InjPort,
			SparkMode: SparkWasted,
			Squirts:   2,
			CrankRPM:  40,
			StgCycles: 20,
			InjAngle:  355,
		},
		Fuel: Fuel{
			ReqFuel:     86,
			InjOpen:     10,
			LoadSource:  LoadMAP,
			MultiplyMAP: MultiplyMAPBaro,
			BattCorMode: BattCorOpenTime,
			Stoich:      147,
			DutyLim:     85,
			VE:          grid(rpmAxis, loadAxis, 38, 6, 4),
			AFRTarget:   grid(rpmAxis, loadAxis, 147, 0, -4),
			Secondary: SecondaryFuel{
				Mode:        SecondaryOff,
				LoadSource:  LoadMAP,
				SwitchOn:    SwitchRPM,
				SwitchValue: 4000,
				VE:          table.NewUniformTable3D(rpmAxis, loadAxis, 100),
			},
			Priming: curve(cltAxis,
				[]int16{60, 52, 44, 36, 30, 24, 20, 16, 12, 10}),
		},
		Staging: Staging{
			Mode:       StagingAuto,
			InjSizePri: 250,
			InjSizeSec: 500,
			Split:      grid(rpmAxis, loadAxis, 0, 5, 5),
		},
		Nitrous: Nitrous{
			Stage1: NitrousStage{
				MinRPM: 20, MaxRPM: 55, AdderMin: 20, AdderMax: 10, Retard: 4,
			},
			Stage2: NitrousStage{
				MinRPM: 30, MaxRPM: 60, AdderMin: 15, AdderMax: 8, Retard: 3,
			},
		},
		Corrections: Corrections{
			WUE: curve(cltAxis,
				[]int16{180, 170, 160, 148, 136, 122, 110, 104, 100, 100}),
			ASE: curve(cltAxis,
				[]int16{45, 40, 35, 30, 25, 20, 15, 10, 8, 5}),
			ASECount: curve(cltAxis,
				[]int16{20, 18, 16, 14, 12, 10, 8, 6, 5, 4}),
			ASETaperTime: 20,
			Cranking: curve(cltAxis,
				[]int16{80, 70, 60, 52, 45, 38, 32, 28, 24, 20}),
			CrankingTaper: 10,
			FloodClear:    90,
			Battery: curve([]int16{60, 80, 100, 120, 140, 160},
				[]int16{200, 155, 125, 100, 87, 75}),
			IAT: curve([]int16{0, 40, 60, 80, 100, 140},
				[]int16{112, 106, 102, 100, 97, 92}),
			Baro: curve([]int16{70, 85, 100, 105},
				[]int16{100, 100, 100, 100}),
			Flex: curve([]int16{0, 25, 50, 85, 100},
				[]int16{100, 108, 117, 130, 135}),
			FuelTemp: curve(cltAxis,
				[]int16{104, 103, 102, 101, 100, 100, 99, 98, 97, 96}),
		},
		Accel: Accel{
			Mode:         AEModeTPS,
			Apply:        AEMultiplier,
			TPSThresh:    40,
			MAPThresh:    100,
			TPSMinChange: 2,
			MAPMinChange: 2,
			Time:         20,
			TPSDots: curve([]int16{4, 10, 20, 40},
				[]int16{70, 110, 150, 190}),
			MAPDots: curve([]int16{10, 30, 60, 100},
				[]int16{50, 90, 130, 170}),
			TaperMin:     10,
			TaperMax:     50,
			ColdPct:      150,
			ColdTaperMin: 40,
			ColdTaperMax: 110,
			DecelAmount:  80,
		},
		EGO: EGO{
			Type:      EGOWideband,
			Algorithm: EGOSimple,
			Temp:      100,
			RPM:       10,
			TPSMax:    80,
			Min:       100,
			Max:       200,
			Delay:     20,
			Count:     4,
			Limit:     15,
			MAPMin:    10,
			MAPMax:    100,
		},
		DFCO: DFCO{
			Enabled:      true,
			RPM:          150,
			Hyster:       100,
			TPSThresh:    2,
			MinCLT:       110,
			Delay:        5,
			TaperEnabled: true,
			TaperTime:    5,
			TaperFuel:    50,
			TaperAdvance: 10,
		},
		Ignition: Ignition{
			LoadSource: LoadMAP,
			Advance:    grid(rpmAxis, loadAxis, 12, 4, -1),
			Secondary: SecondarySpark{
				Mode:        SecondaryOff,
				LoadSource:  LoadMAP,
				SwitchOn:    SwitchRPM,
				SwitchValue: 4000,
				Advance:     table.NewUniformTable3D(rpmAxis, loadAxis, 0),
			},
			DwellCrank:  45,
			DwellRun:    30,
			UseDwellMap: false,
			Dwell:       grid(rpmAxis, loadAxis, 40, -2, 0),
			SparkDur:    10,
			DwellLimit:  8,
			DwellCorrection: curve([]int16{60, 80, 100, 120, 140, 160},
				[]int16{180, 145, 118, 100, 88, 80}),
			FlexAdvance: curve([]int16{0, 25, 50, 85, 100},
				[]int16{40, 42, 44, 47, 48}),
			IATRetard: curve([]int16{40, 50, 60, 70, 80, 90},
				[]int16{0, 0, 1, 2, 4, 6}),
			CLTAdvance: curve(cltAxis,
				[]int16{20, 19, 18, 17, 16, 15, 15, 15, 14, 13}),
			FixedAngle: 10,
			CrankAngle: 8,
		},
		Protection: Protection{
			CutType:     CutBoth,
			HardCutType: HardCutRolling,
			MaxRPM:      30,
			HardRevMode: HardRevFixed,
			HardRevLim:  68,
			CoolantLimit: curve(cltAxis,
				[]int16{35, 40, 45, 55, 65, 68, 68, 68, 60, 45}),
			SoftRevLim:    65,
			SoftLimRetard: 10,
			SoftLimMax:    20,
			SoftLimitMode: SoftLimitRelative,
			Boost: BoostProtect{
				Enabled: true,
				Limit:   120,
			},
			Oil: OilProtect{
				Enabled: true,
				Time:    10,
				Min: curve([]int16{10, 20, 40, 60},
					[]int16{10, 15, 30, 40}),
			},
			AFR: AFRProtect{
				Mode:            AFRProtectTable,
				Deviation:       14,
				MinMAP:          60,
				MinRPM:          40,
				MinTPS:          60,
				CutTime:         5,
				ReactivationTPS: 20,
			},
			Rolling: curve([]int16{-30, -20, -10, -5},
				[]int16{50, 65, 80, 95}),
		},
		Launch: Launch{
			Enabled:         true,
			FuelAdder:       10,
			LaunchRetard:    -5,
			FlatShiftRetard: 0,
		},
	}
}
