package ecu

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/fuel"
	"github.com/sarchlab/ecucore/ignition"
	"github.com/sarchlab/ecucore/schedule"
	"github.com/sarchlab/ecucore/status"
)

// cylinderSpacing is the crank angle between two consecutive cylinders.
func cylinderSpacing(tune *config.Tune) uint16 {
	cycle := uint16(360)
	if tune.Engine.Strokes == config.FourStroke {
		cycle = 720
	}

	if tune.Engine.Cylinders == 0 {
		return cycle
	}

	return cycle / uint16(tune.Engine.Cylinders)
}

// injectorDegrees returns the crank angle each injector channel is timed
// from, following the cylinder the channel serves.
func injectorDegrees(tune *config.Tune, out config.Outputs) [status.Channels]uint16 {
	var degrees [status.Channels]uint16
	if out.CrankAngleMaxInj == 0 {
		return degrees
	}

	spacing := uint32(cylinderSpacing(tune))
	slots := fuel.InjectorSlots(tune)

	for ch, slot := range slots {
		degrees[ch] = uint16(uint32(slot) * spacing %
			uint32(out.CrankAngleMaxInj))
	}

	return degrees
}

func (c *Controller) armInjectors(cut status.Cut, out config.Outputs) {
	maxAngle := out.CrankAngleMaxInj
	if maxAngle == 0 {
		return
	}

	degrees := injectorDegrees(c.tune, out)
	crank := int(c.st.CrankAngle) % int(maxAngle)

	for i, inj := range c.injectors {
		inj.SetCrankAngleMax(maxAngle)

		if i >= int(out.MaxInj) || !cut.FuelOn(i) {
			inj.Disable()
			continue
		}

		inj.Enable()

		pw := c.st.PW[i]
		if pw == 0 {
			continue
		}

		deg := degrees[i]
		pwDegrees := c.conv.TimeToAngle(uint32(pw))
		start := schedule.InjectorStartAngle(c.tune.Engine.InjAngle, deg,
			pwDegrees, maxAngle)

		timeout := schedule.InjectorTimeout(c.conv, inj.Status(), int(start),
			int(deg), crank, int(maxAngle))
		if timeout > 0 {
			inj.SetFuelSchedule(c.conv, timeout, uint32(pw))
		}
	}
}

func (c *Controller) armCoils(cut status.Cut, out config.Outputs) {
	maxAngle := out.CrankAngleMaxIgn
	if maxAngle == 0 {
		return
	}

	degrees := schedule.ChannelDegrees(out.MaxIgn, cylinderSpacing(c.tune),
		maxAngle)
	crank := int(c.st.CrankAngle) % int(maxAngle)
	dwellAngle := ignition.DwellAngle(c.st.Dwell, c.conv)

	for i, coil := range c.coils {
		coil.SetCrankAngleMax(maxAngle)

		if i >= int(out.MaxIgn) || !cut.IgnitionOn(i) {
			coil.Disable()
			continue
		}

		coil.Enable()

		if c.st.Dwell == 0 {
			continue
		}

		start, _ := schedule.IgnitionAngles(int(degrees[i]), c.st.Advance,
			dwellAngle, int(maxAngle))

		timeout := schedule.IgnitionTimeout(c.conv, coil.Status(), start,
			int(degrees[i]), crank, int(maxAngle))
		if timeout > 0 {
			coil.SetIgnitionSchedule(c.conv, timeout, uint32(c.st.Dwell))
		}
	}
}

// collectSparkStats copies the spark count and the measured dwell of the
// coil schedules into the status.
func (c *Controller) collectSparkStats() {
	var count uint32

	for _, coil := range c.coils {
		count += coil.Count()

		if d := coil.ActualDwell(); d != 0 {
			c.st.ActualDwell = d
		}
	}

	c.st.IgnitionCount = uint16(count)
}
