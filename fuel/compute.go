package fuel

import (
	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/status"
)

// ComputePulseWidths turns the VE and corrections already in st into the
// per-channel pulse widths: base pulse, nitrous, duty limit, staging and
// channel fan-out. It writes ReqFuel, PW, the output counts and the
// StagingActive flag.
func ComputePulseWidths(tune *config.Tune, st *status.Status) [status.Channels]uint16 {
	out := tune.Outputs()
	st.NSquirts = out.NSquirts
	st.MaxInjOutput = out.MaxInj
	st.MaxIgnOutput = out.MaxIgn

	st.ReqFuel = RequiredFuel(tune.Fuel.ReqFuel, tune.Engine.Strokes,
		tune.Engine.InjLayout, st.HalfSync || st.Sync != status.SyncFull)

	pw := PulseWidth(st.ReqFuel, st.VE, st.MAP, st.Corrections, st.OpenTime,
		OptionsFor(tune, st))
	pw = ApplyNitrous(pw, tune, st)

	limit := PWLimit(tune.Fuel.DutyLim, st.RevolutionTime,
		tune.Engine.Strokes, out.NSquirts)
	pw = ApplyPWLimit(pw, limit, st.Cranking, tune.Staging.Enabled)

	staged := CalculateStaging(pw, st.OpenTime, limit, tune, st)
	st.Flags.StagingActive = staged.Active

	st.PW = ApplyPWToInjectorChannels(staged, tune, out.MaxInj)

	return st.PW
}
