package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ecucore/datarecording"
	"github.com/sarchlab/ecucore/ecu"
	"github.com/sarchlab/ecucore/instrumentation/tracing"
)

var reportCmd = &cobra.Command{
	Use:   "report <file.sqlite3>",
	Short: "Summarise a recorded run.",
	Long: "`report` reads a SQLite recording written by `run` and prints " +
		"the run properties, the pulses of every channel and the engine " +
		"snapshots.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		rep, err := readReport(cmd.Context(), reader)
		if err != nil {
			return err
		}

		rep.print()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

// pulseSummary aggregates the recorded pulses of one channel.
type pulseSummary struct {
	Channel string
	Kind    string
	Pulses  int
	Total   float64
	Min     float64
	Max     float64
}

func (s pulseSummary) average() float64 {
	if s.Pulses == 0 {
		return 0
	}

	return s.Total / float64(s.Pulses)
}

// snapshotSummary aggregates the engine snapshots of a run.
type snapshotSummary struct {
	Count       int
	Duration    float64
	MaxRPM      uint16
	MaxMAP      uint16
	MaxAdvance  int8
	CutSamples  int
	Protections int
}

type report struct {
	run       []datarecording.RunInfo
	channels  []pulseSummary
	snapshots snapshotSummary
}

func readReport(ctx context.Context, r datarecording.DataReader) (*report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	r.MapTable(datarecording.RunTableName, datarecording.RunInfo{})
	r.MapTable(tracing.PulseTable, datarecording.PulseEntry{})
	r.MapTable(ecu.SnapshotTable, datarecording.SnapshotEntry{})

	rep := &report{}

	rows, _, err := r.Query(ctx, datarecording.RunTableName,
		datarecording.QueryParams{OrderBy: "rowid"})
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		rep.run = append(rep.run, *row.(*datarecording.RunInfo))
	}

	rows, _, err = r.Query(ctx, tracing.PulseTable,
		datarecording.QueryParams{OrderBy: "Start"})
	if err != nil {
		return nil, err
	}

	rep.channels = summarisePulses(rows)

	rows, _, err = r.Query(ctx, ecu.SnapshotTable,
		datarecording.QueryParams{OrderBy: "Time"})
	if err != nil {
		return nil, err
	}

	rep.snapshots = summariseSnapshots(rows)

	return rep, nil
}

func summarisePulses(rows []any) []pulseSummary {
	byChannel := make(map[string]*pulseSummary)

	for _, row := range rows {
		p := row.(*datarecording.PulseEntry)

		s, ok := byChannel[p.Channel]
		if !ok {
			s = &pulseSummary{
				Channel: p.Channel,
				Kind:    p.Kind,
				Min:     p.WidthUs,
				Max:     p.WidthUs,
			}
			byChannel[p.Channel] = s
		}

		s.Pulses++
		s.Total += p.WidthUs
		s.Min = min(s.Min, p.WidthUs)
		s.Max = max(s.Max, p.WidthUs)
	}

	out := make([]pulseSummary, 0, len(byChannel))
	for _, s := range byChannel {
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind > out[j].Kind
		}

		return out[i].Channel < out[j].Channel
	})

	return out
}

func summariseSnapshots(rows []any) snapshotSummary {
	var s snapshotSummary

	for i, row := range rows {
		e := row.(*datarecording.SnapshotEntry)
		if i == 0 {
			s.MaxAdvance = e.Advance
		}

		s.Count++
		s.Duration = e.Time
		s.MaxRPM = max(s.MaxRPM, e.RPM)
		s.MaxMAP = max(s.MaxMAP, e.MAP)
		s.MaxAdvance = max(s.MaxAdvance, e.Advance)

		if e.CutFuel != 0 || e.CutIgnition != 0 {
			s.CutSamples++
		}

		if e.Protecting {
			s.Protections++
		}
	}

	return s
}

func (r *report) pulseTable() pterm.TableData {
	data := pterm.TableData{
		{"Channel", "Kind", "Pulses", "Avg (µs)", "Min (µs)", "Max (µs)"},
	}

	for _, c := range r.channels {
		data = append(data, []string{
			c.Channel,
			c.Kind,
			fmt.Sprint(c.Pulses),
			fmt.Sprintf("%.0f", c.average()),
			fmt.Sprintf("%.0f", c.Min),
			fmt.Sprintf("%.0f", c.Max),
		})
	}

	return data
}

func (r *report) print() {
	pterm.DefaultSection.Println("Run")
	runData := pterm.TableData{{"Property", "Value"}}
	for _, p := range r.run {
		runData = append(runData, []string{p.Property, p.Value})
	}
	pterm.DefaultTable.WithHasHeader().WithData(runData).Render()

	pterm.DefaultSection.Println("Pulses")
	if len(r.channels) == 0 {
		pterm.Warning.Println("No pulses recorded")
	} else {
		pterm.DefaultTable.WithHasHeader().WithData(r.pulseTable()).Render()
	}

	s := r.snapshots
	pterm.DefaultSection.Println("Engine")
	pterm.Info.Printf("%d snapshots over %.3f s\n", s.Count, s.Duration)
	pterm.Info.Printf("max %d rpm, max %d kPa, max advance %d°\n",
		s.MaxRPM, s.MaxMAP, s.MaxAdvance)

	if s.CutSamples > 0 || s.Protections > 0 {
		pterm.Warning.Printf("%d snapshots with a cut, %d with protection on\n",
			s.CutSamples, s.Protections)
	}
}
