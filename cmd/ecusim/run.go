package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ecucore/config"
	"github.com/sarchlab/ecucore/datarecording"
	"github.com/sarchlab/ecucore/ecu"
	"github.com/sarchlab/ecucore/simulation"
	"github.com/sarchlab/ecucore/timing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller through a drive profile.",
	Long: "`run` cranks the virtual engine through a drive profile, " +
		"records every output pulse into a SQLite file (or ClickHouse) " +
		"and prints a per channel summary.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := loadEnv(cmd)
		if err != nil {
			return err
		}

		sim, err := buildSimulation(cmd, env)
		if err != nil {
			return err
		}

		durationMs, _ := cmd.Flags().GetUint64("duration")

		start := time.Now()
		runErr := sim.Run(durationMs * 1000)
		wall := time.Since(start)

		if runErr == nil {
			printRunSummary(sim, wall)
		}

		hold, _ := cmd.Flags().GetBool("hold")
		if hold && sim.GetMonitor() != nil {
			pterm.Info.Println("Press Ctrl+C to stop the monitor")
			waitForInterrupt()
		}

		if err := sim.Terminate(); err != nil && runErr == nil {
			runErr = err
		}

		return runErr
	},
}

func init() {
	f := runCmd.Flags()
	f.String("profile", "", "drive profile YAML file, the demo profile when empty")
	f.Uint64("duration", 6000, "simulated time in ms, the profile length when 0")
	f.Uint64("seed", 1, "seed of the rolling cut randomness")
	f.String("output", "", "SQLite file to record into, without the extension")
	f.String("clickhouse", "", "record into ClickHouse with this DSN instead of SQLite")
	f.Uint64("loop-period", 1000, "time between control loop iterations in µs")
	f.Uint64("snapshot-every", 10, "store a snapshot every n iterations")
	f.Bool("monitor", false, "serve the live monitor while running")
	f.Int("monitor-port", 0, "port of the live monitor, random when 0")
	f.Bool("open-browser", false, "open the live monitor in a browser")
	f.Bool("hold", false, "keep the monitor up after the run until Ctrl+C")
	f.Bool("trace-events", false, "print every handled event")
	f.Bool("quiet", false, "do not report engine starts and stray outputs")

	rootCmd.AddCommand(runCmd)
}

func buildSimulation(
	cmd *cobra.Command,
	env config.Env,
) (*simulation.Simulation, error) {
	f := cmd.Flags()

	tune, tunePath, err := loadTune(cmd, env)
	if err != nil {
		return nil, err
	}

	if tunePath != "" {
		pterm.Info.Printf("Tune %s\n", tunePath)
	}

	profile := ecu.DefaultProfile()
	if path, _ := f.GetString("profile"); path != "" {
		profile, err = ecu.LoadProfile(path)
		if err != nil {
			return nil, err
		}
	}

	if d, _ := f.GetUint64("duration"); d == 0 {
		_ = f.Set("duration", fmt.Sprint(profile.Duration()/1000))
	}

	seed, _ := f.GetUint64("seed")
	if !f.Changed("seed") && env.HasSeed {
		seed = env.Seed
	}

	loopPeriod, _ := f.GetUint64("loop-period")
	snapshotEvery, _ := f.GetUint64("snapshot-every")

	b := simulation.MakeBuilder().
		WithTune(tune).
		WithProfile(profile).
		WithSeed(seed).
		WithLoopPeriod(loopPeriod).
		WithSnapshotEvery(snapshotEvery)

	if quiet, _ := f.GetBool("quiet"); !quiet {
		b = b.WithLogger(log.New(os.Stderr, "ecu: ", 0))
	}

	if trace, _ := f.GetBool("trace-events"); trace {
		b = b.WithLogger(log.New(os.Stdout, "", 0)).WithEventLogging()
	}

	b = withRecorder(b, cmd, env)
	b = withMonitor(b, cmd)

	return b.Build()
}

func withRecorder(
	b simulation.Builder,
	cmd *cobra.Command,
	env config.Env,
) simulation.Builder {
	f := cmd.Flags()

	if dsn, _ := f.GetString("clickhouse"); dsn != "" {
		return b.WithRecorderConfig(datarecording.RecorderConfig{
			Type:    datarecording.BackendClickHouse,
			ConnStr: dsn,
		})
	}

	output, _ := f.GetString("output")
	if output == "" {
		output = env.TracePath
	}

	if output != "" {
		b = b.WithOutputFileName(output)
	}

	return b
}

func withMonitor(b simulation.Builder, cmd *cobra.Command) simulation.Builder {
	f := cmd.Flags()

	if on, _ := f.GetBool("monitor"); !on {
		return b.WithoutMonitoring()
	}

	if port, _ := f.GetInt("monitor-port"); port != 0 {
		b = b.WithMonitorPort(port)
	}

	if open, _ := f.GetBool("open-browser"); open {
		b = b.WithBrowser()
	}

	return b
}

func waitForInterrupt() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	signal.Stop(c)
}

func printRunSummary(sim *simulation.Simulation, wall time.Duration) {
	pterm.DefaultSection.Printf("Run %s", sim.ID())

	registry := sim.GetFrequencyRegistry()
	pterm.DefaultTable.WithHasHeader().
		WithData(channelTable(sim, registry)).
		Render()

	counts := sim.GetTransitionCounts()
	data := pterm.TableData{{"Transition", "Count"}}
	for _, name := range counts.Names() {
		data = append(data, []string{name, fmt.Sprint(counts.CountOf(name))})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	st := sim.GetController().Status()
	pterm.Info.Printf("%d iterations, %d sparks, %d snapshots in %s\n",
		sim.GetController().Iterations(), st.IgnitionCount,
		sim.SnapshotsWritten(), wall.Round(time.Millisecond))
}

// channelTable lists the realised pulses of every channel that fired.
func channelTable(
	sim *simulation.Simulation,
	registry *timing.FrequencyRegistry,
) pterm.TableData {
	us := func(c timing.VTimeInCycle) string {
		return fmt.Sprintf("%.0f", float64(registry.CyclesToSeconds(c))*1e6)
	}

	data := pterm.TableData{
		{"Channel", "Pulses", "Avg (µs)", "Min (µs)", "Max (µs)", "Stray"},
	}

	times := sim.GetPulseTimes()
	outputs := sim.GetOutputRecorder()

	for i, sch := range sim.Schedules() {
		ct := times.Channel(sch.Name())
		if ct.Pulses == 0 {
			continue
		}

		kind, ch := ecu.Injector, i
		if i >= len(sim.GetOutputs().Injectors) {
			kind, ch = ecu.Coil, i-len(sim.GetOutputs().Injectors)
		}

		data = append(data, []string{
			sch.Name(),
			fmt.Sprint(ct.Pulses),
			us(ct.Average()),
			us(ct.Min),
			us(ct.Max),
			fmt.Sprint(outputs.Stats(kind, ch).Stray),
		})
	}

	return data
}
