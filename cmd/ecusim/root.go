package main

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/ecucore/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ecusim",
	Short: "ecusim simulates an engine controller on a virtual engine.",
	Long: `ecusim runs the fuel, ignition and protection logic of the ` +
		`engine controller against a scripted virtual engine, records ` +
		`every injector pulse and spark, and inspects calibrations and ` +
		`recorded runs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env", ".env",
		"file with ECUSIM_* settings, ignored when missing")
	rootCmd.PersistentFlags().String("tune", "",
		"calibration YAML file, the demo tune when empty")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

// loadEnv reads the .env file named by the --env flag.
func loadEnv(cmd *cobra.Command) (config.Env, error) {
	envFile, _ := cmd.Flags().GetString("env")
	return config.LoadEnv(envFile)
}

// loadTune loads the calibration named by --tune, falling back to
// ECUSIM_TUNE and then to the demo tune.
func loadTune(cmd *cobra.Command, env config.Env) (*config.Tune, string, error) {
	path, _ := cmd.Flags().GetString("tune")
	if path == "" {
		path = env.TunePath
	}

	if path == "" {
		return config.Default(), "", nil
	}

	tune, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}

	return tune, path, nil
}
