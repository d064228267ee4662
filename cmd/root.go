package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "RACE_ENGINEER"

var (
	cfgFile  string
	logLevel string

	// Shared race configuration flags. Subcommands read these after
	// initConfig has merged flag, env and config-file values.
	track           string
	pitCost         float64
	targetStint     int
	raceLaps        int
	degradationRate float64
	autoDegradation bool
	baseLapTime     float64
	cautionsPerRace float64
	lookaheadLaps   int
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "race-engineer",
	Short: "Pit-strategy decision engine for race engineers",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", logLevel)
		}
		logrus.SetLevel(level)
		return applyTrackDefaults(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./race-engineer.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log verbosity (trace|debug|info|warn|error)")

	rootCmd.PersistentFlags().StringVar(&track, "track", "",
		"track preset id from defaults.yaml; explicit flags override preset values")
	rootCmd.PersistentFlags().Float64Var(&pitCost, "pit-cost", 20.0,
		"pit time cost in seconds")
	rootCmd.PersistentFlags().IntVar(&targetStint, "target-stint", 20,
		"target stint length in laps")
	rootCmd.PersistentFlags().IntVar(&raceLaps, "race-laps", 50,
		"total race laps")
	rootCmd.PersistentFlags().Float64Var(&degradationRate, "degradation", 0.15,
		"tire degradation in seconds per lap of tire age")
	rootCmd.PersistentFlags().BoolVar(&autoDegradation, "auto-degradation", false,
		"derive the degradation rate from telemetry when available")
	rootCmd.PersistentFlags().Float64Var(&baseLapTime, "base-lap-time", 0,
		"base lap time in seconds (0 = derive from recent laps)")
	rootCmd.PersistentFlags().Float64Var(&cautionsPerRace, "cautions-per-race", 2.0,
		"expected caution periods per full race")
	rootCmd.PersistentFlags().IntVar(&lookaheadLaps, "lookahead", 10,
		"caution lookahead window in laps")

	rootCmd.AddCommand(newAdviseCmd())
	rootCmd.AddCommand(newReplayCmd())
}

// initConfig reads in the config file and matching environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("race-engineer")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.Debugf("using config file: %s", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// bindFlags binds each cobra flag to its viper key, so config-file and
// environment values apply when the flag was not set explicitly.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "could not bind env var %s: %v\n", f.Name, err)
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "could not set flag value for %s: %v\n", f.Name, err)
			}
		}
	})
}
