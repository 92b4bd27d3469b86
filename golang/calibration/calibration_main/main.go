package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tarstars/calibration_trees/golang/calibration/config"
	"github.com/tarstars/calibration_trees/golang/calibration/logging"
)

//app is the state shared by the subcommands of one invocation
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

//flagKeys maps persistent flags to the configuration keys they override
var flagKeys = map[string]string{
	"seed":        "seed",
	"log-level":   "log.level",
	"probs":       "filename_probs",
	"outcomes":    "filename_outcomes",
	"output":      "filename_output",
	"binnumbers":  "filename_binnumbers",
	"lens":        "lens",
	"groups":      "groups",
	"distance":    "distance",
	"binning":     "binning.kind",
	"bins":        "binning.bins",
	"min-size":    "binning.min_size",
	"threshold":   "binning.threshold",
	"n-resamples": "n_resamples",
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "calibration",
		Short: "Estimate the calibration error of predicted probabilities",
		Long: `calibration reads predicted probabilities and observed outcomes from .npy
files, bins the probabilities with a binning tree and reports the expected
calibration error together with its bootstrap and consistency resampling
estimates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "a config file for the run of the program (json, yaml or toml)")
	flags.Uint64("seed", 0, "seed of the random number generator")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("probs", "", "npy file with predicted probabilities (N or N×C)")
	flags.String("outcomes", "", "npy file with observed labels (N) or one-hot outcomes (N×C)")
	flags.String("output", "", "write the json report to `file`")
	flags.String("binnumbers", "", "write the bin number of every sample to `file`")
	flags.String("lens", "identity", "lens: identity, maximum, top2 or group")
	flags.Int("groups", 2, "number of groups of the group lens")
	flags.String("distance", "tv", "distance: l1, tv or l2")
	flags.String("binning", "uniform", "binning: uniform or datadependent")
	flags.Int("bins", 10, "cells per axis of the uniform binning")
	flags.Int("min-size", 10, "minimal bin size of the data dependent binning")
	flags.String("threshold", "mean", "split threshold of the data dependent binning: mean or median")
	flags.Int("n-resamples", 1000, "number of resamples")

	rootCmd.AddCommand(
		a.eceCommand(),
		a.bootstrapCommand(),
		a.consistencyCommand(),
		a.binsCommand(),
		a.scoresCommand(),
	)
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logging.Init(cfg.Log)
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("calibration failed", "error", err)
		os.Exit(1)
	}
}
