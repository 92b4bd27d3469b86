// Package config loads the run configuration of the calibration command line
// tool from a JSON, YAML or TOML file, environment variables and flags.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/distance"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
	"github.com/tarstars/calibration_trees/golang/calibration/lens"
	"github.com/tarstars/calibration_trees/golang/calibration/logging"
)

// EnvPrefix prefixes the environment variables that override configuration keys,
// e.g. CALIBRATION_BINNING_BINS for binning.bins.
const EnvPrefix = "CALIBRATION"

// BinningConfig selects the binning scheme.
type BinningConfig struct {
	Kind      string `mapstructure:"kind"      json:"kind"` // uniform or datadependent
	Bins      int    `mapstructure:"bins"      json:"bins"`
	MinSize   int    `mapstructure:"min_size"  json:"min_size"`
	Threshold string `mapstructure:"threshold" json:"threshold"`
}

// Config is the configuration of one run.
type Config struct {
	FileNameProbs      string `mapstructure:"filename_probs"      json:"filename_probs"`
	FileNameOutcomes   string `mapstructure:"filename_outcomes"   json:"filename_outcomes"`
	FileNameOutput     string `mapstructure:"filename_output"     json:"filename_output"`
	FileNameBinNumbers string `mapstructure:"filename_binnumbers" json:"filename_binnumbers"`

	Lens       string        `mapstructure:"lens"        json:"lens"`
	Groups     int           `mapstructure:"groups"      json:"groups"`
	Distance   string        `mapstructure:"distance"    json:"distance"`
	Binning    BinningConfig `mapstructure:"binning"     json:"binning"`
	NResamples int           `mapstructure:"n_resamples" json:"n_resamples"`
	Seed       uint64        `mapstructure:"seed"        json:"seed"`

	Log logging.Config `mapstructure:"log" json:"log"`
}

// NewViper returns a viper instance with the default configuration that also
// reads CALIBRATION_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("filename_probs", "")
	v.SetDefault("filename_outcomes", "")
	v.SetDefault("filename_output", "")
	v.SetDefault("filename_binnumbers", "")
	v.SetDefault("lens", "identity")
	v.SetDefault("groups", 2)
	v.SetDefault("distance", "tv")
	v.SetDefault("binning.kind", "uniform")
	v.SetDefault("binning.bins", 10)
	v.SetDefault("binning.min_size", 10)
	v.SetDefault("binning.threshold", "mean")
	v.SetDefault("n_resamples", 1000)
	v.SetDefault("seed", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file at path into v, when path is not empty,
// and decodes the merged settings.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the option names and ranges.
func (c *Config) Validate() error {
	if _, err := c.Splitter(); err != nil {
		return err
	}
	if _, err := c.DistanceMeasure(); err != nil {
		return err
	}
	if _, err := lens.ByName(c.Lens, c.Groups, c.Groups); err != nil {
		return err
	}
	if c.NResamples < 1 {
		return errs.InvalidParameterf("n_resamples must be positive, got %d", c.NResamples)
	}
	return nil
}

// Splitter builds the configured binning scheme.
func (c *Config) Splitter() (binning.Splitter, error) {
	switch strings.ToLower(c.Binning.Kind) {
	case "", "uniform":
		uniform, err := binning.NewUniformBinning(c.Binning.Bins)
		if err != nil {
			return nil, err
		}
		return uniform, nil
	case "datadependent", "data_dependent":
		dataDependent, err := binning.NewDataDependentBinning(c.Binning.MinSize, c.Binning.Threshold)
		if err != nil {
			return nil, err
		}
		return dataDependent, nil
	}
	return nil, errs.InvalidParameterf("binning kind must be 'uniform' or 'datadependent', got %q", c.Binning.Kind)
}

// DistanceMeasure resolves the configured distance.
func (c *Config) DistanceMeasure() (distance.Distance, error) {
	return distance.ByName(c.Distance)
}

// LensFor resolves the configured lens for probabilities of the given number of classes.
func (c *Config) LensFor(classes int) (lens.Lens, error) {
	return lens.ByName(c.Lens, classes, c.Groups)
}
