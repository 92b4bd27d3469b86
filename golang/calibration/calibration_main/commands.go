package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/calibration_trees/golang/calibration/binning"
	"github.com/tarstars/calibration_trees/golang/calibration/dataset"
	"github.com/tarstars/calibration_trees/golang/calibration/errs"
	"github.com/tarstars/calibration_trees/golang/calibration/sample"
	"github.com/tarstars/calibration_trees/golang/calibration/score"
	"github.com/tarstars/calibration_trees/golang/calibration/stats"
)

//entry is one line of a report
type entry struct {
	key   string
	value interface{}
}

func (a *app) eceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ece",
		Short: "Expected calibration error, on targets sampled from the probabilities when no outcomes are given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			estimator, err := a.estimator()
			if err != nil {
				return err
			}

			var ece float64
			if a.cfg.FileNameOutcomes == "" {
				probs, err := a.readProbs()
				if err != nil {
					return err
				}
				if ece, err = estimator.ECE(probs, nil); err != nil {
					return err
				}
			} else {
				probs, outcomes, err := a.readData()
				if err != nil {
					return err
				}
				if ece, err = estimator.ECE(probs, outcomes); err != nil {
					return err
				}
			}
			return a.report(cmd, []entry{
				{"estimator", estimator.String()},
				{"ece", ece},
			})
		},
	}
}

func (a *app) bootstrapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap estimate of the expected calibration error and its standard deviation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			estimator, err := a.estimator()
			if err != nil {
				return err
			}
			probs, outcomes, err := a.readData()
			if err != nil {
				return err
			}
			ece, std, err := estimator.Bootstrap(probs, outcomes)
			if err != nil {
				return err
			}
			return a.report(cmd, []entry{
				{"estimator", estimator.String()},
				{"ece", ece},
				{"std", std},
			})
		},
	}
}

func (a *app) consistencyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Distribution of the expected calibration error under perfect calibration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			estimator, err := a.estimator()
			if err != nil {
				return err
			}
			probs, err := a.readProbs()
			if err != nil {
				return err
			}
			mean, std, err := estimator.Consistency(probs)
			if err != nil {
				return err
			}
			return a.report(cmd, []entry{
				{"estimator", estimator.String()},
				{"mean", mean},
				{"std", std},
			})
		},
	}
}

func (a *app) binsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bins",
		Short: "Fit the binning tree and write the bin number of every sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.FileNameBinNumbers == "" {
				return errs.InvalidParameterf("filename_binnumbers is required")
			}
			splitter, err := a.cfg.Splitter()
			if err != nil {
				return err
			}
			probs, err := a.readProbs()
			if err != nil {
				return err
			}

			tree := binning.NewTree(splitter).Fit(probs)
			binNumbers, err := tree.BinNumbers()
			if err != nil {
				return err
			}
			bins, err := tree.Bins()
			if err != nil {
				return err
			}
			if err := dataset.WriteInts(a.cfg.FileNameBinNumbers, binNumbers); err != nil {
				return err
			}

			sizes := make([]int, len(bins))
			for ind, bin := range bins {
				sizes[ind] = len(bin)
			}
			slog.Debug("binning tree", "tree", tree.String())
			return a.report(cmd, []entry{
				{"binning", fmt.Sprint(splitter)},
				{"bins", len(bins)},
				{"sizes", sizes},
			})
		},
	}
}

func (a *app) scoresCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "Proper scoring rules of the predictions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			probs, outcomes, err := a.readData()
			if err != nil {
				return err
			}
			labels := sample.Labels(outcomes)

			entries := make([]entry, 0, len(score.Names))
			for _, name := range score.Names {
				rule, err := score.ByName(name)
				if err != nil {
					return err
				}
				value, err := rule(probs, labels)
				if err != nil {
					return errors.Wrap(err, name)
				}
				entries = append(entries, entry{name, value})
			}
			return a.report(cmd, entries)
		},
	}
}

func (a *app) estimator() (stats.Estimator, error) {
	splitter, err := a.cfg.Splitter()
	if err != nil {
		return stats.Estimator{}, err
	}
	dist, err := a.cfg.DistanceMeasure()
	if err != nil {
		return stats.Estimator{}, err
	}
	return stats.Estimator{
		Distance:  dist,
		Binning:   splitter,
		Rand:      sample.New(a.cfg.Seed),
		Resamples: a.cfg.NResamples,
	}, nil
}

//readProbs reads the probabilities and passes them through the lens
func (a *app) readProbs() (*mat.Dense, error) {
	probs, err := a.readExpandedProbs()
	if err != nil {
		return nil, err
	}
	_, classes := probs.Dims()
	l, err := a.cfg.LensFor(classes)
	if err != nil {
		return nil, err
	}
	probs, _, err = l.ApplyOneHot(probs, probs)
	return probs, err
}

//readData reads probabilities and outcomes and passes them through the lens
func (a *app) readData() (*mat.Dense, *mat.Dense, error) {
	if a.cfg.FileNameOutcomes == "" {
		return nil, nil, errs.InvalidParameterf("filename_outcomes is required")
	}
	probs, err := a.readExpandedProbs()
	if err != nil {
		return nil, nil, err
	}
	_, classes := probs.Dims()
	outcomes, err := dataset.ReadOutcomes(a.cfg.FileNameOutcomes, classes)
	if err != nil {
		return nil, nil, err
	}
	l, err := a.cfg.LensFor(classes)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("apply lens", "lens", fmt.Sprint(l), "classes", classes)
	return l.ApplyOneHot(probs, outcomes)
}

func (a *app) readExpandedProbs() (*mat.Dense, error) {
	if a.cfg.FileNameProbs == "" {
		return nil, errs.InvalidParameterf("filename_probs is required")
	}
	probs, err := dataset.ReadMatrix(a.cfg.FileNameProbs)
	if err != nil {
		return nil, err
	}
	if probs.IsEmpty() {
		return nil, errs.Shapef("%s: no samples", a.cfg.FileNameProbs)
	}
	return binning.Expand(probs), nil
}

//report prints the entries and stores them as json in filename_output when it is set
func (a *app) report(cmd *cobra.Command, entries []entry) error {
	out := cmd.OutOrStdout()
	document := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		fmt.Fprintf(out, "%s: %v\n", e.key, e.value)
		document[e.key] = jsonValue(e.value)
	}
	if a.cfg.FileNameOutput == "" {
		return nil
	}

	content, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	if err := os.WriteFile(a.cfg.FileNameOutput, append(content, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", a.cfg.FileNameOutput)
	}
	slog.Info("report written", "file", a.cfg.FileNameOutput)
	return nil
}

//jsonValue replaces the non-finite floats json cannot encode with null
func jsonValue(value interface{}) interface{} {
	if f, ok := value.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil
	}
	return value
}
