// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/aqpe/cmd/aqpe/config"
	"github.com/AleutianAI/aqpe/cmd/aqpe/internal/estimation"
	"github.com/AleutianAI/aqpe/cmd/aqpe/internal/random"
	"github.com/AleutianAI/aqpe/cmd/aqpe/internal/report"
	"github.com/AleutianAI/aqpe/pkg/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:   "aqpe",
		Short: "A CLI for accelerated quantum phase estimation",
		Long: `Aqpe estimates an unknown quantum phase by rejection filtering:
a synthetic measurement circuit generates evidence, and a Gaussian belief
over the phase is sharpened by Bayesian rejection sampling until it reaches
the requested precision.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run repeated phase-estimation experiments and report convergence",
		RunE:  runEstimation,
	}

	defaultsCmd = &cobra.Command{
		Use:   "defaults",
		Short: "Print the default run parameters and the derived evidence count",
		Run:   runDefaults,
	}

	// run flags; merged over the config file only when explicitly set
	flagTargetPhi    float64
	flagPrecision    float64
	flagAlpha        float64
	flagEvidence     uint64
	flagPriorSamples int
	flagRepetitions  int
	flagWorkers      int
	flagSeed         uint64
	flagVerbose      bool
	flagConfigPath   string
	flagLogDebug     bool
)

// init() runs when the Go program starts
func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)

	runCmd.Flags().Float64VarP(&flagTargetPhi, "target-phi", "t", config.DefaultTargetPhi,
		"Phase to estimate, in [-pi, pi]")
	runCmd.Flags().Float64VarP(&flagPrecision, "precision", "p", config.DefaultPrecision,
		"Posterior standard deviation at which an experiment converges, in [1e-10, 1]")
	runCmd.Flags().Float64VarP(&flagAlpha, "alpha", "a", config.DefaultAlpha,
		"Depth/evidence trade-off exponent, in [0, 1]")
	runCmd.Flags().Uint64VarP(&flagEvidence, "evidence-samples", "n", 0,
		"Measurements per iteration (0 derives the count and lifts the cap on it)")
	runCmd.Flags().IntVarP(&flagPriorSamples, "prior-samples", "m", config.DefaultPriorSamples,
		"Prior sample set size per iteration")
	runCmd.Flags().IntVarP(&flagRepetitions, "repetitions", "r", config.DefaultRepetitions,
		"Number of independent experiments")
	runCmd.Flags().IntVar(&flagWorkers, "workers", 1,
		"Parallel workers for repetitions (1 runs sequentially)")
	runCmd.Flags().Uint64Var(&flagSeed, "seed", 0,
		"Random seed (0 seeds from the wall clock)")
	runCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"Print per-iteration belief updates")
	runCmd.Flags().StringVar(&flagConfigPath, "config", "",
		"Config file path (default ~/.aqpe/aqpe.yaml)")
	runCmd.Flags().BoolVar(&flagLogDebug, "debug", false,
		"Enable debug logging")
}

// mergeFlags overlays explicitly set flags on the file-loaded parameters.
func mergeFlags(cmd *cobra.Command, params *config.Parameters) {
	if cmd.Flags().Changed("target-phi") {
		params.TargetPhi = flagTargetPhi
	}
	if cmd.Flags().Changed("precision") {
		params.Precision = flagPrecision
	}
	if cmd.Flags().Changed("alpha") {
		params.Alpha = flagAlpha
	}
	if cmd.Flags().Changed("evidence-samples") {
		params.EvidenceSamples = flagEvidence
		params.EvidenceSamplesSet = true
	}
	if cmd.Flags().Changed("prior-samples") {
		params.PriorSamples = flagPriorSamples
	}
	if cmd.Flags().Changed("repetitions") {
		params.Repetitions = flagRepetitions
	}
	if cmd.Flags().Changed("workers") {
		params.Workers = flagWorkers
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = flagSeed
	}
	if cmd.Flags().Changed("verbose") {
		params.Verbose = flagVerbose
	}
}

func runEstimation(cmd *cobra.Command, args []string) error {
	params, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}
	mergeFlags(cmd, &params)

	warnings, err := params.Sanitize()
	if err != nil {
		return err
	}

	level := logging.LevelInfo
	if flagLogDebug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  "~/.aqpe/logs",
		Service: "aqpe",
	})
	defer logger.Close()

	reporter := report.NewReporter(os.Stdout, params.Verbose)
	reporter.Warnings(warnings)
	for _, w := range warnings {
		logger.Warn("parameter reset", "detail", w)
	}

	var gen *random.Generator
	if params.Seed != 0 {
		gen = random.New(params.Seed)
	} else {
		gen = random.NewTimeSeeded()
	}

	evidence, capped := params.ResolveEvidenceSamples()
	if capped {
		logger.Warn("derived evidence count capped",
			"cap", config.MaxEvidenceSamples, "precision", params.Precision, "alpha", params.Alpha)
	}
	reporter.Banner(params, evidence, capped, gen.Seed())

	settings := estimation.Settings{
		TargetPhi:       params.TargetPhi,
		Precision:       params.Precision,
		Alpha:           params.Alpha,
		EvidenceSamples: evidence,
		PriorSamples:    params.PriorSamples,
		Inflation:       params.Inflation,
	}
	agg := estimation.NewAggregator(estimation.RunConfig{
		Settings:    settings,
		Repetitions: params.Repetitions,
		Workers:     params.Workers,
	}, gen, logger, reporter)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result := agg.Run(ctx)
	reporter.Summary(result, settings.TargetPhi)
	return nil
}

func runDefaults(cmd *cobra.Command, args []string) {
	reporter := report.NewReporter(os.Stdout, false)
	reporter.Defaults(config.DefaultParameters())
}
