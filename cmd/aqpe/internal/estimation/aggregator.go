// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package estimation

import (
	"context"
	"math"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/aqpe/cmd/aqpe/internal/random"
	"github.com/AleutianAI/aqpe/pkg/logging"
)

// =============================================================================
// Run Configuration
// =============================================================================

// RunConfig describes a whole aggregation run: the shared experiment
// settings plus how many independent repetitions to execute and how.
type RunConfig struct {
	// Settings are shared by every repetition; each repetition starts from
	// the same initial belief and differs only in its random draws.
	Settings Settings

	// Repetitions is the number of independent experiments, > 0.
	Repetitions int

	// XSigma scales Precision into the wrong-convergence tolerance band.
	// Zero is treated as DefaultXSigma.
	XSigma float64

	// Workers > 1 runs repetitions in parallel, each worker owning an
	// independently spawned random stream. Workers <= 1 runs sequentially
	// on the aggregator's own source and is reproducible draw for draw.
	Workers int
}

// Report accumulates convergence statistics across repetitions. Averages
// are computed over converged experiments only.
type Report struct {
	// RunID correlates the report with the run's log entries.
	RunID string

	// Repetitions is the number of experiments actually executed.
	Repetitions int

	// ConvergenceCount is the number of experiments that reached the
	// precision target; wrong convergences are included.
	ConvergenceCount int

	// WrongConvergenceCount is the number of converged experiments whose
	// estimate missed the target by more than Tolerance.
	WrongConvergenceCount int

	// AverageIterations is the mean iteration count over converged
	// experiments; 0 when none converged.
	AverageIterations float64

	// AverageAbsError is the mean |estimate - target| over converged
	// experiments; 0 when none converged.
	AverageAbsError float64

	// Tolerance is XSigma * Precision, the band used for classification.
	Tolerance float64
}

// Observer receives progress callbacks during a run. Implementations must
// be safe for concurrent use when RunConfig.Workers > 1; with a single
// worker the callbacks arrive strictly in order. A nil Observer disables
// all callbacks.
type Observer interface {
	// ExperimentStarted is called before repetition index (1-based) begins.
	ExperimentStarted(index int)

	// Iteration is called after every RFPE iteration of a repetition.
	Iteration(index int, rec IterationRecord)

	// ExperimentFinished is called with the repetition's terminal outcome.
	ExperimentFinished(index int, out Outcome)
}

// =============================================================================
// Aggregator
// =============================================================================

// Aggregator runs repeated independent experiments and reduces their
// outcomes into a Report. It exclusively owns the run's random source; no
// component reseeds it mid-run.
type Aggregator struct {
	cfg    RunConfig
	gen    *random.Generator
	logger *logging.Logger
	obs    Observer
}

// NewAggregator creates an Aggregator over an exclusively owned source.
func NewAggregator(cfg RunConfig, gen *random.Generator, logger *logging.Logger, obs Observer) *Aggregator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Aggregator{cfg: cfg, gen: gen, logger: logger, obs: obs}
}

// Run executes the configured repetitions and reduces their outcomes.
//
// # Description
//
// Every repetition is an independent experiment from the same initial
// belief. Outcomes are classified as converged, wrongly converged
// (converged but |estimate - target| > Tolerance), or not converged; the
// last contributes only to the denominator. Classification and reduction
// are commutative, so the parallel path needs no ordering.
//
// Cancelling ctx stops the run early; the report then covers only the
// experiments that completed, with Repetitions reflecting that count.
//
// # Outputs
//
//   - Report: never contains NaN; averages are zero when nothing converged
func (a *Aggregator) Run(ctx context.Context) Report {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	logger.Info("starting aggregation run",
		"repetitions", a.cfg.Repetitions,
		"workers", a.workers(),
		"seed", a.gen.Seed(),
		"target_phi", a.cfg.Settings.TargetPhi,
		"precision", a.cfg.Settings.Precision,
		"alpha", a.cfg.Settings.Alpha,
	)

	var totals reportTotals
	if a.workers() > 1 {
		a.runParallel(ctx, logger, &totals)
	} else {
		a.runSequential(ctx, logger, &totals)
	}

	report := totals.finalize(runID, a.tolerance())
	logger.Info("aggregation run finished",
		"executed", report.Repetitions,
		"converged", report.ConvergenceCount,
		"wrong_convergence", report.WrongConvergenceCount,
	)
	return report
}

func (a *Aggregator) workers() int {
	if a.cfg.Workers < 1 {
		return 1
	}
	return a.cfg.Workers
}

func (a *Aggregator) tolerance() float64 {
	x := a.cfg.XSigma
	if x == 0 {
		x = DefaultXSigma
	}
	return x * a.cfg.Settings.Precision
}

// runOne executes repetition index on src and classifies its outcome.
func (a *Aggregator) runOne(index int, src random.Source, logger *logging.Logger, totals *reportTotals) {
	if a.obs != nil {
		a.obs.ExperimentStarted(index)
	}

	observe := func(rec IterationRecord) {}
	if a.obs != nil {
		observe = func(rec IterationRecord) { a.obs.Iteration(index, rec) }
	}

	out := RunExperiment(src, a.cfg.Settings, observe)

	if a.obs != nil {
		a.obs.ExperimentFinished(index, out)
	}
	logger.Debug("experiment finished",
		"experiment", index,
		"converged", out.Converged,
		"iterations", out.Iterations,
		"estimated_phi", out.EstimatedPhi,
		"final_std", out.FinalStd,
	)

	totals.add(out, a.cfg.Settings.TargetPhi, a.tolerance())
}

func (a *Aggregator) runSequential(ctx context.Context, logger *logging.Logger, totals *reportTotals) {
	for i := 1; i <= a.cfg.Repetitions; i++ {
		if ctx.Err() != nil {
			logger.Warn("run cancelled", "completed", i-1)
			return
		}
		a.runOne(i, a.gen, logger, totals)
	}
}

func (a *Aggregator) runParallel(ctx context.Context, logger *logging.Logger, totals *reportTotals) {
	group, ctx := errgroup.WithContext(ctx)
	workers := a.workers()

	for w := 0; w < workers; w++ {
		src := a.gen.Spawn(uint64(w))
		// Repetitions are dealt round-robin; worker w runs w+1, w+1+workers, ...
		start := w + 1
		group.Go(func() error {
			for i := start; i <= a.cfg.Repetitions; i += workers {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.runOne(i, src, logger, totals)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.Warn("run cancelled", "reason", err)
	}
}

// =============================================================================
// Reduction
// =============================================================================

// reportTotals is the running reduction over classified outcomes.
// add is safe for concurrent use; everything else happens after Wait.
type reportTotals struct {
	mu            sync.Mutex
	executed      int
	converged     int
	wrong         int
	iterationsSum float64
	absErrorSum   float64
}

func (t *reportTotals) add(out Outcome, targetPhi, tolerance float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.executed++
	if !out.Converged {
		return
	}

	t.converged++
	absError := math.Abs(out.EstimatedPhi - targetPhi)
	t.iterationsSum += float64(out.Iterations)
	t.absErrorSum += absError
	if absError > tolerance {
		t.wrong++
	}
}

// finalize computes the averages, guarding the zero-convergence case so no
// division by zero can surface as NaN in the report.
func (t *reportTotals) finalize(runID string, tolerance float64) Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := Report{
		RunID:                 runID,
		Repetitions:           t.executed,
		ConvergenceCount:      t.converged,
		WrongConvergenceCount: t.wrong,
		Tolerance:             tolerance,
	}
	if t.converged > 0 {
		report.AverageIterations = t.iterationsSum / float64(t.converged)
		report.AverageAbsError = t.absErrorSum / float64(t.converged)
	}
	return report
}
