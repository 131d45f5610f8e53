// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package estimation implements Accelerated Quantum Phase Estimation via
// Rejection Filtering Phase Estimation (RFPE).
//
// The unknown phase lives in (-pi, pi). The belief about it is kept as a
// Gaussian (mean, standard deviation) and refined iteratively: each
// iteration draws synthetic measurement evidence from a closed-form
// two-outcome circuit model, represents the current belief as Monte Carlo
// samples, and resamples the belief through a rejection filter weighted by
// the evidence likelihood. An experiment converges when the belief's
// standard deviation drops below the configured precision.
//
// Nothing in this package is safe for concurrent use on shared state; each
// experiment owns its belief and its random source. Independent experiments
// may run in parallel when each owns an independently seeded source.
package estimation

import "math"

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxIterations bounds the RFPE loop of a single experiment.
	MaxIterations = 100

	// InitialMean is the belief mean every experiment starts from.
	InitialMean = 0.0

	// DefaultXSigma scales the precision into the tolerance band used to
	// classify a converged estimate as consistent with the claimed precision.
	DefaultXSigma = 4.0
)

// InitialStd is the belief standard deviation every experiment starts from.
// A Gaussian with std pi/2 centered at 0 approximates the uninformed prior
// over (-pi, pi).
var InitialStd = math.Pi / 2

// =============================================================================
// Belief State
// =============================================================================

// Belief is the Gaussian approximation to the posterior over the phase.
// It is owned by exactly one running experiment and replaced once per
// iteration by the rejection-filtering update.
type Belief struct {
	// Mean is the current phase estimate.
	Mean float64

	// Std is the current uncertainty; convergence is Std < precision.
	Std float64
}

// =============================================================================
// Derived Parameters
// =============================================================================

// Derived holds the per-iteration circuit parameters computed from the
// current Belief. Recomputed every iteration, never persisted.
type Derived struct {
	// M is the circuit contrast, std^-alpha (1 when std is exactly 0).
	M float64

	// Theta is the reference phase offset, mean - std.
	Theta float64
}

// CalculateM returns the circuit contrast for a belief standard deviation.
// Pure function: M = std^-alpha, with M = 1 when std == 0 so that a fully
// collapsed belief still maps to a valid circuit.
func CalculateM(std, alpha float64) float64 {
	if std == 0 {
		return 1
	}
	return 1 / math.Pow(std, alpha)
}

// CalculateTheta returns the reference phase offset for a belief.
// Pure function: theta = mean - std.
func CalculateTheta(mean, std float64) float64 {
	return mean - std
}

// DeriveParameters computes both circuit parameters from a belief.
func DeriveParameters(b Belief, alpha float64) Derived {
	return Derived{
		M:     CalculateM(b.Std, alpha),
		Theta: CalculateTheta(b.Mean, b.Std),
	}
}

// =============================================================================
// Evidence
// =============================================================================

// Evidence is the two-outcome count vector produced by one circuit
// invocation. Immutable once produced; consumed by exactly one update.
type Evidence struct {
	// Count0 is the number of trials that measured outcome 0.
	Count0 uint64

	// Count1 is the number of trials that measured outcome 1.
	Count1 uint64
}

// Total returns the number of trials behind this evidence.
func (e Evidence) Total() uint64 {
	return e.Count0 + e.Count1
}

// =============================================================================
// Outcomes
// =============================================================================

// Outcome is the terminal result of one experiment.
type Outcome struct {
	// Converged reports whether the belief reached the precision target
	// within MaxIterations.
	Converged bool

	// Iterations is the number of RFPE iterations executed.
	Iterations int

	// EstimatedPhi is the final belief mean.
	EstimatedPhi float64

	// FinalStd is the final belief standard deviation.
	FinalStd float64
}

// IterationRecord is emitted to observers after every RFPE iteration.
type IterationRecord struct {
	// Iteration is 1-based; a record with Iteration 0 describes the
	// initial belief before any update.
	Iteration int

	Mean float64
	Std  float64
}
