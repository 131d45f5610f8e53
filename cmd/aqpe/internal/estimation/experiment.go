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

import "github.com/AleutianAI/aqpe/cmd/aqpe/internal/random"

// =============================================================================
// Settings
// =============================================================================

// Settings carries the read-only parameters of a single experiment. The
// config package produces a validated Settings value; the estimation code
// never sees out-of-range parameters.
type Settings struct {
	// TargetPhi is the ground-truth phase, in [-pi, pi].
	TargetPhi float64

	// Precision is the convergence threshold on the belief's standard
	// deviation, in [1e-10, 1].
	Precision float64

	// Alpha is the contrast exponent trading evidence samples per
	// iteration against circuit contrast, in [0, 1].
	Alpha float64

	// EvidenceSamples is the number of circuit trials per iteration.
	EvidenceSamples uint64

	// PriorSamples is the size of the Monte Carlo prior set per iteration.
	PriorSamples int

	// Inflation multiplies the posterior standard deviation after each
	// update. Zero is treated as the default of 1 (no inflation).
	Inflation float64

	// SamplerMaxAttempts caps the restricted-Gaussian retry loop per
	// sample; 0 leaves it unbounded.
	SamplerMaxAttempts int
}

// withDefaults fills the zero-value knobs that have non-zero defaults.
func (s Settings) withDefaults() Settings {
	if s.Inflation == 0 {
		s.Inflation = 1
	}
	return s
}

// =============================================================================
// Experiment Runner
// =============================================================================

// RunExperiment drives one RFPE convergence loop to a terminal state.
//
// # Description
//
// The belief starts at {mean 0, std pi/2}. Each iteration derives the
// circuit parameters from the current belief, draws evidence from the
// circuit at the true phase, regenerates the prior sample set from the
// belief, and replaces the belief with the rejection-filtered posterior.
// The loop ends CONVERGED as soon as the belief's standard deviation drops
// below Precision, or EXHAUSTED after MaxIterations iterations. Iterations
// are strictly sequential: each depends on the previous posterior.
//
// # Inputs
//
//   - src: the experiment's exclusively owned random source
//   - s: validated experiment settings
//   - observe: optional per-iteration callback (nil to disable); called
//     once with the initial belief (iteration 0) and once per iteration
//
// # Outputs
//
//   - Outcome: terminal state; Converged false means the iteration budget
//     was exhausted, which is an expected result, not an error
func RunExperiment(src random.Source, s Settings, observe func(IterationRecord)) Outcome {
	s = s.withDefaults()

	belief := Belief{Mean: InitialMean, Std: InitialStd}
	prior := make([]float64, s.PriorSamples)

	if observe != nil {
		observe(IterationRecord{Iteration: 0, Mean: belief.Mean, Std: belief.Std})
	}

	for i := 0; i < MaxIterations; i++ {
		derived := DeriveParameters(belief, s.Alpha)

		// Evidence first, then the prior set: the draw order is fixed so
		// a seeded run reproduces identical trajectories.
		evidence := RunCircuit(src, s.TargetPhi, derived, s.EvidenceSamples)
		SampleRestrictedGaussian(src, belief.Mean, belief.Std, prior, s.SamplerMaxAttempts)
		belief = Update(src, prior, evidence, derived, belief, s.Inflation)

		if observe != nil {
			observe(IterationRecord{Iteration: i + 1, Mean: belief.Mean, Std: belief.Std})
		}

		if belief.Std < s.Precision {
			return Outcome{
				Converged:    true,
				Iterations:   i + 1,
				EstimatedPhi: belief.Mean,
				FinalStd:     belief.Std,
			}
		}
	}

	return Outcome{
		Converged:    false,
		Iterations:   MaxIterations,
		EstimatedPhi: belief.Mean,
		FinalStd:     belief.Std,
	}
}
