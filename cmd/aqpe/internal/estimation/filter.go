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
	"math"

	"github.com/AleutianAI/aqpe/cmd/aqpe/internal/random"
)

// Update performs one rejection-filtering Bayesian update of the belief.
//
// # Description
//
// For every prior sample s_i the likelihood of the observed evidence is
// accumulated in log space:
//
//	logL_i = Count0*log(q_i) + Count1*log(1 - q_i)
//
// where q_i = OutcomeZeroProbability(s_i, d). After each outcome category's
// contribution the running maximum over all samples is subtracted from every
// logL_i, so the largest log-likelihood sits at 0 before the values are
// exponentiated. The shift is recomputed from the current prior set on every
// call; a stale shift from an earlier iteration would invalidate the
// acceptance test below. The shifted weights land in (0, 1] with maximum
// exactly 1, so each sample is accepted when a fresh uniform draw is at most
// its weight, with no separate renormalization step.
//
// The posterior is the population mean and standard deviation of the
// accepted subset (std multiplied by inflation), except for the degenerate
// accept counts:
//
//   - exactly one accepted: the single-sample moment estimate is not
//     trusted; the mean becomes that sample's value and the standard
//     deviation is halved from currentStd.
//   - zero accepted: the belief is widened instead of re-estimated; the
//     mean is kept and the standard deviation is doubled from currentStd.
//     (Widening is a single deterministic adjustment; a retry would
//     consume extra draws and break draw-for-draw reproducibility of a
//     seeded run.)
//
// With zero evidence samples every logL_i is 0, every weight is 1, and all
// prior samples are accepted, so the posterior equals the prior's empirical
// moments; no code path divides by zero.
//
// # Inputs
//
//   - src: the run's random source (one uniform draw per prior sample)
//   - priorSamples: the Monte Carlo representation of the current belief
//   - evidence: this iteration's measurement counts
//   - d: the circuit parameters the evidence was produced under
//   - currentBelief: the belief the prior samples were drawn from
//   - inflation: posterior standard deviation multiplier (1 = no-op)
//
// # Outputs
//
//   - Belief: the updated belief; never NaN for non-empty priorSamples
func Update(src random.Source, priorSamples []float64, evidence Evidence, d Derived, currentBelief Belief, inflation float64) Belief {
	n := len(priorSamples)
	outcomeZeroProb := make([]float64, n)
	logLikelihood := make([]float64, n)

	for i, s := range priorSamples {
		outcomeZeroProb[i] = OutcomeZeroProbability(s, d)
	}

	// Two passes, one per outcome category, re-centering on the running
	// maximum after each so the subsequent exp cannot overflow.
	counts := [2]uint64{evidence.Count0, evidence.Count1}
	for k, count := range counts {
		if count == 0 {
			// Skip to avoid 0 * log(0) producing NaN when a hypothesis
			// sits exactly on a likelihood zero.
			continue
		}
		maxLog := math.Inf(-1)
		for i := range logLikelihood {
			q := outcomeZeroProb[i]
			if k == 1 {
				q = 1 - q
			}
			logLikelihood[i] += float64(count) * math.Log(q)
			if logLikelihood[i] > maxLog {
				maxLog = logLikelihood[i]
			}
		}
		for i := range logLikelihood {
			logLikelihood[i] -= maxLog
		}
	}

	// Rejection sampling against the shifted weights, accumulating the
	// accepted subset's raw moments in the same pass.
	var (
		accepted  int
		sum       float64
		sumSquare float64
	)
	for i, s := range priorSamples {
		weight := math.Exp(logLikelihood[i])
		if src.Uniform01() <= weight {
			accepted++
			sum += s
			sumSquare += s * s
		}
	}

	switch accepted {
	case 0:
		return Belief{
			Mean: currentBelief.Mean,
			Std:  currentBelief.Std * 2,
		}
	case 1:
		return Belief{
			Mean: sum,
			Std:  currentBelief.Std / 2,
		}
	default:
		mean := sum / float64(accepted)
		variance := sumSquare/float64(accepted) - mean*mean
		if variance < 0 {
			// Cancellation can push the population formula a hair below
			// zero when the accepted subset is nearly degenerate.
			variance = 0
		}
		return Belief{
			Mean: mean,
			Std:  math.Sqrt(variance) * inflation,
		}
	}
}
