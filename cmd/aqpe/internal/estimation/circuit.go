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

// OutcomeZeroProbability returns the per-trial probability of measuring
// outcome 0 for a phase hypothesis phi under circuit parameters d:
//
//	p0 = (1 + cos(M * (phi - theta))) / 2
//
// The value is in [0, 1] by construction for any real M and theta. This is
// also the likelihood used by the rejection filter, which is what ties the
// synthetic measurement and the Bayesian update to the same model.
func OutcomeZeroProbability(phi float64, d Derived) float64 {
	return (1 + math.Cos(d.M*(phi-d.Theta))) / 2
}

// RunCircuit simulates one batch of two-outcome phase measurements.
//
// # Description
//
// Models a projective measurement with a closed-form Bernoulli distribution
// rather than state-vector evolution: each of numberOfSamples independent
// trials measures outcome 0 with probability OutcomeZeroProbability(phi, d).
// Count1 is derived as the complement, never sampled separately, so
// Count0 + Count1 == numberOfSamples always holds.
//
// # Inputs
//
//   - src: the run's random source (one uniform draw per trial)
//   - phi: the true phase (ground truth, fixed for the whole experiment)
//   - d: the circuit parameters derived from the current belief
//   - numberOfSamples: trials this iteration; 0 yields Evidence{0, 0}
func RunCircuit(src random.Source, phi float64, d Derived, numberOfSamples uint64) Evidence {
	p0 := OutcomeZeroProbability(phi, d)

	var count0 uint64
	for i := uint64(0); i < numberOfSamples; i++ {
		if src.Uniform01() < p0 {
			count0++
		}
	}

	return Evidence{
		Count0: count0,
		Count1: numberOfSamples - count0,
	}
}
