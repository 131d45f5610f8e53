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

// SampleRestrictedGaussian fills dst with draws from Gaussian(mu, sigma)
// restricted to the open interval (-pi, pi).
//
// # Description
//
// Each slot is filled by redrawing until |x| < pi. The retry loop is
// logically unbounded: for sigma large relative to pi it consumes many
// draws, which is an accepted trade-off (simplicity over bounded latency).
// When maxAttempts > 0 the loop for a single slot gives up after that many
// rejected draws and clamps the last draw into the interval instead, so the
// sampler still cannot fail; maxAttempts == 0 means no cap.
//
// # Inputs
//
//   - src: the run's random source (consumed for an unbounded number of draws)
//   - mu, sigma: the belief the samples represent
//   - dst: destination slice; len(dst) samples are produced
//   - maxAttempts: per-slot retry cap, 0 for unbounded
//
// # Assumptions
//
//   - sigma >= 0; a zero sigma yields len(dst) copies of clamp(mu)
func SampleRestrictedGaussian(src random.Source, mu, sigma float64, dst []float64, maxAttempts int) {
	for i := range dst {
		attempts := 0
		for {
			x := src.Gaussian(sigma) + mu
			if math.Abs(x) < math.Pi {
				dst[i] = x
				break
			}
			attempts++
			if maxAttempts > 0 && attempts >= maxAttempts {
				dst[i] = clampToPhase(x)
				break
			}
		}
	}
}

// clampToPhase maps a value outside (-pi, pi) to the nearest representable
// float strictly inside the interval.
func clampToPhase(x float64) float64 {
	limit := math.Nextafter(math.Pi, 0)
	if x > 0 {
		return limit
	}
	return -limit
}
