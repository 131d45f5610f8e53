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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/aqpe/cmd/aqpe/internal/random"
)

func TestUpdate_ZeroEvidenceKeepsPriorMoments(t *testing.T) {
	// Without evidence every weight is exactly 1, so every prior sample is
	// accepted and the posterior is the prior's population moments.
	src := &scriptedSource{uniforms: []float64{0.5}}
	priors := []float64{-1, 0, 1, 0.5}
	current := Belief{Mean: 0, Std: InitialStd}

	got := Update(src, priors, Evidence{}, Derived{M: 1, Theta: 0}, current, 1)

	wantMean := 0.125
	wantStd := math.Sqrt(0.546875)
	assert.InDelta(t, wantMean, got.Mean, 1e-12)
	assert.InDelta(t, wantStd, got.Std, 1e-12)
}

func TestUpdate_InflationScalesStd(t *testing.T) {
	priors := []float64{-1, 0, 1, 0.5}
	current := Belief{Mean: 0, Std: InitialStd}

	plain := Update(&scriptedSource{uniforms: []float64{0.5}}, priors,
		Evidence{}, Derived{M: 1, Theta: 0}, current, 1)
	inflated := Update(&scriptedSource{uniforms: []float64{0.5}}, priors,
		Evidence{}, Derived{M: 1, Theta: 0}, current, 2)

	assert.InDelta(t, plain.Mean, inflated.Mean, 1e-12)
	assert.InDelta(t, plain.Std*2, inflated.Std, 1e-12)
}

func TestUpdate_SingleAcceptedHalvesStd(t *testing.T) {
	// Sample 0 sits at the likelihood maximum (weight 1), sample 1 is
	// essentially impossible under the evidence. One uniform draw of 0.5
	// accepts only sample 0.
	src := &scriptedSource{uniforms: []float64{0.5}}
	priors := []float64{0.0, 3.0}
	current := Belief{Mean: 0.2, Std: 1.0}

	got := Update(src, priors, Evidence{Count0: 5}, Derived{M: 1, Theta: 0}, current, 1)

	assert.Equal(t, 0.0, got.Mean, "mean should be the single accepted sample")
	assert.Equal(t, 0.5, got.Std, "std should be halved from the current belief")
}

func TestUpdate_Count1OnlyEvidence(t *testing.T) {
	// Outcome-1 evidence inverts the likelihood: a sample exactly at the
	// reference phase has q = 1 so 1-q = 0, and must get weight 0 without
	// producing NaN along the way.
	src := &scriptedSource{uniforms: []float64{0.5}}
	priors := []float64{0.0, 3.0}
	current := Belief{Mean: 0.2, Std: 1.0}

	got := Update(src, priors, Evidence{Count1: 5}, Derived{M: 1, Theta: 0}, current, 1)

	assert.Equal(t, 3.0, got.Mean, "only the off-reference sample should survive")
	assert.Equal(t, 0.5, got.Std)
	assert.False(t, math.IsNaN(got.Mean))
}

func TestUpdate_ZeroAcceptedWidensBelief(t *testing.T) {
	// Uniform draws above every weight reject the whole prior set; the
	// belief keeps its mean and doubles its uncertainty.
	src := &scriptedSource{uniforms: []float64{2.0}}
	priors := []float64{0.1, 0.2, 0.3}
	current := Belief{Mean: 0.2, Std: 0.4}

	got := Update(src, priors, Evidence{Count0: 3}, Derived{M: 1, Theta: 0}, current, 1)

	assert.Equal(t, 0.2, got.Mean)
	assert.InDelta(t, 0.8, got.Std, 1e-12)
}

func TestUpdate_DegenerateAcceptedSubset(t *testing.T) {
	// Identical accepted samples give zero variance up to a cancellation
	// residue in the population formula; the residue must stay tiny and
	// must not surface as NaN.
	src := &scriptedSource{uniforms: []float64{0.0}}
	priors := []float64{0.7, 0.7, 0.7}
	current := Belief{Mean: 0.7, Std: 0.5}

	got := Update(src, priors, Evidence{}, Derived{M: 1, Theta: 0}, current, 1)

	assert.InDelta(t, 0.7, got.Mean, 1e-12)
	assert.InDelta(t, 0.0, got.Std, 1e-7)
	assert.False(t, math.IsNaN(got.Std))
}

func TestUpdate_NeverNaN(t *testing.T) {
	src := random.New(13)
	current := Belief{Mean: 0.3, Std: 0.9}
	d := DeriveParameters(current, 1)

	priors := make([]float64, 500)
	SampleRestrictedGaussian(src, current.Mean, current.Std, priors, 0)

	evidences := []Evidence{
		{Count0: 40},
		{Count1: 40},
		{Count0: 25, Count1: 15},
		{Count0: 1000, Count1: 1000},
	}
	for _, e := range evidences {
		got := Update(src, priors, e, d, current, 1)
		if math.IsNaN(got.Mean) || math.IsNaN(got.Std) {
			t.Fatalf("Update produced NaN for evidence %+v: %+v", e, got)
		}
		if got.Std < 0 {
			t.Fatalf("negative std for evidence %+v: %+v", e, got)
		}
	}
}

func TestUpdate_ConcentratesNearTruePhase(t *testing.T) {
	// Strong evidence generated at a known phase should pull the posterior
	// mean toward it and shrink the uncertainty well below the prior's.
	src := random.New(21)
	truePhase := 0.5
	current := Belief{Mean: 0, Std: InitialStd}
	d := DeriveParameters(current, 1)

	priors := make([]float64, 1000)
	SampleRestrictedGaussian(src, current.Mean, current.Std, priors, 0)
	evidence := RunCircuit(src, truePhase, d, 200)

	got := Update(src, priors, evidence, d, current, 1)

	assert.InDelta(t, truePhase, got.Mean, 0.5)
	assert.Less(t, got.Std, current.Std)
}

func TestUpdate_PosteriorWithinPhaseRange(t *testing.T) {
	// Accepted samples all lie in (-pi, pi), so any moment-based posterior
	// mean must too.
	src := random.New(17)
	current := Belief{Mean: 0, Std: InitialStd}
	d := DeriveParameters(current, 1)

	priors := make([]float64, 1000)
	SampleRestrictedGaussian(src, current.Mean, current.Std, priors, 0)
	evidence := RunCircuit(src, 0.5, d, 19)

	got := Update(src, priors, evidence, d, current, 1)

	assert.Less(t, math.Abs(got.Mean), math.Pi)
	assert.LessOrEqual(t, got.Std, math.Pi)
}
