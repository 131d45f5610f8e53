// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultPrecision is the default target posterior standard deviation.
	DefaultPrecision = 1e-2

	// DefaultAlpha is the default evidence/depth trade-off exponent.
	DefaultAlpha = 1.0

	// DefaultPriorSamples is the default prior sample set size per iteration.
	DefaultPriorSamples = 1000

	// DefaultRepetitions is the default number of independent experiments.
	DefaultRepetitions = 1

	// MinPrecision is the smallest accepted precision target.
	MinPrecision = 1e-10

	// MaxEvidenceSamples caps the derived per-iteration evidence count.
	// An explicitly configured count bypasses the cap.
	MaxEvidenceSamples uint64 = 1_000_000
)

// DefaultTargetPhi is the default phase to estimate.
var DefaultTargetPhi = math.Pi / 2

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidPriorSamples is returned when prior_samples is not positive.
	ErrInvalidPriorSamples = errors.New("prior_samples must be a positive integer")

	// ErrInvalidRepetitions is returned when repetitions is not positive.
	ErrInvalidRepetitions = errors.New("repetitions must be a positive integer")
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// paramValidate is the validator instance for run parameters.
// Initialized in init() with custom validators.
var paramValidate *validator.Validate

func init() {
	paramValidate = validator.New()

	_ = paramValidate.RegisterValidation("phase", validatePhase)
	_ = paramValidate.RegisterValidation("precisionrange", validatePrecisionRange)
}

// validatePhase validates that a float field lies within [-pi, pi], the
// principal branch every phase in the pipeline is confined to.
func validatePhase(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return v >= -math.Pi && v <= math.Pi
}

// validatePrecisionRange validates that a float field lies within
// [MinPrecision, 1]. Targets below the floor cannot be met within the
// iteration budget and are rejected rather than silently attempted.
func validatePrecisionRange(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return v >= MinPrecision && v <= 1
}

// =============================================================================
// Parameters
// =============================================================================

// Parameters holds every tunable of an estimation run.
//
// # Description
//
// Parameters is populated in three layers: DefaultParameters(), then the
// YAML config file if one exists, then command-line flags. Sanitize must be
// called after the layers are merged; it applies the warn-and-reset policy
// for out-of-range floats and rejects invalid integer counts outright.
//
// # Fields
//
//   - TargetPhi: Phase the synthetic circuit encodes, in [-pi, pi].
//   - Precision: Posterior standard deviation at which an experiment
//     converges, in [MinPrecision, 1].
//   - Alpha: Exponent trading circuit depth against evidence count, in [0, 1].
//     1 favors deep circuits with little evidence per iteration; 0 favors
//     shallow circuits with heavy sampling.
//   - EvidenceSamples: Measurements per iteration. 0 derives the count from
//     Precision and Alpha; an explicit value is used as-is, uncapped.
//   - EvidenceSamplesSet: True when EvidenceSamples was supplied on the
//     command line. An explicit 0 still derives the count but lifts the
//     MaxEvidenceSamples cap.
//   - Inflation: Posterior standard deviation multiplier applied after each
//     update, > 0. The default of 1 is a no-op.
//   - PriorSamples: Size of the prior sample set per iteration, > 0.
//   - Repetitions: Independent experiments to run, > 0.
//   - Workers: Parallel workers for repetitions. 0 or 1 runs sequentially.
//   - Seed: Random seed. 0 seeds from the wall clock.
//   - Verbose: Emit per-iteration belief records.
type Parameters struct {
	TargetPhi          float64 `yaml:"target_phi" validate:"phase"`
	Precision          float64 `yaml:"precision" validate:"precisionrange"`
	Alpha              float64 `yaml:"alpha" validate:"gte=0,lte=1"`
	EvidenceSamples    uint64  `yaml:"evidence_samples"`
	EvidenceSamplesSet bool    `yaml:"-"`
	Inflation          float64 `yaml:"inflation"`
	PriorSamples       int     `yaml:"prior_samples"`
	Repetitions        int     `yaml:"repetitions"`
	Workers            int     `yaml:"workers"`
	Seed               uint64  `yaml:"seed"`
	Verbose            bool    `yaml:"verbose"`
}

// DefaultParameters returns the baseline parameter set.
func DefaultParameters() Parameters {
	return Parameters{
		TargetPhi:       DefaultTargetPhi,
		Precision:       DefaultPrecision,
		Alpha:           DefaultAlpha,
		EvidenceSamples: 0,
		Inflation:       1,
		PriorSamples:    DefaultPriorSamples,
		Repetitions:     DefaultRepetitions,
		Workers:         1,
		Seed:            0,
		Verbose:         false,
	}
}

// Sanitize checks the merged parameters and applies the recovery policy.
//
// # Description
//
// Out-of-range floats are survivable: each one is reset to its default and
// reported as a warning so the run can proceed. Non-positive integer counts
// make the run meaningless, so they fail hard with a sentinel error.
//
// # Outputs
//
//   - []string: one human-readable warning per reset float field
//   - error: ErrInvalidPriorSamples or ErrInvalidRepetitions
func (p *Parameters) Sanitize() ([]string, error) {
	if p.PriorSamples <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPriorSamples, p.PriorSamples)
	}
	if p.Repetitions <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRepetitions, p.Repetitions)
	}

	var warnings []string
	if err := paramValidate.Var(p.TargetPhi, "phase"); err != nil {
		warnings = append(warnings, fmt.Sprintf(
			"target phi %g is outside [-pi, pi]; using default %g", p.TargetPhi, DefaultTargetPhi))
		p.TargetPhi = DefaultTargetPhi
	}
	if err := paramValidate.Var(p.Precision, "precisionrange"); err != nil {
		warnings = append(warnings, fmt.Sprintf(
			"precision %g is outside [%g, 1]; using default %g", p.Precision, MinPrecision, DefaultPrecision))
		p.Precision = DefaultPrecision
	}
	if err := paramValidate.Var(p.Alpha, "gte=0,lte=1"); err != nil {
		warnings = append(warnings, fmt.Sprintf(
			"alpha %g is outside [0, 1]; using default %g", p.Alpha, DefaultAlpha))
		p.Alpha = DefaultAlpha
	}
	if p.Inflation <= 0 {
		warnings = append(warnings, fmt.Sprintf(
			"inflation %g is not positive; using 1", p.Inflation))
		p.Inflation = 1
	}
	if p.Workers < 0 {
		warnings = append(warnings, fmt.Sprintf(
			"workers %d is negative; running sequentially", p.Workers))
		p.Workers = 1
	}
	return warnings, nil
}

// Validate checks the parameters against their tags without mutating them.
func (p *Parameters) Validate() error {
	return paramValidate.Struct(p)
}

// =============================================================================
// Derived Quantities
// =============================================================================

// ResolveEvidenceSamples returns the per-iteration evidence count.
//
// # Description
//
// An explicitly configured count is returned unchanged. Otherwise the count
// is derived from Precision and Alpha so that the accumulated information
// suffices to reach the precision target:
//
//	alpha == 1:  ceil(4 * ln(1/precision))
//	alpha  < 1:  ceil((2 / (1-alpha)) * (precision^(-2*(1-alpha)) - 1))
//
// Derived counts are capped at MaxEvidenceSamples. The cap does not apply
// to explicit counts, and an explicit count of 0 requests derivation with
// the cap lifted.
//
// # Outputs
//
//   - uint64: evidence measurements per iteration, >= 1
//   - bool: true when the derived count hit the cap
func (p *Parameters) ResolveEvidenceSamples() (uint64, bool) {
	if p.EvidenceSamples > 0 {
		return p.EvidenceSamples, false
	}

	var derived float64
	if p.Alpha == 1 {
		derived = math.Ceil(4 * math.Log(1/p.Precision))
	} else {
		exponent := -2 * (1 - p.Alpha)
		derived = math.Ceil((2 / (1 - p.Alpha)) * (math.Pow(p.Precision, exponent) - 1))
	}
	if derived < 1 {
		derived = 1
	}
	if derived > float64(MaxEvidenceSamples) && !p.EvidenceSamplesSet {
		return MaxEvidenceSamples, true
	}
	return uint64(derived), false
}

// CircuitDepth returns the number of coherent repetitions the synthetic
// circuit would apply at the precision target, ceil(precision^-alpha).
func (p *Parameters) CircuitDepth() uint64 {
	return uint64(math.Ceil(math.Pow(p.Precision, -p.Alpha)))
}
