// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AleutianAI/aqpe/cmd/aqpe/config"
	"github.com/AleutianAI/aqpe/cmd/aqpe/internal/estimation"
)

func TestNewReporter_BufferIsUnstyled(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)
	if r.styled {
		t.Error("non-terminal writer should disable styling")
	}
}

func TestReporter_Banner(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	p := config.DefaultParameters()
	r.Banner(p, 19, false, 42)

	output := buf.String()
	for _, want := range []string{
		"target phi", "precision", "alpha", "circuit depth",
		"evidence samples:   19", "prior samples:      1000", "seed:               42",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("banner missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "capped") {
		t.Error("banner should not mark an uncapped evidence count")
	}
}

func TestReporter_Banner_Capped(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.Banner(config.DefaultParameters(), config.MaxEvidenceSamples, true, 1)

	if !strings.Contains(buf.String(), "(capped)") {
		t.Errorf("capped banner missing marker:\n%s", buf.String())
	}
}

func TestReporter_Warnings(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.Warnings([]string{"alpha 2 is outside [0, 1]; using default 1"})

	output := buf.String()
	if !strings.Contains(output, "WARN:") || !strings.Contains(output, "alpha 2") {
		t.Errorf("warning output wrong:\n%s", output)
	}
}

func TestReporter_Iteration_VerboseOnly(t *testing.T) {
	rec := estimation.IterationRecord{Iteration: 3, Mean: 0.5, Std: 0.1}

	var quiet bytes.Buffer
	NewReporter(&quiet, false).Iteration(1, rec)
	if quiet.Len() != 0 {
		t.Errorf("non-verbose reporter printed an iteration: %q", quiet.String())
	}

	var verbose bytes.Buffer
	NewReporter(&verbose, true).Iteration(1, rec)
	output := verbose.String()
	if !strings.Contains(output, "iteration   3") {
		t.Errorf("verbose iteration output wrong:\n%s", output)
	}
}

func TestReporter_ExperimentFinished(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.ExperimentFinished(2, estimation.Outcome{
		Converged: true, Iterations: 12, EstimatedPhi: 1.57, FinalStd: 0.009,
	})
	r.ExperimentFinished(3, estimation.Outcome{
		Converged: false, Iterations: 100, EstimatedPhi: 0.4, FinalStd: 0.3,
	})

	output := buf.String()
	if !strings.Contains(output, "experiment 2: converged after 12 iterations") {
		t.Errorf("converged line missing:\n%s", output)
	}
	if !strings.Contains(output, "experiment 3: did not converge") {
		t.Errorf("non-converged line missing:\n%s", output)
	}
}

func TestReporter_Summary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.Summary(estimation.Report{
		Repetitions:           10,
		ConvergenceCount:      9,
		WrongConvergenceCount: 1,
		AverageIterations:     15.5,
		AverageAbsError:       0.004,
		Tolerance:             0.04,
	}, 1.0)

	output := buf.String()
	for _, want := range []string{
		"experiments:        10",
		"converged:          9",
		"wrong convergence:",
		"avg iterations:     15.50",
		"run with --verbose",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("summary missing %q:\n%s", want, output)
		}
	}
}

func TestReporter_Summary_VerboseOmitsReminder(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, true)

	r.Summary(estimation.Report{Repetitions: 1, ConvergenceCount: 1}, 1.0)

	if strings.Contains(buf.String(), "run with --verbose") {
		t.Error("verbose summary should not print the verbose reminder")
	}
}

func TestReporter_Summary_NoConvergence(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.Summary(estimation.Report{Repetitions: 5}, 1.0)

	output := buf.String()
	if !strings.Contains(output, "no experiment converged") {
		t.Errorf("all-failed message missing:\n%s", output)
	}
	if strings.Contains(output, "avg iterations") {
		t.Error("averages should not print when nothing converged")
	}
	if !strings.Contains(output, "run with --verbose") {
		t.Error("verbose reminder should print even when nothing converged")
	}
}

func TestReporter_Defaults(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.Defaults(config.DefaultParameters())

	output := buf.String()
	if !strings.Contains(output, "Default parameters") {
		t.Errorf("defaults header missing:\n%s", output)
	}
	if !strings.Contains(output, "evidence samples:   19 (derived)") {
		t.Errorf("derived evidence line missing:\n%s", output)
	}
}
