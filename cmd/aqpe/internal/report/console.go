// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders run parameters, per-iteration belief updates, and
// aggregate convergence statistics to a terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/aqpe/cmd/aqpe/config"
	"github.com/AleutianAI/aqpe/cmd/aqpe/internal/estimation"
)

// =============================================================================
// Styles
// =============================================================================

// Aleutian color palette - deep ocean teals and arctic waters
var (
	colorTealBright = lipgloss.Color("#2CD7C7")
	colorWarning    = lipgloss.Color("#F4D03F")
	colorError      = lipgloss.Color("#E74C3C")
	colorSlate      = lipgloss.Color("#2C4A54")
)

var styles = struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorTealBright),
	Success: lipgloss.NewStyle().Foreground(colorTealBright),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Muted:   lipgloss.NewStyle().Foreground(colorSlate),
}

// =============================================================================
// Reporter
// =============================================================================

// Reporter writes human-readable run output. It implements
// estimation.Observer; all methods are safe for concurrent use so the
// parallel aggregation path can share one instance.
//
// Styling is applied only when the destination is a terminal; piped output
// stays plain.
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	styled  bool
}

// Compile-time interface check
var _ estimation.Observer = (*Reporter)(nil)

// NewReporter creates a Reporter on w. Styling is enabled only when w is a
// terminal file descriptor.
func NewReporter(w io.Writer, verbose bool) *Reporter {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{w: w, verbose: verbose, styled: styled}
}

func (r *Reporter) render(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// =============================================================================
// Pre-Run Output
// =============================================================================

// Banner prints the effective run parameters before any experiment starts.
func (r *Reporter) Banner(p config.Parameters, evidence uint64, capped bool, seed uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("%s\n", r.render(styles.Title, "Accelerated quantum phase estimation"))
	r.printf("  target phi:         %g\n", p.TargetPhi)
	r.printf("  precision:          %g\n", p.Precision)
	r.printf("  alpha:              %g\n", p.Alpha)
	r.printf("  circuit depth:      %d\n", p.CircuitDepth())
	if capped {
		r.printf("  evidence samples:   %d %s\n", evidence,
			r.render(styles.Warning, "(capped)"))
	} else {
		r.printf("  evidence samples:   %d\n", evidence)
	}
	r.printf("  prior samples:      %d\n", p.PriorSamples)
	r.printf("  repetitions:        %d\n", p.Repetitions)
	r.printf("  seed:               %d\n", seed)
}

// Warnings prints parameter-sanitization warnings, one line each.
func (r *Reporter) Warnings(warnings []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range warnings {
		r.printf("%s %s\n", r.render(styles.Warning, "WARN:"), w)
	}
}

// =============================================================================
// Observer Callbacks
// =============================================================================

// ExperimentStarted announces a repetition in verbose mode.
func (r *Reporter) ExperimentStarted(index int) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("%s\n", r.render(styles.Muted, fmt.Sprintf("-- experiment %d --", index)))
}

// Iteration prints one belief update in verbose mode.
func (r *Reporter) Iteration(index int, rec estimation.IterationRecord) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("experiment %d iteration %3d  mean % .10f  std %.10f\n",
		index, rec.Iteration, rec.Mean, rec.Std)
}

// ExperimentFinished prints the repetition's terminal outcome.
func (r *Reporter) ExperimentFinished(index int, out estimation.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if out.Converged {
		r.printf("experiment %d: %s after %d iterations, phi estimate % .10f (std %.3e)\n",
			index, r.render(styles.Success, "converged"), out.Iterations,
			out.EstimatedPhi, out.FinalStd)
		return
	}
	r.printf("experiment %d: %s after %d iterations, final std %.3e\n",
		index, r.render(styles.Error, "did not converge"), out.Iterations, out.FinalStd)
}

// =============================================================================
// Aggregate Output
// =============================================================================

// Summary prints the aggregate report once every repetition has finished.
func (r *Reporter) Summary(rep estimation.Report, targetPhi float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("\n%s\n", r.render(styles.Title, "Results"))
	r.printf("  experiments:        %d\n", rep.Repetitions)

	if rep.ConvergenceCount == 0 {
		r.printf("%s\n", r.render(styles.Error,
			"  no experiment converged; consider loosening the precision target"))
	} else {
		r.printf("  converged:          %d\n", rep.ConvergenceCount)
		if rep.WrongConvergenceCount > 0 {
			r.printf("  wrong convergence:  %s\n", r.render(styles.Warning,
				fmt.Sprintf("%d (off target by more than %.3e)",
					rep.WrongConvergenceCount, rep.Tolerance)))
		} else {
			r.printf("  wrong convergence:  0\n")
		}
		r.printf("  avg iterations:     %.2f\n", rep.AverageIterations)
		r.printf("  avg |error|:        %.3e  (target phi %g)\n", rep.AverageAbsError, targetPhi)
	}

	if !r.verbose {
		r.printf("%s\n", r.render(styles.Muted,
			"  run with --verbose to see per-iteration belief updates"))
	}
}

// Defaults prints the baseline parameter set for the defaults subcommand.
func (r *Reporter) Defaults(p config.Parameters) {
	r.mu.Lock()
	defer r.mu.Unlock()

	evidence, _ := p.ResolveEvidenceSamples()
	r.printf("%s\n", r.render(styles.Title, "Default parameters"))
	r.printf("  target phi:         %g\n", p.TargetPhi)
	r.printf("  precision:          %g\n", p.Precision)
	r.printf("  alpha:              %g\n", p.Alpha)
	r.printf("  evidence samples:   %d (derived)\n", evidence)
	r.printf("  prior samples:      %d\n", p.PriorSamples)
	r.printf("  repetitions:        %d\n", p.Repetitions)
}
