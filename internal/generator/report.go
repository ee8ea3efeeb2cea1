package generator

import (
	"fmt"
	"io"
	"time"

	"github.com/plugforge/plugforge/internal/domain"
)

// PrintReport writes the human-readable summary of a run
func PrintReport(w io.Writer, report *domain.RunReport) error {
	p := &printer{w: w}

	if report.Healed != nil {
		for _, healed := range report.Healed.Healed {
			p.printf("healed: %s\n", healed)
		}
		for _, warning := range report.Healed.Warnings {
			p.printf("heal warning: %s\n", warning)
		}
	}

	if p.err != nil {
		return p.err
	}
	if err := PrintValidation(w, report.Validation); err != nil {
		return err
	}

	if len(report.Platforms) > 0 {
		p.printf("\nOutput: %s\n", report.OutputDir)
	}
	for _, name := range report.Platforms {
		result, ok := report.Results[name]
		if !ok {
			continue
		}
		if result.Success {
			p.printf("  ✓ %-12s %d file(s)\n", name, len(result.Files))
			for _, rel := range result.Overridden {
				p.printf("      overridden: %s\n", rel)
			}
			continue
		}
		p.printf("  ✗ %-12s %s\n", name, result.Error)
	}

	if len(report.Platforms) > 0 {
		p.printf("\n%d succeeded, %d failed (run %s, %s)\n",
			report.Succeeded(), report.Failed(), report.RunID, report.Duration.Round(time.Millisecond))
	}
	return p.err
}

// PrintValidation writes a validation report's errors, warnings and summary
func PrintValidation(w io.Writer, report domain.ValidationReport) error {
	p := &printer{w: w}
	for _, msg := range report.Errors {
		p.printf("error: %s\n", msg)
	}
	for _, msg := range report.Warnings {
		p.printf("warning: %s\n", msg)
	}

	status := "valid"
	if !report.Valid {
		status = "invalid"
	}
	s := report.Summary
	p.printf("Specification %s: %d agent(s), %d hook(s), %d skill(s), %d error(s), %d warning(s)\n",
		status, s.Agents, s.Hooks, s.Skills, s.Errors, s.Warnings)
	return p.err
}

// printer keeps the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
