package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/muesli/termenv"
)

// Printer renders session views as short styled lines.
type Printer struct {
	w   io.Writer
	out *termenv.Output
}

// NewPrinter creates a Printer. Styling degrades to plain text when w is not a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, out: termenv.NewOutput(w)}
}

// View prints the step of a view and what it carries.
func (p *Printer) View(v *domain.View) {
	step := p.out.String(fmt.Sprintf("%-18s", v.Step)).Bold()
	switch {
	case v.Step == domain.StepDone:
		step = step.Foreground(p.out.Color("#22c55e"))
	case v.Terminal:
		step = step.Foreground(p.out.Color("#ef4444"))
	default:
		step = step.Foreground(p.out.Color("#818cf8"))
	}

	var details []string
	if len(v.Candidates) > 0 && v.Step == domain.StepSelect {
		names := make([]string, 0, len(v.Candidates))
		for _, b := range v.Candidates {
			names = append(names, b.BusinessTaxID+" "+b.BusinessName)
		}
		details = append(details, "candidates: "+strings.Join(names, ", "))
	}
	if v.Selected != nil {
		details = append(details, "selected: "+v.Selected.BusinessTaxID)
	}
	if v.LastError != "" {
		details = append(details, "error: "+string(v.LastError))
	}
	if v.Onboarding != nil {
		for _, rec := range v.Onboarding.Onboardings {
			details = append(details, fmt.Sprintf("%s: %s", rec.ProductID, rec.Status))
		}
	}

	fmt.Fprintf(p.w, "%s %s\n", step, p.out.String(strings.Join(details, " | ")).Faint())
}
