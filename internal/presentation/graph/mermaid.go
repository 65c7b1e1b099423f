// Package graph renders the onboarding state machine.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
)

// Overlay marks the path a session took through the machine.
type Overlay struct {
	Visited []domain.Step
	Current domain.Step
}

// OverlayFromHistory collects the steps recorded in a session history.
// Entries after the cursor are not part of the visited path.
func OverlayFromHistory(h *domain.History) *Overlay {
	o := &Overlay{}
	if h == nil {
		return o
	}
	for i, entry := range h.Entries {
		if i > h.Cursor {
			break
		}
		step, _ := entry[domain.SlotStep].(string)
		if step == "" {
			continue
		}
		o.Visited = append(o.Visited, domain.Step(step))
		o.Current = domain.Step(step)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the given transitions.
// It applies semantic styling:
// - Entry steps: ((Circle))
// - Input steps: [/Parallelogram/]
// - Terminal steps: ([Stadium])
// - Backend calls: [Rectangle]
// Every backend call also gets a dotted edge to the failure sinks.
func GenerateMermaid(edges []domain.Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seen := make(map[domain.Step]bool)
	var steps []domain.Step
	for _, e := range edges {
		for _, s := range []domain.Step{e.From, e.To} {
			if !seen[s] {
				seen[s] = true
				steps = append(steps, s)
			}
		}
	}
	for _, s := range []domain.Step{domain.StepError, domain.StepSessionExpired} {
		if !seen[s] {
			seen[s] = true
			steps = append(steps, s)
		}
	}

	for _, s := range steps {
		opener, closer := "[", "]"
		switch {
		case s == domain.StepRetrieve || s == domain.StepCheckManager:
			opener, closer = "((", "))"
		case s.AwaitsInput():
			opener, closer = "[/", "/]"
		case s.Terminal():
			opener, closer = "([", "])"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", s, opener, s, closer))
	}

	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", e.From, strings.ReplaceAll(e.On, "\"", "'"), e.To))
	}
	for _, s := range steps {
		if domain.CanTransition(s, domain.StepError) {
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", s, domain.StepError))
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", s, domain.StepSessionExpired))
		}
	}

	if overlay != nil && len(overlay.Visited) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		styled := make(map[domain.Step]bool)
		for _, s := range overlay.Visited {
			if !styled[s] && seen[s] {
				styled[s] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", s))
			}
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", overlay.Current))
		}
	}

	return sb.String()
}
