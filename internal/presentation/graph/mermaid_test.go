package graph_test

import (
	"testing"

	"github.com/aretw0/onboard/internal/presentation/graph"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid_Shapes(t *testing.T) {
	out := graph.GenerateMermaid(domain.Edges, nil)

	for _, want := range []string{
		"graph TD\n",
		`retrieve(("retrieve"))`,
		`check_manager(("check_manager"))`,
		`select[/"select"/]`,
		`submit["submit"]`,
		`done(["done"])`,
		`session_expired(["session_expired"])`,
		`submit -- "already onboarded" --> already_onboarded`,
		"verify_address -.-> error",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "select -.-> error", "selection makes no backend call")
	assert.NotContains(t, out, "Overlay Styles")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	h := &domain.History{
		Entries: []domain.Slots{
			{domain.SlotStep: "retrieve"},
			{domain.SlotStep: "select"},
			{domain.SlotStep: "verify_address"},
		},
		Cursor: 1,
	}
	overlay := graph.OverlayFromHistory(h)
	assert.Equal(t, []domain.Step{domain.StepRetrieve, domain.StepSelect}, overlay.Visited)
	assert.Equal(t, domain.StepSelect, overlay.Current)

	out := graph.GenerateMermaid(domain.Edges, overlay)
	assert.Contains(t, out, "class retrieve visited;")
	assert.Contains(t, out, "class select current;")
	assert.NotContains(t, out, "class verify_address")
}
