package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		old         Slots
		new         Slots
		wantChanged map[string]any
		wantRemoved []string
	}{
		{
			name:        "Initial Entry (Old is Nil)",
			old:         nil,
			new:         Slots{SlotStep: "retrieve"},
			wantChanged: map[string]any{SlotStep: "retrieve"},
		},
		{
			name: "No Changes",
			old:  Slots{SlotStep: "select", SlotLegalEntity: map[string]any{"legalTaxId": "1"}},
			new:  Slots{SlotStep: "select", SlotLegalEntity: map[string]any{"legalTaxId": "1"}},
		},
		{
			name:        "Step Advanced",
			old:         Slots{SlotStep: "select", SlotContactEmail: "a@b.it"},
			new:         Slots{SlotStep: "submit", SlotContactEmail: "a@b.it"},
			wantChanged: map[string]any{SlotStep: "submit"},
		},
		{
			name:        "Slot Cleared",
			old:         Slots{SlotStep: "submit", SlotContactEmail: "a@b.it", SlotLastError: "x"},
			new:         Slots{SlotStep: "done"},
			wantChanged: map[string]any{SlotStep: "done"},
			wantRemoved: []string{SlotLastError, SlotContactEmail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.old, tt.new)
			assert.Equal(t, tt.wantChanged, d.Changed)
			assert.ElementsMatch(t, tt.wantRemoved, d.Removed)
			assert.Equal(t, len(tt.wantChanged) == 0 && len(tt.wantRemoved) == 0, d.IsEmpty())
		})
	}
}

func TestDiff_Keys(t *testing.T) {
	d := Diff(Slots{"b": 1, "c": 1}, Slots{"a": 1, "b": 2})
	assert.Equal(t, []string{"a", "b", "c"}, d.Keys())
}
