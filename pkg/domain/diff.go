package domain

import (
	"reflect"
	"sort"
)

// SlotsDiff represents the changes between two history entries.
// It is serialized to JSON so clients can render what a step committed.
type SlotsDiff struct {
	// Changed contains added or modified slots with their new value.
	Changed map[string]any `json:"changed,omitempty"`

	// Removed lists slots present in the old entry only.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between two entries.
// If old is nil, every slot of new is reported as changed.
func Diff(old, new Slots) SlotsDiff {
	var d SlotsDiff
	for k, newVal := range new {
		if oldVal, exists := old[k]; exists && reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		if d.Changed == nil {
			d.Changed = make(map[string]any)
		}
		d.Changed[k] = newVal
	}
	for k := range old {
		if _, exists := new[k]; !exists {
			d.Removed = append(d.Removed, k)
		}
	}
	sort.Strings(d.Removed)
	return d
}

// Keys returns the sorted names of every slot touched by the diff.
func (d SlotsDiff) Keys() []string {
	keys := make([]string, 0, len(d.Changed)+len(d.Removed))
	for k := range d.Changed {
		keys = append(keys, k)
	}
	keys = append(keys, d.Removed...)
	sort.Strings(keys)
	return keys
}

// IsEmpty checks if the diff contains any change.
func (d SlotsDiff) IsEmpty() bool {
	return len(d.Changed) == 0 && len(d.Removed) == 0
}
