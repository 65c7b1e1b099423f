package domain

import "time"

// Slots is one committed snapshot of the named workflow values.
// Values are JSON-shaped (maps, slices, strings, float64, bool, nil).
type Slots map[string]any

// Clone returns a shallow copy of the snapshot.
func (s Slots) Clone() Slots {
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// History is the durable form of a session's Session State Store.
// Entries is an index-addressable buffer of committed snapshots and Cursor
// points at the entry the user currently occupies.
type History struct {
	SessionID string  `json:"session_id"`
	Entries   []Slots `json:"entries"`
	Cursor    int     `json:"cursor"`
	// Epoch counts navigations and cancellations. A backend response is only
	// applied if the epoch did not move while the call was in flight.
	Epoch uint64 `json:"epoch"`
	// Revision counts every durable change.
	Revision  uint64    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewHistory creates an empty history whose first entry starts at the given step.
func NewHistory(sessionID string, start Step) *History {
	return &History{
		SessionID: sessionID,
		Entries:   []Slots{{SlotStep: string(start)}},
		Cursor:    0,
		UpdatedAt: time.Now().UTC(),
	}
}

// Current returns the entry at the cursor.
func (h *History) Current() Slots {
	if h == nil || len(h.Entries) == 0 {
		return Slots{}
	}
	return h.Entries[h.Cursor]
}

// Clone deep-copies the entry list so the copy can be mutated independently.
func (h *History) Clone() *History {
	if h == nil {
		return nil
	}
	out := *h
	out.Entries = make([]Slots, len(h.Entries))
	for i, e := range h.Entries {
		out.Entries[i] = e.Clone()
	}
	return &out
}
