package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/onboard/pkg/persistence/middleware"
	"github.com/aretw0/onboard/pkg/ports"
)

// ListSessions prints the stored session ids, one per line.
func ListSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		printSystemMessage(w, "No active sessions.")
		return nil
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// InspectSession prints the session history as JSON. Personal data is
// masked unless raw is set.
func InspectSession(ctx context.Context, store ports.SessionStore, sessionID string, raw bool, w io.Writer) error {
	h, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", sessionID, err)
	}
	if !raw {
		redactor, err := middleware.NewRedactor(middleware.DefaultPIIPatterns)
		if err != nil {
			return err
		}
		h = redactor.Redact(h)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(h)
}

// RemoveSession deletes a session.
func RemoveSession(ctx context.Context, store ports.SessionStore, sessionID string, w io.Writer) error {
	if err := store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %q: %w", sessionID, err)
	}
	printSystemMessage(w, "Session '%s' removed.", sessionID)
	return nil
}
