/*
Package onboard is a resumable, step-driven workflow engine that onboards a
business onto a product on behalf of an authenticated representative.

The workflow retrieves the businesses eligible under the user's tax code, lets
the user pick one and enter a contact email, verifies the legal address,
submits the registration and, when enabled, confirms the result by querying
the onboarding status. A manual entry variant checks the user is a manager of
a typed-in business, falling back to a registry match.

# Concept

All workflow state lives in a versioned history per session. Every step
commits a new entry, so Back and Forward behave like browser navigation and a
reload resumes exactly where the user left off without repeating backend
calls. Submissions are idempotent per (taxCode, productId).

The host supplies the backend (the live gateway or the deterministic mock),
the session store, and optional collaborators for analytics, diagnostics and
session expiry notices. Every backend failure is normalized into a small
taxonomy (Unauthorized, InvalidInput, AlreadyOnboarded, GenericFailure,
NotYetAvailable) before it drives a transition.

# Usage

	backend := mockbackend.New()
	eng, err := onboard.New(backend, onboard.WithStore(file.New(".onboard/sessions")))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	view, err := eng.Start(ctx, "session-123", user)
	if err != nil {
		log.Fatal(err)
	}

	// view.Step is "select": render view.Candidates, collect the email.
	if _, err := eng.DraftContactEmail(ctx, "session-123", "pec@acme.it"); err != nil {
		log.Fatal(err)
	}
	view, err = eng.Select(ctx, "session-123", user, view.Candidates[0].BusinessTaxID)
	if err != nil {
		log.Fatal(err)
	}

	// view.Terminal is true: render the outcome.
*/
package onboard
