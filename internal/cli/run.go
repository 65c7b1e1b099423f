package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/internal/presentation/tui"
	"github.com/aretw0/onboard/pkg/domain"
)

// RunOptions contains the configuration of the run command.
type RunOptions struct {
	SessionID string
	User      domain.User
	// TaxCode is the business to select. Empty stops at the selection step.
	TaxCode string
	// Manual starts from this business instead of the registry lookup.
	Manual *domain.Business
	Email  string
	Fresh  bool
	Quiet  bool
}

// Run drives one session as far as the options allow and prints every view.
// A session that already exists is resumed unless Fresh is set.
func Run(ctx context.Context, engine *onboard.Engine, opts RunOptions, w io.Writer) (*domain.View, error) {
	p := tui.NewPrinter(w)
	show := func(v *domain.View) {
		if !opts.Quiet {
			p.View(v)
		}
	}

	if opts.Fresh {
		if err := engine.Delete(ctx, opts.SessionID); err != nil {
			return nil, fmt.Errorf("reset session: %w", err)
		}
	}

	view, err := engine.Resume(ctx, opts.SessionID)
	switch {
	case err == nil:
		if !opts.Quiet {
			printSystemMessage(w, "Resuming session '%s' at '%s'.", opts.SessionID, view.Step)
		}
		view, err = engine.Advance(ctx, opts.SessionID, opts.User)
	case errors.Is(err, domain.ErrSessionNotFound):
		if !opts.Quiet {
			printSystemMessage(w, "Session '%s' active.", opts.SessionID)
		}
		if opts.Manual != nil {
			view, err = engine.StartManual(ctx, opts.SessionID, opts.User, *opts.Manual)
		} else {
			view, err = engine.Start(ctx, opts.SessionID, opts.User)
		}
	}
	if err != nil {
		return nil, err
	}
	show(view)

	if view.Step != domain.StepSelect || opts.TaxCode == "" {
		return view, nil
	}

	if view, err = engine.DraftContactEmail(ctx, opts.SessionID, opts.Email); err != nil {
		return nil, err
	}
	if view, err = engine.Select(ctx, opts.SessionID, opts.User, opts.TaxCode); err != nil {
		return nil, err
	}
	show(view)

	if !opts.Quiet {
		printSystemMessage(w, "Finished at '%s'.", view.Step)
	}
	return view, nil
}
