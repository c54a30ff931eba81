package app

import (
	"context"
	"fmt"
	"log/slog"
)

// StagedAction pairs an optimistic local mutation with the remote call
// that makes it real and the rollback that undoes it. Run applies the
// local change first so the view updates immediately, then performs the
// call; if the call fails, the local change is reverted and the error
// surfaces to the caller.
type StagedAction struct {
	// Name identifies the action in logs and error messages.
	Name string

	// Apply performs the optimistic local mutation.
	Apply func()

	// Revert undoes Apply. Only invoked after Apply has run.
	Revert func()

	// Call performs the remote operation.
	Call func(context.Context) error
}

// Run executes the staged action.
func (a StagedAction) Run(ctx context.Context, logger *slog.Logger) error {
	if a.Apply != nil {
		a.Apply()
	}

	if err := a.Call(ctx); err != nil {
		if a.Revert != nil {
			a.Revert()
		}

		if logger != nil {
			logger.WarnContext(ctx, "staged action rolled back",
				slog.String("action", a.Name),
				slog.Any("error", err))
		}

		return fmt.Errorf("%s: %w", a.Name, err)
	}

	return nil
}
