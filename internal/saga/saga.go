package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Step is one forward action with its compensating action. Compensate may be
// nil when there is nothing to undo.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Run executes steps in order. On failure it runs the compensations of every
// completed step in reverse order. Compensation failures are logged, never
// swallowed silently, and the original step error is returned wrapped.
func Run(ctx context.Context, logger *zap.SugaredLogger, steps []Step) error {
	var done []Step
	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].Compensate == nil {
					continue
				}
				if cerr := done[i].Compensate(ctx); cerr != nil && logger != nil {
					logger.Errorw("compensation failed", "step", done[i].Name, "error", cerr)
				}
			}
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		done = append(done, step)
	}
	return nil
}
