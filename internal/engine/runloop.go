package engine

import (
	"context"
	"fmt"

	"github.com/lighthouse-gov/signals-sim/internal/models"
	"github.com/lighthouse-gov/signals-sim/internal/policy"
)

// Result is the outcome of a run: the per-epoch history (the initial
// snapshot included) and, if the run stopped early, the epoch it failed at
// and why. Callers must not assume len(History) == numEpochs+1.
type Result struct {
	History     []*models.State
	FailedEpoch int // -1 when the run completed
	Err         error
}

// Failed reports whether the run stopped before completing all epochs.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Run drives the engine for numEpochs epochs, generating actions from the
// previous snapshot before each step. It never panics out: an epoch that
// cannot complete stops the run and returns the history accumulated so
// far. ctx is checked between epochs; cancellation also yields a partial
// history.
func (e *Engine) Run(ctx context.Context, numEpochs int) Result {
	result := Result{FailedEpoch: -1}
	result.History = append(result.History, e.state.Clone())

	for i := 0; i < numEpochs; i++ {
		if err := ctx.Err(); err != nil {
			result.FailedEpoch = e.state.CurrentEpoch + 1
			result.Err = fmt.Errorf("run canceled before epoch %d: %w", result.FailedEpoch, err)
			return result
		}

		epoch := e.state.CurrentEpoch + 1
		snapshot, err := e.step(result.History[len(result.History)-1])
		if err != nil {
			result.FailedEpoch = epoch
			result.Err = err
			e.log.Error("run stopped early", "epoch", epoch, "err", err)
			return result
		}
		result.History = append(result.History, snapshot)
	}
	return result
}

// step generates actions from the previous snapshot and advances one
// epoch, converting any panic inside the stage pipeline into an error so
// one broken epoch cannot take down a caller aggregating many runs.
func (e *Engine) step(previous *models.State) (snapshot *models.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("epoch %d: %v", e.state.CurrentEpoch, r)
		}
	}()

	actions := policy.Generate(previous, e.rng)
	return e.Step(actions), nil
}
