package simulation

import (
	"math/rand"

	"github.com/lighthouse-gov/signals-sim/internal/allocate"
	"github.com/lighthouse-gov/signals-sim/internal/models"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name      string
	NumUsers  int
	NumEpochs int
	Seed      int64

	// TotalSupply defaults to 1,000,000 tokens when zero.
	TotalSupply int64

	// Params overrides the default governance parameters.
	Params *models.Params

	// Distribution selects the initial wealth distribution. Defaults to
	// an equal split.
	Distribution *allocate.DistributionSpec

	// Balances, when non-nil, sets initial balances directly and bypasses
	// the distribution. Total supply is derived from the sum.
	Balances map[string]float64

	// Actions, when non-nil, is called with the epoch about to execute and
	// the previous state to produce that epoch's actions directly,
	// bypassing the stochastic policy. Use this for scenarios that need
	// deterministic action control.
	Actions func(epoch int, previous *models.State, rng *rand.Rand) []models.Action
}

// SimulationResult captures the full state history of a run. History[0]
// is the initial state, History[i] is the state after epoch i.
type SimulationResult struct {
	History []*models.State
}

// Final returns the last state in the history.
func (r SimulationResult) Final() *models.State {
	return r.History[len(r.History)-1]
}
