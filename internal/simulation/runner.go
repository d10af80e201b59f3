package simulation

import (
	"math/rand"
	"testing"

	"github.com/lighthouse-gov/signals-sim/internal/allocate"
	"github.com/lighthouse-gov/signals-sim/internal/engine"
	"github.com/lighthouse-gov/signals-sim/internal/models"
	"github.com/lighthouse-gov/signals-sim/internal/policy"
)

// Runner orchestrates multi-epoch simulation experiments against the
// real governance engine.
type Runner struct {
	t *testing.T
}

// NewRunner creates a simulation runner.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{t: t}
}

// Run executes the scenario and returns the collected state history.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()

	params := models.DefaultParams()
	if scenario.Params != nil {
		params = *scenario.Params
	}

	rng := rand.New(rand.NewSource(scenario.Seed))

	initial := models.NewState(params)
	if scenario.Balances != nil {
		for user, balance := range scenario.Balances {
			initial.Balances[user] = balance
			initial.CirculatingSupply += balance
		}
		initial.TotalSupply = initial.CirculatingSupply
	} else {
		r.allocateBalances(initial, scenario, rng)
	}

	eng, err := engine.New(initial, rng, nil, nil)
	if err != nil {
		r.t.Fatalf("Run: engine.New: %v", err)
	}

	history := make([]*models.State, 0, scenario.NumEpochs+1)
	history = append(history, initial.Clone())

	for epoch := 1; epoch <= scenario.NumEpochs; epoch++ {
		previous := history[len(history)-1]

		var actions []models.Action
		if scenario.Actions != nil {
			actions = scenario.Actions(epoch, previous, rng)
		} else {
			actions = policy.Generate(previous, rng)
		}

		history = append(history, eng.Step(actions))
	}

	return SimulationResult{History: history}
}

// allocateBalances distributes the initial supply across generated users.
func (r *Runner) allocateBalances(initial *models.State, scenario Scenario, rng *rand.Rand) {
	r.t.Helper()

	total := scenario.TotalSupply
	if total == 0 {
		total = 1_000_000
	}
	spec := allocate.DistributionSpec{Type: allocate.DistEqual}
	if scenario.Distribution != nil {
		spec = *scenario.Distribution
	}

	users := UserIDs(scenario.NumUsers)
	balances, err := allocate.Generate(users, total, spec, rng)
	if err != nil {
		r.t.Fatalf("Run: allocate.Generate: %v", err)
	}

	for _, user := range users {
		amount := float64(balances[user])
		initial.Balances[user] = amount
		initial.CirculatingSupply += amount
	}
	initial.TotalSupply = initial.CirculatingSupply
}
