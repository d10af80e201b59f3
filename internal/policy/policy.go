// Package policy generates stochastic per-epoch user actions. The
// generator is side-effect free: it inspects the previous epoch's snapshot
// and returns proposed actions; all validation against live balances and
// all state mutation happen downstream in the engine.
package policy

import (
	"fmt"
	"math/rand"

	"github.com/lighthouse-gov/signals-sim/internal/models"
)

// Generate proposes actions for one epoch. Users are visited in shuffled
// order: order decides who reaches a chosen initiative first and how
// probabilistic draws line up, so shuffling keeps the Monte Carlo sampling
// unbiased. A user can propose both a create and a support in the same
// epoch; the draws are independent.
func Generate(state *models.State, rng *rand.Rand) []models.Action {
	params := state.Params
	users := state.UserIDs()
	rng.Shuffle(len(users), func(i, j int) {
		users[i], users[j] = users[j], users[i]
	})

	var actions []models.Action
	for _, userID := range users {
		balance := state.Balances[userID]

		if rng.Float64() < params.ProbCreateInitiative && balance >= params.CreationStake {
			actions = append(actions, models.Action{
				Type:        models.ActionCreate,
				UserID:      userID,
				Title:       fmt.Sprintf("Initiative by %s at epoch %d", userID, state.CurrentEpoch),
				Description: fmt.Sprintf("A new idea proposed by %s.", userID),
			})
		}

		if rng.Float64() < params.ProbSupportInitiative && balance > 0 {
			active := state.ActiveInitiativeIDs()
			if len(active) == 0 {
				continue
			}
			target := active[rng.Intn(len(active))]

			// Uniform in [1, balance*fraction], clamped to [1, balance].
			// The low clamp wins, so a sub-1 balance proposes 1 token and
			// is dropped by the engine's affordability check.
			amount := 1 + rng.Float64()*(balance*params.MaxSupportTokensFraction-1)
			if amount > balance {
				amount = balance
			}
			if amount < 1 {
				amount = 1
			}
			duration := params.MinLockDuration +
				rng.Intn(params.MaxLockDuration-params.MinLockDuration+1)

			actions = append(actions, models.Action{
				Type:         models.ActionSupport,
				UserID:       userID,
				InitiativeID: target,
				Amount:       amount,
				Duration:     duration,
			})
		}
	}
	return actions
}
