// Package rewards computes the optional support reward: a logistic rate
// over how close an initiative already is to acceptance, so early backers
// of far-from-threshold initiatives earn the most. Rewards are minted at
// the moment a support is applied; the engine credits them to the
// supporter's balance, circulating supply, and total supply, and records
// every payout in the state's append-only reward history.
package rewards

import (
	"math"

	"github.com/lighthouse-gov/signals-sim/internal/models"
)

// Rate returns the reward rate for a support landing on an initiative
// whose pre-support weight gives weightPercentage = weight / threshold:
//
//	rate = min + (max - min) / (1 + exp(k * (wp - midpoint)))
//
// The curve starts near max for wp << midpoint and falls toward min as the
// initiative approaches its threshold.
func Rate(p models.RewardParams, weightPercentage float64) float64 {
	return p.MinRate + (p.MaxRate-p.MinRate)/(1+math.Exp(p.Steepness*(weightPercentage-p.Midpoint)))
}

// ForSupport computes the reward for a lock given the initiative's weight
// before this lock was counted. Returns 0 when rewards are disabled.
func ForSupport(params models.Params, lock models.Lock, weightBefore float64) float64 {
	if !params.Rewards.Enabled {
		return 0
	}
	wp := weightBefore / params.AcceptanceThreshold
	return lock.Amount * Rate(params.Rewards, wp)
}

// Record appends a payout to the state's reward history and updates the
// per-user earnings total. BalanceAfter is read from the state, so callers
// must credit the balance before recording.
func Record(state *models.State, lock models.Lock, amount, weightBefore float64) {
	state.RewardEarnings[lock.UserID] += amount
	state.RewardEvents = append(state.RewardEvents, models.RewardEvent{
		Epoch:            state.CurrentEpoch,
		Timestamp:        state.CurrentTime,
		UserID:           lock.UserID,
		InitiativeID:     lock.InitiativeID,
		RewardAmount:     amount,
		SupportAmount:    lock.Amount,
		LockDuration:     lock.Duration,
		InitiativeWeight: weightBefore,
		WeightPercentage: weightBefore / state.Params.AcceptanceThreshold,
		BalanceBefore:    state.Balances[lock.UserID] - amount,
		BalanceAfter:     state.Balances[lock.UserID],
	})
}
