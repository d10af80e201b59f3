// Package ledger implements support-weight bookkeeping: per-epoch lock
// decay and aggregation of lock weights into initiative weights. All
// functions are pure over the state's lock and initiative collections;
// lifecycle decisions (acceptance, expiration, settlement) belong to the
// engine.
package ledger

import "github.com/lighthouse-gov/signals-sim/internal/models"

// Decay applies one epoch of exponential decay to a lock. It is a no-op
// outside the open window (start, expiry): a lock created this epoch keeps
// its full initial weight, and a lock at or past expiry is left for
// settlement. Weight never goes below zero.
func Decay(lock *models.Lock, decayMultiplier float64, currentEpoch int) {
	if lock == nil {
		return
	}
	if lock.StartEpoch < currentEpoch && currentEpoch < lock.ExpiryEpoch {
		lock.CurrentWeight *= decayMultiplier
		if lock.CurrentWeight < 0 {
			lock.CurrentWeight = 0
		}
	}
}

// DecayAll applies Decay to every live lock in deterministic key order.
func DecayAll(state *models.State) {
	for _, k := range state.LockKeys() {
		Decay(state.Locks[k], state.Params.DecayMultiplier, state.CurrentEpoch)
	}
}

// InitiativeWeight sums the current weights of all live locks backing the
// initiative. Iteration is in deterministic key order so that floating
// point summation is reproducible across runs with the same seed.
func InitiativeWeight(state *models.State, initiativeID string) float64 {
	var sum float64
	for _, k := range state.LockKeys() {
		if k.InitiativeID == initiativeID {
			sum += state.Locks[k].CurrentWeight
		}
	}
	return sum
}

// UpdateAggregateWeights recomputes every unresolved initiative's weight
// from its locks. Accepted and expired initiatives are frozen and skipped.
func UpdateAggregateWeights(state *models.State) {
	for id, init := range state.Initiatives {
		if state.Resolved(id) {
			continue
		}
		init.Weight = InitiativeWeight(state, id)
	}
}
