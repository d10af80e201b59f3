package simulation

import (
	"math"
	"testing"
)

// conservationTolerance absorbs float accumulation error across epochs.
const conservationTolerance = 1e-6

// AssertConservation asserts that circulating supply plus locked supply
// equals total supply in every epoch.
func AssertConservation(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, state := range result.History {
		sum := state.CirculatingSupply + state.LockedSupply()
		if math.Abs(sum-state.TotalSupply) > conservationTolerance {
			t.Errorf("AssertConservation: epoch %d: circulating %.6f + locked %.6f = %.6f, total %.6f",
				state.CurrentEpoch, state.CirculatingSupply, state.LockedSupply(), sum, state.TotalSupply)
		}
	}
}

// AssertBalancesNonNegative asserts that no user balance goes negative in
// any epoch.
func AssertBalancesNonNegative(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, state := range result.History {
		for _, user := range state.UserIDs() {
			if state.Balances[user] < 0 {
				t.Errorf("AssertBalancesNonNegative: epoch %d: user %s balance %.6f",
					state.CurrentEpoch, user, state.Balances[user])
			}
		}
	}
}

// AssertAcceptedTerminal asserts that once an initiative is accepted it
// stays accepted, is never also expired, and its weight never changes.
func AssertAcceptedTerminal(t *testing.T, result SimulationResult) {
	t.Helper()
	frozen := make(map[string]float64)
	for _, state := range result.History {
		for id := range frozen {
			if !state.Accepted[id] {
				t.Errorf("AssertAcceptedTerminal: epoch %d: initiative %s left the accepted set", state.CurrentEpoch, id)
			}
		}
		for id := range state.Accepted {
			if state.Expired[id] {
				t.Errorf("AssertAcceptedTerminal: epoch %d: initiative %s both accepted and expired", state.CurrentEpoch, id)
			}
			weight := state.Initiatives[id].Weight
			if prev, ok := frozen[id]; ok {
				if weight != prev {
					t.Errorf("AssertAcceptedTerminal: epoch %d: initiative %s weight changed after acceptance: %.6f -> %.6f",
						state.CurrentEpoch, id, prev, weight)
				}
			} else {
				frozen[id] = weight
			}
		}
	}
}

// AssertExpiredTerminal asserts that once an initiative is expired it
// stays expired.
func AssertExpiredTerminal(t *testing.T, result SimulationResult) {
	t.Helper()
	seen := make(map[string]bool)
	for _, state := range result.History {
		for id := range seen {
			if !state.Expired[id] {
				t.Errorf("AssertExpiredTerminal: epoch %d: initiative %s left the expired set", state.CurrentEpoch, id)
			}
		}
		for id := range state.Expired {
			seen[id] = true
		}
	}
}

// AssertResolvedHaveNoLocks asserts that no emitted state carries a lock
// against an accepted or expired initiative. Settlement runs in the same
// epoch an initiative resolves.
func AssertResolvedHaveNoLocks(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, state := range result.History {
		for _, key := range state.LockKeys() {
			if state.Resolved(key.InitiativeID) {
				t.Errorf("AssertResolvedHaveNoLocks: epoch %d: lock %s held against resolved initiative",
					state.CurrentEpoch, key)
			}
		}
	}
}

// AssertNoExpiredLocks asserts that no emitted state carries a lock past
// its expiry epoch.
func AssertNoExpiredLocks(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, state := range result.History {
		for _, key := range state.LockKeys() {
			if state.Locks[key].Expired(state.CurrentEpoch) {
				t.Errorf("AssertNoExpiredLocks: epoch %d: lock %s past expiry epoch %d",
					state.CurrentEpoch, key, state.Locks[key].ExpiryEpoch)
			}
		}
	}
}

// AssertWeightsNonNegative asserts that no lock or initiative weight goes
// negative in any epoch.
func AssertWeightsNonNegative(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, state := range result.History {
		for _, key := range state.LockKeys() {
			if state.Locks[key].CurrentWeight < 0 {
				t.Errorf("AssertWeightsNonNegative: epoch %d: lock %s weight %.6f",
					state.CurrentEpoch, key, state.Locks[key].CurrentWeight)
			}
		}
		for id, initiative := range state.Initiatives {
			if initiative.Weight < 0 {
				t.Errorf("AssertWeightsNonNegative: epoch %d: initiative %s weight %.6f",
					state.CurrentEpoch, id, initiative.Weight)
			}
		}
	}
}

// CountAccepted returns how many initiatives are accepted in the final state.
func CountAccepted(result SimulationResult) int {
	return len(result.Final().Accepted)
}

// CountExpired returns how many initiatives are expired in the final state.
func CountExpired(result SimulationResult) int {
	return len(result.Final().Expired)
}

// AcceptanceRate returns accepted / created over the whole run, or 0 when
// nothing was created.
func AcceptanceRate(result SimulationResult) float64 {
	final := result.Final()
	if len(final.Initiatives) == 0 {
		return 0
	}
	return float64(len(final.Accepted)) / float64(len(final.Initiatives))
}
