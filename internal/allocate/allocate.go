// Package allocate builds initial per-user token balances. All policies
// guarantee the output sums to exactly the requested total; rounding error
// is always absorbed by a designated user rather than dropped.
package allocate

import "math/rand"

// Concentration describes a "X% of users control Y% of tokens" rule.
// PctUsers must be in (0, 100) and PctTokens in [0, 100]; anything else is
// treated as invalid and allocation falls back to equal distribution.
type Concentration struct {
	PctUsers  float64
	PctTokens float64
}

func (c Concentration) valid() bool {
	return c.PctUsers > 0 && c.PctUsers < 100 && c.PctTokens >= 0 && c.PctTokens <= 100
}

// Allocate distributes total tokens over userIDs. With a valid
// concentration rule the rule wins; otherwise randomize selects between
// proportional-random and equal distribution. rng may be nil when
// randomize is false and rule is nil.
func Allocate(userIDs []string, total int64, rule *Concentration, randomize bool, rng *rand.Rand) map[string]int64 {
	balances := make(map[string]int64, len(userIDs))
	for _, id := range userIDs {
		balances[id] = 0
	}
	if len(userIDs) == 0 || total <= 0 {
		return balances
	}

	switch {
	case rule != nil && rule.valid():
		concentrated(userIDs, total, *rule, balances)
	case randomize:
		randomized(userIDs, total, rng, balances)
	default:
		spreadEvenly(userIDs, total, balances)
	}
	return balances
}

// spreadEvenly gives every user total/n tokens and the first total%n users
// one extra each.
func spreadEvenly(userIDs []string, total int64, balances map[string]int64) {
	n := int64(len(userIDs))
	base := total / n
	remainder := total % n
	for i, id := range userIDs {
		balances[id] += base
		if int64(i) < remainder {
			balances[id]++
		}
	}
}

// randomized draws i.i.d. uniform weights, assigns proportional shares, and
// lets the last user absorb all rounding error so the sum stays exact.
func randomized(userIDs []string, total int64, rng *rand.Rand, balances map[string]int64) {
	weights := make([]float64, len(userIDs))
	var sum float64
	for i := range weights {
		weights[i] = rng.Float64()
		sum += weights[i]
	}
	if sum == 0 {
		sum = 1
	}

	var distributed int64
	for i, id := range userIDs[:len(userIDs)-1] {
		share := int64(weights[i] / sum * float64(total))
		balances[id] = share
		distributed += share
	}
	balances[userIDs[len(userIDs)-1]] = total - distributed
}

// concentrated splits users into a control group of round(n*pctUsers/100)
// (at least 1) and the rest, gives the control group round(total*pctTokens
// /100) tokens, and the exact remainder to the others. With no other users
// the remainder lands on the last control user.
func concentrated(userIDs []string, total int64, rule Concentration, balances map[string]int64) {
	n := len(userIDs)
	controlCount := int(float64(n)*rule.PctUsers/100.0 + 0.5)
	if controlCount < 1 {
		controlCount = 1
	}
	if controlCount > n {
		controlCount = n
	}
	control := userIDs[:controlCount]
	others := userIDs[controlCount:]

	controlTokens := int64(float64(total)*rule.PctTokens/100.0 + 0.5)
	if controlTokens > total {
		controlTokens = total
	}
	spreadEvenly(control, controlTokens, balances)

	var actual int64
	for _, id := range control {
		actual += balances[id]
	}
	rest := total - actual

	if len(others) > 0 {
		spreadEvenly(others, rest, balances)
	} else if rest > 0 {
		balances[control[len(control)-1]] += rest
	}
}
