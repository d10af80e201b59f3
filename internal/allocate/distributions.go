package allocate

import (
	"fmt"
	"math"
	"math/rand"
)

// DistributionKind selects an initial wealth distribution shape.
type DistributionKind string

const (
	DistEqual         DistributionKind = "equal"
	DistRandom        DistributionKind = "random"
	DistConcentration DistributionKind = "concentration"
	DistPareto        DistributionKind = "pareto"
	DistNormal        DistributionKind = "normal"
	DistBimodal       DistributionKind = "bimodal"
)

// DistributionSpec configures Generate. Zero-valued shape parameters fall
// back to the reference defaults.
type DistributionSpec struct {
	Type DistributionKind `json:"type" yaml:"type"`

	// Concentration rule.
	PctUsers  float64 `json:"pct_users" yaml:"pct_users"`
	PctTokens float64 `json:"pct_tokens" yaml:"pct_tokens"`

	// Pareto shape; 1.16 approximates the 80/20 rule.
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// Normal shape.
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`

	// Bimodal shape.
	RichRatio float64 `json:"rich_ratio" yaml:"rich_ratio"`
	RichMean  float64 `json:"rich_mean" yaml:"rich_mean"`
	PoorMean  float64 `json:"poor_mean" yaml:"poor_mean"`
}

// Generate builds balances under the requested distribution. Weighted
// shapes (pareto/normal/bimodal) guarantee every user at least 1 token,
// with the largest holder absorbing rounding error so the sum is exact.
func Generate(userIDs []string, total int64, spec DistributionSpec, rng *rand.Rand) (map[string]int64, error) {
	switch spec.Type {
	case DistEqual, "":
		return Allocate(userIDs, total, nil, false, nil), nil
	case DistRandom:
		return Allocate(userIDs, total, nil, true, rng), nil
	case DistConcentration:
		// An invalid rule falls back to equal, not randomized.
		rule := Concentration{PctUsers: spec.PctUsers, PctTokens: spec.PctTokens}
		return Allocate(userIDs, total, &rule, false, nil), nil
	case DistPareto:
		alpha := spec.Alpha
		if alpha == 0 {
			alpha = 1.16
		}
		return fromWeights(userIDs, total, func() float64 {
			// Lomax draw: (1/U)^(1/alpha) - 1.
			u := 1 - rng.Float64()
			return math.Pow(1/u, 1/alpha) - 1
		}), nil
	case DistNormal:
		mean, std := spec.Mean, spec.Std
		if mean == 0 {
			mean = 0.5
		}
		if std == 0 {
			std = 0.2
		}
		return fromWeights(userIDs, total, func() float64 {
			return math.Abs(rng.NormFloat64()*std + mean)
		}), nil
	case DistBimodal:
		return bimodal(userIDs, total, spec, rng), nil
	default:
		return nil, fmt.Errorf("unknown distribution type: %q", spec.Type)
	}
}

// fromWeights converts positive draws into integer balances summing to
// total. Every user gets at least 1 token; the largest holder absorbs the
// rounding difference.
func fromWeights(userIDs []string, total int64, draw func() float64) map[string]int64 {
	balances := make(map[string]int64, len(userIDs))
	if len(userIDs) == 0 || total <= 0 {
		for _, id := range userIDs {
			balances[id] = 0
		}
		return balances
	}

	weights := make([]float64, len(userIDs))
	var sum float64
	for i := range weights {
		weights[i] = draw()
		sum += weights[i]
	}
	if sum == 0 {
		sum = 1
	}

	var distributed int64
	largest := userIDs[0]
	for i, id := range userIDs {
		b := int64(weights[i] / sum * float64(total))
		if b < 1 {
			b = 1
		}
		balances[id] = b
		distributed += b
		if balances[id] > balances[largest] {
			largest = id
		}
	}
	balances[largest] += total - distributed
	return balances
}

func bimodal(userIDs []string, total int64, spec DistributionSpec, rng *rand.Rand) map[string]int64 {
	richRatio := spec.RichRatio
	if richRatio == 0 {
		richRatio = 0.2
	}
	richMean := spec.RichMean
	if richMean == 0 {
		richMean = 0.8
	}
	poorMean := spec.PoorMean
	if poorMean == 0 {
		poorMean = 0.2
	}
	std := spec.Std
	if std == 0 {
		std = 0.1
	}

	rich := make(map[int]bool)
	numRich := int(float64(len(userIDs)) * richRatio)
	for _, idx := range rng.Perm(len(userIDs))[:numRich] {
		rich[idx] = true
	}

	i := -1
	return fromWeights(userIDs, total, func() float64 {
		i++
		mean := poorMean
		if rich[i] {
			mean = richMean
		}
		return math.Abs(rng.NormFloat64()*std + mean)
	})
}
