package models

import "fmt"

// Params holds the governance parameters of a run. They are constant for
// the lifetime of a run and carried in every State snapshot for
// convenience. Validate is the one place a hard failure is raised; every
// later stage treats bad input as a skipped entry instead.
type Params struct {
	AcceptanceThreshold float64 `json:"acceptance_threshold" yaml:"acceptance_threshold"`
	DecayMultiplier     float64 `json:"decay_multiplier" yaml:"decay_multiplier"`
	InactivityPeriod    int     `json:"inactivity_period" yaml:"inactivity_period"`
	CreationStake       float64 `json:"initiative_creation_stake" yaml:"initiative_creation_stake"`

	ProbCreateInitiative     float64 `json:"prob_create_initiative" yaml:"prob_create_initiative"`
	ProbSupportInitiative    float64 `json:"prob_support_initiative" yaml:"prob_support_initiative"`
	MaxSupportTokensFraction float64 `json:"max_support_tokens_fraction" yaml:"max_support_tokens_fraction"`
	MinLockDuration          int     `json:"min_lock_duration_epochs" yaml:"min_lock_duration_epochs"`
	MaxLockDuration          int     `json:"max_lock_duration_epochs" yaml:"max_lock_duration_epochs"`

	Rewards RewardParams `json:"rewards" yaml:"rewards"`
}

// RewardParams configures the optional logistic support reward.
type RewardParams struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	MinRate   float64 `json:"min_rate" yaml:"min_rate"`
	MaxRate   float64 `json:"max_rate" yaml:"max_rate"`
	Steepness float64 `json:"steepness" yaml:"steepness"`
	Midpoint  float64 `json:"midpoint" yaml:"midpoint"`
}

// DefaultParams mirrors the reference parameter set.
func DefaultParams() Params {
	return Params{
		AcceptanceThreshold:      1000.0,
		DecayMultiplier:          0.95,
		InactivityPeriod:         10,
		CreationStake:            10.0,
		ProbCreateInitiative:     0.08,
		ProbSupportInitiative:    0.2,
		MaxSupportTokensFraction: 0.5,
		MinLockDuration:          5,
		MaxLockDuration:          20,
		Rewards: RewardParams{
			Enabled:   false,
			MinRate:   0.01,
			MaxRate:   0.10,
			Steepness: 10.0,
			Midpoint:  0.5,
		},
	}
}

// Validate rejects parameter sets no run could meaningfully execute under.
func (p Params) Validate() error {
	if p.AcceptanceThreshold <= 0 {
		return fmt.Errorf("acceptance_threshold must be > 0, got %v", p.AcceptanceThreshold)
	}
	if p.DecayMultiplier < 0 || p.DecayMultiplier > 1 {
		return fmt.Errorf("decay_multiplier must be in [0, 1], got %v", p.DecayMultiplier)
	}
	if p.InactivityPeriod <= 0 {
		return fmt.Errorf("inactivity_period must be > 0, got %d", p.InactivityPeriod)
	}
	if p.CreationStake < 0 {
		return fmt.Errorf("initiative_creation_stake must be >= 0, got %v", p.CreationStake)
	}
	if p.ProbCreateInitiative < 0 || p.ProbCreateInitiative > 1 {
		return fmt.Errorf("prob_create_initiative must be in [0, 1], got %v", p.ProbCreateInitiative)
	}
	if p.ProbSupportInitiative < 0 || p.ProbSupportInitiative > 1 {
		return fmt.Errorf("prob_support_initiative must be in [0, 1], got %v", p.ProbSupportInitiative)
	}
	if p.MaxSupportTokensFraction <= 0 || p.MaxSupportTokensFraction > 1 {
		return fmt.Errorf("max_support_tokens_fraction must be in (0, 1], got %v", p.MaxSupportTokensFraction)
	}
	if p.MinLockDuration <= 0 {
		return fmt.Errorf("min_lock_duration_epochs must be > 0, got %d", p.MinLockDuration)
	}
	if p.MaxLockDuration < p.MinLockDuration {
		return fmt.Errorf("max_lock_duration_epochs (%d) must be >= min_lock_duration_epochs (%d)",
			p.MaxLockDuration, p.MinLockDuration)
	}
	if p.Rewards.Enabled {
		if p.Rewards.MinRate < 0 || p.Rewards.MaxRate < p.Rewards.MinRate {
			return fmt.Errorf("reward rates invalid: min=%v max=%v", p.Rewards.MinRate, p.Rewards.MaxRate)
		}
	}
	return nil
}
