package models

import "time"

// RewardEvent records one support reward payout. Events are append-only;
// nothing in the engine mutates an entry after it is recorded.
type RewardEvent struct {
	Epoch            int       `json:"epoch"`
	Timestamp        time.Time `json:"timestamp"`
	UserID           string    `json:"user_id"`
	InitiativeID     string    `json:"initiative_id"`
	RewardAmount     float64   `json:"reward_amount"`
	SupportAmount    float64   `json:"support_amount"`
	LockDuration     int       `json:"lock_duration"`
	InitiativeWeight float64   `json:"initiative_weight"`
	WeightPercentage float64   `json:"weight_percentage"`
	BalanceBefore    float64   `json:"user_balance_before"`
	BalanceAfter     float64   `json:"user_balance_after"`
}
