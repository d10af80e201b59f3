// Package models defines the typed simulation state: initiatives, token
// locks, governance parameters, user actions, and the per-epoch State
// snapshot the engine owns. Conversion to a JSON-encodable record lives
// here too (record.go); everything else in the repo works on these types
// directly.
package models

import "time"

// Initiative is a governance proposal users lock tokens behind.
// Weight is derived: it is recomputed from live locks by the aggregation
// stage each epoch and frozen once the initiative is accepted or expired.
type Initiative struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
	CreatedEpoch     int       `json:"created_epoch"`
	Weight           float64   `json:"weight"`
	LastSupportEpoch int       `json:"last_support_epoch"`
}
