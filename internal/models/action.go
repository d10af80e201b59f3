package models

// ActionType discriminates user actions proposed by the policy.
type ActionType string

const (
	ActionCreate  ActionType = "create_initiative"
	ActionSupport ActionType = "support_initiative"
)

// Action is a proposed user action for one epoch. The policy only proposes;
// the engine validates affordability again before applying.
type Action struct {
	Type   ActionType
	UserID string

	// Create fields.
	Title       string
	Description string

	// Support fields.
	InitiativeID string
	Amount       float64
	Duration     int
}
