package simulation

import (
	"fmt"

	"github.com/lighthouse-gov/signals-sim/internal/models"
)

// UserIDs generates n hex-style user identifiers: 0x00, 0x01, ...
func UserIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("0x%02x", i)
	}
	return ids
}

// CreateAction builds a create-initiative action.
func CreateAction(userID, title string) models.Action {
	return models.Action{
		Type:   models.ActionCreate,
		UserID: userID,
		Title:  title,
	}
}

// SupportAction builds a support-initiative action.
func SupportAction(userID, initiativeID string, amount float64, duration int) models.Action {
	return models.Action{
		Type:         models.ActionSupport,
		UserID:       userID,
		InitiativeID: initiativeID,
		Amount:       amount,
		Duration:     duration,
	}
}

// SoleInitiativeID returns the ID of the only initiative in the state,
// failing the run if there isn't exactly one. Useful in scripted
// scenarios where a single create action ran in an earlier epoch.
func SoleInitiativeID(state *models.State) (string, bool) {
	if len(state.Initiatives) != 1 {
		return "", false
	}
	for id := range state.Initiatives {
		return id, true
	}
	return "", false
}
