package models

import "strings"

// LockKey identifies a lock by (user, initiative). At most one live lock
// exists per key; a later support action for the same pair replaces it.
type LockKey struct {
	UserID       string
	InitiativeID string
}

// String renders the key for the serialization boundary ("user|initiative").
func (k LockKey) String() string {
	return k.UserID + "|" + k.InitiativeID
}

// ParseLockKey is the inverse of LockKey.String. The second return is false
// if s does not contain a separator.
func ParseLockKey(s string) (LockKey, bool) {
	user, initiative, ok := strings.Cut(s, "|")
	if !ok {
		return LockKey{}, false
	}
	return LockKey{UserID: user, InitiativeID: initiative}, true
}

// Lock is a token commitment behind an initiative. InitialWeight,
// CurrentWeight, and ExpiryEpoch are derived at construction;
// CurrentWeight only ever decreases afterwards.
type Lock struct {
	UserID        string  `json:"user_id"`
	InitiativeID  string  `json:"initiative_id"`
	Amount        float64 `json:"amount"`
	Duration      int     `json:"lock_duration_epochs"`
	StartEpoch    int     `json:"start_epoch"`
	InitialWeight float64 `json:"initial_weight"`
	CurrentWeight float64 `json:"current_weight"`
	ExpiryEpoch   int     `json:"expiry_epoch"`
}

// NewLock builds a lock with its derived fields populated:
// initial weight = amount x duration, expiry = start + duration.
func NewLock(userID, initiativeID string, amount float64, duration, startEpoch int) Lock {
	w := amount * float64(duration)
	return Lock{
		UserID:        userID,
		InitiativeID:  initiativeID,
		Amount:        amount,
		Duration:      duration,
		StartEpoch:    startEpoch,
		InitialWeight: w,
		CurrentWeight: w,
		ExpiryEpoch:   startEpoch + duration,
	}
}

// Key returns the (user, initiative) map key for this lock.
func (l Lock) Key() LockKey {
	return LockKey{UserID: l.UserID, InitiativeID: l.InitiativeID}
}

// Expired reports whether the lock is past its expiry at the given epoch
// and therefore eligible for settlement.
func (l Lock) Expired(epoch int) bool {
	return epoch >= l.ExpiryEpoch
}
