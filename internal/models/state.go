package models

import (
	"sort"
	"time"
)

// State is one epoch's snapshot of the simulation. The engine owns a single
// mutable State and appends immutable clones to the run history; nothing
// else mutates a snapshot once appended.
type State struct {
	CurrentEpoch int       `json:"current_epoch"`
	CurrentTime  time.Time `json:"current_time"`

	Initiatives map[string]*Initiative `json:"initiatives"`
	Locks       map[LockKey]*Lock      `json:"-"`
	Accepted    map[string]bool        `json:"-"`
	Expired     map[string]bool        `json:"-"`

	Balances          map[string]float64 `json:"balances"`
	TotalSupply       float64            `json:"total_supply"`
	CirculatingSupply float64            `json:"circulating_supply"`

	RewardEarnings map[string]float64 `json:"reward_earnings"`
	RewardEvents   []RewardEvent      `json:"reward_history"`

	Params Params `json:"params"`
}

// NewState returns an empty state at epoch 0 with all maps allocated.
func NewState(params Params) *State {
	return &State{
		CurrentTime:    time.Now(),
		Initiatives:    make(map[string]*Initiative),
		Locks:          make(map[LockKey]*Lock),
		Accepted:       make(map[string]bool),
		Expired:        make(map[string]bool),
		Balances:       make(map[string]float64),
		RewardEarnings: make(map[string]float64),
		Params:         params,
	}
}

// Clone deep-copies the state. Reward events are value types, so a slice
// copy is sufficient.
func (s *State) Clone() *State {
	c := &State{
		CurrentEpoch:      s.CurrentEpoch,
		CurrentTime:       s.CurrentTime,
		Initiatives:       make(map[string]*Initiative, len(s.Initiatives)),
		Locks:             make(map[LockKey]*Lock, len(s.Locks)),
		Accepted:          make(map[string]bool, len(s.Accepted)),
		Expired:           make(map[string]bool, len(s.Expired)),
		Balances:          make(map[string]float64, len(s.Balances)),
		TotalSupply:       s.TotalSupply,
		CirculatingSupply: s.CirculatingSupply,
		RewardEarnings:    make(map[string]float64, len(s.RewardEarnings)),
		RewardEvents:      make([]RewardEvent, len(s.RewardEvents)),
		Params:            s.Params,
	}
	for id, init := range s.Initiatives {
		v := *init
		c.Initiatives[id] = &v
	}
	for k, l := range s.Locks {
		v := *l
		c.Locks[k] = &v
	}
	for id := range s.Accepted {
		c.Accepted[id] = true
	}
	for id := range s.Expired {
		c.Expired[id] = true
	}
	for u, b := range s.Balances {
		c.Balances[u] = b
	}
	for u, r := range s.RewardEarnings {
		c.RewardEarnings[u] = r
	}
	copy(c.RewardEvents, s.RewardEvents)
	return c
}

// Resolved reports whether an initiative has reached a terminal status.
func (s *State) Resolved(initiativeID string) bool {
	return s.Accepted[initiativeID] || s.Expired[initiativeID]
}

// ActiveInitiativeIDs returns the ids of initiatives that are neither
// accepted nor expired, sorted for deterministic iteration.
func (s *State) ActiveInitiativeIDs() []string {
	ids := make([]string, 0, len(s.Initiatives))
	for id := range s.Initiatives {
		if !s.Resolved(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// UserIDs returns all user ids sorted.
func (s *State) UserIDs() []string {
	ids := make([]string, 0, len(s.Balances))
	for id := range s.Balances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LockKeys returns all live lock keys in a deterministic order
// (user id, then initiative id).
func (s *State) LockKeys() []LockKey {
	keys := make([]LockKey, 0, len(s.Locks))
	for k := range s.Locks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].UserID != keys[j].UserID {
			return keys[i].UserID < keys[j].UserID
		}
		return keys[i].InitiativeID < keys[j].InitiativeID
	})
	return keys
}

// LockedSupply is the sum of live lock amounts (token amounts, not
// weights). The conservation identity is
// CirculatingSupply + LockedSupply == TotalSupply.
func (s *State) LockedSupply() float64 {
	var sum float64
	for _, k := range s.LockKeys() {
		sum += s.Locks[k].Amount
	}
	return sum
}

// LocksFor returns the live locks backing an initiative, in deterministic
// key order.
func (s *State) LocksFor(initiativeID string) []*Lock {
	var locks []*Lock
	for _, k := range s.LockKeys() {
		if k.InitiativeID == initiativeID {
			locks = append(locks, s.Locks[k])
		}
	}
	return locks
}
