package models

import (
	"sort"
	"time"
)

// Record is the JSON-encodable form of a State snapshot. It exists only at
// the serialization boundary: id sets become sorted slices, composite lock
// keys become "user|initiative" strings, and times become RFC 3339 strings.
// The engine never touches this representation.
type Record struct {
	CurrentEpoch int    `json:"current_epoch"`
	CurrentTime  string `json:"current_time"`

	Initiatives map[string]Initiative `json:"initiatives"`
	Locks       map[string]Lock       `json:"locks"`
	Accepted    []string              `json:"accepted_initiatives"`
	Expired     []string              `json:"expired_initiatives"`

	Balances          map[string]float64 `json:"balances"`
	TotalSupply       float64            `json:"total_supply"`
	CirculatingSupply float64            `json:"circulating_supply"`
	LockedSupply      float64            `json:"locked_supply"`

	RewardEarnings map[string]float64 `json:"reward_earnings"`
	RewardEvents   []RewardEvent      `json:"reward_history"`

	Params Params `json:"params"`
}

// Record converts the snapshot for serialization.
func (s *State) Record() Record {
	r := Record{
		CurrentEpoch:      s.CurrentEpoch,
		CurrentTime:       s.CurrentTime.Format(time.RFC3339),
		Initiatives:       make(map[string]Initiative, len(s.Initiatives)),
		Locks:             make(map[string]Lock, len(s.Locks)),
		Accepted:          sortedIDs(s.Accepted),
		Expired:           sortedIDs(s.Expired),
		Balances:          make(map[string]float64, len(s.Balances)),
		TotalSupply:       s.TotalSupply,
		CirculatingSupply: s.CirculatingSupply,
		LockedSupply:      s.LockedSupply(),
		RewardEarnings:    make(map[string]float64, len(s.RewardEarnings)),
		RewardEvents:      append([]RewardEvent(nil), s.RewardEvents...),
		Params:            s.Params,
	}
	for id, init := range s.Initiatives {
		r.Initiatives[id] = *init
	}
	for k, l := range s.Locks {
		r.Locks[k.String()] = *l
	}
	for u, b := range s.Balances {
		r.Balances[u] = b
	}
	for u, e := range s.RewardEarnings {
		r.RewardEarnings[u] = e
	}
	return r
}

// State converts a record back to a typed snapshot. Lock entries whose key
// does not parse are skipped; the caller gets whatever was recoverable.
func (r Record) State() *State {
	s := NewState(r.Params)
	s.CurrentEpoch = r.CurrentEpoch
	if t, err := time.Parse(time.RFC3339, r.CurrentTime); err == nil {
		s.CurrentTime = t
	}
	for id, init := range r.Initiatives {
		v := init
		s.Initiatives[id] = &v
	}
	for ks, l := range r.Locks {
		k, ok := ParseLockKey(ks)
		if !ok {
			continue
		}
		v := l
		s.Locks[k] = &v
	}
	for _, id := range r.Accepted {
		s.Accepted[id] = true
	}
	for _, id := range r.Expired {
		s.Expired[id] = true
	}
	for u, b := range r.Balances {
		s.Balances[u] = b
	}
	s.TotalSupply = r.TotalSupply
	s.CirculatingSupply = r.CirculatingSupply
	for u, e := range r.RewardEarnings {
		s.RewardEarnings[u] = e
	}
	s.RewardEvents = append([]RewardEvent(nil), r.RewardEvents...)
	return s
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
