package engine

import (
	"github.com/lighthouse-gov/signals-sim/internal/ledger"
	"github.com/lighthouse-gov/signals-sim/internal/models"
	"github.com/lighthouse-gov/signals-sim/internal/rewards"
)

// admittedAction is an action that passed affordability validation, with
// the balance effects it was admitted under. refund is the amount of a
// previous same-pair lock released by an overwrite.
type admittedAction struct {
	action models.Action
	refund float64
}

// applyActions runs stage 2. Admission happens once, against a running
// balance view, so the initiative / lock / balance / supply sub-stages all
// agree on which actions execute: the policy's checks were against the
// previous snapshot, and an action is dropped here if the running balance
// can no longer afford it. That keeps balances non-negative even when one
// user's create and support were each individually affordable.
func (e *Engine) applyActions(actions []models.Action) {
	admitted := e.admitActions(actions)
	e.applyCreates(admitted)
	e.applyLocks(admitted)
	e.applyBalancesAndSupply(admitted)
}

// admitActions validates the proposed actions in order against a running
// balance view and returns the admitted subset. Dropped actions are logged
// at debug and never escalate.
func (e *Engine) admitActions(actions []models.Action) []admittedAction {
	s := e.state
	running := make(map[string]float64, len(s.Balances))
	for u, b := range s.Balances {
		running[u] = b
	}

	var admitted []admittedAction
	for _, a := range actions {
		switch a.Type {
		case models.ActionCreate:
			if running[a.UserID] < s.Params.CreationStake {
				e.dropAction(a, "insufficient balance for creation stake")
				continue
			}
			running[a.UserID] -= s.Params.CreationStake
			admitted = append(admitted, admittedAction{action: a})

		case models.ActionSupport:
			init, ok := s.Initiatives[a.InitiativeID]
			if !ok || init == nil {
				e.dropAction(a, "target initiative does not exist")
				continue
			}
			if s.Resolved(a.InitiativeID) {
				e.dropAction(a, "target initiative already resolved")
				continue
			}
			if a.Amount <= 0 || a.Duration <= 0 {
				e.dropAction(a, "non-positive amount or duration")
				continue
			}
			// Re-supporting the same pair replaces the old lock; its
			// amount is refunded first, so only the difference must be
			// affordable.
			var refund float64
			if old, exists := s.Locks[models.LockKey{UserID: a.UserID, InitiativeID: a.InitiativeID}]; exists {
				refund = old.Amount
			}
			if running[a.UserID]+refund < a.Amount {
				e.dropAction(a, "insufficient balance for support amount")
				continue
			}
			running[a.UserID] += refund - a.Amount
			admitted = append(admitted, admittedAction{action: a, refund: refund})

		default:
			e.dropAction(a, "unknown action type")
		}
	}
	return admitted
}

func (e *Engine) dropAction(a models.Action, reason string) {
	e.log.Debug("action dropped",
		"epoch", e.state.CurrentEpoch, "type", a.Type, "user", a.UserID, "reason", reason)
	e.events.Event(e.state.CurrentEpoch, "skip", map[string]any{
		"type": string(a.Type), "user": a.UserID, "reason": reason,
	})
}

// applyCreates instantiates an initiative for every admitted create,
// seeded with last_support_epoch = the current epoch so the inactivity
// clock starts now.
func (e *Engine) applyCreates(admitted []admittedAction) {
	s := e.state
	for _, adm := range admitted {
		a := adm.action
		if a.Type != models.ActionCreate {
			continue
		}
		id := e.newID()
		title := a.Title
		if title == "" {
			title = "Untitled Initiative"
		}
		s.Initiatives[id] = &models.Initiative{
			ID:               id,
			Title:            title,
			Description:      a.Description,
			CreatedAt:        s.CurrentTime,
			CreatedEpoch:     s.CurrentEpoch,
			LastSupportEpoch: s.CurrentEpoch,
		}
		e.log.Debug("initiative created",
			"epoch", s.CurrentEpoch, "user", a.UserID, "initiative", id)
		e.events.Event(s.CurrentEpoch, "create", map[string]any{
			"user": a.UserID, "initiative": id,
		})
	}
}

// applyLocks creates or replaces the (user, initiative) lock for every
// admitted support and bumps the initiative's last-support epoch. An
// overwritten lock's tokens are refunded by the balance sub-stage.
func (e *Engine) applyLocks(admitted []admittedAction) {
	s := e.state
	for _, adm := range admitted {
		a := adm.action
		if a.Type != models.ActionSupport {
			continue
		}
		lock := models.NewLock(a.UserID, a.InitiativeID, a.Amount, a.Duration, s.CurrentEpoch)
		s.Locks[lock.Key()] = &lock

		if init, ok := s.Initiatives[a.InitiativeID]; ok {
			init.LastSupportEpoch = s.CurrentEpoch
		}
		e.log.Debug("initiative supported",
			"epoch", s.CurrentEpoch, "user", a.UserID, "initiative", a.InitiativeID,
			"amount", a.Amount, "duration", a.Duration)
		e.events.Event(s.CurrentEpoch, "support", map[string]any{
			"user": a.UserID, "initiative": a.InitiativeID,
			"amount": a.Amount, "duration": a.Duration,
		})
	}
}

// applyBalancesAndSupply settles the money side of the admitted actions:
// stake deductions, lock deductions with overwrite refunds, circulating
// supply movement for locks, and reward minting. The creation stake is a
// balance deduction only; it does not move circulating supply.
func (e *Engine) applyBalancesAndSupply(admitted []admittedAction) {
	s := e.state
	for _, adm := range admitted {
		a := adm.action
		switch a.Type {
		case models.ActionCreate:
			s.Balances[a.UserID] -= s.Params.CreationStake

		case models.ActionSupport:
			s.Balances[a.UserID] += adm.refund - a.Amount
			s.CirculatingSupply += adm.refund - a.Amount

			if s.Params.Rewards.Enabled {
				e.payReward(a)
			}
		}
	}
}

// payReward mints the logistic support reward for an applied lock. The
// rate is computed against the initiative's weight before this lock, i.e.
// the aggregate of the other live locks at apply time. Minting grows
// balance, circulating supply, and total supply together, so the
// conservation identity is preserved.
func (e *Engine) payReward(a models.Action) {
	s := e.state
	lock, ok := s.Locks[models.LockKey{UserID: a.UserID, InitiativeID: a.InitiativeID}]
	if !ok {
		return
	}
	weightBefore := ledger.InitiativeWeight(s, a.InitiativeID) - lock.CurrentWeight
	if weightBefore < 0 {
		weightBefore = 0
	}
	reward := rewards.ForSupport(s.Params, *lock, weightBefore)
	if reward <= 0 {
		return
	}

	s.Balances[a.UserID] += reward
	s.CirculatingSupply += reward
	s.TotalSupply += reward
	rewards.Record(s, *lock, reward, weightBefore)

	e.log.Debug("reward paid",
		"epoch", s.CurrentEpoch, "user", a.UserID, "initiative", a.InitiativeID, "reward", reward)
	e.events.Event(s.CurrentEpoch, "reward", map[string]any{
		"user": a.UserID, "initiative": a.InitiativeID, "amount": reward,
	})
}
