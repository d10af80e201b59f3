// Package engine implements the per-epoch state transition pipeline and
// the run loop that drives it. Each epoch applies an ordered sequence of
// stages to the engine's single mutable state: time advance, action
// application, lock decay and weight aggregation, acceptance resolution,
// expiration resolution, and lock-lifecycle settlement. Stage order is
// load-bearing; later stages read earlier stages' outputs.
//
// The engine is single-threaded and deterministic given a fixed seed: the
// one *rand.Rand passed at construction drives action generation and
// initiative id generation, and all map iteration that feeds arithmetic or
// random draws happens in sorted key order.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/lighthouse-gov/signals-sim/internal/ledger"
	"github.com/lighthouse-gov/signals-sim/internal/logging"
	"github.com/lighthouse-gov/signals-sim/internal/models"
)

// Engine owns the mutable simulation state. Snapshots handed out by Step
// and Run are deep copies; the engine never mutates history.
type Engine struct {
	state  *models.State
	rng    *rand.Rand
	log    *slog.Logger
	events *logging.EventLogger
	newID  func() string
}

// New validates the initial state and builds an engine around it. This is
// the one hard-failure site: invalid governance parameters or an initial
// state that already violates token conservation are rejected here, before
// any epoch runs. logger may be nil (discarded); events may be nil.
func New(initial *models.State, rng *rand.Rand, logger *slog.Logger, events *logging.EventLogger) (*Engine, error) {
	if initial == nil {
		return nil, fmt.Errorf("engine: initial state is nil")
	}
	if rng == nil {
		return nil, fmt.Errorf("engine: rng is required")
	}
	if err := initial.Params.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid params: %w", err)
	}
	if err := checkConservation(initial); err != nil {
		return nil, fmt.Errorf("engine: invalid initial state: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		state:  initial,
		rng:    rng,
		log:    logger,
		events: events,
		// Ids come from the run's rng so a seeded run reproduces exactly,
		// initiative ids included.
		newID: func() string {
			return uuid.Must(uuid.NewRandomFromReader(rng)).String()
		},
	}, nil
}

// State returns the engine's current (live, mutable) state. Callers that
// need a stable view should Clone it.
func (e *Engine) State() *models.State {
	return e.state
}

// conservationTolerance bounds accumulated float error in the supply
// identity check.
const conservationTolerance = 1e-6

func checkConservation(s *models.State) error {
	got := s.CirculatingSupply + s.LockedSupply()
	diff := got - s.TotalSupply
	if diff < -conservationTolerance || diff > conservationTolerance {
		return fmt.Errorf("token conservation violated: circulating %.6f + locked %.6f != total %.6f",
			s.CirculatingSupply, s.LockedSupply(), s.TotalSupply)
	}
	return nil
}

// Step advances the state by one epoch, applying the proposed actions.
// It never fails: malformed actions and state entries are skipped and
// logged, per-epoch. The returned snapshot is an immutable deep copy.
func (e *Engine) Step(actions []models.Action) *models.State {
	s := e.state

	// Stage 1: time advance.
	s.CurrentEpoch++
	s.CurrentTime = s.CurrentTime.Add(24 * time.Hour)

	// Stage 2: apply user actions (initiatives, locks, balances, supply).
	e.applyActions(actions)

	// Stage 3: decay, then reaggregate unresolved initiative weights.
	ledger.DecayAll(s)
	ledger.UpdateAggregateWeights(s)

	// Stage 4: acceptance. Runs before expiration, so an initiative that
	// somehow qualifies for both is accepted.
	e.resolveAcceptance()

	// Stage 5: expiration by inactivity.
	e.resolveExpiration()

	// Stage 6: settle lock lifecycles (unlock and remove).
	e.settleLocks()

	if err := checkConservation(s); err != nil {
		// A conservation break here is a bug, not a user input problem.
		// Record it loudly and keep going; the run loop surfaces it.
		e.log.Error("conservation check failed", "epoch", s.CurrentEpoch, "err", err)
		e.events.Event(s.CurrentEpoch, "conservation_violation", map[string]any{"error": err.Error()})
	}

	return s.Clone()
}

// resolveAcceptance moves every unresolved initiative whose aggregate
// weight has reached the threshold into the accepted set. Acceptance is
// terminal: the id never leaves the set and the weight is frozen.
func (e *Engine) resolveAcceptance() {
	s := e.state
	for _, id := range s.ActiveInitiativeIDs() {
		init := s.Initiatives[id]
		if init.Weight >= s.Params.AcceptanceThreshold {
			s.Accepted[id] = true
			e.log.Info("initiative accepted",
				"epoch", s.CurrentEpoch, "initiative", id, "weight", init.Weight)
			e.events.Event(s.CurrentEpoch, "accept", map[string]any{
				"initiative": id, "weight": init.Weight,
			})
		}
	}
}

// resolveExpiration expires unresolved initiatives with no live locks once
// the inactivity period has elapsed since their last support. Locks that
// expire this very epoch still count as live here; they are removed in the
// settlement stage that follows, deferring initiative expiration by one
// epoch.
func (e *Engine) resolveExpiration() {
	s := e.state
	liveCount := make(map[string]int, len(s.Initiatives))
	for k := range s.Locks {
		liveCount[k.InitiativeID]++
	}

	for _, id := range s.ActiveInitiativeIDs() {
		init := s.Initiatives[id]
		if liveCount[id] > 0 {
			continue
		}
		if s.CurrentEpoch-init.LastSupportEpoch >= s.Params.InactivityPeriod {
			s.Expired[id] = true
			e.log.Info("initiative expired",
				"epoch", s.CurrentEpoch, "initiative", id,
				"inactive_for", s.CurrentEpoch-init.LastSupportEpoch)
			e.events.Event(s.CurrentEpoch, "expire", map[string]any{"initiative": id})
		}
	}
}

// settleLocks unlocks and removes every lock whose initiative was accepted
// (in full, regardless of remaining duration) and every expired lock on a
// non-accepted initiative. Amounts, not weights, return to the owner's
// balance and to circulating supply. Locks referencing an unknown
// initiative are settled too rather than left to leak tokens.
func (e *Engine) settleLocks() {
	s := e.state
	var unlocked float64
	for _, k := range s.LockKeys() {
		lock := s.Locks[k]

		_, known := s.Initiatives[lock.InitiativeID]
		if !known {
			e.log.Warn("lock references unknown initiative, settling",
				"epoch", s.CurrentEpoch, "user", lock.UserID, "initiative", lock.InitiativeID)
		}
		accepted := s.Accepted[lock.InitiativeID]

		if !known || accepted || lock.Expired(s.CurrentEpoch) {
			s.Balances[lock.UserID] += lock.Amount
			s.CirculatingSupply += lock.Amount
			unlocked += lock.Amount
			delete(s.Locks, k)
		}
	}
	if unlocked > 0 {
		e.log.Debug("locks settled", "epoch", s.CurrentEpoch, "unlocked", unlocked)
		e.events.Event(s.CurrentEpoch, "unlock", map[string]any{"amount": unlocked})
	}
}
