package main

import (
	"math/rand"
	"testing"

	"github.com/lighthouse-gov/signals-sim/internal/allocate"
	"github.com/lighthouse-gov/signals-sim/internal/config"
	"github.com/lighthouse-gov/signals-sim/internal/engine"
	"github.com/lighthouse-gov/signals-sim/internal/models"
)

func TestBuildInitialState(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.NumUsers = 4
	cfg.Simulation.TotalSupply = 1000
	cfg.Distribution = allocate.DistributionSpec{Type: allocate.DistEqual}

	state, err := buildInitialState(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("buildInitialState: %v", err)
	}

	if len(state.Balances) != 4 {
		t.Fatalf("users = %d, want 4", len(state.Balances))
	}
	// User ids are zero-based: 0x00 through 0x03.
	if state.Balances["0x00"] != 250 || state.Balances["0x03"] != 250 {
		t.Errorf("balances not equal: %v", state.Balances)
	}
	if state.TotalSupply != 1000 || state.CirculatingSupply != 1000 {
		t.Errorf("supply = %v/%v, want 1000/1000", state.TotalSupply, state.CirculatingSupply)
	}
}

func TestBuildInitialStateBadDistribution(t *testing.T) {
	cfg := config.Default()
	cfg.Distribution = allocate.DistributionSpec{Type: "zipf"}

	if _, err := buildInitialState(cfg, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for unknown distribution")
	}
}

func TestSummarize(t *testing.T) {
	params := models.DefaultParams()
	final := models.NewState(params)
	final.CurrentEpoch = 10
	final.TotalSupply = 1000
	final.CirculatingSupply = 900
	final.Initiatives["a"] = &models.Initiative{ID: "a"}
	final.Initiatives["b"] = &models.Initiative{ID: "b"}
	final.Initiatives["c"] = &models.Initiative{ID: "c"}
	final.Accepted["a"] = true
	final.Expired["b"] = true
	final.RewardEvents = []models.RewardEvent{{RewardAmount: 3}, {RewardAmount: 4}}
	lock := models.NewLock("0x01", "c", 100, 5, 9)
	final.Locks[lock.Key()] = &lock

	result := engine.Result{
		History:     []*models.State{models.NewState(params), final},
		FailedEpoch: -1,
	}

	s := summarize("run-x", 42, result)
	if s.CompletedEpochs != 1 {
		t.Errorf("completed = %d, want 1", s.CompletedEpochs)
	}
	if s.Created != 3 || s.Accepted != 1 || s.Expired != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/1/1", s.Created, s.Accepted, s.Expired)
	}
	if s.AcceptanceRate != 1.0/3.0 {
		t.Errorf("acceptance rate = %v", s.AcceptanceRate)
	}
	if s.Locked != 100 {
		t.Errorf("locked = %v, want 100", s.Locked)
	}
	if s.RewardsMinted != 7 {
		t.Errorf("rewards minted = %v, want 7", s.RewardsMinted)
	}
	if s.Failed {
		t.Error("run should not be marked failed")
	}
}

func TestSummarizeNoInitiatives(t *testing.T) {
	result := engine.Result{
		History:     []*models.State{models.NewState(models.DefaultParams())},
		FailedEpoch: -1,
	}
	s := summarize("run-y", 1, result)
	if s.AcceptanceRate != 0 {
		t.Errorf("acceptance rate = %v, want 0 with no initiatives", s.AcceptanceRate)
	}
}
