package store

import (
	"context"
	"testing"
	"time"

	"github.com/lighthouse-gov/signals-sim/internal/models"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testHistory(epochs int) []*models.State {
	history := make([]*models.State, 0, epochs+1)
	for epoch := 0; epoch <= epochs; epoch++ {
		state := models.NewState(models.DefaultParams())
		state.CurrentEpoch = epoch
		state.CurrentTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(epoch) * 24 * time.Hour)
		state.Balances["0x01"] = 600
		state.Balances["0x02"] = 400
		state.TotalSupply = 1000
		state.CirculatingSupply = 1000
		history = append(history, state)
	}
	return history
}

func TestSaveAndLoadRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	history := testHistory(3)
	meta := RunMeta{
		ID:              "run-1",
		Seed:            42,
		NumUsers:        2,
		NumEpochs:       3,
		CompletedEpochs: 3,
	}
	if err := s.SaveRun(ctx, meta, []byte(`{"num_users":2}`), history); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, configJSON, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Seed != 42 || got.NumUsers != 2 || got.Failed {
		t.Errorf("unexpected meta: %+v", got)
	}
	if string(configJSON) != `{"num_users":2}` {
		t.Errorf("config = %s", configJSON)
	}

	loaded, err := s.LoadHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(loaded) != 4 {
		t.Fatalf("history length = %d, want 4", len(loaded))
	}
	for i, state := range loaded {
		if state.CurrentEpoch != i {
			t.Errorf("snapshot %d has epoch %d", i, state.CurrentEpoch)
		}
		if state.Balances["0x01"] != 600 {
			t.Errorf("snapshot %d lost balance: %v", i, state.Balances["0x01"])
		}
	}
}

func TestLoadSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meta := RunMeta{ID: "run-2", NumUsers: 2, NumEpochs: 2, CompletedEpochs: 2}
	if err := s.SaveRun(ctx, meta, []byte(`{}`), testHistory(2)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	state, err := s.LoadSnapshot(ctx, "run-2", 1)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if state.CurrentEpoch != 1 {
		t.Errorf("epoch = %d, want 1", state.CurrentEpoch)
	}
	if state.TotalSupply != 1000 {
		t.Errorf("total supply = %v, want 1000", state.TotalSupply)
	}

	if _, err := s.LoadSnapshot(ctx, "run-2", 99); err == nil {
		t.Error("expected error for missing epoch")
	}
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := RunMeta{ID: "a", CreatedAt: time.Now().UTC().Add(-time.Hour), NumUsers: 1, NumEpochs: 1}
	second := RunMeta{ID: "b", CreatedAt: time.Now().UTC(), NumUsers: 1, NumEpochs: 1, Failed: true}
	if err := s.SaveRun(ctx, first, []byte(`{}`), testHistory(1)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.SaveRun(ctx, second, []byte(`{}`), testHistory(1)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "b" {
		t.Errorf("expected newest run first, got %s", runs[0].ID)
	}
	if !runs[0].Failed {
		t.Error("run b should be marked failed")
	}
}

func TestGetRunMissing(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.GetRun(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestSaveRunRequiresID(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveRun(context.Background(), RunMeta{}, []byte(`{}`), nil)
	if err == nil {
		t.Error("expected error for empty run ID")
	}
}
