package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lighthouse-gov/signals-sim/internal/allocate"
	"github.com/lighthouse-gov/signals-sim/internal/config"
	"github.com/lighthouse-gov/signals-sim/internal/engine"
	"github.com/lighthouse-gov/signals-sim/internal/history"
	"github.com/lighthouse-gov/signals-sim/internal/logging"
	"github.com/lighthouse-gov/signals-sim/internal/models"
	"github.com/lighthouse-gov/signals-sim/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a governance simulation",
		Long: `Run a full simulation: allocate initial balances, step the engine
for the configured number of epochs, persist every epoch snapshot to the
run store, and print a summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flag overrides beat both file and environment.
			if cmd.Flags().Changed("epochs") {
				cfg.Simulation.NumEpochs, _ = cmd.Flags().GetInt("epochs")
			}
			if cmd.Flags().Changed("users") {
				cfg.Simulation.NumUsers, _ = cmd.Flags().GetInt("users")
			}
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			seed := cfg.Simulation.Seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			storeDir, _ := cmd.Flags().GetString("store")
			arrowPath, _ := cmd.Flags().GetString("arrow-out")
			jsonOut, _ := cmd.Flags().GetBool("json")
			return runSimulation(cmd.Context(), cfg, seed, storeDir, arrowPath, jsonOut)
		},
	}

	cmd.Flags().String("config", "", "Path to YAML config file")
	cmd.Flags().Int("epochs", 0, "Number of epochs (overrides config)")
	cmd.Flags().Int("users", 0, "Number of users (overrides config)")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = derive from clock)")
	cmd.Flags().String("log-level", "", "Log level: info, debug, trace")
	cmd.Flags().String("arrow-out", "", "Write the epoch table to this Arrow IPC file")
	return cmd
}

func runSimulation(parent context.Context, cfg *config.Config, seed int64, storeDir, arrowPath string, jsonOut bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	eventDir := cfg.Logging.EventDir
	if eventDir == "" {
		eventDir = storeDir
	}
	events := logging.NewEventLogger(eventDir, cfg.Logging.Level)
	defer events.Close()

	rng := rand.New(rand.NewSource(seed))
	initial, err := buildInitialState(cfg, rng)
	if err != nil {
		return err
	}

	eng, err := engine.New(initial, rng, logger, events)
	if err != nil {
		return err
	}

	logger.Info("run starting",
		"users", cfg.Simulation.NumUsers, "epochs", cfg.Simulation.NumEpochs, "seed", seed)
	result := eng.Run(ctx, cfg.Simulation.NumEpochs)

	runID := uuid.NewString()
	if err := persistRun(ctx, cfg, seed, runID, storeDir, result); err != nil {
		logger.Error("failed to persist run", "err", err)
	}

	if arrowPath != "" {
		if err := writeArrow(arrowPath, result.History); err != nil {
			logger.Error("failed to write epoch table", "err", err)
		}
	}

	printSummary(runID, seed, result, jsonOut)
	if result.Failed() {
		return fmt.Errorf("run stopped at epoch %d: %w", result.FailedEpoch, result.Err)
	}
	return nil
}

// buildInitialState allocates the configured supply across generated
// users under the configured distribution.
func buildInitialState(cfg *config.Config, rng *rand.Rand) (*models.State, error) {
	users := make([]string, cfg.Simulation.NumUsers)
	for i := range users {
		users[i] = fmt.Sprintf("0x%02x", i)
	}

	balances, err := allocate.Generate(users, cfg.Simulation.TotalSupply, cfg.Distribution, rng)
	if err != nil {
		return nil, fmt.Errorf("allocating balances: %w", err)
	}

	state := models.NewState(cfg.Governance)
	for _, user := range users {
		amount := float64(balances[user])
		state.Balances[user] = amount
		state.CirculatingSupply += amount
	}
	state.TotalSupply = state.CirculatingSupply
	return state, nil
}

func persistRun(ctx context.Context, cfg *config.Config, seed int64, runID, storeDir string, result engine.Result) error {
	s, err := store.Open(storeDir)
	if err != nil {
		return err
	}
	defer s.Close()

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	meta := store.RunMeta{
		ID:              runID,
		CreatedAt:       time.Now().UTC(),
		Seed:            seed,
		NumUsers:        cfg.Simulation.NumUsers,
		NumEpochs:       cfg.Simulation.NumEpochs,
		CompletedEpochs: len(result.History) - 1,
		Failed:          result.Failed(),
	}
	return s.SaveRun(ctx, meta, configJSON, result.History)
}

func writeArrow(path string, states []*models.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	record := history.Build(states)
	defer record.Release()
	return history.WriteIPC(f, record)
}

// summary aggregates the headline numbers of a finished run.
type summary struct {
	RunID           string  `json:"run_id"`
	Seed            int64   `json:"seed"`
	CompletedEpochs int     `json:"completed_epochs"`
	Created         int     `json:"initiatives_created"`
	Accepted        int     `json:"initiatives_accepted"`
	Expired         int     `json:"initiatives_expired"`
	AcceptanceRate  float64 `json:"acceptance_rate"`
	TotalSupply     float64 `json:"total_supply"`
	Circulating     float64 `json:"circulating_supply"`
	Locked          float64 `json:"locked_supply"`
	RewardsMinted   float64 `json:"rewards_minted"`
	Failed          bool    `json:"failed"`
}

func summarize(runID string, seed int64, result engine.Result) summary {
	final := result.History[len(result.History)-1]

	var minted float64
	for _, ev := range final.RewardEvents {
		minted += ev.RewardAmount
	}

	s := summary{
		RunID:           runID,
		Seed:            seed,
		CompletedEpochs: len(result.History) - 1,
		Created:         len(final.Initiatives),
		Accepted:        len(final.Accepted),
		Expired:         len(final.Expired),
		TotalSupply:     final.TotalSupply,
		Circulating:     final.CirculatingSupply,
		Locked:          final.LockedSupply(),
		RewardsMinted:   minted,
		Failed:          result.Failed(),
	}
	if s.Created > 0 {
		s.AcceptanceRate = float64(s.Accepted) / float64(s.Created)
	}
	return s
}

func printSummary(runID string, seed int64, result engine.Result, jsonOut bool) {
	s := summarize(runID, seed, result)
	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(s)
		return
	}

	fmt.Printf("Run %s (seed %d)\n", s.RunID, s.Seed)
	fmt.Printf("  Epochs completed:  %d\n", s.CompletedEpochs)
	fmt.Printf("  Initiatives:       %d created, %d accepted, %d expired\n", s.Created, s.Accepted, s.Expired)
	fmt.Printf("  Acceptance rate:   %.1f%%\n", s.AcceptanceRate*100)
	fmt.Printf("  Supply:            %.2f total, %.2f circulating, %.2f locked\n", s.TotalSupply, s.Circulating, s.Locked)
	if s.RewardsMinted > 0 {
		fmt.Printf("  Rewards minted:    %.2f\n", s.RewardsMinted)
	}
	if s.Failed {
		fmt.Println("  Status:            FAILED (partial history saved)")
	}
}
