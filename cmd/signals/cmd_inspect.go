package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lighthouse-gov/signals-sim/internal/store"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [run-id]",
		Short: "Inspect stored runs",
		Long: `Without arguments, lists all stored runs. With a run id, prints
that run's metadata and final-state summary; with --epoch, prints the
full state snapshot for that epoch as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDir, _ := cmd.Flags().GetString("store")
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := store.Open(storeDir)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 0 {
				return listRuns(cmd, s, jsonOut)
			}

			runID := args[0]
			if cmd.Flags().Changed("epoch") {
				epoch, _ := cmd.Flags().GetInt("epoch")
				return showSnapshot(cmd, s, runID, epoch)
			}
			return showRun(cmd, s, runID, jsonOut)
		},
	}

	cmd.Flags().Int("epoch", 0, "Print the state snapshot for this epoch")
	return cmd
}

func listRuns(cmd *cobra.Command, s *store.RunStore, jsonOut bool) error {
	runs, err := s.ListRuns(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tSEED\tUSERS\tEPOCHS\tSTATUS")
	for _, run := range runs {
		status := "completed"
		if run.Failed {
			status = fmt.Sprintf("failed at %d/%d", run.CompletedEpochs, run.NumEpochs)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID, run.CreatedAt.Format(time.RFC3339), run.Seed,
			run.NumUsers, run.NumEpochs, status)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, s *store.RunStore, runID string, jsonOut bool) error {
	meta, configJSON, err := s.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	final, err := s.LoadSnapshot(cmd.Context(), runID, meta.CompletedEpochs)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"meta":   meta,
			"config": json.RawMessage(configJSON),
			"final":  final.Record(),
		})
	}

	fmt.Printf("Run %s\n", meta.ID)
	fmt.Printf("  Created:    %s\n", meta.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Seed:       %d\n", meta.Seed)
	fmt.Printf("  Population: %d users\n", meta.NumUsers)
	fmt.Printf("  Epochs:     %d of %d\n", meta.CompletedEpochs, meta.NumEpochs)
	fmt.Printf("  Initiatives: %d created, %d accepted, %d expired\n",
		len(final.Initiatives), len(final.Accepted), len(final.Expired))
	fmt.Printf("  Supply:     %.2f total, %.2f circulating, %.2f locked\n",
		final.TotalSupply, final.CirculatingSupply, final.LockedSupply())
	return nil
}

func showSnapshot(cmd *cobra.Command, s *store.RunStore, runID string, epoch int) error {
	state, err := s.LoadSnapshot(cmd.Context(), runID, epoch)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(state.Record())
}
