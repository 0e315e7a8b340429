package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"diastole/internal/store"
)

var (
	runsOutDir string
	runsLimit  int
)

// runsCmd lists past runs recorded in the SQLite run index.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past experiment runs recorded in runs.db",
	RunE:  listRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsOutDir, "out", ".", "Output directory holding runs.db")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
}

func listRuns(cmd *cobra.Command, args []string) error {
	s, err := store.Open(filepath.Join(runsOutDir, "runs.db"))
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.RecentRuns(runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %s  model=%s temp=%g seed=%d prompts=%d failures=%d\n",
			r.StartedAt, r.ID, r.Model, r.Temperature, r.Seed, r.PromptCount, r.FailureCount)
	}
	return nil
}
