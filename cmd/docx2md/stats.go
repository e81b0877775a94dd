package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docx2md/internal/state"
	"github.com/pdiddy/docx2md/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report totals from the conversion ledger",
	Long: `Stats reads the conversion ledger written by batch runs and prints
how many sources it tracks, how many converted or failed, and the
accumulated equation, image and table counts.

Requires batch.state_db to be set in the config.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Batch.StateDB == "" {
		return fmt.Errorf("no conversion ledger configured: set batch.state_db in the config file")
	}

	store, err := state.Open(cfg.Batch.StateDB)
	if err != nil {
		return err
	}
	defer store.Close()

	sum, err := store.Summarize(context.Background())
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Sources tracked: %d\nConverted: %d\nFailed: %d\nEquations converted: %d\nImages extracted: %d\nTables converted: %d",
		sum.Tracked, sum.Converted, sum.Failed, sum.Equations, sum.Images, sum.Tables)
	fmt.Fprintln(os.Stdout, ui.Panel("Conversion Ledger", body, ui.Title))
	return nil
}
