package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/shiny-updates/internal/updates"
)

var batchTimeout time.Duration

var updateAllCmd = &cobra.Command{
	Use:   "update-all",
	Short: "Updates every row with a pending update, one at a time",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		batch, err := s.app.Service.UpdateAll(cliOrigin)
		if errors.Is(err, updates.ErrNothingToUpdate) {
			successColor.Println("Everything is up to date.")
			return nil
		}
		if err != nil {
			return err
		}
		titleColor.Printf("Updating %d items\n", len(batch.Futures()))

		summary, err := batch.Wait(ctx)
		if err != nil {
			return fmt.Errorf("gave up waiting: %w", err)
		}
		for _, msg := range summary.Errors {
			errorColor.Printf("  %s\n", msg)
		}
		if summary.Failed > 0 || summary.Cancelled > 0 {
			return fmt.Errorf("%d of %d updates did not complete",
				summary.Failed+summary.Cancelled, len(batch.Futures()))
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	updateAllCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "How long to wait for the whole batch")
	rootCmd.AddCommand(updateAllCmd)
}
