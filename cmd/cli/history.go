package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists recently completed jobs (needs the history database)",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.app.Store.Recent(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to retrieve history: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(entries)
		}
		if len(entries) == 0 {
			dimColor.Println("No completed jobs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "COMPLETED\tKIND\tSUBJECT\tSTATUS\tMESSAGE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.CompletedAt.Format(time.RFC822), e.Kind, e.Subject, e.Status, e.Message)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries")
	historyCmd.Flags().BoolVar(&outputJSON, "json", false, "Output history as JSON")
	rootCmd.AddCommand(historyCmd)
}
