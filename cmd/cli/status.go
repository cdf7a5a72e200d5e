package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/shiny-updates/internal/board"
)

var outputJSON bool

type statusOutput struct {
	Rows   []board.Row         `json:"rows"`
	Badges map[board.Badge]int `json:"badges"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows every row of the update manifest and the pending-update badges",
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := openSession(context.Background())
		if err != nil {
			return err
		}
		defer s.Close()

		rows := s.app.Board.Rows()
		badges := s.app.Board.Counters().Snapshot()

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(statusOutput{Rows: rows, Badges: badges})
		}

		if len(rows) == 0 {
			dimColor.Println("The manifest lists nothing.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TYPE\tID\tNAME\tVERSION\tAVAILABLE\tSTATUS")
		for _, r := range rows {
			available := "-"
			if r.HasUpdate {
				available = r.NewVersion
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Subject.Entity, r.Subject.ID, r.Name, r.Version, available, r.Label)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		names := make([]string, 0, len(badges))
		for b := range badges {
			names = append(names, string(b))
		}
		sort.Strings(names)
		fmt.Println()
		for _, name := range names {
			n := badges[board.Badge(name)]
			if n > 0 {
				warnColor.Printf("%s: %d pending\n", name, n)
			}
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(statusCmd)
}
