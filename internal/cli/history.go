package cli

import (
	"fmt"
	"text/tabwriter"

	"verbquiz-service/internal/config"

	"github.com/spf13/cobra"
)

// NewHistoryCmd lists recently finished games from the configured results store.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			results, closeResults, err := openResults(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeResults()

			recent, err := results.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results yet")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tMODE\tSCORE")
			for _, r := range recent {
				fmt.Fprintf(w, "%s\t%s\t%d / %d\n", r.FinishedAt.Local().Format("2006-01-02 15:04"), r.Mode, r.Score, r.Total)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of results to show")
	return cmd
}
