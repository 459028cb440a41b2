package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newSummaryCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the activity summary of one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
				}
				day = parsed
			}
			return runSummary(cmd.Context(), cmd.OutOrStdout(), day)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to summarise as YYYY-MM-DD (default: today, UTC)")

	return cmd
}

func runSummary(ctx context.Context, out io.Writer, day time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Summaries only read the activity store.
	a, err := buildApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer closeApp(a)

	summary, err := a.assistant.DailySummary(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to build summary: %w", err)
	}
	return printJSON(out, summary)
}
