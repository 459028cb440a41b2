package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newInboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Triage unread mail once",
		Long: `Process unread mail once: meeting requests are scheduled, urgent mail
raises an alert and simple questions get an automatic reply. Prints the
counts as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInbox(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runInbox(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := buildApp(ctx, cfg, appOptions{requireGoogle: true})
	if err != nil {
		return err
	}
	defer closeApp(a)

	report, err := a.inbox.ProcessInbox(ctx)
	if err != nil {
		return fmt.Errorf("inbox processing failed: %w", err)
	}
	return printJSON(out, report)
}
