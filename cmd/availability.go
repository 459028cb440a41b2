package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/execassist/internal/meeting"
)

func newAvailabilityCmd() *cobra.Command {
	var (
		duration int
		urgency  string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List free meeting slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := meeting.ParseUrgency(urgency)
			if err != nil {
				return err
			}
			return runAvailability(cmd.Context(), cmd.OutOrStdout(), duration, u, limit)
		},
	}

	cmd.Flags().IntVarP(&duration, "duration", "d", 30, "Meeting length in minutes")
	cmd.Flags().StringVarP(&urgency, "urgency", "u", string(meeting.UrgencyMedium), "Search window: high, medium or low")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of slots")

	return cmd
}

func runAvailability(ctx context.Context, out io.Writer, duration int, urgency meeting.Urgency, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := buildApp(ctx, cfg, appOptions{requireGoogle: true})
	if err != nil {
		return err
	}
	defer closeApp(a)

	slots := a.assistant.Availability(ctx, duration, urgency, limit)
	if slots == nil {
		slots = []meeting.Slot{}
	}
	return printJSON(out, map[string]interface{}{"available_slots": slots})
}
