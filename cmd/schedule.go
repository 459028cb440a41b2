package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/execassist/internal/assistant"
	"github.com/teemow/execassist/internal/logging"
)

func newScheduleCmd() *cobra.Command {
	var (
		file    string
		sender  string
		subject string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a meeting from one email",
		Long: `Run the scheduling pipeline once for an email body read from --file or
stdin and print the outcome as JSON.`,
		Example: `  execassist schedule --sender "Jane <jane@example.com>" --subject "Sync" < email.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return runSchedule(cmd.Context(), cmd.OutOrStdout(), assistant.Request{
				Sender:  sender,
				Subject: subject,
				Body:    body,
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the email body from this file (default: stdin)")
	cmd.Flags().StringVar(&sender, "sender", "", "Sender of the email, used as attendee")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject of the email")
	_ = cmd.MarkFlagRequired("sender")

	return cmd
}

func runSchedule(ctx context.Context, out io.Writer, req assistant.Request) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := buildApp(ctx, cfg, appOptions{requireGoogle: true})
	if err != nil {
		return err
	}
	defer closeApp(a)

	outcome := a.assistant.ScheduleMeeting(ctx, req)
	if err := printJSON(out, outcome); err != nil {
		return err
	}
	if outcome.Status == assistant.StatusError {
		return fmt.Errorf("scheduling failed: %s", outcome.Message)
	}
	return nil
}

func readBody(stdin io.Reader, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read email body: %w", err)
	}
	body := strings.TrimSpace(string(data))
	if body == "" {
		return "", errors.New("email body is empty")
	}
	return body, nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func closeApp(a *app) {
	if err := a.Close(context.Background()); err != nil {
		slog.Error("error during shutdown", logging.Err(err))
	}
}
