package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/execassist/internal/google"
)

// exchangeCode is replaced in tests.
var exchangeCode = google.Exchange

func newAuthCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Gmail and Google Calendar",
		Long: `Run the OAuth consent flow for OAuth client credentials.

The command prints the consent URL and reads the authorization code from
stdin, unless --code is given. The token is stored in google.token_file.
Service account credentials need no authorization.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), code)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")

	return cmd
}

func runAuth(ctx context.Context, in io.Reader, out io.Writer, code string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	gc := googleConfig(cfg)
	creds, err := gc.Credentials()
	if err != nil {
		return err
	}
	if creds == nil {
		return errors.New("no Google OAuth client credentials configured (google.credentials_json or google.credentials_file)")
	}

	if code == "" {
		authURL, err := google.AuthURL(creds, "execassist")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Go to %s\n", authURL)
		fmt.Fprint(out, "Enter code> ")

		bs := bufio.NewScanner(in)
		if !bs.Scan() {
			if err := bs.Err(); err != nil {
				return err
			}
			return io.EOF
		}
		code = strings.TrimSpace(bs.Text())
	}
	if code == "" {
		return errors.New("authorization code is empty")
	}

	if err := exchangeCode(ctx, creds, code, gc.TokenFile); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", gc.TokenFile)
	return nil
}
