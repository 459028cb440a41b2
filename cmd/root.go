package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/execassist/internal/config"
	"github.com/teemow/execassist/internal/logging"
)

// rootCmd represents the base command for the execassist application
var rootCmd = &cobra.Command{
	Use:   "execassist",
	Short: "AI executive assistant that books meetings from email",
	Long: `execassist reads meeting requests from email, finds free slots in a
Google Calendar and books them, confirming with the requester.

It can run as:
  - An HTTP API server (serve)
  - An MCP (Model Context Protocol) server for AI assistants (mcp)
  - One-shot commands for scheduling, availability and summaries`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

var (
	// version will be set by main
	version = "dev"

	configFile string
	cfg        *config.Config
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "execassist version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(config.Options{
		File:     configFile,
		EnvFiles: []string{".env"},
		Flags:    cmd.Flags(),
	})
	if err != nil {
		return err
	}
	cfg = loaded

	// Logs always go to stderr so stdout stays free for command output and
	// the MCP stdio transport.
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, cfg.Log.Format, cfg.Log.Debug)))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", logging.FormatText, "Log format (text or json)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newAvailabilityCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newInboxCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
