package cmd

import (
	"context"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/resources"
	"github.com/teemow/execassist/internal/tools/assistant_tools"
	"github.com/teemow/execassist/internal/tools/google_tools"
)

func newMCPCmd() *cobra.Command {
	var yolo bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout so AI
assistants can query availability, activities and summaries.

Tools that book meetings or process the inbox are only registered with
--yolo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context(), !yolo)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write tools (schedule_meeting, process_inbox)")

	return cmd
}

func runMCP(ctx context.Context, readOnly bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Google stays optional so the OAuth tools can be used to obtain a token.
	a, err := buildApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			slog.Error("error during shutdown", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer()
	if err := registerAllTools(mcpSrv, a, readOnly); err != nil {
		return err
	}

	slog.Info("starting MCP server on stdio", "read_only", readOnly, "tools", len(mcpSrv.ListTools()))
	return runStdioServer(mcpSrv)
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("execassist", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
}

// registerAllTools registers all MCP tools and resources.
func registerAllTools(mcpSrv *mcpserver.MCPServer, a *app, readOnly bool) error {
	toolCfg := assistant_tools.Config{
		Scheduler: a.assistant,
		ReadOnly:  readOnly,
		Logger:    a.logger,
		Metrics:   a.provider.Metrics(),
	}
	if a.inbox != nil {
		toolCfg.Inbox = a.inbox
	}
	if err := assistant_tools.RegisterAssistantTools(mcpSrv, toolCfg); err != nil {
		return fmt.Errorf("failed to register assistant tools: %w", err)
	}

	google_tools.RegisterGoogleTools(mcpSrv, google_tools.Config{
		Google:  googleConfig(a.cfg),
		Logger:  a.logger,
		Metrics: a.provider.Metrics(),
	})

	resources.RegisterAssistantResources(mcpSrv, a.assistant, nil)
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
