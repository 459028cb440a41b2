package google_tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/execassist/internal/google"
	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/tools/common"
)

// Config holds what the OAuth tools need.
type Config struct {
	Google google.Config
	// Exchange defaults to google.Exchange.
	Exchange func(ctx context.Context, credentials []byte, code, path string) error
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
}

// RegisterGoogleTools registers the Google OAuth tools with the MCP server.
func RegisterGoogleTools(s *mcpserver.MCPServer, cfg Config) {
	s.AddTools(Tools(cfg)...)
}

// Tools builds the OAuth tool set.
func Tools(cfg Config) []mcpserver.ServerTool {
	if cfg.Exchange == nil {
		cfg.Exchange = google.Exchange
	}
	if cfg.Google.TokenFile == "" {
		cfg.Google.TokenFile = google.DefaultTokenFile()
	}

	getAuthURL := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL that authorizes the assistant to use Gmail and Calendar"),
	)
	saveAuthCode := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Gmail and Calendar authorization"),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	return []mcpserver.ServerTool{
		{
			Tool: getAuthURL,
			Handler: common.InstrumentedToolHandler(getAuthURL.Name, cfg.Metrics, cfg.Logger,
				func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					return handleGetAuthURL(cfg)
				}),
		},
		{
			Tool: saveAuthCode,
			Handler: common.InstrumentedToolHandler(saveAuthCode.Name, cfg.Metrics, cfg.Logger,
				func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					return handleSaveAuthCode(ctx, request, cfg)
				}),
		},
	}
}

func handleGetAuthURL(cfg Config) (*mcp.CallToolResult, error) {
	credentials, err := cfg.Google.Credentials()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if credentials == nil {
		return mcp.NewToolResultError("no OAuth client credentials configured; set GOOGLE_CREDENTIALS_JSON"), nil
	}

	authURL, err := google.AuthURL(credentials, "execassist")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build auth URL: %v", err)), nil
	}

	result := fmt.Sprintf(`To authorize Gmail and Calendar access:

1. Visit this URL in your browser:
   %s

2. Sign in with the assistant's Google account
3. Grant access to Gmail and Calendar
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code to complete authentication`, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, cfg Config) (*mcp.CallToolResult, error) {
	authCode := common.StringArg(request.GetArguments(), "authCode")
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	credentials, err := cfg.Google.Credentials()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if credentials == nil {
		return mcp.NewToolResultError("no OAuth client credentials configured; set GOOGLE_CREDENTIALS_JSON"), nil
	}

	if err := cfg.Exchange(ctx, credentials, authCode, cfg.Google.TokenFile); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful. Token saved to %s; restart the assistant to pick it up.", cfg.Google.TokenFile)), nil
}
