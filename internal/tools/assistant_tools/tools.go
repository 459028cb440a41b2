package assistant_tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/execassist/internal/assistant"
	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/meeting"
	"github.com/teemow/execassist/internal/server"
	"github.com/teemow/execassist/internal/tools/common"
)

// Config holds the dependencies of the assistant tools.
type Config struct {
	Scheduler server.Scheduler
	// Inbox is optional; without it process_inbox is not registered.
	Inbox    server.InboxProcessor
	ReadOnly bool
	Clock    func() time.Time
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
}

// RegisterAssistantTools registers the assistant tools with the MCP server.
func RegisterAssistantTools(s *mcpserver.MCPServer, cfg Config) error {
	if cfg.Scheduler == nil {
		return fmt.Errorf("assistant tools require a scheduler")
	}
	s.AddTools(Tools(cfg)...)
	return nil
}

// Tools builds the instrumented tool set.
func Tools(cfg Config) []mcpserver.ServerTool {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	h := handlers{cfg: cfg}

	tools := []mcpserver.ServerTool{
		{
			Tool: mcp.NewTool("find_available_slots",
				mcp.WithDescription("Find free meeting slots within business hours on the assistant's calendar"),
				mcp.WithNumber("duration_minutes",
					mcp.Description("Meeting length in minutes (default: 30)"),
				),
				mcp.WithString("urgency",
					mcp.Description("How soon the meeting is needed: high (3 days), medium (7 days) or low (14 days)"),
					mcp.Enum("high", "medium", "low"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of slots to return (default: 5)"),
				),
			),
			Handler: h.findAvailableSlots,
		},
		{
			Tool: mcp.NewTool("list_activities",
				mcp.WithDescription("List the most recent assistant activities, newest first"),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of activities to return (default: 20, max: 100)"),
				),
			),
			Handler: h.listActivities,
		},
		{
			Tool: mcp.NewTool("daily_summary",
				mcp.WithDescription("Summarise the assistant's activity for one UTC day"),
				mcp.WithString("date",
					mcp.Description("Day to summarise as YYYY-MM-DD (default: today)"),
				),
			),
			Handler: h.dailySummary,
		},
	}

	if !cfg.ReadOnly {
		tools = append(tools, mcpserver.ServerTool{
			Tool: mcp.NewTool("schedule_meeting",
				mcp.WithDescription("Read a meeting request email, book the first free slot and send a confirmation to the sender"),
				mcp.WithString("sender",
					mcp.Required(),
					mcp.Description("Sender of the request, e.g. 'Ana Lopez <ana@example.com>'"),
				),
				mcp.WithString("subject",
					mcp.Description("Subject line of the email"),
				),
				mcp.WithString("body",
					mcp.Required(),
					mcp.Description("Plain-text body of the email"),
				),
			),
			Handler: h.scheduleMeeting,
		})
		if cfg.Inbox != nil {
			tools = append(tools, mcpserver.ServerTool{
				Tool: mcp.NewTool("process_inbox",
					mcp.WithDescription("Triage unread mail from the last day: schedule meeting requests, flag urgent mail and send auto-replies"),
				),
				Handler: h.processInbox,
			})
		}
	}

	for i := range tools {
		tools[i].Handler = common.InstrumentedToolHandler(tools[i].Tool.Name, cfg.Metrics, cfg.Logger, tools[i].Handler)
	}
	return tools
}

type handlers struct {
	cfg Config
}

func (h handlers) findAvailableSlots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	duration, err := common.IntArg(args, "duration_minutes", 30)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if duration <= 0 {
		return mcp.NewToolResultError("duration_minutes must be positive"), nil
	}
	limit, err := common.IntArg(args, "limit", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	urgency, err := meeting.ParseUrgency(common.StringArg(args, "urgency"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	slots := h.cfg.Scheduler.Availability(ctx, duration, urgency, limit)
	if slots == nil {
		slots = []meeting.Slot{}
	}
	return common.JSONResult(map[string]interface{}{
		"available_slots": slots,
		"count":           len(slots),
	})
}

func (h handlers) listActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := common.IntArg(request.GetArguments(), "limit", 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if limit < 1 || limit > 100 {
		return mcp.NewToolResultError("limit must be between 1 and 100"), nil
	}

	records, err := h.cfg.Scheduler.RecentActivities(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list activities: %v", err)), nil
	}
	return common.JSONResult(map[string]interface{}{
		"activities": records,
		"count":      len(records),
	})
}

func (h handlers) dailySummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day := h.cfg.Clock().UTC()
	if raw := common.StringArg(request.GetArguments(), "date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return mcp.NewToolResultError("date must be YYYY-MM-DD"), nil
		}
		day = parsed
	}

	summary, err := h.cfg.Scheduler.DailySummary(ctx, day)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build daily summary: %v", err)), nil
	}
	return common.JSONResult(summary)
}

func (h handlers) scheduleMeeting(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	req := assistant.Request{
		Sender:  common.StringArg(args, "sender"),
		Subject: common.StringArg(args, "subject"),
		Body:    common.StringArg(args, "body"),
	}
	if req.Sender == "" || req.Body == "" {
		return mcp.NewToolResultError("sender and body are required"), nil
	}

	out := h.cfg.Scheduler.ScheduleMeeting(ctx, req)
	result, err := common.JSONResult(out)
	if err == nil && out.Status == assistant.StatusError {
		result.IsError = true
	}
	return result, err
}

func (h handlers) processInbox(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := h.cfg.Inbox.ProcessInbox(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to process inbox: %v", err)), nil
	}
	return common.JSONResult(report)
}
