package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/execassist/internal/meeting"
	"github.com/teemow/execassist/internal/server"
)

const (
	URIRecentActivities = "activity://recent"
	URITodaySummary     = "activity://today"
	URINextSlots        = "calendar://availability"

	recentActivityLimit = 20
)

// RegisterAssistantResources registers the activity and calendar resources.
func RegisterAssistantResources(s *mcpserver.MCPServer, scheduler server.Scheduler, clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}
	for _, r := range Resources(scheduler, clock) {
		s.AddResource(r.Resource, r.Handler)
	}
}

// Resources builds the resource set.
func Resources(scheduler server.Scheduler, clock func() time.Time) []mcpserver.ServerResource {
	return []mcpserver.ServerResource{
		{
			Resource: mcp.NewResource(URIRecentActivities, "Recent Activities",
				mcp.WithResourceDescription("The latest activities recorded by the assistant, newest first"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				records, err := scheduler.RecentActivities(ctx, recentActivityLimit)
				if err != nil {
					return nil, fmt.Errorf("failed to list activities: %w", err)
				}
				return jsonContents(request.Params.URI, records)
			},
		},
		{
			Resource: mcp.NewResource(URITodaySummary, "Today's Summary",
				mcp.WithResourceDescription("Summary of the assistant's activity for the current UTC day"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				summary, err := scheduler.DailySummary(ctx, clock().UTC())
				if err != nil {
					return nil, fmt.Errorf("failed to build daily summary: %w", err)
				}
				return jsonContents(request.Params.URI, summary)
			},
		},
		{
			Resource: mcp.NewResource(URINextSlots, "Next Free Slots",
				mcp.WithResourceDescription("Free 30 minute slots in the coming week"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				slots := scheduler.Availability(ctx, 30, meeting.UrgencyMedium, 0)
				if slots == nil {
					slots = []meeting.Slot{}
				}
				return jsonContents(request.Params.URI, slots)
			},
		},
	}
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
