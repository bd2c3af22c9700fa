package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers read-only resources over the same queries the tools use.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("cadence://tasks/ranked").
		Name("Ranked tasks").
		Description("Open tasks in priority order with their scores").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			ranked, err := prioritizeTasks(ctx, app, taskPrioritizeInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, ranked)
		})

	srv.Resource("cadence://slots/today").
		Name("Free slots today").
		Description("One-hour free slots within today's working hours").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			slots, err := availableSlots(ctx, app, slotsAvailableInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, slots)
		})

	srv.Resource("cadence://conflicts/today").
		Name("Conflicts today").
		Description("Overlapping calendar events today").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			conflicts, err := detectConflicts(ctx, app, conflictsInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, conflicts)
		})

	srv.Resource("cadence://briefing/today").
		Name("Today's briefing").
		Description("Conflicts, free time and top tasks for today").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			briefing, err := dailyBriefing(ctx, app, briefingInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, briefing)
		})

	srv.Resource("cadence://runs/recent").
		Name("Recent runs").
		Description("The latest automation runs").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			runs, err := recentRuns(ctx, app, runsInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, runs)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
