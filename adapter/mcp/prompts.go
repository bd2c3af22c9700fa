package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers prompts for common planning workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("daily_planning").
		Description("Plan the day from the briefing, ranked tasks and free slots.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Daily Planning Session", `Help me plan my day. Please:

1. Read today's briefing from the cadence://briefing/today resource
2. Review the ranked tasks from cadence://tasks/ranked
3. Check free time with cadence://slots/today

Then:
- Name the three tasks I should focus on and why their scores put them first
- Map them onto today's free slots
- Point out any calendar conflicts I need to resolve

Use the tasks.* and slots.* tools for anything the resources do not cover.`), nil
		})

	srv.Prompt("find_meeting_time").
		Description("Find the best day and slot for a meeting.").
		Argument("duration", "Meeting length in minutes (default: 60)", false).
		Argument("hours", "Preferred start hours, comma separated (e.g. 10,14)", false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			duration := args["duration"]
			if duration == "" {
				duration = "60"
			}
			hours := args["hours"]
			if hours == "" {
				hours = "any"
			}
			return userPrompt("Meeting Time Search", fmt.Sprintf(`I need a %s-minute meeting. Preferred start hours: %s.

Call slots.suggest with that duration and those hours, then:
- Give me the recommended day and its best slot
- List one fallback day
- Mention any days that could not be checked`, duration, hours)), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
