// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Provides daily-agenda, task-triage and deal-analysis prompts
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	events store.EventRepository
	tasks  store.TaskRepository
	deals  store.DealRepository
	now    func() time.Time
}

func NewPromptHandlers(events store.EventRepository, tasks store.TaskRepository, deals store.DealRepository, now func() time.Time) *PromptHandlers {
	if now == nil {
		now = time.Now
	}
	return &PromptHandlers{events: events, tasks: tasks, deals: deals, now: now}
}

// Prompts describes the templates GetPrompt can render.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "daily-agenda",
			Description: "Summarize a day's calendar and suggest preparation",
			Arguments: []*mcp.PromptArgument{
				{Name: "date", Description: "Day in YYYY-MM-DD format (default today)"},
			},
		},
		{Name: "task-triage", Description: "Review overdue and open tasks and suggest priorities"},
		{Name: "deal-analysis", Description: "Analyze the deal pipeline"},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "daily-agenda":
		return h.getDailyAgendaPrompt(ctx, request.Params.Arguments)
	case "task-triage":
		return h.getTaskTriagePrompt(ctx)
	case "deal-analysis":
		return h.getDealAnalysisPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) getDailyAgendaPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	date := args["date"]
	if date == "" {
		date = h.now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date (use YYYY-MM-DD): %w", err)
	}

	all, err := h.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	day := calendar.ResolveDay(all, date, calendar.CategoryAll)

	var promptText strings.Builder
	fmt.Fprintf(&promptText, "Here is my calendar for %s:\n\n", date)
	if len(day) == 0 {
		promptText.WriteString("  (nothing scheduled)\n")
	}
	for _, e := range day {
		fmt.Fprintf(&promptText, "  - %s-%s %s [%s]", e.Start, e.End, e.Title, e.Type)
		if e.Attendees != "" {
			fmt.Fprintf(&promptText, " with %s", e.Attendees)
		}
		if e.Desc != "" {
			fmt.Fprintf(&promptText, ": %s", e.Desc)
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A short overview of the day")
	promptText.WriteString("\n2. What to prepare before each meeting")
	promptText.WriteString("\n3. Free hours that could hold focused work")

	return userPrompt(fmt.Sprintf("Agenda for %s", date), promptText.String()), nil
}

func (h *PromptHandlers) getTaskTriagePrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	tasks, err := h.tasks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	today := h.now()
	stats := board.ComputeStats(tasks, today)

	var promptText strings.Builder
	promptText.WriteString("Please help me triage my task board:\n\n")
	fmt.Fprintf(&promptText, "Total: %d, open: %d, overdue: %d\n\n", stats.Total, stats.NotCompleted, stats.Overdue)
	for _, t := range tasks {
		if t.Stage == models.StageDone {
			continue
		}
		marker := ""
		if t.IsOverdue(today) {
			marker = " OVERDUE"
		}
		fmt.Fprintf(&promptText, "  - [%s] %s (%s, %s, due %s)%s\n", t.Stage, t.Title, t.Priority, t.Client, t.DueDate, marker)
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. The order I should work through these")
	promptText.WriteString("\n2. Tasks whose priority looks wrong")
	promptText.WriteString("\n3. Anything that should be delegated or dropped")

	return userPrompt("Task board triage", promptText.String()), nil
}

func (h *PromptHandlers) getDealAnalysisPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	deals, err := h.deals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}

	stageCount := make(map[models.DealStage]int)
	stageValue := make(map[models.DealStage]float64)
	total := 0.0
	for _, d := range deals {
		stageCount[d.Stage]++
		stageValue[d.Stage] += d.Amount
		total += d.Amount
	}

	var promptText strings.Builder
	promptText.WriteString("Please analyze the current deal pipeline:\n\n")
	fmt.Fprintf(&promptText, "Total Deals: %d\n", len(deals))
	fmt.Fprintf(&promptText, "Total Value: $%.0f\n\n", total)
	promptText.WriteString("Pipeline by Stage:\n")
	for _, stage := range models.DealStages {
		fmt.Fprintf(&promptText, "  - %s: %d deals, $%.0f\n", stage, stageCount[stage], stageValue[stage])
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Analysis of pipeline health and distribution")
	promptText.WriteString("\n2. Recommendations for deals that may need attention")
	promptText.WriteString("\n3. Suggestions for improving conversion rates")

	return userPrompt("Deal pipeline analysis", promptText.String()), nil
}
