// ABOUTME: Universal query tool handler
// ABOUTME: Implements text search across events, tasks, leads and deals
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueryHandlers struct {
	events store.EventRepository
	tasks  store.TaskRepository
	leads  store.LeadRepository
	deals  store.DealRepository
}

func NewQueryHandlers(events store.EventRepository, tasks store.TaskRepository, leads store.LeadRepository, deals store.DealRepository) *QueryHandlers {
	return &QueryHandlers{events: events, tasks: tasks, leads: leads, deals: deals}
}

type QueryCRMInput struct {
	EntityType string `json:"entity_type" jsonschema:"Type of entity to query (event, task, lead, deal)"`
	Query      string `json:"query,omitempty" jsonschema:"Case-insensitive text to match"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryCRMOutput struct {
	EntityType string `json:"entity_type"`
	Results    []any  `json:"results"`
	Count      int    `json:"count"`
}

func (h *QueryHandlers) QueryCRM(ctx context.Context, _ *mcp.CallToolRequest, input QueryCRMInput) (*mcp.CallToolResult, QueryCRMOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 10
	}
	q := strings.ToLower(strings.TrimSpace(input.Query))

	var results []any
	switch input.EntityType {
	case "event":
		items, err := h.events.List(ctx)
		if err != nil {
			return nil, QueryCRMOutput{}, fmt.Errorf("failed to list events: %w", err)
		}
		results = collect(items, q, input.Limit, func(e models.Event) []string {
			return []string{e.Title, e.Desc, e.Attendees, e.Date}
		})
	case "task":
		items, err := h.tasks.List(ctx)
		if err != nil {
			return nil, QueryCRMOutput{}, fmt.Errorf("failed to list tasks: %w", err)
		}
		results = collect(items, q, input.Limit, func(t models.Task) []string {
			return []string{t.Title, t.Desc, t.Client, string(t.Stage), string(t.Priority)}
		})
	case "lead":
		items, err := h.leads.List(ctx)
		if err != nil {
			return nil, QueryCRMOutput{}, fmt.Errorf("failed to list leads: %w", err)
		}
		results = collect(items, q, input.Limit, func(l models.Lead) []string {
			return []string{l.Name, l.Company, l.Email, string(l.Status), l.Source}
		})
	case "deal":
		items, err := h.deals.List(ctx)
		if err != nil {
			return nil, QueryCRMOutput{}, fmt.Errorf("failed to list deals: %w", err)
		}
		results = collect(items, q, input.Limit, func(d models.Deal) []string {
			return []string{d.Title, d.Client, string(d.Stage)}
		})
	default:
		return nil, QueryCRMOutput{}, fmt.Errorf("invalid entity_type: %s (valid: event, task, lead, deal)", input.EntityType)
	}

	if results == nil {
		results = []any{}
	}
	return nil, QueryCRMOutput{EntityType: input.EntityType, Results: results, Count: len(results)}, nil
}

func collect[T any](items []T, q string, limit int, fields func(T) []string) []any {
	var out []any
	for _, item := range items {
		if len(out) >= limit {
			break
		}
		if q == "" || anyContains(fields(item), q) {
			out = append(out, item)
		}
	}
	return out
}

func anyContains(fields []string, q string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
