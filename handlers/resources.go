// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to events, tasks, leads, deals and the dashboard via crm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/manvote/crmdesk/store"
	"github.com/manvote/crmdesk/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ResourceHandlers struct {
	events store.EventRepository
	tasks  store.TaskRepository
	leads  store.LeadRepository
	deals  store.DealRepository
	now    func() time.Time
}

func NewResourceHandlers(events store.EventRepository, tasks store.TaskRepository, leads store.LeadRepository, deals store.DealRepository, now func() time.Time) *ResourceHandlers {
	if now == nil {
		now = time.Now
	}
	return &ResourceHandlers{events: events, tasks: tasks, leads: leads, deals: deals, now: now}
}

// Resources lists the fixed URIs served by ReadResource.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: "crm://events", Name: "events", Description: "All calendar events", MIMEType: "application/json"},
		{URI: "crm://tasks", Name: "tasks", Description: "All board tasks", MIMEType: "application/json"},
		{URI: "crm://leads", Name: "leads", Description: "All leads", MIMEType: "application/json"},
		{URI: "crm://deals", Name: "deals", Description: "All deals", MIMEType: "application/json"},
		{URI: "crm://dashboard", Name: "dashboard", Description: "Pipeline KPIs and task statistics", MIMEType: "application/json"},
	}
}

// Templates lists the per-entity URI templates served by ReadResource.
func (h *ResourceHandlers) Templates() []*mcp.ResourceTemplate {
	return []*mcp.ResourceTemplate{
		{URITemplate: "crm://events/{id}", Name: "event", MIMEType: "application/json"},
		{URITemplate: "crm://tasks/{id}", Name: "task", MIMEType: "application/json"},
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "crm://") {
		return nil, fmt.Errorf("invalid URI scheme: expected crm://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "crm://"), "/")
	single := len(parts) > 1 && parts[1] != ""

	var (
		v   any
		err error
	)
	switch parts[0] {
	case "events":
		if single {
			v, err = h.events.Get(ctx, parts[1])
		} else {
			v, err = h.events.List(ctx)
		}
	case "tasks":
		if single {
			v, err = h.tasks.Get(ctx, parts[1])
		} else {
			v, err = h.tasks.List(ctx)
		}
	case "leads":
		v, err = h.leads.List(ctx)
	case "deals":
		v, err = h.deals.List(ctx)
	case "dashboard":
		v, err = h.dashboard(ctx)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}
	return jsonResource(uri, v)
}

func (h *ResourceHandlers) dashboard(ctx context.Context) (viz.Dashboard, error) {
	leads, err := h.leads.List(ctx)
	if err != nil {
		return viz.Dashboard{}, err
	}
	deals, err := h.deals.List(ctx)
	if err != nil {
		return viz.Dashboard{}, err
	}
	tasks, err := h.tasks.List(ctx)
	if err != nil {
		return viz.Dashboard{}, err
	}
	return viz.BuildDashboard(leads, deals, tasks, h.now()), nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
