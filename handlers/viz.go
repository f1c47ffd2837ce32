// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the pipeline_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
	"github.com/manvote/crmdesk/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	leads store.LeadRepository
	deals store.DealRepository
}

func NewVizHandlers(leads store.LeadRepository, deals store.DealRepository) *VizHandlers {
	return &VizHandlers{leads: leads, deals: deals}
}

type PipelineGraphInput struct {
	Client string `json:"client,omitempty" jsonschema:"Only include leads and deals for this client"`
}

type PipelineGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) PipelineGraph(ctx context.Context, _ *mcp.CallToolRequest, input PipelineGraphInput) (*mcp.CallToolResult, PipelineGraphOutput, error) {
	leads, err := h.leads.List(ctx)
	if err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to list leads: %w", err)
	}
	deals, err := h.deals.List(ctx)
	if err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to list deals: %w", err)
	}

	if input.Client != "" {
		var keptLeads []models.Lead
		for _, l := range leads {
			if strings.EqualFold(l.Company, input.Client) {
				keptLeads = append(keptLeads, l)
			}
		}
		var keptDeals []models.Deal
		for _, d := range deals {
			if strings.EqualFold(d.Client, input.Client) {
				keptDeals = append(keptDeals, d)
			}
		}
		leads, deals = keptLeads, keptDeals
	}

	dot, err := viz.GeneratePipelineGraph(ctx, leads, deals)
	if err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, PipelineGraphOutput{
		DOTSource: dot,
		NodeCount: strings.Count(dot, "[label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
