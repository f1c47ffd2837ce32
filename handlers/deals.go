// ABOUTME: Pipeline MCP tool handlers
// ABOUTME: Implements list_leads, create_lead, list_deals, update_deal and dashboard
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
	"github.com/manvote/crmdesk/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PipelineHandlers struct {
	leads store.LeadRepository
	deals store.DealRepository
	tasks store.TaskRepository
	now   func() time.Time
}

func NewPipelineHandlers(leads store.LeadRepository, deals store.DealRepository, tasks store.TaskRepository, now func() time.Time) *PipelineHandlers {
	if now == nil {
		now = time.Now
	}
	return &PipelineHandlers{leads: leads, deals: deals, tasks: tasks, now: now}
}

type ListLeadsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Lead status: New, Opened, Interested or Rejected"`
}

type LeadListOutput struct {
	Leads []models.Lead `json:"leads"`
	Count int           `json:"count"`
}

func (h *PipelineHandlers) ListLeads(ctx context.Context, _ *mcp.CallToolRequest, input ListLeadsInput) (*mcp.CallToolResult, LeadListOutput, error) {
	if input.Status != "" && !models.LeadStatus(input.Status).Valid() {
		return nil, LeadListOutput{}, fmt.Errorf("invalid status: %s (valid: New, Opened, Interested, Rejected)", input.Status)
	}
	all, err := h.leads.List(ctx)
	if err != nil {
		return nil, LeadListOutput{}, fmt.Errorf("failed to list leads: %w", err)
	}
	leads := []models.Lead{}
	for _, l := range all {
		if input.Status == "" || string(l.Status) == input.Status {
			leads = append(leads, l)
		}
	}
	return nil, LeadListOutput{Leads: leads, Count: len(leads)}, nil
}

type CreateLeadInput struct {
	Name    string  `json:"name" jsonschema:"Lead name (required)"`
	Company string  `json:"company,omitempty" jsonschema:"Company name"`
	Email   string  `json:"email,omitempty" jsonschema:"Email address"`
	Phone   string  `json:"phone,omitempty" jsonschema:"Phone number"`
	Status  string  `json:"status,omitempty" jsonschema:"Lead status (default New)"`
	Source  string  `json:"source,omitempty" jsonschema:"Where the lead came from"`
	Value   float64 `json:"value,omitempty" jsonschema:"Estimated value"`
	Owner   string  `json:"owner,omitempty" jsonschema:"Owning user"`
}

func (h *PipelineHandlers) CreateLead(ctx context.Context, _ *mcp.CallToolRequest, input CreateLeadInput) (*mcp.CallToolResult, models.Lead, error) {
	created, err := h.leads.Create(ctx, models.Lead{
		Name:    input.Name,
		Company: input.Company,
		Email:   input.Email,
		Phone:   input.Phone,
		Status:  models.LeadStatus(input.Status),
		Source:  input.Source,
		Value:   input.Value,
		Owner:   input.Owner,
	})
	if err != nil {
		return nil, models.Lead{}, fmt.Errorf("failed to create lead: %w", err)
	}
	return nil, created, nil
}

type ListDealsInput struct {
	Stage string `json:"stage,omitempty" jsonschema:"Deal stage: Qualification, Proposal, Negotiation, Won or Lost"`
}

type DealListOutput struct {
	Deals []models.Deal `json:"deals"`
	Count int           `json:"count"`
}

func (h *PipelineHandlers) ListDeals(ctx context.Context, _ *mcp.CallToolRequest, input ListDealsInput) (*mcp.CallToolResult, DealListOutput, error) {
	if input.Stage != "" && !models.DealStage(input.Stage).Valid() {
		return nil, DealListOutput{}, fmt.Errorf("invalid stage: %s (valid: Qualification, Proposal, Negotiation, Won, Lost)", input.Stage)
	}
	all, err := h.deals.List(ctx)
	if err != nil {
		return nil, DealListOutput{}, fmt.Errorf("failed to list deals: %w", err)
	}
	deals := []models.Deal{}
	for _, d := range all {
		if input.Stage == "" || string(d.Stage) == input.Stage {
			deals = append(deals, d)
		}
	}
	return nil, DealListOutput{Deals: deals, Count: len(deals)}, nil
}

type UpdateDealInput struct {
	ID        string   `json:"id" jsonschema:"Deal ID (required)"`
	Stage     *string  `json:"stage,omitempty" jsonschema:"New stage"`
	Amount    *float64 `json:"amount,omitempty" jsonschema:"New amount"`
	CloseDate *string  `json:"close_date,omitempty" jsonschema:"Expected close date in YYYY-MM-DD format"`
}

func (h *PipelineHandlers) UpdateDeal(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, models.Deal, error) {
	d, err := h.deals.Get(ctx, input.ID)
	if err != nil {
		return nil, models.Deal{}, fmt.Errorf("failed to fetch deal: %w", err)
	}
	if input.Stage != nil {
		d.Stage = models.DealStage(*input.Stage)
	}
	if input.Amount != nil {
		d.Amount = *input.Amount
	}
	setIf(&d.CloseDate, input.CloseDate)

	if err := h.deals.Update(ctx, d); err != nil {
		return nil, models.Deal{}, fmt.Errorf("failed to update deal: %w", err)
	}
	return nil, d, nil
}

type DashboardInput struct{}

type DashboardOutput struct {
	viz.Dashboard
	Text string `json:"text"`
}

func (h *PipelineHandlers) Dashboard(ctx context.Context, _ *mcp.CallToolRequest, _ DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	leads, err := h.leads.List(ctx)
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to list leads: %w", err)
	}
	deals, err := h.deals.List(ctx)
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to list deals: %w", err)
	}
	tasks, err := h.tasks.List(ctx)
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	d := viz.BuildDashboard(leads, deals, tasks, h.now())
	return nil, DashboardOutput{Dashboard: d, Text: viz.RenderDashboard(d)}, nil
}
