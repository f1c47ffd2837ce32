// ABOUTME: Pipeline dashboard statistics and ASCII rendering
// ABOUTME: Conversion, forecast and funnel figures are derived from leads, deals and tasks on every call
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/models"
)

type Dashboard struct {
	TotalLeads  int `json:"totalLeads"`
	ActiveLeads int `json:"activeLeads"`
	TotalDeals  int `json:"totalDeals"`

	// ConversionRate is won / (won + lost) as a rounded percentage.
	ConversionRate  int     `json:"conversionRate"`
	// RevenueForecast sums open deal amounts.
	RevenueForecast float64 `json:"revenueForecast"`

	Funnel          []FunnelStep                            `json:"funnel"`
	PipelineByStage map[models.DealStage]PipelineStageStats `json:"pipelineByStage"`
	LeadsByStatus   map[models.LeadStatus]int               `json:"leadsByStatus"`
	Tasks           board.Stats                             `json:"taskStats"`
}

type FunnelStep struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type PipelineStageStats struct {
	Stage  models.DealStage `json:"stage"`
	Count  int              `json:"count"`
	Amount float64          `json:"amount"`
}

// BuildDashboard computes the dashboard for today.
func BuildDashboard(leads []models.Lead, deals []models.Deal, tasks []models.Task, today time.Time) Dashboard {
	d := Dashboard{
		TotalLeads:      len(leads),
		TotalDeals:      len(deals),
		PipelineByStage: make(map[models.DealStage]PipelineStageStats),
		LeadsByStatus:   make(map[models.LeadStatus]int),
		Tasks:           board.ComputeStats(tasks, today),
	}

	for _, l := range leads {
		d.LeadsByStatus[l.Status]++
		if l.Status.Active() {
			d.ActiveLeads++
		}
	}

	won, lost, inProgress := 0, 0, 0
	for _, deal := range deals {
		ps := d.PipelineByStage[deal.Stage]
		ps.Stage = deal.Stage
		ps.Count++
		ps.Amount += deal.Amount
		d.PipelineByStage[deal.Stage] = ps

		switch deal.Stage {
		case models.DealWon:
			won++
		case models.DealLost:
			lost++
		case models.DealProposal, models.DealNegotiation:
			inProgress++
		}
		if !deal.Stage.Closed() {
			d.RevenueForecast += deal.Amount
		}
	}

	if closed := won + lost; closed > 0 {
		d.ConversionRate = int(math.Round(float64(won) / float64(closed) * 100))
	}

	d.Funnel = []FunnelStep{
		{Name: "Total Leads", Value: len(leads)},
		{Name: "Opportunities", Value: len(deals)},
		{Name: "In Progress", Value: inProgress},
		{Name: "Won Deals", Value: won},
	}
	return d
}

// WithoutRevenue blanks every money figure.
func (d Dashboard) WithoutRevenue() Dashboard {
	d.RevenueForecast = 0
	stages := make(map[models.DealStage]PipelineStageStats, len(d.PipelineByStage))
	for k, v := range d.PipelineByStage {
		v.Amount = 0
		stages[k] = v
	}
	d.PipelineByStage = stages
	return d
}

func RenderDashboard(d Dashboard) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  CRMDESK DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, d.PipelineByStage)
	out.WriteString("\n")

	out.WriteString("KPIS\n")
	out.WriteString(fmt.Sprintf("  %d leads (%d active)  %d deals\n", d.TotalLeads, d.ActiveLeads, d.TotalDeals))
	trend := "needs work"
	if d.ConversionRate > 20 {
		trend = "good"
	}
	out.WriteString(fmt.Sprintf("  Conversion rate: %d%% (%s)\n", d.ConversionRate, trend))
	out.WriteString(fmt.Sprintf("  Revenue forecast: %s\n\n", formatAmount(d.RevenueForecast)))

	out.WriteString("FUNNEL\n")
	for _, step := range d.Funnel {
		out.WriteString(fmt.Sprintf("  %-14s %d\n", step.Name, step.Value))
	}
	out.WriteString("\n")

	out.WriteString("TASKS\n")
	out.WriteString(fmt.Sprintf("  %d total  %d to do  %d ongoing  %d completed\n",
		d.Tasks.Total, d.Tasks.Todo, d.Tasks.Ongoing, d.Tasks.Completed))
	if d.Tasks.Overdue > 0 {
		out.WriteString(fmt.Sprintf("  ⚠️  %d overdue\n", d.Tasks.Overdue))
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline map[models.DealStage]PipelineStageStats) {
	maxCount := 0
	for _, ps := range pipeline {
		if ps.Count > maxCount {
			maxCount = ps.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, stage := range models.DealStages {
		ps, exists := pipeline[stage]
		if !exists {
			continue
		}

		barLength := (ps.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d (%s)\n", stage, bar, ps.Count, formatAmount(ps.Amount)))
	}
}

// formatAmount abbreviates to K or M.
func formatAmount(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.0fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
