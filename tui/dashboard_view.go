// ABOUTME: Dashboard screen for the TUI
// ABOUTME: Shows the pipeline KPIs and task statistics as ASCII
package tui

import (
	"fmt"
	"strings"

	"github.com/manvote/crmdesk/viz"
)

func (m Model) renderDashboardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CRMDESK"))
	s.WriteString("\n")
	s.WriteString(m.renderScreenTabs())
	s.WriteString("\n\n")

	if m.deps.Leads == nil || m.deps.Deals == nil {
		s.WriteString(dimStyle.Render("Pipeline data is not available with this backend."))
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("Tab: Screen • q: Quit"))
		return s.String()
	}

	leads, err := m.deps.Leads.List(m.ctx)
	if err != nil {
		return s.String() + fmt.Sprintf("Error: %v", err)
	}
	deals, err := m.deps.Deals.List(m.ctx)
	if err != nil {
		return s.String() + fmt.Sprintf("Error: %v", err)
	}

	s.WriteString(viz.RenderDashboard(viz.BuildDashboard(leads, deals, m.board.Tasks(), m.deps.Now())))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Tab: Screen • q: Quit"))
	return s.String()
}
