// ABOUTME: Lead and deal CLI commands
// ABOUTME: Human-friendly commands for the sales pipeline and the analytics dashboard
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/viz"
)

// ListLeadsCommand lists leads, optionally by status.
func ListLeadsCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("leads", flag.ContinueOnError)
	status := fs.String("status", "", "New, Opened, Interested or Rejected")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *status != "" && !models.LeadStatus(*status).Valid() {
		return fmt.Errorf("invalid status: %s (valid: New, Opened, Interested, Rejected)", *status)
	}

	all, err := app.Leads.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCOMPANY\tSTATUS\tVALUE\tID")
	_, _ = fmt.Fprintln(w, "----\t-------\t------\t-----\t--")
	count := 0
	for _, l := range all {
		if *status != "" && string(l.Status) != *status {
			continue
		}
		count++
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%s\n", l.Name, l.Company, l.Status, l.Value, l.ID)
	}
	if count == 0 {
		_, _ = fmt.Fprintln(out, "No leads found")
		return nil
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nTotal: %d lead(s)\n", count)
	return nil
}

// AddLeadCommand creates a lead.
func AddLeadCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-lead", flag.ContinueOnError)
	name := fs.String("name", "", "Lead name (required)")
	company := fs.String("company", "", "Company name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	status := fs.String("status", string(models.LeadNew), "New, Opened, Interested or Rejected")
	source := fs.String("source", "", "Where the lead came from")
	value := fs.Float64("value", 0, "Estimated value")
	owner := fs.String("owner", "", "Owning user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	l, err := app.Leads.Create(ctx, models.Lead{
		Name:    *name,
		Company: *company,
		Email:   *email,
		Phone:   *phone,
		Status:  models.LeadStatus(*status),
		Source:  *source,
		Value:   *value,
		Owner:   *owner,
	})
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Lead created: %s (ID: %s)\n", l.Name, l.ID)
	_, _ = fmt.Fprintf(out, "  Status: %s\n", l.Status)
	return nil
}

// ListDealsCommand lists deals, optionally by stage, with the pipeline total.
func ListDealsCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("deals", flag.ContinueOnError)
	stage := fs.String("stage", "", "Qualification, Proposal, Negotiation, Won or Lost")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *stage != "" && !models.DealStage(*stage).Valid() {
		return fmt.Errorf("invalid stage: %s (valid: Qualification, Proposal, Negotiation, Won, Lost)", *stage)
	}

	all, err := app.Deals.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list deals: %w", err)
	}

	var deals []models.Deal
	var total float64
	for _, d := range all {
		if *stage == "" || string(d.Stage) == *stage {
			deals = append(deals, d)
			total += d.Amount
		}
	}
	if len(deals) == 0 {
		_, _ = fmt.Fprintln(out, "No deals found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tCLIENT\tAMOUNT\tSTAGE\tID")
	_, _ = fmt.Fprintln(w, "-----\t------\t------\t-----\t--")
	for _, d := range deals {
		_, _ = fmt.Fprintf(w, "%s\t%s\t$%.2f\t%s\t%s\n", d.Title, d.Client, d.Amount, d.Stage, d.ID)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nTotal: %d deal(s) - $%.2f\n", len(deals), total)
	return nil
}

// AddDealCommand creates a deal.
func AddDealCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-deal", flag.ContinueOnError)
	title := fs.String("title", "", "Deal title (required)")
	client := fs.String("client", "", "Client name")
	stage := fs.String("stage", string(models.DealQualification), "Qualification, Proposal, Negotiation, Won or Lost")
	amount := fs.Float64("amount", 0, "Deal amount")
	closeDate := fs.String("close-date", "", "Expected close date (YYYY-MM-DD)")
	owner := fs.String("owner", "", "Owning user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("--title is required")
	}

	d, err := app.Deals.Create(ctx, models.Deal{
		Title:     *title,
		Client:    *client,
		Stage:     models.DealStage(*stage),
		Amount:    *amount,
		CloseDate: *closeDate,
		Owner:     *owner,
	})
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Deal created: %s (ID: %s)\n", d.Title, d.ID)
	_, _ = fmt.Fprintf(out, "  Amount: $%.2f\n", d.Amount)
	_, _ = fmt.Fprintf(out, "  Stage: %s\n", d.Stage)
	return nil
}

// DashboardCommand prints the pipeline analytics.
func DashboardCommand(ctx context.Context, app *App, _ []string, out io.Writer) error {
	leads, err := app.Leads.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}
	deals, err := app.Deals.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list deals: %w", err)
	}
	tasks, err := app.Tasks.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	_, _ = fmt.Fprint(out, viz.RenderDashboard(viz.BuildDashboard(leads, deals, tasks, app.Now())))
	return nil
}
