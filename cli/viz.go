// ABOUTME: Visualization CLI commands
// ABOUTME: Writes the lead-to-deal pipeline graph as Graphviz DOT
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/viz"
)

// VizPipelineCommand generates the pipeline graph, optionally for one client.
func VizPipelineCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("viz pipeline", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	client := fs.String("client", "", "Only leads and deals for this client")
	if err := fs.Parse(args); err != nil {
		return err
	}

	leads, err := app.Leads.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}
	deals, err := app.Deals.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list deals: %w", err)
	}

	if *client != "" {
		var l []models.Lead
		for _, lead := range leads {
			if lead.Company == *client {
				l = append(l, lead)
			}
		}
		var d []models.Deal
		for _, deal := range deals {
			if deal.Client == *client {
				d = append(d, deal)
			}
		}
		leads, deals = l, d
	}

	dot, err := viz.GeneratePipelineGraph(ctx, leads, deals)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}
	_, _ = fmt.Fprintln(out, dot)
	return nil
}
