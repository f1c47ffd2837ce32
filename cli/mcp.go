// ABOUTME: MCP server subcommand
// ABOUTME: Registers calendar, board and pipeline tools, resources and prompts on stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/manvote/crmdesk/handlers"
	"github.com/manvote/crmdesk/logging"
)

// NewMCPServer builds the server with every tool, resource and prompt registered.
func NewMCPServer(app *App, version string) *mcp.Server {
	eventHandlers := handlers.NewEventHandlers(app.Events, app.Notifier)
	taskHandlers := handlers.NewTaskHandlers(app.Tasks, app.Now)
	pipelineHandlers := handlers.NewPipelineHandlers(app.Leads, app.Deals, app.Tasks, app.Now)
	queryHandlers := handlers.NewQueryHandlers(app.Events, app.Tasks, app.Leads, app.Deals)
	vizHandlers := handlers.NewVizHandlers(app.Leads, app.Deals)
	resourceHandlers := handlers.NewResourceHandlers(app.Events, app.Tasks, app.Leads, app.Deals, app.Now)
	promptHandlers := handlers.NewPromptHandlers(app.Events, app.Tasks, app.Deals, app.Now)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crmdesk",
		Version: version,
	}, nil)

	// Calendar
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_events",
		Description: "List calendar events for a day or an inclusive date range, optionally filtered by category",
	}, eventHandlers.ListEvents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_event",
		Description: "Schedule an event on the hourly grid (07:00-21:00)",
	}, eventHandlers.CreateEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_event",
		Description: "Update fields of an existing event; unknown ids are ignored",
	}, eventHandlers.UpdateEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_event",
		Description: "Delete an event by id",
	}, eventHandlers.DeleteEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_slot",
		Description: "Show which event occupies a date and hour cell",
	}, eventHandlers.ResolveSlot)

	// Task board
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks under a board tab (Tasks, To Do, Overdue, Ongoing, Completed) with optional search",
	}, taskHandlers.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_task",
		Description: "Create a task on the board",
	}, taskHandlers.CreateTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_task",
		Description: "Move a task to another stage",
	}, taskHandlers.MoveTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task_comment",
		Description: "Add a comment to a task's activity",
	}, taskHandlers.AddTaskComment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "task_stats",
		Description: "Count tasks by priority and stage, including overdue",
	}, taskHandlers.TaskStats)

	// Pipeline
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_leads",
		Description: "List leads, optionally by status",
	}, pipelineHandlers.ListLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_lead",
		Description: "Add a new lead",
	}, pipelineHandlers.CreateLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deals",
		Description: "List deals, optionally by stage",
	}, pipelineHandlers.ListDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update a deal's stage, amount or close date",
	}, pipelineHandlers.UpdateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard",
		Description: "Pipeline analytics: funnel, conversion rate, revenue forecast and task counters",
	}, pipelineHandlers.Dashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_crm",
		Description: "Universal query tool across events, tasks, leads and deals",
	}, queryHandlers.QueryCRM)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_graph",
		Description: "Graphviz DOT source for the lead-to-deal pipeline",
	}, vizHandlers.PipelineGraph)

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	for _, t := range resourceHandlers.Templates() {
		server.AddResourceTemplate(t, resourceHandlers.ReadResource)
	}
	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}

// MCPCommand starts the MCP server on stdio.
func MCPCommand(ctx context.Context, app *App, version string) error {
	logging.For("mcp").Info("Starting crmdesk MCP server")
	return NewMCPServer(app, version).Run(ctx, &mcp.StdioTransport{})
}
