// ABOUTME: Entry point for the crmdesk server, terminal UI, MCP server and CLI
// ABOUTME: Loads config, sets up logging and routes to the subcommand named in the arguments
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/manvote/crmdesk/charm"
	"github.com/manvote/crmdesk/cli"
	"github.com/manvote/crmdesk/config"
	"github.com/manvote/crmdesk/logging"
)

const version = "0.2.0"

type command func(ctx context.Context, app *cli.App, args []string, out io.Writer) error

var crmCommands = map[string]command{
	"events":       cli.ListEventsCommand,
	"add-event":    cli.AddEventCommand,
	"delete-event": cli.DeleteEventCommand,
	"slot":         cli.SlotCommand,
	"tasks":        cli.ListTasksCommand,
	"add-task":     cli.AddTaskCommand,
	"move-task":    cli.MoveTaskCommand,
	"comment":      cli.CommentCommand,
	"attach":       cli.AttachCommand,
	"stats":        cli.TaskStatsCommand,
	"leads":        cli.ListLeadsCommand,
	"add-lead":     cli.AddLeadCommand,
	"deals":        cli.ListDealsCommand,
	"add-deal":     cli.AddDealCommand,
	"dashboard":    cli.DashboardCommand,
	"user-add":     cli.UserAddCommand,
}

var icsCommands = map[string]command{
	"export": cli.ICSExportCommand,
	"import": cli.ICSImportCommand,
}

// Charm commands only touch the charm link, never the configured stores.
var charmCommands = map[string]func([]string, io.Writer) error{
	"link": charm.LinkCommand,
	"now":  charm.NowCommand,
	"auto": charm.AutoCommand,
	"wipe": charm.WipeCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", config.DefaultPath(), "Config file path")
	dbPath := flag.String("db-path", "", "Storage path (overrides storage.path)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("crmdesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}
	name, rest := args[0], args[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(fmt.Errorf("failed to load config: %w", err))
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	// The TUI owns the terminal and MCP owns stdout, so their logs only go to a file.
	interactive := name == "tui" || name == "mcp"
	logging.Init(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		Quiet: interactive && cfg.Log.File == "",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if name == "sync" && len(rest) > 0 {
		if fn, ok := charmCommands[rest[0]]; ok {
			exit(fn(rest[1:], os.Stdout))
		}
	}

	app, err := cli.Open(ctx, cfg)
	if err != nil {
		fatal(fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err))
	}
	err = run(ctx, app, name, rest)
	_ = app.Close()
	exit(err)
}

func run(ctx context.Context, app *cli.App, name string, args []string) error {
	switch name {
	case "serve":
		return cli.ServeCommand(ctx, app, args)

	case "tui":
		return cli.TUICommand(ctx, app)

	case "mcp":
		return cli.MCPCommand(ctx, app, version)

	case "crm":
		return dispatch(ctx, app, "crm", crmCommands, args)

	case "ics":
		return dispatch(ctx, app, "ics", icsCommands, args)

	case "viz":
		if len(args) == 0 || args[0] != "pipeline" {
			return usageError("viz requires a subcommand: pipeline")
		}
		return cli.VizPipelineCommand(ctx, app, args[1:], os.Stdout)

	case "sync":
		if len(args) == 0 {
			return usageError("sync requires a subcommand")
		}
		switch args[0] {
		case "google":
			return cli.SyncGoogleCommand(ctx, app, args[1:], os.Stdin, os.Stdout)
		case "status":
			return cli.SyncStatusCommand(ctx, app, args[1:], os.Stdout)
		}
		return usageError(fmt.Sprintf("unknown sync command: %s", args[0]))

	default:
		return usageError(fmt.Sprintf("unknown command: %s", name))
	}
}

func dispatch(ctx context.Context, app *cli.App, group string, commands map[string]command, args []string) error {
	if len(args) == 0 {
		return usageError(fmt.Sprintf("%s requires a subcommand", group))
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return usageError(fmt.Sprintf("unknown %s command: %s", group, args[0]))
	}
	return cmd(ctx, app, args[1:], os.Stdout)
}

type usageErr string

func (e usageErr) Error() string { return string(e) }

func usageError(msg string) error { return usageErr(msg) }

func exit(err error) {
	if err == nil {
		os.Exit(0)
	}
	var ue usageErr
	if errors.As(err, &ue) {
		fmt.Printf("Error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fatal(err)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf(`crmdesk v%s - calendar, task board and sales pipeline

USAGE:
  crmdesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: %s)
  --db-path <path>       Storage path, overrides storage.path

COMMANDS:
  serve                  REST API, change stream and reminders
  tui                    Interactive calendar, board and dashboard
  mcp                    Start MCP server on stdio
  crm                    Calendar, task and pipeline commands
  viz                    Visualization commands
  ics                    iCalendar import and export
  sync                   Google Calendar import and charm sync

SERVER:
  crmdesk serve [--listen addr]

CALENDAR:
  crmdesk crm events          List events (default: this week)
    --date <YYYY-MM-DD>         Single day
    --from/--to <YYYY-MM-DD>    Inclusive range
    --category <name>           all, events, meetings or reminders

  crmdesk crm add-event       Schedule an event
    --title <title>             Event title (required)
    --date <YYYY-MM-DD>         Day (default: today)
    --start <HH:00>             Start hour, 07:00-21:00 (required)
    --type <type>               meeting, event or reminder
    --duration <label>          Duration (default: 60 min)
    --attendees <names>         Comma separated attendees

  crmdesk crm delete-event <id>
  crmdesk crm slot --hour <7-21> [--date d] [--category c]

TASK BOARD:
  crmdesk crm tasks           List tasks
    --tab <tab>                 Tasks, To Do, Overdue, Ongoing or Completed
    --search <text>             Match title, description or client
    --status <value>            Exact priority or stage

  crmdesk crm add-task        Create a task
    --title <title>             Task title (required)
    --client <name>             Client name
    --priority <p>              Low, Medium, High or Critical
    --stage <s>                 To Do, In Progress, Review or Done
    --due <YYYY-MM-DD>          Due date
    --assignee <initials>       Comma separated initials

  crmdesk crm move-task <id> <stage>
  crmdesk crm comment <id> <text>
  crmdesk crm attach <id> <file>    Files up to 2MB
  crmdesk crm stats

PIPELINE:
  crmdesk crm leads [--status s]
  crmdesk crm add-lead --name <name> [--company c] [--value n]
  crmdesk crm deals [--stage s]
  crmdesk crm add-deal --title <title> [--client c] [--amount n] [--stage s]
  crmdesk crm dashboard
  crmdesk crm user-add --username <u> --password <p> [--role Admin|Manager|Sales]

VIZ:
  crmdesk viz pipeline [--output file] [--client name]

ICS:
  crmdesk ics export [--output file]
  crmdesk ics import [--days n] <file.ics>

SYNC:
  crmdesk sync google [--days n] [--reauth]   Import Google Calendar events
  crmdesk sync link                           Link this device to charm
  crmdesk sync status                         Charm link and last Google import
  crmdesk sync now                            Push and pull charm data
  crmdesk sync auto --enable|--disable        Toggle charm auto-sync
  crmdesk sync wipe --confirm                 Reset local charm data

EXAMPLES:
  # Add a meeting tomorrow at 2pm
  crmdesk crm add-event --title "Design review" --date 2025-06-11 --start 14:00

  # Overdue tasks for Acme
  crmdesk crm tasks --tab Overdue --search acme

  # Serve the API with the sqlite backend
  crmdesk serve --listen :8080

`, version, config.DefaultPath())
}
