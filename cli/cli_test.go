package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manvote/crmdesk/auth"
	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/config"
	"github.com/manvote/crmdesk/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendBadger
	cfg.Storage.Path = filepath.Join(t.TempDir(), "badger")
	cfg.Timezone = "UTC"
	cfg.Server.JWTSecret = "test-secret"
	cfg.Normalize()

	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func run(t *testing.T, app *App, cmd func(context.Context, *App, []string, io.Writer) error, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, cmd(context.Background(), app, args, &out))
	return out.String()
}

func TestEventCommands(t *testing.T) {
	app := newTestApp(t)
	today := app.Now().Format(models.DateLayout)

	out := run(t, app, AddEventCommand, "--title", "Standup", "--date", "2030-01-07", "--start", "09:00")
	assert.Contains(t, out, "✓ Event created: Standup")
	assert.Contains(t, out, "2030-01-07 09:00-10:00")

	out = run(t, app, ListEventsCommand, "--date", "2030-01-07")
	assert.Contains(t, out, "Standup")
	assert.Contains(t, out, "Total: 1 event(s)")

	out = run(t, app, ListEventsCommand, "--date", today, "--category", "meetings")
	assert.Contains(t, out, "Client Meeting")
	assert.NotContains(t, out, "Team Sync")

	out = run(t, app, SlotCommand, "--date", "2030-01-07", "--hour", "9")
	assert.Contains(t, out, "Standup (meeting)")
	out = run(t, app, SlotCommand, "--date", "2030-01-07", "--hour", "10")
	assert.Contains(t, out, "is free")

	err := SlotCommand(context.Background(), app, []string{"--hour", "22"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, calendar.ErrInvalidSlot)

	events, err := app.Events.List(context.Background())
	require.NoError(t, err)
	standup := events[len(events)-1]
	out = run(t, app, DeleteEventCommand, standup.ID)
	assert.Contains(t, out, "✓ Deleted event: Standup")
	out = run(t, app, DeleteEventCommand, standup.ID)
	assert.Contains(t, out, "No event with ID")

	notes, err := app.Feed.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Event Deleted", notes[0].Title)
}

func TestAddEventValidation(t *testing.T) {
	app := newTestApp(t)
	err := AddEventCommand(context.Background(), app, []string{"--title", "Late", "--start", "23:00"}, &bytes.Buffer{})
	assert.Error(t, err)
	err = AddEventCommand(context.Background(), app, []string{"--start", "09:00"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestTaskCommands(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	out := run(t, app, AddTaskCommand, "--title", "Write proposal", "--client", "Initech", "--priority", "high", "--assignee", "ab, cd")
	assert.Contains(t, out, "✓ Task created: Write proposal")
	assert.Contains(t, out, "Priority: High")

	tasks, err := app.Tasks.List(ctx)
	require.NoError(t, err)
	created := tasks[0]
	assert.Equal(t, "Write proposal", created.Title)
	require.Len(t, created.Assignee, 2)
	assert.Equal(t, "AB", created.Assignee[0].Initials)
	assert.Equal(t, models.PriorityColor(models.PriorityHigh), created.PriorityColor)

	out = run(t, app, MoveTaskCommand, created.ID, "in-progress")
	assert.Contains(t, out, "to In Progress")

	out = run(t, app, CommentCommand, created.ID, "Sent", "draft")
	assert.Contains(t, out, "✓ Comment added")
	got, err := app.Tasks.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sent draft", got.Activity.CommentsList[0].Text)

	out = run(t, app, ListTasksCommand, "--tab", "ongoing", "--search", "initech")
	assert.Contains(t, out, "Write proposal")
	assert.Contains(t, out, "Total: 1 task(s)")

	out = run(t, app, TaskStatsCommand)
	assert.Contains(t, out, "Total:")
	assert.Contains(t, out, "5")

	assert.Error(t, MoveTaskCommand(ctx, app, []string{created.ID, "someday"}, &bytes.Buffer{}))
	assert.Error(t, AddTaskCommand(ctx, app, []string{"--title", "x", "--priority", "urgent"}, &bytes.Buffer{}))
}

func TestAttachCommand(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	dir := t.TempDir()

	small := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(small, bytes.Repeat([]byte("a"), 1024), 0600))
	out := run(t, app, AttachCommand, "1", small)
	assert.Contains(t, out, "✓ Attached notes.txt (1.0 KB)")

	big := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(big, make([]byte, board.MaxAttachmentBytes+1), 0600))
	err := AttachCommand(ctx, app, []string{"1", big}, &bytes.Buffer{})
	assert.ErrorIs(t, err, board.ErrAttachmentTooLarge)

	task, err := app.Tasks.Get(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, task.Activity.AttachmentsList, 1)
}

func TestPipelineCommands(t *testing.T) {
	app := newTestApp(t)

	out := run(t, app, AddLeadCommand, "--name", "Dana Scully", "--company", "FBI", "--value", "1200")
	assert.Contains(t, out, "✓ Lead created: Dana Scully")

	out = run(t, app, ListLeadsCommand, "--status", "New")
	assert.Contains(t, out, "Dana Scully")

	out = run(t, app, AddDealCommand, "--title", "Field Kit", "--client", "FBI", "--amount", "2500", "--stage", "Proposal")
	assert.Contains(t, out, "✓ Deal created: Field Kit")

	out = run(t, app, ListDealsCommand, "--stage", "Won")
	assert.Contains(t, out, "Total: 1 deal(s) - $32000.00")

	out = run(t, app, DashboardCommand)
	assert.Contains(t, out, "CRMDESK DASHBOARD")
	assert.Contains(t, out, "Conversion rate: 50%")

	assert.Error(t, ListLeadsCommand(context.Background(), app, []string{"--status", "Warm"}, &bytes.Buffer{}))
}

func TestVizPipelineCommand(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "pipeline.dot")

	run(t, app, VizPipelineCommand, "--output", path)
	dot, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(dot), "digraph"))
}

func TestICSRoundTrip(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "calendar.ics")

	out := run(t, app, ICSExportCommand, "--output", path)
	assert.Contains(t, out, "✓ Exported 3 event(s)")

	out = run(t, app, ICSImportCommand, path)
	assert.Contains(t, out, "✓ Imported 0 event(s)")
	assert.Contains(t, out, "Skipped 3 already on the calendar")
}

func TestUserAddCommand(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	out := run(t, app, UserAddCommand, "--username", "ana", "--password", "pw", "--role", "manager")
	assert.Contains(t, out, "✓ User created: ana (Manager)")

	u, err := app.Users.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", u.PasswordHash)

	assert.Error(t, UserAddCommand(ctx, app, []string{"--username", "bo"}, &bytes.Buffer{}))
}

func TestServeRefusesEmptyJWTSecret(t *testing.T) {
	app := newTestApp(t)
	app.Config.Server.JWTSecret = ""

	err := ServeCommand(context.Background(), app, []string{"--listen", "127.0.0.1:0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrEmptySecret)

	// Accounts can still be created before a secret is configured.
	out := run(t, app, UserAddCommand, "--username", "ops", "--password", "pw", "--role", "admin")
	assert.Contains(t, out, "✓ User created: ops (Admin)")
}

func TestMCPServerRegistersEverything(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	server := NewMCPServer(app, "test")
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.Len(t, names, 17)
	assert.Contains(t, names, "resolve_slot")
	assert.Contains(t, names, "pipeline_graph")

	prompts, err := cs.ListPrompts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, prompts.Prompts, 3)

	resources, err := cs.ListResources(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, resources.Resources, 5)
}

func TestRemoteBackendNeedsURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendRemote
	cfg.Normalize()

	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Remote.BaseURL = "http://127.0.0.1:1"
	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, app.Users)
	assert.Error(t, UserAddCommand(context.Background(), app, []string{"--username", "a", "--password", "b"}, &bytes.Buffer{}))
}
