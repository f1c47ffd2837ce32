// ABOUTME: Task board CLI commands
// ABOUTME: List by tab, create, move between stages, comment, attach files and print counters
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/models"
)

// ListTasksCommand prints the tasks visible under a tab, search and status filter.
func ListTasksCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tasks", flag.ContinueOnError)
	tab := fs.String("tab", "Tasks", "Tasks, To Do, Overdue, Ongoing or Completed")
	search := fs.String("search", "", "Match title, description or client")
	status := fs.String("status", "", "Exact stage filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, ok := board.ParseTab(*tab)
	if !ok {
		return fmt.Errorf("unknown tab %q", *tab)
	}

	all, err := app.Tasks.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := board.Filter{Tab: t, Search: *search, Status: *status}.Apply(all, app.Now())

	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(out, "No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tCLIENT\tPRIORITY\tSTAGE\tDUE\tID")
	_, _ = fmt.Fprintln(w, "-----\t------\t--------\t-----\t---\t--")
	for _, task := range tasks {
		due := task.DueDate
		if task.IsOverdue(app.Now()) {
			due += " (overdue)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			task.Title, task.Client, task.Priority, task.Stage, due, task.ID)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nTotal: %d task(s)\n", len(tasks))
	return nil
}

// AddTaskCommand creates a task through the board's form save path.
func AddTaskCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-task", flag.ContinueOnError)
	title := fs.String("title", "", "Task title (required)")
	desc := fs.String("desc", "", "Description")
	client := fs.String("client", "", "Client name")
	priority := fs.String("priority", string(models.PriorityMedium), "Low, Medium, High or Critical")
	stage := fs.String("stage", string(models.StageTodo), "To Do, In Progress, Review or Done")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	assignees := fs.String("assignee", "", "Comma separated assignee initials")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *title == "" {
		return fmt.Errorf("--title is required")
	}
	p, ok := models.ParsePriority(*priority)
	if !ok {
		return fmt.Errorf("invalid priority: %s (valid: Low, Medium, High, Critical)", *priority)
	}
	s, ok := models.ParseStage(*stage)
	if !ok {
		return fmt.Errorf("invalid stage: %s (valid: To Do, In Progress, Review, Done)", *stage)
	}

	form := models.Task{
		Title:    *title,
		Desc:     *desc,
		Client:   *client,
		Priority: p,
		Stage:    s,
		DueDate:  *due,
	}
	for _, initials := range strings.Split(*assignees, ",") {
		if initials = strings.ToUpper(strings.TrimSpace(initials)); initials != "" {
			form.Assignee = append(form.Assignee, models.Assignee{Initials: initials, Color: "bg-blue-500"})
		}
	}

	task, err := board.SaveTask(ctx, app.Tasks, form)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ Task created: %s (ID: %s)\n", task.Title, task.ID)
	_, _ = fmt.Fprintf(out, "  Priority: %s\n", task.Priority)
	_, _ = fmt.Fprintf(out, "  Stage: %s\n", task.Stage)
	return nil
}

// MoveTaskCommand moves a task to another stage.
func MoveTaskCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("move-task", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: move-task <id> <stage>")
	}

	stage, ok := models.ParseStage(fs.Arg(1))
	if !ok {
		return fmt.Errorf("invalid stage: %s (valid: To Do, In Progress, Review, Done)", fs.Arg(1))
	}
	task, err := board.MoveTask(ctx, app.Tasks, fs.Arg(0), stage)
	if err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Moved %s to %s\n", task.Title, task.Stage)
	return nil
}

// CommentCommand adds a comment to a task.
func CommentCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("comment", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: comment <id> <text>")
	}

	c, err := board.AddComment(ctx, app.Tasks, fs.Arg(0), strings.Join(fs.Args()[1:], " "), app.Now())
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Comment added (%s, %s)\n", c.Author, c.Date)
	return nil
}

// AttachCommand attaches a local file to a task.
func AttachCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("attach", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: attach <id> <file>")
	}

	path := fs.Arg(1)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.Size() > board.MaxAttachmentBytes {
		return board.ErrAttachmentTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	a, err := board.AddAttachment(ctx, app.Tasks, fs.Arg(0), board.Upload{
		Name: filepath.Base(path),
		Type: mime.TypeByExtension(filepath.Ext(path)),
		Data: data,
	}, app.Now())
	if err != nil {
		return fmt.Errorf("failed to attach file: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Attached %s (%s)\n", a.Name, a.Size)
	return nil
}

// TaskStatsCommand prints the board counters.
func TaskStatsCommand(ctx context.Context, app *App, _ []string, out io.Writer) error {
	all, err := app.Tasks.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	s := board.ComputeStats(all, app.Now())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "To Do:\t%d\n", s.Todo)
	_, _ = fmt.Fprintf(w, "Ongoing:\t%d\n", s.Ongoing)
	_, _ = fmt.Fprintf(w, "Completed:\t%d\n", s.Completed)
	_, _ = fmt.Fprintf(w, "Overdue:\t%d\n", s.Overdue)
	_, _ = fmt.Fprintf(w, "Not completed:\t%d\n", s.NotCompleted)
	_, _ = fmt.Fprintf(w, "Low / Medium / High:\t%d / %d / %d\n", s.Low, s.Medium, s.High)
	return w.Flush()
}
