// ABOUTME: Task board MCP tool handlers
// ABOUTME: Implements list_tasks, create_task, move_task, add_task_comment and task_stats
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type TaskHandlers struct {
	tasks store.TaskRepository
	now   func() time.Time
}

func NewTaskHandlers(tasks store.TaskRepository, now func() time.Time) *TaskHandlers {
	if now == nil {
		now = time.Now
	}
	return &TaskHandlers{tasks: tasks, now: now}
}

type ListTasksInput struct {
	Tab    string `json:"tab,omitempty" jsonschema:"Board tab: Tasks, To Do, Overdue, Ongoing or Completed (default Tasks)"`
	Search string `json:"search,omitempty" jsonschema:"Case-insensitive text matched against title, description and client"`
	Status string `json:"status,omitempty" jsonschema:"Priority or stage name to filter by (default All)"`
}

type TaskListOutput struct {
	Tasks []models.Task `json:"tasks"`
	Count int           `json:"count"`
}

func (h *TaskHandlers) ListTasks(ctx context.Context, _ *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, TaskListOutput, error) {
	tab := board.TabTasks
	if input.Tab != "" {
		var ok bool
		if tab, ok = board.ParseTab(input.Tab); !ok {
			return nil, TaskListOutput{}, fmt.Errorf("invalid tab: %s", input.Tab)
		}
	}

	all, err := h.tasks.List(ctx)
	if err != nil {
		return nil, TaskListOutput{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	filter := board.Filter{Tab: tab, Search: input.Search, Status: input.Status}
	tasks := filter.Apply(all, h.now())
	return nil, TaskListOutput{Tasks: tasks, Count: len(tasks)}, nil
}

type CreateTaskInput struct {
	Title    string   `json:"title" jsonschema:"Task title (required)"`
	Desc     string   `json:"desc,omitempty" jsonschema:"Task description"`
	Client   string   `json:"client,omitempty" jsonschema:"Client name"`
	Priority string   `json:"priority,omitempty" jsonschema:"Priority: Low, Medium, High or Critical (default Medium)"`
	Stage    string   `json:"stage,omitempty" jsonschema:"Stage: To Do, In Progress, Review or Done (default To Do)"`
	DueDate  string   `json:"due_date,omitempty" jsonschema:"Due date in YYYY-MM-DD format"`
	Assignee []string `json:"assignee,omitempty" jsonschema:"Assignee initials"`
}

func (h *TaskHandlers) CreateTask(ctx context.Context, _ *mcp.CallToolRequest, input CreateTaskInput) (*mcp.CallToolResult, models.Task, error) {
	priority := models.PriorityMedium
	if input.Priority != "" {
		var ok bool
		if priority, ok = models.ParsePriority(input.Priority); !ok {
			return nil, models.Task{}, fmt.Errorf("invalid priority: %s (valid: Low, Medium, High, Critical)", input.Priority)
		}
	}
	stage := models.StageTodo
	if input.Stage != "" {
		var ok bool
		if stage, ok = models.ParseStage(input.Stage); !ok {
			return nil, models.Task{}, fmt.Errorf("invalid stage: %s (valid: To Do, In Progress, Review, Done)", input.Stage)
		}
	}

	form := models.Task{
		Title:    input.Title,
		Desc:     input.Desc,
		Client:   input.Client,
		Priority: priority,
		Stage:    stage,
		DueDate:  input.DueDate,
	}
	for _, initials := range input.Assignee {
		initials = strings.ToUpper(strings.TrimSpace(initials))
		if initials != "" {
			form.Assignee = append(form.Assignee, models.Assignee{Initials: initials, Color: "bg-blue-500"})
		}
	}

	created, err := board.SaveTask(ctx, h.tasks, form)
	if err != nil {
		return nil, models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return nil, created, nil
}

type MoveTaskInput struct {
	ID    string `json:"id" jsonschema:"Task ID (required)"`
	Stage string `json:"stage" jsonschema:"Target stage: To Do, In Progress, Review or Done (required)"`
}

func (h *TaskHandlers) MoveTask(ctx context.Context, _ *mcp.CallToolRequest, input MoveTaskInput) (*mcp.CallToolResult, models.Task, error) {
	stage, ok := models.ParseStage(input.Stage)
	if !ok {
		return nil, models.Task{}, fmt.Errorf("invalid stage: %s (valid: To Do, In Progress, Review, Done)", input.Stage)
	}
	moved, err := board.MoveTask(ctx, h.tasks, input.ID, stage)
	if err != nil {
		return nil, models.Task{}, fmt.Errorf("failed to move task: %w", err)
	}
	return nil, moved, nil
}

type AddTaskCommentInput struct {
	ID   string `json:"id" jsonschema:"Task ID (required)"`
	Text string `json:"text" jsonschema:"Comment text (required)"`
}

func (h *TaskHandlers) AddTaskComment(ctx context.Context, _ *mcp.CallToolRequest, input AddTaskCommentInput) (*mcp.CallToolResult, models.Comment, error) {
	c, err := board.AddComment(ctx, h.tasks, input.ID, input.Text, h.now())
	if err != nil {
		return nil, models.Comment{}, fmt.Errorf("failed to add comment: %w", err)
	}
	return nil, c, nil
}

type TaskStatsInput struct{}

func (h *TaskHandlers) TaskStats(ctx context.Context, _ *mcp.CallToolRequest, _ TaskStatsInput) (*mcp.CallToolResult, board.Stats, error) {
	all, err := h.tasks.List(ctx)
	if err != nil {
		return nil, board.Stats{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	return nil, board.ComputeStats(all, h.now()), nil
}
