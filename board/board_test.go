package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errWriteFailed = errors.New("write failed")

// flakyRepo fails Update on demand.
type flakyRepo struct {
	*store.TaskStore
	failUpdate bool
}

func (r *flakyRepo) Update(ctx context.Context, t models.Task) error {
	if r.failUpdate {
		return errWriteFailed
	}
	return r.TaskStore.Update(ctx, t)
}

func today() time.Time {
	return time.Date(2025, 11, 26, 9, 0, 0, 0, time.UTC)
}

func newRepo(t *testing.T) *flakyRepo {
	t.Helper()
	mem, err := db.OpenInMemoryBadger()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	return &flakyRepo{TaskStore: store.NewTaskStore(mem, broadcast.New(), store.WithClock(today))}
}

func newBoard(t *testing.T) (*Controller, *flakyRepo, *notify.Recorder) {
	t.Helper()
	repo := newRepo(t)
	rec := &notify.Recorder{}
	c := NewController(repo, rec, WithNow(today))
	require.NoError(t, c.Refresh(context.Background()))
	return c, repo, rec
}

func TestStats(t *testing.T) {
	c, _, _ := newBoard(t)
	assert.Equal(t, Stats{
		Total: 4, Low: 1, Medium: 1, High: 1,
		NotCompleted: 3, Overdue: 2,
		Todo: 1, Ongoing: 2, Completed: 1,
	}, c.Stats())
}

func TestOverdueExcludesDoneAndUndated(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", Stage: models.StageDone, DueDate: "2025-01-01"},
		{ID: "b", Stage: models.StageTodo},
		{ID: "c", Stage: models.StageReview, DueDate: "2025-11-25"},
		{ID: "d", Stage: models.StageTodo, DueDate: "2025-11-26"},
	}
	assert.Equal(t, 1, ComputeStats(tasks, today()).Overdue)

	got := Filter{Tab: TabOverdue}.Apply(tasks, today())
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestFilterPipeline(t *testing.T) {
	c, _, _ := newBoard(t)

	c.SetTab(TabOngoing)
	assert.Len(t, c.Visible(), 2)

	c.SetSearch("GLOBEX")
	visible := c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Fix Navigation Bug", visible[0].Title)

	c.SetFilterStatus("Medium")
	assert.Empty(t, c.Visible(), "status filter runs after tab and search")

	c.SetFilterStatus("Review")
	assert.Len(t, c.Visible(), 1, "status matches stage as well as priority")

	c.SetTab(TabTasks)
	c.SetSearch("internal")
	c.SetFilterStatus("")
	assert.Equal(t, FilterAll, c.Filter().Status)
	assert.Len(t, c.Visible(), 2)
}

func TestColumnsInStageOrder(t *testing.T) {
	c, _, _ := newBoard(t)
	cols := c.Columns()
	require.Len(t, cols, 4)
	for i, stage := range models.Stages {
		assert.Equal(t, stage, cols[i].Stage)
		assert.Len(t, cols[i].Tasks, 1)
	}
}

func TestMovePersists(t *testing.T) {
	ctx := context.Background()
	c, repo, rec := newBoard(t)

	require.NoError(t, c.Move(ctx, "1", models.StageInProgress))
	assert.Equal(t, 3, c.Stats().Ongoing)

	stored, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.StageInProgress, stored.Stage)
	assert.Empty(t, rec.Items)
}

func TestMoveRevertsOnFailure(t *testing.T) {
	ctx := context.Background()
	c, repo, rec := newBoard(t)
	before := c.Tasks()

	repo.failUpdate = true
	err := c.Move(ctx, "1", models.StageDone)
	assert.ErrorIs(t, err, errWriteFailed)
	assert.Equal(t, before, c.Tasks(), "snapshot restored")

	stored, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.StageTodo, stored.Stage, "store unchanged")

	require.Len(t, rec.Items, 1)
	assert.Equal(t, models.NotifyError, rec.Items[0].Type)
}

func TestMoveOfTaskRemovedElsewhereResyncs(t *testing.T) {
	ctx := context.Background()
	c, repo, rec := newBoard(t)

	// Another handle deletes the task after this board loaded it.
	require.NoError(t, repo.Remove(ctx, "1"))

	err := c.Move(ctx, "1", models.StageDone)
	assert.ErrorIs(t, err, store.ErrNotFound)

	for _, task := range c.Tasks() {
		assert.NotEqual(t, "1", task.ID, "removed task dropped from the board")
	}
	assert.Len(t, c.Tasks(), 3)

	_, err = repo.Get(ctx, "1")
	assert.ErrorIs(t, err, store.ErrNotFound, "move did not resurrect the task")

	require.Len(t, rec.Items, 1)
	assert.Equal(t, "Move Failed", rec.Items[0].Title)
	assert.Equal(t, models.NotifyError, rec.Items[0].Type)
}

func TestMoveRejectsUnknownStageAndTask(t *testing.T) {
	c, _, _ := newBoard(t)
	assert.ErrorIs(t, c.Move(context.Background(), "1", "Blocked"), store.ErrInvalid)
	assert.ErrorIs(t, c.Move(context.Background(), "nope", models.StageDone), store.ErrNotFound)
}

func TestTabNextWraps(t *testing.T) {
	assert.Equal(t, TabTodo, TabTasks.Next())
	assert.Equal(t, TabTasks, TabCompleted.Next())

	tab, ok := ParseTab("overdue")
	assert.True(t, ok)
	assert.Equal(t, TabOverdue, tab)
}
