package taskservice

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/storage/storagetest"
	"github.com/ichigozero/todokit/tagsvc"
	"github.com/ichigozero/todokit/tasksvc"
	taskgorm "github.com/ichigozero/todokit/tasksvc/db/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = authsvc.Identity{UserID: 1, Email: "alice@x.com"}
	bob   = authsvc.Identity{UserID: 2, Email: "bob@x.com"}

	base = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newService(t *testing.T) (Service, tasksvc.Store, *clock) {
	store := taskgorm.NewStore(storagetest.New(t))
	c := &clock{now: base}
	return NewBasicService(store, WithClock(c.Now)), store, c
}

func mustTag(t *testing.T, store tasksvc.Store, a authsvc.Identity, name string) tagsvc.Tag {
	t.Helper()

	tag := tagsvc.Tag{Name: name, Color: tagsvc.DefaultColor, UserID: a.UserID}
	require.NoError(t, store.Tags().Create(context.Background(), &tag))
	return tag
}

func assertTime(t *testing.T, want, got time.Time) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "want %s, got %s", want, got)
}

func strptr(v string) *string { return &v }

func boolptr(v bool) *bool { return &v }

func timeptr(v time.Time) *time.Time { return &v }

func TestCreateTask(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	work := mustTag(t, store, alice, "work")
	home := mustTag(t, store, alice, "home")
	foreign := mustTag(t, store, bob, "bob's")

	local := time.FixedZone("UTC+9", 9*60*60)
	task, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{
		Title:       "Buy milk",
		Description: "two litres",
		DueDate:     timeptr(base.Add(24 * time.Hour).In(local)),
		TagIDs:      []uint64{work.ID, foreign.ID, 999, home.ID},
	})
	require.NoError(t, err)

	assert.NotZero(t, task.ID)
	assert.Equal(t, alice.UserID, task.UserID)
	assertTime(t, base, task.CreatedAt)
	assertTime(t, base, task.UpdatedAt)
	require.NotNil(t, task.DueDate)
	assertTime(t, base.Add(24*time.Hour), *task.DueDate)
	assert.Equal(t, time.UTC, task.DueDate.Location())
	assert.False(t, task.IsOverdue)

	// unresolvable and foreign tag ids are dropped
	require.Len(t, task.Tags, 2)
	assert.Equal(t, home.ID, task.Tags[0].ID)
	assert.Equal(t, work.ID, task.Tags[1].ID)
}

func TestCreateTaskWithoutTags(t *testing.T) {
	svc, _, _ := newService(t)

	task, err := svc.CreateTask(context.Background(), alice, tasksvc.NewTask{Title: "Buy milk"})
	require.NoError(t, err)
	assert.NotNil(t, task.Tags)
	assert.Empty(t, task.Tags)
	assert.Nil(t, task.DueDate)
}

func TestCreateTaskValidation(t *testing.T) {
	svc, store, _ := newService(t)

	tests := []struct {
		name string
		in   tasksvc.NewTask
	}{
		{"short title", tasksvc.NewTask{Title: "ab"}},
		{"long title", tasksvc.NewTask{Title: strings.Repeat("a", 101)}},
		{"due now", tasksvc.NewTask{Title: "Buy milk", DueDate: timeptr(base)}},
		{"due in the past", tasksvc.NewTask{Title: "Buy milk", DueDate: timeptr(base.Add(-time.Minute))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(context.Background(), alice, tt.in)
			assert.ErrorIs(t, err, tasksvc.ErrInvalidArgument)
		})
	}

	_, total, err := store.Tasks().Query(context.Background(), alice.UserID, tasksvc.Query{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestOwnershipIsolation(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	tag := mustTag(t, store, alice, "work")
	task, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{
		Title:   "Alice's task",
		DueDate: timeptr(base.Add(time.Hour)),
		TagIDs:  []uint64{tag.ID},
	})
	require.NoError(t, err)

	_, err = svc.Task(ctx, bob, task.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	_, err = svc.UpdateTask(ctx, bob, task.ID, tasksvc.Patch{Title: strptr("Mine now")})
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	_, err = svc.CompleteTask(ctx, bob, task.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	assert.ErrorIs(t, svc.DeleteTask(ctx, bob, task.ID), tasksvc.ErrTaskNotFound)

	page, err := svc.Tasks(ctx, bob, tasksvc.Query{Limit: 10, Filter: tasksvc.Filter{TagID: &tag.ID}})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)

	// bob cannot attach alice's tag to his own task
	own, err := svc.CreateTask(ctx, bob, tasksvc.NewTask{Title: "Bob's task", TagIDs: []uint64{tag.ID}})
	require.NoError(t, err)
	assert.Empty(t, own.Tags)

	n, err := svc.DeleteCompleted(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := svc.Task(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice's task", got.Title)
	assert.False(t, got.Done)
	assert.Len(t, got.Tags, 1)
}

func TestTasksPaging(t *testing.T) {
	svc, _, c := newService(t)
	ctx := context.Background()

	var created []uint64
	for _, title := range []string{"first", "second", "third", "fourth", "fifth"} {
		task, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: title})
		require.NoError(t, err)
		created = append(created, task.ID)
		c.Advance(time.Minute)
	}

	var seen []uint64
	for offset := 0; ; offset += 2 {
		page, err := svc.Tasks(ctx, alice, tasksvc.Query{Limit: 2, Offset: offset})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, 2, page.Limit)
		assert.Equal(t, offset, page.Offset)
		if len(page.Items) == 0 {
			break
		}
		for _, task := range page.Items {
			seen = append(seen, task.ID)
		}
	}
	assert.Equal(t, created, seen)

	page, err := svc.Tasks(ctx, alice, tasksvc.Query{Limit: 10, SortDesc: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	assert.Equal(t, created[4], page.Items[0].ID)
	assert.Equal(t, created[0], page.Items[4].ID)
}

func TestTasksQueryValidation(t *testing.T) {
	svc, _, _ := newService(t)

	tests := []struct {
		name string
		q    tasksvc.Query
	}{
		{"zero limit", tasksvc.Query{Limit: 0}},
		{"limit above max", tasksvc.Query{Limit: tasksvc.MaxLimit + 1}},
		{"negative offset", tasksvc.Query{Limit: 10, Offset: -1}},
		{"empty due window", tasksvc.Query{Limit: 10, Filter: tasksvc.Filter{
			DueFrom: timeptr(base.Add(time.Hour)),
			DueTo:   timeptr(base.Add(time.Hour)),
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Tasks(context.Background(), alice, tt.q)
			assert.ErrorIs(t, err, tasksvc.ErrInvalidArgument)
		})
	}

	_, err := svc.Tasks(context.Background(), alice, tasksvc.Query{Limit: tasksvc.MaxLimit})
	assert.NoError(t, err)
}

func TestPartialUpdate(t *testing.T) {
	svc, store, c := newService(t)
	ctx := context.Background()

	tag := mustTag(t, store, alice, "work")
	task, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{
		Title:       "Buy milk",
		Description: "two litres",
		DueDate:     timeptr(base.Add(48 * time.Hour)),
		TagIDs:      []uint64{tag.ID},
	})
	require.NoError(t, err)

	// the clock does not move: updated_at still has to advance
	updated, err := svc.UpdateTask(ctx, alice, task.ID, tasksvc.Patch{Done: boolptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Done)
	assert.Equal(t, task.Title, updated.Title)
	assert.Equal(t, task.Description, updated.Description)
	assertTime(t, *task.DueDate, *updated.DueDate)
	assert.Equal(t, task.Tags, updated.Tags)
	assertTime(t, task.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))

	c.Advance(time.Hour)
	again, err := svc.UpdateTask(ctx, alice, task.ID, tasksvc.Patch{Title: strptr("Buy oat milk"), TagIDs: &[]uint64{}})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", again.Title)
	assert.True(t, again.Done)
	assert.Empty(t, again.Tags)
	assertTime(t, base.Add(time.Hour), again.UpdatedAt)

	_, err = svc.UpdateTask(ctx, alice, task.ID, tasksvc.Patch{Title: strptr("no")})
	assert.ErrorIs(t, err, tasksvc.ErrInvalidArgument)
}

func TestUpdateDueDateIsCheckedAgainstCreation(t *testing.T) {
	svc, _, c := newService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: "Buy milk"})
	require.NoError(t, err)

	c.Advance(24 * time.Hour)

	// earlier than now but after creation
	updated, err := svc.UpdateTask(ctx, alice, task.ID, tasksvc.Patch{DueDate: timeptr(base.Add(time.Hour))})
	require.NoError(t, err)
	assertTime(t, base.Add(time.Hour), *updated.DueDate)
	assert.True(t, updated.IsOverdue)

	for name, due := range map[string]time.Time{
		"at creation":     base,
		"before creation": base.Add(-time.Second),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateTask(ctx, alice, task.ID, tasksvc.Patch{DueDate: timeptr(due)})
			assert.ErrorIs(t, err, tasksvc.ErrInvalidArgument)
		})
	}
}

func TestUpdateDropsTagsNotOwned(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	own := mustTag(t, store, alice, "work")
	foreign := mustTag(t, store, bob, "bob's")

	task, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: "Write report"})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, alice, task.ID, tasksvc.Patch{TagIDs: &[]uint64{foreign.ID, 999, own.ID}})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, own.ID, updated.Tags[0].ID)

	got, err := svc.Task(ctx, alice, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, own.ID, got.Tags[0].ID)
}

// countingStore counts tag lookups, including those made inside a
// transaction.
type countingStore struct {
	tasksvc.Store
	lookups *int
}

func (s countingStore) Tags() tagsvc.TagRepository {
	return countingTags{s.Store.Tags(), s.lookups}
}

func (s countingStore) Transaction(ctx context.Context, fn func(tasksvc.Store) error) error {
	return s.Store.Transaction(ctx, func(st tasksvc.Store) error {
		return fn(countingStore{st, s.lookups})
	})
}

type countingTags struct {
	tagsvc.TagRepository
	lookups *int
}

func (r countingTags) FindMany(ctx context.Context, userID uint64, tagIDs []uint64) ([]tagsvc.Tag, error) {
	*r.lookups++
	return r.TagRepository.FindMany(ctx, userID, tagIDs)
}

func TestUpdateMissingTaskFailsBeforeTagResolution(t *testing.T) {
	_, store, c := newService(t)
	ctx := context.Background()

	var lookups int
	svc := NewBasicService(countingStore{store, &lookups}, WithClock(c.Now))

	tag := mustTag(t, store, alice, "work")
	_, err := svc.UpdateTask(ctx, alice, 404, tasksvc.Patch{TagIDs: &[]uint64{tag.ID}})
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
	assert.Zero(t, lookups)

	task, err := svc.CreateTask(ctx, bob, tasksvc.NewTask{Title: "Bob's task"})
	require.NoError(t, err)
	lookups = 0

	_, err = svc.UpdateTask(ctx, alice, task.ID, tasksvc.Patch{TagIDs: &[]uint64{tag.ID}})
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
	assert.Zero(t, lookups)

	_, err = svc.UpdateTask(ctx, bob, task.ID, tasksvc.Patch{TagIDs: &[]uint64{tag.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, lookups)
}

func TestOverdueDerivation(t *testing.T) {
	svc, _, c := newService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: "Pay rent", DueDate: timeptr(base.Add(time.Hour))})
	require.NoError(t, err)
	assert.False(t, task.IsOverdue)

	c.Advance(2 * time.Hour)

	got, err := svc.Task(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOverdue)

	overdue, err := svc.OverdueTasks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.True(t, overdue[0].IsOverdue)

	completed, err := svc.CompleteTask(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.True(t, completed.Done)
	assert.False(t, completed.IsOverdue)
	assertTime(t, base.Add(time.Hour), *completed.DueDate)

	overdue, err = svc.OverdueTasks(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestTasksDueToday(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	today, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: "Tonight", DueDate: timeptr(base.Add(12 * time.Hour))})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: "Tomorrow", DueDate: timeptr(base.Add(15 * time.Hour))})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: "Someday"})
	require.NoError(t, err)

	tasks, err := svc.TasksDueToday(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, today.ID, tasks[0].ID)
}

func TestDeleteTask(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: "Buy milk"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, alice, task.ID))
	assert.ErrorIs(t, svc.DeleteTask(ctx, alice, task.ID), tasksvc.ErrTaskNotFound)

	_, err = svc.Task(ctx, alice, task.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
}

func TestDeleteCompleted(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	open, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: "Still open"})
	require.NoError(t, err)
	for _, title := range []string{"Done one", "Done two"} {
		_, err := svc.CreateTask(ctx, alice, tasksvc.NewTask{Title: title, Done: true})
		require.NoError(t, err)
	}
	_, err = svc.CreateTask(ctx, bob, tasksvc.NewTask{Title: "Bob's done", Done: true})
	require.NoError(t, err)

	n, err := svc.DeleteCompleted(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := svc.Tasks(ctx, alice, tasksvc.Query{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, open.ID, page.Items[0].ID)

	page, err = svc.Tasks(ctx, bob, tasksvc.Query{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestZeroIdentityRejected(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	none := authsvc.Identity{}

	_, err := svc.CreateTask(ctx, none, tasksvc.NewTask{Title: "Buy milk"})
	assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)

	_, err = svc.Tasks(ctx, none, tasksvc.Query{Limit: 10})
	assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)

	_, err = svc.OverdueTasks(ctx, none)
	assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)

	assert.ErrorIs(t, svc.DeleteTask(ctx, none, 1), authsvc.ErrUnauthenticated)
}
