package taskservice

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/tagsvc"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/ichigozero/todokit/validation"
)

// Service is owner scoped: every method acts only on tasks and tags that
// belong to the given identity.
type Service interface {
	CreateTask(ctx context.Context, a authsvc.Identity, t tasksvc.NewTask) (tasksvc.Task, error)
	Tasks(ctx context.Context, a authsvc.Identity, q tasksvc.Query) (tasksvc.Page, error)
	Task(ctx context.Context, a authsvc.Identity, taskID uint64) (tasksvc.Task, error)
	OverdueTasks(ctx context.Context, a authsvc.Identity) ([]tasksvc.Task, error)
	TasksDueToday(ctx context.Context, a authsvc.Identity) ([]tasksvc.Task, error)
	UpdateTask(ctx context.Context, a authsvc.Identity, taskID uint64, p tasksvc.Patch) (tasksvc.Task, error)
	CompleteTask(ctx context.Context, a authsvc.Identity, taskID uint64) (tasksvc.Task, error)
	DeleteTask(ctx context.Context, a authsvc.Identity, taskID uint64) error
	DeleteCompleted(ctx context.Context, a authsvc.Identity) (int64, error)
}

type Option func(*basicService)

// WithClock replaces time.Now as the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(s *basicService) { s.now = now }
}

func New(store tasksvc.Store, logger log.Logger, opts ...Option) Service {
	var svc Service
	{
		svc = NewBasicService(store, opts...)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	store tasksvc.Store
	now   func() time.Time
}

func NewBasicService(store tasksvc.Store, opts ...Option) Service {
	s := &basicService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock returns the current instant in UTC at the precision every
// supported database keeps.
func (s *basicService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// CreateTask drops tag ids that do not name one of the caller's tags.
func (s *basicService) CreateTask(ctx context.Context, a authsvc.Identity, in tasksvc.NewTask) (tasksvc.Task, error) {
	if a.UserID == 0 {
		return tasksvc.Task{}, authsvc.ErrUnauthenticated
	}
	if err := validation.Struct(in); err != nil {
		return tasksvc.Task{}, fmt.Errorf("%w: %v", tasksvc.ErrInvalidArgument, err)
	}

	now := s.clock()
	task := tasksvc.Task{
		Title:       in.Title,
		Description: in.Description,
		Done:        in.Done,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      a.UserID,
	}
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		if !due.After(now) {
			return tasksvc.Task{}, fmt.Errorf("%w: due_date must be in the future", tasksvc.ErrInvalidArgument)
		}
		task.DueDate = &due
	}

	err := s.store.Transaction(ctx, func(st tasksvc.Store) error {
		tags, err := st.Tags().FindMany(ctx, a.UserID, in.TagIDs)
		if err != nil {
			return err
		}
		task.Tags = tags

		if err := st.Tasks().Create(ctx, &task); err != nil {
			return err
		}

		task, err = st.Tasks().Find(ctx, a.UserID, task.ID)
		return err
	})
	if err != nil {
		return tasksvc.Task{}, err
	}

	return s.enrich(task), nil
}

func (s *basicService) Tasks(ctx context.Context, a authsvc.Identity, q tasksvc.Query) (tasksvc.Page, error) {
	if a.UserID == 0 {
		return tasksvc.Page{}, authsvc.ErrUnauthenticated
	}

	switch {
	case q.Limit < 1 || q.Limit > tasksvc.MaxLimit:
		return tasksvc.Page{}, fmt.Errorf("%w: limit must be between 1 and %d", tasksvc.ErrInvalidArgument, tasksvc.MaxLimit)
	case q.Offset < 0:
		return tasksvc.Page{}, fmt.Errorf("%w: offset must not be negative", tasksvc.ErrInvalidArgument)
	}

	if q.DueFrom != nil {
		from := q.DueFrom.UTC()
		q.DueFrom = &from
	}
	if q.DueTo != nil {
		to := q.DueTo.UTC()
		q.DueTo = &to
	}
	if q.DueFrom != nil && q.DueTo != nil && !q.DueFrom.Before(*q.DueTo) {
		return tasksvc.Page{}, fmt.Errorf("%w: due_from must be before due_to", tasksvc.ErrInvalidArgument)
	}

	items, total, err := s.store.Tasks().Query(ctx, a.UserID, q)
	if err != nil {
		return tasksvc.Page{}, err
	}

	return tasksvc.Page{
		Items:  s.enrichAll(items),
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset,
	}, nil
}

func (s *basicService) Task(ctx context.Context, a authsvc.Identity, taskID uint64) (tasksvc.Task, error) {
	if a.UserID == 0 {
		return tasksvc.Task{}, authsvc.ErrUnauthenticated
	}

	task, err := s.store.Tasks().Find(ctx, a.UserID, taskID)
	if err != nil {
		return tasksvc.Task{}, err
	}
	return s.enrich(task), nil
}

func (s *basicService) OverdueTasks(ctx context.Context, a authsvc.Identity) ([]tasksvc.Task, error) {
	if a.UserID == 0 {
		return nil, authsvc.ErrUnauthenticated
	}

	tasks, err := s.store.Tasks().Overdue(ctx, a.UserID, s.clock())
	if err != nil {
		return nil, err
	}
	return s.enrichAll(tasks), nil
}

// TasksDueToday returns the tasks due within the current UTC calendar day,
// done or not.
func (s *basicService) TasksDueToday(ctx context.Context, a authsvc.Identity) ([]tasksvc.Task, error) {
	if a.UserID == 0 {
		return nil, authsvc.ErrUnauthenticated
	}

	y, m, d := s.clock().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	tasks, err := s.store.Tasks().DueBetween(ctx, a.UserID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return s.enrichAll(tasks), nil
}

// UpdateTask applies the non-nil fields of p. The task is looked up before
// any tag is resolved, and a new due date must fall after the task's
// creation time rather than after now.
func (s *basicService) UpdateTask(ctx context.Context, a authsvc.Identity, taskID uint64, p tasksvc.Patch) (tasksvc.Task, error) {
	if a.UserID == 0 {
		return tasksvc.Task{}, authsvc.ErrUnauthenticated
	}
	if err := validation.Struct(p); err != nil {
		return tasksvc.Task{}, fmt.Errorf("%w: %v", tasksvc.ErrInvalidArgument, err)
	}

	now := s.clock()

	var task tasksvc.Task
	err := s.store.Transaction(ctx, func(st tasksvc.Store) error {
		current, err := st.Tasks().Find(ctx, a.UserID, taskID)
		if err != nil {
			return err
		}

		c := tasksvc.Changes{
			Title:       p.Title,
			Description: p.Description,
			Done:        p.Done,
			UpdatedAt:   now,
		}
		if !c.UpdatedAt.After(current.UpdatedAt) {
			c.UpdatedAt = current.UpdatedAt.Add(time.Microsecond)
		}

		if p.DueDate != nil {
			due := p.DueDate.UTC()
			if !due.After(current.CreatedAt) {
				return fmt.Errorf("%w: due_date must be after the task's creation time", tasksvc.ErrInvalidArgument)
			}
			c.DueDate = &due
		}

		if p.TagIDs != nil {
			tags, err := st.Tags().FindMany(ctx, a.UserID, *p.TagIDs)
			if err != nil {
				return err
			}
			c.Tags = &tags
		}

		task, err = st.Tasks().Update(ctx, a.UserID, taskID, c)
		return err
	})
	if err != nil {
		return tasksvc.Task{}, err
	}

	return s.enrich(task), nil
}

func (s *basicService) CompleteTask(ctx context.Context, a authsvc.Identity, taskID uint64) (tasksvc.Task, error) {
	done := true
	return s.UpdateTask(ctx, a, taskID, tasksvc.Patch{Done: &done})
}

func (s *basicService) DeleteTask(ctx context.Context, a authsvc.Identity, taskID uint64) error {
	if a.UserID == 0 {
		return authsvc.ErrUnauthenticated
	}

	ok, err := s.store.Tasks().Delete(ctx, a.UserID, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return tasksvc.ErrTaskNotFound
	}
	return nil
}

func (s *basicService) DeleteCompleted(ctx context.Context, a authsvc.Identity) (int64, error) {
	if a.UserID == 0 {
		return 0, authsvc.ErrUnauthenticated
	}

	var n int64
	err := s.store.Transaction(ctx, func(st tasksvc.Store) error {
		var err error
		n, err = st.Tasks().DeleteCompleted(ctx, a.UserID)
		return err
	})
	return n, err
}

// enrich derives IsOverdue against the current instant. A task without
// tags carries an empty, non-nil tag list.
func (s *basicService) enrich(t tasksvc.Task) tasksvc.Task {
	return derive(t, s.now())
}

func (s *basicService) enrichAll(tasks []tasksvc.Task) []tasksvc.Task {
	now := s.now()
	for i := range tasks {
		tasks[i] = derive(tasks[i], now)
	}
	return tasks
}

func derive(t tasksvc.Task, now time.Time) tasksvc.Task {
	t.IsOverdue = t.Overdue(now)
	if t.Tags == nil {
		t.Tags = []tagsvc.Tag{}
	}
	return t
}
