package taskservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/tasksvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) CreateTask(ctx context.Context, a authsvc.Identity, in tasksvc.NewTask) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTask",
			"user_id", a.UserID,
			"title", in.Title,
			"tag_ids", len(in.TagIDs),
			"task_id", t.ID,
			"err", err,
		)
	}()
	return mw.next.CreateTask(ctx, a, in)
}

func (mw loggingMiddleware) Tasks(ctx context.Context, a authsvc.Identity, q tasksvc.Query) (p tasksvc.Page, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Tasks",
			"user_id", a.UserID,
			"q", q.Search,
			"limit", q.Limit,
			"offset", q.Offset,
			"sort_desc", q.SortDesc,
			"total", p.Total,
			"err", err,
		)
	}()
	return mw.next.Tasks(ctx, a, q)
}

func (mw loggingMiddleware) Task(ctx context.Context, a authsvc.Identity, taskID uint64) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log("method", "Task", "user_id", a.UserID, "task_id", taskID, "err", err)
	}()
	return mw.next.Task(ctx, a, taskID)
}

func (mw loggingMiddleware) OverdueTasks(ctx context.Context, a authsvc.Identity) (t []tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log("method", "OverdueTasks", "user_id", a.UserID, "count", len(t), "err", err)
	}()
	return mw.next.OverdueTasks(ctx, a)
}

func (mw loggingMiddleware) TasksDueToday(ctx context.Context, a authsvc.Identity) (t []tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log("method", "TasksDueToday", "user_id", a.UserID, "count", len(t), "err", err)
	}()
	return mw.next.TasksDueToday(ctx, a)
}

func (mw loggingMiddleware) UpdateTask(ctx context.Context, a authsvc.Identity, taskID uint64, p tasksvc.Patch) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTask",
			"user_id", a.UserID,
			"task_id", taskID,
			"done", p.Done != nil && *p.Done,
			"retag", p.TagIDs != nil,
			"err", err,
		)
	}()
	return mw.next.UpdateTask(ctx, a, taskID, p)
}

func (mw loggingMiddleware) CompleteTask(ctx context.Context, a authsvc.Identity, taskID uint64) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log("method", "CompleteTask", "user_id", a.UserID, "task_id", taskID, "err", err)
	}()
	return mw.next.CompleteTask(ctx, a, taskID)
}

func (mw loggingMiddleware) DeleteTask(ctx context.Context, a authsvc.Identity, taskID uint64) (err error) {
	defer func() {
		mw.logger.Log("method", "DeleteTask", "user_id", a.UserID, "task_id", taskID, "err", err)
	}()
	return mw.next.DeleteTask(ctx, a, taskID)
}

func (mw loggingMiddleware) DeleteCompleted(ctx context.Context, a authsvc.Identity) (n int64, err error) {
	defer func() {
		mw.logger.Log("method", "DeleteCompleted", "user_id", a.UserID, "deleted", n, "err", err)
	}()
	return mw.next.DeleteCompleted(ctx, a)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) observe(method string, begin time.Time) {
	mw.requestCount.With("method", method).Add(1)
	mw.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mw instrumentingMiddleware) CreateTask(ctx context.Context, a authsvc.Identity, in tasksvc.NewTask) (tasksvc.Task, error) {
	defer mw.observe("create_task", time.Now())
	return mw.next.CreateTask(ctx, a, in)
}

func (mw instrumentingMiddleware) Tasks(ctx context.Context, a authsvc.Identity, q tasksvc.Query) (tasksvc.Page, error) {
	defer mw.observe("tasks", time.Now())
	return mw.next.Tasks(ctx, a, q)
}

func (mw instrumentingMiddleware) Task(ctx context.Context, a authsvc.Identity, taskID uint64) (tasksvc.Task, error) {
	defer mw.observe("task", time.Now())
	return mw.next.Task(ctx, a, taskID)
}

func (mw instrumentingMiddleware) OverdueTasks(ctx context.Context, a authsvc.Identity) ([]tasksvc.Task, error) {
	defer mw.observe("overdue_tasks", time.Now())
	return mw.next.OverdueTasks(ctx, a)
}

func (mw instrumentingMiddleware) TasksDueToday(ctx context.Context, a authsvc.Identity) ([]tasksvc.Task, error) {
	defer mw.observe("tasks_due_today", time.Now())
	return mw.next.TasksDueToday(ctx, a)
}

func (mw instrumentingMiddleware) UpdateTask(ctx context.Context, a authsvc.Identity, taskID uint64, p tasksvc.Patch) (tasksvc.Task, error) {
	defer mw.observe("update_task", time.Now())
	return mw.next.UpdateTask(ctx, a, taskID, p)
}

func (mw instrumentingMiddleware) CompleteTask(ctx context.Context, a authsvc.Identity, taskID uint64) (tasksvc.Task, error) {
	defer mw.observe("complete_task", time.Now())
	return mw.next.CompleteTask(ctx, a, taskID)
}

func (mw instrumentingMiddleware) DeleteTask(ctx context.Context, a authsvc.Identity, taskID uint64) error {
	defer mw.observe("delete_task", time.Now())
	return mw.next.DeleteTask(ctx, a, taskID)
}

func (mw instrumentingMiddleware) DeleteCompleted(ctx context.Context, a authsvc.Identity) (int64, error) {
	defer mw.observe("delete_completed", time.Now())
	return mw.next.DeleteCompleted(ctx, a)
}
