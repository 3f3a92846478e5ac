package taskendpoint

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/ichigozero/todokit/tasksvc/pkg/taskservice"
)

type Set struct {
	CreateTaskEndpoint      endpoint.Endpoint
	TasksEndpoint           endpoint.Endpoint
	TaskEndpoint            endpoint.Endpoint
	OverdueTasksEndpoint    endpoint.Endpoint
	TasksDueTodayEndpoint   endpoint.Endpoint
	UpdateTaskEndpoint      endpoint.Endpoint
	CompleteTaskEndpoint    endpoint.Endpoint
	DeleteTaskEndpoint      endpoint.Endpoint
	DeleteCompletedEndpoint endpoint.Endpoint
}

// New wraps every endpoint in authenticate, which must place the caller's
// authsvc.Identity in the context.
func New(svc taskservice.Service, authenticate endpoint.Middleware, logger log.Logger) Set {
	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = MakeCreateTaskEndpoint(svc)
		createTaskEndpoint = authenticate(createTaskEndpoint)
		createTaskEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "CreateTask"))(createTaskEndpoint)
	}

	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = MakeTasksEndpoint(svc)
		tasksEndpoint = authenticate(tasksEndpoint)
		tasksEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "Tasks"))(tasksEndpoint)
	}

	var taskEndpoint endpoint.Endpoint
	{
		taskEndpoint = MakeTaskEndpoint(svc)
		taskEndpoint = authenticate(taskEndpoint)
		taskEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "Task"))(taskEndpoint)
	}

	var overdueTasksEndpoint endpoint.Endpoint
	{
		overdueTasksEndpoint = MakeOverdueTasksEndpoint(svc)
		overdueTasksEndpoint = authenticate(overdueTasksEndpoint)
		overdueTasksEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "OverdueTasks"))(overdueTasksEndpoint)
	}

	var tasksDueTodayEndpoint endpoint.Endpoint
	{
		tasksDueTodayEndpoint = MakeTasksDueTodayEndpoint(svc)
		tasksDueTodayEndpoint = authenticate(tasksDueTodayEndpoint)
		tasksDueTodayEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "TasksDueToday"))(tasksDueTodayEndpoint)
	}

	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = MakeUpdateTaskEndpoint(svc)
		updateTaskEndpoint = authenticate(updateTaskEndpoint)
		updateTaskEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "UpdateTask"))(updateTaskEndpoint)
	}

	var completeTaskEndpoint endpoint.Endpoint
	{
		completeTaskEndpoint = MakeCompleteTaskEndpoint(svc)
		completeTaskEndpoint = authenticate(completeTaskEndpoint)
		completeTaskEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "CompleteTask"))(completeTaskEndpoint)
	}

	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = MakeDeleteTaskEndpoint(svc)
		deleteTaskEndpoint = authenticate(deleteTaskEndpoint)
		deleteTaskEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "DeleteTask"))(deleteTaskEndpoint)
	}

	var deleteCompletedEndpoint endpoint.Endpoint
	{
		deleteCompletedEndpoint = MakeDeleteCompletedEndpoint(svc)
		deleteCompletedEndpoint = authenticate(deleteCompletedEndpoint)
		deleteCompletedEndpoint = authendpoint.LoggingMiddleware(log.With(logger, "method", "DeleteCompleted"))(deleteCompletedEndpoint)
	}

	return Set{
		CreateTaskEndpoint:      createTaskEndpoint,
		TasksEndpoint:           tasksEndpoint,
		TaskEndpoint:            taskEndpoint,
		OverdueTasksEndpoint:    overdueTasksEndpoint,
		TasksDueTodayEndpoint:   tasksDueTodayEndpoint,
		UpdateTaskEndpoint:      updateTaskEndpoint,
		CompleteTaskEndpoint:    completeTaskEndpoint,
		DeleteTaskEndpoint:      deleteTaskEndpoint,
		DeleteCompletedEndpoint: deleteCompletedEndpoint,
	}
}

func MakeCreateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return CreateTaskResponse{Err: err}, nil
		}

		req := request.(CreateTaskRequest)
		t, err := s.CreateTask(ctx, a, req.NewTask)
		return CreateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeTasksEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TasksResponse{Err: err}, nil
		}

		req := request.(TasksRequest)
		p, err := s.Tasks(ctx, a, req.Query)
		return TasksResponse{Page: p, Err: err}, nil
	}
}

func MakeTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TaskResponse{Err: err}, nil
		}

		req := request.(TaskRequest)
		t, err := s.Task(ctx, a, req.TaskID)
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeOverdueTasksEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TaskListResponse{Err: err}, nil
		}

		_ = request.(TaskListRequest)
		t, err := s.OverdueTasks(ctx, a)
		return TaskListResponse{Tasks: t, Err: err}, nil
	}
}

func MakeTasksDueTodayEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TaskListResponse{Err: err}, nil
		}

		_ = request.(TaskListRequest)
		t, err := s.TasksDueToday(ctx, a)
		return TaskListResponse{Tasks: t, Err: err}, nil
	}
}

func MakeUpdateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TaskResponse{Err: err}, nil
		}

		req := request.(UpdateTaskRequest)
		t, err := s.UpdateTask(ctx, a, req.TaskID, req.Patch)
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeCompleteTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TaskResponse{Err: err}, nil
		}

		req := request.(TaskRequest)
		t, err := s.CompleteTask(ctx, a, req.TaskID)
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeDeleteTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return DeleteTaskResponse{Err: err}, nil
		}

		req := request.(TaskRequest)
		return DeleteTaskResponse{Err: s.DeleteTask(ctx, a, req.TaskID)}, nil
	}
}

func MakeDeleteCompletedEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return DeleteCompletedResponse{Err: err}, nil
		}

		_ = request.(DeleteCompletedRequest)
		n, err := s.DeleteCompleted(ctx, a)
		return DeleteCompletedResponse{Deleted: n, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = CreateTaskResponse{}
	_ endpoint.Failer = TasksResponse{}
	_ endpoint.Failer = TaskResponse{}
	_ endpoint.Failer = TaskListResponse{}
	_ endpoint.Failer = DeleteTaskResponse{}
	_ endpoint.Failer = DeleteCompletedResponse{}
)

type CreateTaskRequest struct {
	tasksvc.NewTask
}

type CreateTaskResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r CreateTaskResponse) Failed() error { return r.Err }

func (r CreateTaskResponse) StatusCode() int { return http.StatusCreated }

func (r CreateTaskResponse) Payload() interface{} { return r.Task }

type TasksRequest struct {
	tasksvc.Query
}

type TasksResponse struct {
	Page tasksvc.Page
	Err  error
}

func (r TasksResponse) Failed() error { return r.Err }

func (r TasksResponse) Payload() interface{} { return r.Page }

type TaskRequest struct {
	TaskID uint64
}

type TaskResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r TaskResponse) Failed() error { return r.Err }

func (r TaskResponse) Payload() interface{} { return r.Task }

type TaskListRequest struct{}

type TaskListResponse struct {
	Tasks []tasksvc.Task
	Err   error
}

func (r TaskListResponse) Failed() error { return r.Err }

func (r TaskListResponse) Payload() interface{} { return r.Tasks }

type UpdateTaskRequest struct {
	TaskID uint64
	tasksvc.Patch
}

type DeleteTaskResponse struct {
	Err error
}

func (r DeleteTaskResponse) Failed() error { return r.Err }

func (r DeleteTaskResponse) StatusCode() int { return http.StatusNoContent }

type DeleteCompletedRequest struct{}

type DeleteCompletedResponse struct {
	Deleted int64 `json:"deleted"`
	Err     error `json:"-"`
}

func (r DeleteCompletedResponse) Failed() error { return r.Err }
