package tasktransport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-kit/kit/log"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/todokit/httpapi"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/ichigozero/todokit/tasksvc/pkg/taskendpoint"
)

func NewHTTPHandler(endpoints taskendpoint.Set, logger log.Logger) http.Handler {
	options := httpapi.ServerOptions(logger)

	createTaskHandler := httptransport.NewServer(
		endpoints.CreateTaskEndpoint,
		decodeHTTPCreateTaskRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	tasksHandler := httptransport.NewServer(
		endpoints.TasksEndpoint,
		decodeHTTPTasksRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	taskHandler := httptransport.NewServer(
		endpoints.TaskEndpoint,
		decodeHTTPTaskRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	overdueTasksHandler := httptransport.NewServer(
		endpoints.OverdueTasksEndpoint,
		decodeHTTPTaskListRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	tasksDueTodayHandler := httptransport.NewServer(
		endpoints.TasksDueTodayEndpoint,
		decodeHTTPTaskListRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	updateTaskHandler := httptransport.NewServer(
		endpoints.UpdateTaskEndpoint,
		decodeHTTPUpdateTaskRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	completeTaskHandler := httptransport.NewServer(
		endpoints.CompleteTaskEndpoint,
		decodeHTTPTaskRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	deleteTaskHandler := httptransport.NewServer(
		endpoints.DeleteTaskEndpoint,
		decodeHTTPTaskRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	deleteCompletedHandler := httptransport.NewServer(
		endpoints.DeleteCompletedEndpoint,
		decodeHTTPDeleteCompletedRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()

	r.Methods("GET").Path("/todos").Handler(tasksHandler)
	r.Methods("POST").Path("/todos").Handler(createTaskHandler)
	r.Methods("GET").Path("/todos/overdue").Handler(overdueTasksHandler)
	r.Methods("GET").Path("/todos/today").Handler(tasksDueTodayHandler)
	r.Methods("DELETE").Path("/todos/completed").Handler(deleteCompletedHandler)
	r.Methods("GET").Path("/todos/{task_id:[0-9]+}").Handler(taskHandler)
	r.Methods("PATCH").Path("/todos/{task_id:[0-9]+}").Handler(updateTaskHandler)
	r.Methods("DELETE").Path("/todos/{task_id:[0-9]+}").Handler(deleteTaskHandler)
	r.Methods("POST").Path("/todos/{task_id:[0-9]+}/complete").Handler(completeTaskHandler)

	return r
}

type createTaskBody struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	IsDone      bool          `json:"is_done"`
	DueDate     *httpapi.Time `json:"due_date"`
	TagIDs      []uint64      `json:"tag_ids"`
}

func decodeHTTPCreateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body createTaskBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		return nil, err
	}

	return taskendpoint.CreateTaskRequest{
		NewTask: tasksvc.NewTask{
			Title:       body.Title,
			Description: body.Description,
			Done:        body.IsDone,
			DueDate:     body.DueDate.Ptr(),
			TagIDs:      body.TagIDs,
		},
	}, nil
}

// decodeHTTPTasksRequest reads the listing parameters from the query
// string. Absent parameters take their defaults: limit 10, offset 0,
// newest first.
func decodeHTTPTasksRequest(_ context.Context, r *http.Request) (interface{}, error) {
	v := r.URL.Query()
	q := tasksvc.Query{Limit: tasksvc.DefaultLimit, SortDesc: true}
	q.Search = v.Get("q")

	var err error
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return nil, malformed("limit", s)
		}
	}
	if s := v.Get("offset"); s != "" {
		if q.Offset, err = strconv.Atoi(s); err != nil {
			return nil, malformed("offset", s)
		}
	}
	if s := v.Get("sort_desc"); s != "" {
		if q.SortDesc, err = strconv.ParseBool(s); err != nil {
			return nil, malformed("sort_desc", s)
		}
	}
	if s := v.Get("is_done"); s != "" {
		done, err := strconv.ParseBool(s)
		if err != nil {
			return nil, malformed("is_done", s)
		}
		q.Done = &done
	}
	if s := v.Get("tag_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, malformed("tag_id", s)
		}
		q.TagID = &id
	}
	if s := v.Get("due_from"); s != "" {
		t, err := httpapi.ParseTime(s)
		if err != nil {
			return nil, err
		}
		q.DueFrom = &t
	}
	if s := v.Get("due_to"); s != "" {
		t, err := httpapi.ParseTime(s)
		if err != nil {
			return nil, err
		}
		q.DueTo = &t
	}

	return taskendpoint.TasksRequest{Query: q}, nil
}

func malformed(param, value string) error {
	return fmt.Errorf("%w: invalid %s %q", httpapi.ErrMalformedRequest, param, value)
}

func decodeHTTPTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := httpapi.PathID(r, "task_id")
	if err != nil {
		return nil, err
	}
	return taskendpoint.TaskRequest{TaskID: taskID}, nil
}

func decodeHTTPTaskListRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return taskendpoint.TaskListRequest{}, nil
}

// updateTaskBody leaves a field nil when it is absent or null.
type updateTaskBody struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	IsDone      *bool         `json:"is_done"`
	DueDate     *httpapi.Time `json:"due_date"`
	TagIDs      *[]uint64     `json:"tag_ids"`
}

func decodeHTTPUpdateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := httpapi.PathID(r, "task_id")
	if err != nil {
		return nil, err
	}

	var body updateTaskBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		return nil, err
	}

	return taskendpoint.UpdateTaskRequest{
		TaskID: taskID,
		Patch: tasksvc.Patch{
			Title:       body.Title,
			Description: body.Description,
			Done:        body.IsDone,
			DueDate:     body.DueDate.Ptr(),
			TagIDs:      body.TagIDs,
		},
	}, nil
}

func decodeHTTPDeleteCompletedRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return taskendpoint.DeleteCompletedRequest{}, nil
}
