package tasksvc

import (
	"context"
	"errors"
	"time"

	"github.com/ichigozero/todokit/tagsvc"
)

type Task struct {
	ID          uint64       `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"size:100;not null"`
	Description string       `json:"description"`
	Done        bool         `json:"is_done" gorm:"not null;default:false;index"`
	DueDate     *time.Time   `json:"due_date" gorm:"index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
	UserID      uint64       `json:"owner_id" gorm:"not null;index"`
	Tags        []tagsvc.Tag `json:"tags" gorm:"many2many:task_tags;constraint:OnDelete:CASCADE"`
	IsOverdue   bool         `json:"is_overdue" gorm:"-"`
}

// Overdue reports whether the task is incomplete and its due date lies
// before now. It is never stored.
func (t Task) Overdue(now time.Time) bool {
	return !t.Done && t.DueDate != nil && t.DueDate.Before(now)
}

// NewTask is the input of task creation.
type NewTask struct {
	Title       string     `json:"title" validate:"min=3,max=100"`
	Description string     `json:"description"`
	Done        bool       `json:"is_done"`
	DueDate     *time.Time `json:"due_date"`
	TagIDs      []uint64   `json:"tag_ids"`
}

// Patch is a partial update: nil fields keep their stored value.
type Patch struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=100"`
	Description *string    `json:"description"`
	Done        *bool      `json:"is_done"`
	DueDate     *time.Time `json:"due_date"`
	TagIDs      *[]uint64  `json:"tag_ids"`
}

// Changes is a Patch with tag ids already resolved to owned tags.
type Changes struct {
	Title       *string
	Description *string
	Done        *bool
	DueDate     *time.Time
	Tags        *[]tagsvc.Tag
	UpdatedAt   time.Time
}

type Filter struct {
	Search  string
	Done    *bool
	TagID   *uint64
	DueFrom *time.Time
	DueTo   *time.Time
}

type Query struct {
	Filter
	SortDesc bool
	Offset   int
	Limit    int
}

type Page struct {
	Items  []Task `json:"items"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// TaskRepository requires the owner on every method; there is no way to
// read or write tasks without one.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	Find(ctx context.Context, userID, taskID uint64) (Task, error)
	Query(ctx context.Context, userID uint64, q Query) ([]Task, int64, error)
	Overdue(ctx context.Context, userID uint64, now time.Time) ([]Task, error)
	DueBetween(ctx context.Context, userID uint64, from, to time.Time) ([]Task, error)
	Update(ctx context.Context, userID, taskID uint64, c Changes) (Task, error)
	Delete(ctx context.Context, userID, taskID uint64) (bool, error)
	DeleteCompleted(ctx context.Context, userID uint64) (int64, error)
}

// Store groups the task and tag repositories so that a service call can
// run both inside one transaction.
type Store interface {
	Tasks() TaskRepository
	Tags() tagsvc.TagRepository
	Transaction(ctx context.Context, fn func(Store) error) error
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTaskNotFound    = errors.New("task not found")
)
