package gorm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ichigozero/todokit/storage"
	"github.com/ichigozero/todokit/tasksvc"
	libgorm "gorm.io/gorm"
)

type taskRepository struct {
	db *libgorm.DB
}

func NewTaskRepository(db *libgorm.DB) tasksvc.TaskRepository {
	return &taskRepository{db}
}

func (t taskRepository) Create(ctx context.Context, task *tasksvc.Task) error {
	return t.db.WithContext(ctx).Omit("Tags.*").Create(task).Error
}

func (t taskRepository) Find(ctx context.Context, userID, taskID uint64) (tasksvc.Task, error) {
	if !storage.Storable(taskID) {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	var task tasksvc.Task
	err := t.db.WithContext(ctx).
		Preload("Tags", tagsByName).
		Where("id = ? AND user_id = ?", taskID, userID).
		First(&task).Error
	if errors.Is(err, libgorm.ErrRecordNotFound) {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	return task, err
}

// Query counts the filtered set before applying the page window. Rows are
// ordered by creation time and then by id so that pages never overlap.
func (t taskRepository) Query(ctx context.Context, userID uint64, q tasksvc.Query) ([]tasksvc.Task, int64, error) {
	tasks := []tasksvc.Task{}
	scope := filtered(userID, q.Filter)

	var total int64
	if err := t.db.WithContext(ctx).Model(&tasksvc.Task{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(q.Offset) >= total {
		return tasks, total, nil
	}

	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	err := t.db.WithContext(ctx).
		Scopes(scope).
		Preload("Tags", tagsByName).
		Order("tasks.created_at " + direction).
		Order("tasks.id ASC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (t taskRepository) Overdue(ctx context.Context, userID uint64, now time.Time) ([]tasksvc.Task, error) {
	tasks := []tasksvc.Task{}
	err := t.db.WithContext(ctx).
		Preload("Tags", tagsByName).
		Where("user_id = ? AND done = ?", userID, false).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Order("due_date ASC").
		Order("id ASC").
		Find(&tasks).Error

	return tasks, err
}

func (t taskRepository) DueBetween(ctx context.Context, userID uint64, from, to time.Time) ([]tasksvc.Task, error) {
	tasks := []tasksvc.Task{}
	err := t.db.WithContext(ctx).
		Preload("Tags", tagsByName).
		Where("user_id = ?", userID).
		Where("due_date >= ? AND due_date < ?", from, to).
		Order("due_date ASC").
		Order("id ASC").
		Find(&tasks).Error

	return tasks, err
}

// Update writes only the fields set in c, plus updated_at. Tags are
// replaced only when c.Tags is non-nil.
func (t taskRepository) Update(ctx context.Context, userID, taskID uint64, c tasksvc.Changes) (tasksvc.Task, error) {
	task, err := t.Find(ctx, userID, taskID)
	if err != nil {
		return tasksvc.Task{}, err
	}

	fields := map[string]interface{}{"updated_at": c.UpdatedAt}
	if c.Title != nil {
		fields["title"] = *c.Title
	}
	if c.Description != nil {
		fields["description"] = *c.Description
	}
	if c.Done != nil {
		fields["done"] = *c.Done
	}
	if c.DueDate != nil {
		fields["due_date"] = *c.DueDate
	}

	db := t.db.WithContext(ctx)
	err = db.Model(&tasksvc.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Updates(fields).Error
	if err != nil {
		return tasksvc.Task{}, err
	}

	if c.Tags != nil {
		if err := db.Model(&task).Association("Tags").Replace(*c.Tags); err != nil {
			return tasksvc.Task{}, err
		}
	}

	return t.Find(ctx, userID, taskID)
}

func (t taskRepository) Delete(ctx context.Context, userID, taskID uint64) (bool, error) {
	if !storage.Storable(taskID) {
		return false, nil
	}

	var deleted bool
	err := t.db.WithContext(ctx).Transaction(func(tx *libgorm.DB) error {
		err := tx.Exec(
			"DELETE FROM task_tags WHERE task_id IN (SELECT id FROM tasks WHERE id = ? AND user_id = ?)",
			taskID, userID,
		).Error
		if err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ?", taskID, userID).Delete(&tasksvc.Task{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})

	return deleted, err
}

func (t taskRepository) DeleteCompleted(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := t.db.WithContext(ctx).Transaction(func(tx *libgorm.DB) error {
		err := tx.Exec(
			"DELETE FROM task_tags WHERE task_id IN (SELECT id FROM tasks WHERE user_id = ? AND done = ?)",
			userID, true,
		).Error
		if err != nil {
			return err
		}

		result := tx.Where("user_id = ? AND done = ?", userID, true).Delete(&tasksvc.Task{})
		if result.Error != nil {
			return result.Error
		}
		n = result.RowsAffected
		return nil
	})

	return n, err
}

// filtered binds the owner first; every other predicate is optional and
// ANDed onto it.
func filtered(userID uint64, f tasksvc.Filter) func(*libgorm.DB) *libgorm.DB {
	return func(db *libgorm.DB) *libgorm.DB {
		db = db.Where("tasks.user_id = ?", userID)

		if f.Search != "" {
			pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
			db = db.Where(`LOWER(tasks.title) LIKE ? ESCAPE '\'`, pattern)
		}
		if f.Done != nil {
			db = db.Where("tasks.done = ?", *f.Done)
		}
		if f.TagID != nil {
			if !storage.Storable(*f.TagID) {
				return db.Where("1 = 0")
			}
			db = db.Where("tasks.id IN (SELECT task_id FROM task_tags WHERE tag_id = ?)", *f.TagID)
		}
		if f.DueFrom != nil {
			db = db.Where("tasks.due_date >= ?", *f.DueFrom)
		}
		if f.DueTo != nil {
			db = db.Where("tasks.due_date < ?", *f.DueTo)
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func tagsByName(db *libgorm.DB) *libgorm.DB {
	return db.Order("tags.name ASC").Order("tags.id ASC")
}
