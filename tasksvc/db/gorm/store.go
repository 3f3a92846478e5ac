package gorm

import (
	"context"

	"github.com/ichigozero/todokit/tagsvc"
	taggorm "github.com/ichigozero/todokit/tagsvc/db/gorm"
	"github.com/ichigozero/todokit/tasksvc"
	libgorm "gorm.io/gorm"
)

type store struct {
	db *libgorm.DB
}

func NewStore(db *libgorm.DB) tasksvc.Store {
	return store{db}
}

func (s store) Tasks() tasksvc.TaskRepository {
	return NewTaskRepository(s.db)
}

func (s store) Tags() tagsvc.TagRepository {
	return taggorm.NewTagRepository(s.db)
}

// Transaction runs fn against repositories bound to one database
// transaction. fn's error rolls everything back.
func (s store) Transaction(ctx context.Context, fn func(tasksvc.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *libgorm.DB) error {
		return fn(store{tx})
	})
}
