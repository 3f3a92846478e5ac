package tagsvc

import (
	"context"
	"errors"
)

const DefaultColor = "#6366f1"

type Tag struct {
	ID     uint64 `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"size:50;not null"`
	Color  string `json:"color" gorm:"size:7;not null;default:#6366f1"`
	UserID uint64 `json:"owner_id" gorm:"not null;index"`
}

// TagRepository is scoped by owner on every method. FindMany returns only
// the tags among ids that belong to userID; unknown ids are not an error.
type TagRepository interface {
	List(ctx context.Context, userID uint64) ([]Tag, error)
	Find(ctx context.Context, userID, tagID uint64) (Tag, error)
	FindMany(ctx context.Context, userID uint64, tagIDs []uint64) ([]Tag, error)
	Create(ctx context.Context, tag *Tag) error
	Update(ctx context.Context, tag Tag) (Tag, error)
	Delete(ctx context.Context, userID, tagID uint64) (bool, error)
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTagNotFound     = errors.New("tag not found")
)
