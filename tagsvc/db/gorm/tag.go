package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/todokit/storage"
	"github.com/ichigozero/todokit/tagsvc"
	libgorm "gorm.io/gorm"
)

type tagRepository struct {
	db *libgorm.DB
}

func NewTagRepository(db *libgorm.DB) tagsvc.TagRepository {
	return &tagRepository{db}
}

func (r tagRepository) List(ctx context.Context, userID uint64) ([]tagsvc.Tag, error) {
	tags := []tagsvc.Tag{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").Order("id ASC").
		Find(&tags).Error

	return tags, err
}

func (r tagRepository) Find(ctx context.Context, userID, tagID uint64) (tagsvc.Tag, error) {
	if !storage.Storable(tagID) {
		return tagsvc.Tag{}, tagsvc.ErrTagNotFound
	}

	var tag tagsvc.Tag
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error
	if errors.Is(err, libgorm.ErrRecordNotFound) {
		return tagsvc.Tag{}, tagsvc.ErrTagNotFound
	}
	return tag, err
}

// FindMany returns the tags among tagIDs owned by userID. Ids that name no
// such tag are skipped.
func (r tagRepository) FindMany(ctx context.Context, userID uint64, tagIDs []uint64) ([]tagsvc.Tag, error) {
	tags := []tagsvc.Tag{}

	ids := make([]uint64, 0, len(tagIDs))
	for _, id := range tagIDs {
		if storage.Storable(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return tags, nil
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("name ASC").Order("id ASC").
		Find(&tags).Error

	return tags, err
}

func (r tagRepository) Create(ctx context.Context, tag *tagsvc.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r tagRepository) Update(ctx context.Context, tag tagsvc.Tag) (tagsvc.Tag, error) {
	if _, err := r.Find(ctx, tag.UserID, tag.ID); err != nil {
		return tagsvc.Tag{}, err
	}

	err := r.db.WithContext(ctx).
		Model(&tagsvc.Tag{}).
		Where("id = ? AND user_id = ?", tag.ID, tag.UserID).
		Updates(map[string]interface{}{
			"name":  tag.Name,
			"color": tag.Color,
		}).Error
	if err != nil {
		return tagsvc.Tag{}, err
	}

	return r.Find(ctx, tag.UserID, tag.ID)
}

// Delete detaches the tag from every task before removing it. Tasks are
// never deleted here.
func (r tagRepository) Delete(ctx context.Context, userID, tagID uint64) (bool, error) {
	if !storage.Storable(tagID) {
		return false, nil
	}

	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *libgorm.DB) error {
		var n int64
		if err := tx.Model(&tagsvc.Tag{}).Where("id = ? AND user_id = ?", tagID, userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		if err := tx.Exec("DELETE FROM task_tags WHERE tag_id = ?", tagID).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ?", tagID, userID).Delete(&tagsvc.Tag{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})

	return deleted, err
}
