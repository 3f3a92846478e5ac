package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/todokit/storage"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
	libgorm "gorm.io/gorm"
)

type userRepository struct {
	db *libgorm.DB
}

func NewUserRepository(db *libgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) Create(ctx context.Context, user *usersvc.User) error {
	err := u.db.WithContext(ctx).Create(user).Error
	if isUniqueViolation(err) {
		return usersvc.ErrEmailTaken
	}
	return err
}

func (u *userRepository) FindByEmail(ctx context.Context, email string) (usersvc.User, error) {
	var user usersvc.User
	err := u.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}
	return user, err
}

func (u *userRepository) Find(ctx context.Context, id uint64) (usersvc.User, error) {
	if !storage.Storable(id) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	var user usersvc.User
	err := u.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}
	return user, err
}

// isUniqueViolation recognizes a unique constraint failure from either
// supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
