package gorm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ichigozero/todokit/storage/storagetest"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndFind(t *testing.T) {
	repo := NewUserRepository(storagetest.New(t))
	ctx := context.Background()

	user := usersvc.User{Email: "a@x.com", PasswordHash: "hash", Active: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, &user))
	require.NotZero(t, user.ID)

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.Find(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)
	assert.True(t, byID.Active)

	_, err = repo.Find(ctx, user.ID+1)
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)

	_, err = repo.FindByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(storagetest.New(t))
	ctx := context.Background()

	first := usersvc.User{Email: "a@x.com", PasswordHash: "hash", Active: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, &first))

	second := usersvc.User{Email: "a@x.com", PasswordHash: "other", Active: true, CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, repo.Create(ctx, &second), usersvc.ErrEmailTaken)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, true},
		{"postgres foreign key", &pgconn.PgError{Code: "23503"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
