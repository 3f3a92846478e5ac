package authservice

import (
	"context"
	"testing"
	"time"

	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/storage/storagetest"
	"github.com/ichigozero/todokit/usersvc"
	usergorm "github.com/ichigozero/todokit/usersvc/db/gorm"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newService(t *testing.T) (Service, *gorm.DB) {
	db := storagetest.New(t)
	users := userservice.NewBasicService(usergorm.NewUserRepository(db), bcrypt.MinCost)
	return NewBasicService(NewTokenizer([]byte("secret"), time.Minute), users), db
}

func TestLoginAndResolve(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.InDelta(t, 60, token.ExpiresIn, 2)

	user, err := svc.Resolve(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "a@x.com", "nope-nope")
	_, unknownEmail := svc.Login(ctx, "nobody@x.com", "pw123456")
	assert.ErrorIs(t, wrongPassword, usersvc.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, usersvc.ErrInvalidCredentials)
}

func TestResolveRejects(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)

	ghost, err := NewTokenizer([]byte("secret"), time.Minute).Generate(registered.ID+100, "ghost@x.com")
	require.NoError(t, err)
	expired, err := NewTokenizer([]byte("secret"), -time.Minute).Generate(registered.ID, "a@x.com")
	require.NoError(t, err)

	for name, hash := range map[string]string{
		"unknown subject": ghost.Hash,
		"expired":         expired.Hash,
		"malformed":       "abc",
		"missing":         "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Resolve(ctx, hash)
			assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)
		})
	}

	t.Run("deactivated user with a valid token", func(t *testing.T) {
		require.NoError(t, db.Model(&usersvc.User{}).Where("id = ?", registered.ID).Update("active", false).Error)

		_, err := svc.Resolve(ctx, token.AccessToken)
		assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)
	})
}
