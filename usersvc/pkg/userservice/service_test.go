package userservice

import (
	"context"
	"testing"

	"github.com/ichigozero/todokit/storage/storagetest"
	"github.com/ichigozero/todokit/usersvc"
	usergorm "github.com/ichigozero/todokit/usersvc/db/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (Service, usersvc.UserRepository) {
	repo := usergorm.NewUserRepository(storagetest.New(t))
	return NewBasicService(repo, bcrypt.MinCost), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  A@X.com ", "pw123456")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.True(t, user.Active)
	assert.NotEqual(t, "pw123456", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw123456")))

	_, err = svc.Register(ctx, "a@x.com", "another-password")
	assert.ErrorIs(t, err, usersvc.ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "pw123456"},
		{"malformed email", "not-an-email", "pw123456"},
		{"short password", "a@x.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, usersvc.ErrInvalidArgument)
		})
	}
}

func TestAuthenticateHidesWhichPartFailed(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "A@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, wrongPassword := svc.Authenticate(ctx, "a@x.com", "pw1234567")
	_, unknownEmail := svc.Authenticate(ctx, "b@x.com", "pw123456")
	assert.ErrorIs(t, wrongPassword, usersvc.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, usersvc.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestUserRejectsInactive(t *testing.T) {
	db := storagetest.New(t)
	svc := NewBasicService(usergorm.NewUserRepository(db), bcrypt.MinCost)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)

	user, err := svc.User(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	require.NoError(t, db.Model(&usersvc.User{}).Where("id = ?", registered.ID).Update("active", false).Error)

	_, err = svc.User(ctx, registered.ID)
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)

	_, err = svc.Authenticate(ctx, "a@x.com", "pw123456")
	assert.ErrorIs(t, err, usersvc.ErrInvalidCredentials)
}
