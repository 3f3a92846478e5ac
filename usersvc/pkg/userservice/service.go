package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/ichigozero/todokit/validation"
	"golang.org/x/crypto/bcrypt"
)

// Service is the credential store: it owns user records and password
// hashes, and never returns or compares plaintext.
type Service interface {
	Register(ctx context.Context, email, password string) (usersvc.User, error)
	Authenticate(ctx context.Context, email, password string) (usersvc.User, error)
	User(ctx context.Context, id uint64) (usersvc.User, error)
}

func New(users usersvc.UserRepository, cost int, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(users, cost)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	users usersvc.UserRepository
	cost  int
}

// NewBasicService returns a Service hashing with the given bcrypt cost.
func NewBasicService(users usersvc.UserRepository, cost int) Service {
	return basicService{users: users, cost: cost}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"min=8,max=72"`
}

func (s basicService) Register(ctx context.Context, email, password string) (usersvc.User, error) {
	c := credentials{Email: normalizeEmail(email), Password: password}
	if err := validation.Struct(c); err != nil {
		return usersvc.User{}, fmt.Errorf("%w: %v", usersvc.ErrInvalidArgument, err)
	}

	_, err := s.users.FindByEmail(ctx, c.Email)
	switch {
	case err == nil:
		return usersvc.User{}, usersvc.ErrEmailTaken
	case !errors.Is(err, usersvc.ErrUserNotFound):
		return usersvc.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return usersvc.User{}, err
	}

	user := usersvc.User{
		Email:        c.Email,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return usersvc.User{}, err
	}
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown email, an
// inactive user and a wrong password alike.
func (s basicService) Authenticate(ctx context.Context, email, password string) (usersvc.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, usersvc.ErrUserNotFound) {
		return usersvc.User{}, usersvc.ErrInvalidCredentials
	}
	if err != nil {
		return usersvc.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil || !user.Active {
		return usersvc.User{}, usersvc.ErrInvalidCredentials
	}
	return user, nil
}

func (s basicService) User(ctx context.Context, id uint64) (usersvc.User, error) {
	if id == 0 {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	user, err := s.users.Find(ctx, id)
	if err != nil {
		return usersvc.User{}, err
	}
	if !user.Active {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
