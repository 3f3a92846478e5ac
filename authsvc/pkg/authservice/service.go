package authservice

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Service interface {
	Register(ctx context.Context, email, password string) (usersvc.User, error)
	Login(ctx context.Context, email, password string) (Token, error)
	Resolve(ctx context.Context, token string) (usersvc.User, error)
}

func New(t Tokenizer, users userservice.Service, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t, users)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tokenizer Tokenizer
	users     userservice.Service
}

func NewBasicService(t Tokenizer, users userservice.Service) Service {
	return &basicService{tokenizer: t, users: users}
}

func (s *basicService) Register(ctx context.Context, email, password string) (usersvc.User, error) {
	return s.users.Register(ctx, email, password)
}

func (s *basicService) Login(ctx context.Context, email, password string) (Token, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return Token{}, err
	}

	at, err := s.tokenizer.Generate(user.ID, user.Email)
	if err != nil {
		return Token{}, err
	}

	return Token{
		AccessToken: at.Hash,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(at.ExpiresAt).Round(time.Second).Seconds()),
	}, nil
}

// Resolve verifies token and loads its subject fresh from the credential
// store, so a deactivated user is refused even while the signature holds.
// Every authentication failure is reported as authsvc.ErrUnauthenticated.
func (s *basicService) Resolve(ctx context.Context, token string) (usersvc.User, error) {
	if token == "" {
		return usersvc.User{}, authsvc.ErrUnauthenticated
	}

	claims, err := s.tokenizer.Parse(token)
	if err != nil {
		return usersvc.User{}, authsvc.ErrUnauthenticated
	}

	user, err := s.users.User(ctx, claims.UserID)
	if errors.Is(err, usersvc.ErrUserNotFound) {
		return usersvc.User{}, authsvc.ErrUnauthenticated
	}
	if err != nil {
		return usersvc.User{}, err
	}
	return user, nil
}
