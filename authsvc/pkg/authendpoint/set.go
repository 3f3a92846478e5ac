package authendpoint

import (
	"context"
	"net/http"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/usersvc"
	"golang.org/x/time/rate"
)

type Set struct {
	RegisterEndpoint endpoint.Endpoint
	LoginEndpoint    endpoint.Endpoint
	MeEndpoint       endpoint.Endpoint
}

// New builds the auth endpoints. Register and Login share a limiter that
// admits limit requests per second; a limit of zero or less disables it.
func New(svc authservice.Service, limit int, logger log.Logger) Set {
	limiter := func(e endpoint.Endpoint) endpoint.Endpoint { return e }
	if limit > 0 {
		limiter = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second/time.Duration(limit)), limit))
	}

	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = MakeRegisterEndpoint(svc)
		registerEndpoint = limiter(registerEndpoint)
		registerEndpoint = LoggingMiddleware(log.With(logger, "method", "Register"))(registerEndpoint)
	}

	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = MakeLoginEndpoint(svc)
		loginEndpoint = limiter(loginEndpoint)
		loginEndpoint = LoggingMiddleware(log.With(logger, "method", "Login"))(loginEndpoint)
	}

	var meEndpoint endpoint.Endpoint
	{
		meEndpoint = MakeMeEndpoint(svc)
		meEndpoint = LoggingMiddleware(log.With(logger, "method", "Me"))(meEndpoint)
	}

	return Set{
		RegisterEndpoint: registerEndpoint,
		LoginEndpoint:    loginEndpoint,
		MeEndpoint:       meEndpoint,
	}
}

func MakeRegisterEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RegisterRequest)
		u, err := s.Register(ctx, req.Email, req.Password)

		return RegisterResponse{User: u, Err: err}, nil
	}
}

func MakeLoginEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(LoginRequest)
		t, err := s.Login(ctx, req.Email, req.Password)

		return LoginResponse{Token: t, Err: err}, nil
	}
}

func MakeMeEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(MeRequest)
		token, _ := ctx.Value(kitjwt.JWTContextKey).(string)
		u, err := s.Resolve(ctx, token)

		return MeResponse{User: u, Err: err}, nil
	}
}

// NewAuthenticator resolves the bearer token placed in the context by
// kitjwt.HTTPToContext and hands the caller's authsvc.Identity to next.
// Requests without a usable token never reach next.
func NewAuthenticator(s authservice.Service) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			token, ok := ctx.Value(kitjwt.JWTContextKey).(string)
			if !ok {
				return nil, authsvc.ErrUnauthenticated
			}

			u, err := s.Resolve(ctx, token)
			if err != nil {
				return nil, err
			}

			ctx = authsvc.NewContext(ctx, authsvc.Identity{UserID: u.ID, Email: u.Email})
			return next(ctx, request)
		}
	}
}

var (
	_ endpoint.Failer = RegisterResponse{}
	_ endpoint.Failer = LoginResponse{}
	_ endpoint.Failer = MeResponse{}
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User usersvc.User
	Err  error
}

func (r RegisterResponse) Failed() error { return r.Err }

func (r RegisterResponse) StatusCode() int { return http.StatusCreated }

func (r RegisterResponse) Payload() interface{} { return r.User }

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token authservice.Token
	Err   error
}

func (r LoginResponse) Failed() error { return r.Err }

func (r LoginResponse) Payload() interface{} { return r.Token }

type MeRequest struct{}

type MeResponse struct {
	User usersvc.User
	Err  error
}

func (r MeResponse) Failed() error { return r.Err }

func (r MeResponse) Payload() interface{} { return r.User }
