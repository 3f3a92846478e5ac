package authtransport

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-kit/kit/log"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/httpapi"
)

func NewHTTPHandler(endpoints authendpoint.Set, logger log.Logger) http.Handler {
	options := httpapi.ServerOptions(logger)

	registerHandler := httptransport.NewServer(
		endpoints.RegisterEndpoint,
		decodeHTTPRegisterRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	loginHandler := httptransport.NewServer(
		endpoints.LoginEndpoint,
		decodeHTTPLoginRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	meHandler := httptransport.NewServer(
		endpoints.MeEndpoint,
		decodeHTTPMeRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()

	r.Methods("POST").Path("/auth/register").Handler(registerHandler)
	r.Methods("POST").Path("/auth/login").Handler(loginHandler)
	r.Methods("GET").Path("/auth/me").Handler(meHandler)

	return r
}

func decodeHTTPRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.RegisterRequest
	err := httpapi.DecodeJSON(r, &req)
	return req, err
}

// decodeHTTPLoginRequest accepts a JSON body or an OAuth2 password style
// form, where the email travels as username.
func decodeHTTPLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.LoginRequest

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
			return nil, fmt.Errorf("%w: %v", httpapi.ErrMalformedRequest, err)
		}
		req.Email = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		return req, nil
	}

	err := httpapi.DecodeJSON(r, &req)
	return req, err
}

func decodeHTTPMeRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return authendpoint.MeRequest{}, nil
}
