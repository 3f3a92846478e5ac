// Package httpapi holds the request plumbing shared by every HTTP
// transport: server options, the JSON response encoder and the mapping from
// domain errors to status codes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/tagsvc"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/ichigozero/todokit/usersvc"
)

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

// ErrMalformedRequest is returned when a request body or query string
// cannot be decoded.
var ErrMalformedRequest = errors.New("malformed request")

// Payloader is implemented by responses whose JSON body is not the
// response struct itself.
type Payloader interface {
	Payload() interface{}
}

// ServerOptions are the options every handler is built with. Bearer
// tokens are copied from the Authorization header into the context.
func ServerOptions(logger log.Logger) []httptransport.ServerOption {
	return []httptransport.ServerOption{
		httptransport.ServerBefore(kitjwt.HTTPToContext()),
		httptransport.ServerErrorEncoder(ErrorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}
}

func ErrorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	code := err2code(err)
	msg := err.Error()
	switch code {
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	case http.StatusInternalServerError:
		msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorWrapper{Error: msg})
}

type errorWrapper struct {
	Error string `json:"error"`
}

func err2code(err error) int {
	switch {
	case errors.Is(err, usersvc.ErrInvalidArgument),
		errors.Is(err, tagsvc.ErrInvalidArgument),
		errors.Is(err, tasksvc.ErrInvalidArgument),
		errors.Is(err, usersvc.ErrEmailTaken),
		errors.Is(err, ErrMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, authsvc.ErrUnauthenticated),
		errors.Is(err, usersvc.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, tasksvc.ErrTaskNotFound),
		errors.Is(err, tagsvc.ErrTagNotFound):
		return http.StatusNotFound
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// EncodeHTTPGenericResponse is a transport/http.EncodeResponseFunc that
// encodes the response as JSON to the response writer. Failed responses go
// through ErrorEncoder. Responses implementing httptransport.StatusCoder
// choose their status; a 204 writes no body.
func EncodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		ErrorEncoder(ctx, f.Failed(), w)
		return nil
	}

	code := http.StatusOK
	if sc, ok := response.(httptransport.StatusCoder); ok {
		code = sc.StatusCode()
	}
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return nil
	}

	if p, ok := response.(Payloader); ok {
		response = p.Payload()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(response)
}

func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return nil
}

// PathID parses the numeric path variable name.
func PathID(r *http.Request, name string) (uint64, error) {
	v, ok := mux.Vars(r)[name]
	if !ok {
		return 0, ErrBadRouting
	}

	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrMalformedRequest, name)
	}
	return id, nil
}
