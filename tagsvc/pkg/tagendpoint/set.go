package tagendpoint

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/tagsvc"
	"github.com/ichigozero/todokit/tagsvc/pkg/tagservice"
)

type Set struct {
	TagsEndpoint      endpoint.Endpoint
	TagEndpoint       endpoint.Endpoint
	CreateTagEndpoint endpoint.Endpoint
	UpdateTagEndpoint endpoint.Endpoint
	DeleteTagEndpoint endpoint.Endpoint
}

// New wraps every endpoint in authenticate, which must place the caller's
// authsvc.Identity in the context.
func New(svc tagservice.Service, authenticate endpoint.Middleware, logger log.Logger) Set {
	wrap := func(e endpoint.Endpoint, method string) endpoint.Endpoint {
		e = authenticate(e)
		return authendpoint.LoggingMiddleware(log.With(logger, "method", method))(e)
	}

	return Set{
		TagsEndpoint:      wrap(MakeTagsEndpoint(svc), "Tags"),
		TagEndpoint:       wrap(MakeTagEndpoint(svc), "Tag"),
		CreateTagEndpoint: wrap(MakeCreateTagEndpoint(svc), "CreateTag"),
		UpdateTagEndpoint: wrap(MakeUpdateTagEndpoint(svc), "UpdateTag"),
		DeleteTagEndpoint: wrap(MakeDeleteTagEndpoint(svc), "DeleteTag"),
	}
}

func MakeTagsEndpoint(s tagservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TagsResponse{Err: err}, nil
		}

		_ = request.(TagsRequest)
		t, err := s.Tags(ctx, a)
		return TagsResponse{Tags: t, Err: err}, nil
	}
}

func MakeTagEndpoint(s tagservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TagResponse{Err: err}, nil
		}

		req := request.(TagRequest)
		t, err := s.Tag(ctx, a, req.TagID)
		return TagResponse{Tag: t, Err: err}, nil
	}
}

func MakeCreateTagEndpoint(s tagservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return CreateTagResponse{Err: err}, nil
		}

		req := request.(CreateTagRequest)
		t, err := s.CreateTag(ctx, a, req.Name, req.Color)
		return CreateTagResponse{Tag: t, Err: err}, nil
	}
}

func MakeUpdateTagEndpoint(s tagservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return TagResponse{Err: err}, nil
		}

		req := request.(UpdateTagRequest)
		t, err := s.UpdateTag(ctx, a, req.TagID, req.Name, req.Color)
		return TagResponse{Tag: t, Err: err}, nil
	}
}

func MakeDeleteTagEndpoint(s tagservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		a, err := authsvc.FromContext(ctx)
		if err != nil {
			return DeleteTagResponse{Err: err}, nil
		}

		req := request.(TagRequest)
		return DeleteTagResponse{Err: s.DeleteTag(ctx, a, req.TagID)}, nil
	}
}

var (
	_ endpoint.Failer = TagsResponse{}
	_ endpoint.Failer = TagResponse{}
	_ endpoint.Failer = CreateTagResponse{}
	_ endpoint.Failer = DeleteTagResponse{}
)

type TagsRequest struct{}

type TagsResponse struct {
	Tags []tagsvc.Tag
	Err  error
}

func (r TagsResponse) Failed() error { return r.Err }

func (r TagsResponse) Payload() interface{} { return r.Tags }

type TagRequest struct {
	TagID uint64
}

type TagResponse struct {
	Tag tagsvc.Tag
	Err error
}

func (r TagResponse) Failed() error { return r.Err }

func (r TagResponse) Payload() interface{} { return r.Tag }

type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CreateTagResponse struct {
	Tag tagsvc.Tag
	Err error
}

func (r CreateTagResponse) Failed() error { return r.Err }

func (r CreateTagResponse) StatusCode() int { return http.StatusCreated }

func (r CreateTagResponse) Payload() interface{} { return r.Tag }

type UpdateTagRequest struct {
	TagID uint64 `json:"-"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type DeleteTagResponse struct {
	Err error
}

func (r DeleteTagResponse) Failed() error { return r.Err }

func (r DeleteTagResponse) StatusCode() int { return http.StatusNoContent }
