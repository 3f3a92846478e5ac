package tagtransport

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/log"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/todokit/httpapi"
	"github.com/ichigozero/todokit/tagsvc/pkg/tagendpoint"
)

func NewHTTPHandler(endpoints tagendpoint.Set, logger log.Logger) http.Handler {
	options := httpapi.ServerOptions(logger)

	tagsHandler := httptransport.NewServer(
		endpoints.TagsEndpoint,
		decodeHTTPTagsRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	tagHandler := httptransport.NewServer(
		endpoints.TagEndpoint,
		decodeHTTPTagRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	createTagHandler := httptransport.NewServer(
		endpoints.CreateTagEndpoint,
		decodeHTTPCreateTagRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	updateTagHandler := httptransport.NewServer(
		endpoints.UpdateTagEndpoint,
		decodeHTTPUpdateTagRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	deleteTagHandler := httptransport.NewServer(
		endpoints.DeleteTagEndpoint,
		decodeHTTPTagRequest,
		httpapi.EncodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()

	r.Methods("GET").Path("/tags").Handler(tagsHandler)
	r.Methods("POST").Path("/tags").Handler(createTagHandler)
	r.Methods("GET").Path("/tags/{tag_id:[0-9]+}").Handler(tagHandler)
	r.Methods("PUT").Path("/tags/{tag_id:[0-9]+}").Handler(updateTagHandler)
	r.Methods("DELETE").Path("/tags/{tag_id:[0-9]+}").Handler(deleteTagHandler)

	return r
}

func decodeHTTPTagsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return tagendpoint.TagsRequest{}, nil
}

func decodeHTTPTagRequest(_ context.Context, r *http.Request) (interface{}, error) {
	tagID, err := httpapi.PathID(r, "tag_id")
	if err != nil {
		return nil, err
	}
	return tagendpoint.TagRequest{TagID: tagID}, nil
}

func decodeHTTPCreateTagRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req tagendpoint.CreateTagRequest
	err := httpapi.DecodeJSON(r, &req)
	return req, err
}

func decodeHTTPUpdateTagRequest(_ context.Context, r *http.Request) (interface{}, error) {
	tagID, err := httpapi.PathID(r, "tag_id")
	if err != nil {
		return nil, err
	}

	var req tagendpoint.UpdateTagRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	req.TagID = tagID

	return req, nil
}
