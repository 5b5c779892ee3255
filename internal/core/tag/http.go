// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/livingatlas/internal/platform/respond"
)

// Handler serves the tag vocabulary.
type Handler struct {
	service *Service
}

// NewHandler constructs a tag [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /tags endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listTags)
	return router
}

/*
GET /api/v1/tags.

Response:
  - 200: []string sorted by label
*/
func (handler *Handler) listTags(writer http.ResponseWriter, request *http.Request) {
	labels, err := handler.service.ListLabels(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, labels)
}
