// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/livingatlas/internal/platform/respond"
)

// Handler exposes the registry read-only.
type Handler struct {
	registry *Registry
}

// NewHandler constructs a category [Handler].
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Routes returns the category endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listCategories)
	return router
}

/*
GET /api/v1/categories.

Response:
  - 200: []Category ordered by id
*/
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.registry.All())
}
