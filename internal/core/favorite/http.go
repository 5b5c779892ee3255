// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package favorite

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/livingatlas/internal/platform/request"
	"github.com/taibuivan/livingatlas/internal/platform/respond"
	"github.com/taibuivan/livingatlas/internal/platform/validate"
)

// Handler serves bookmark endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a favorite [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /favorites endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.bookmark)
	router.Delete("/", handler.unbookmark)
	router.Get("/", handler.list)
	return router
}

// bookmarkRequest is the body of POST and DELETE /favorites.
type bookmarkRequest struct {
	Username string `json:"username" validate:"required"`
	CardID   int64  `json:"cardID" validate:"required,gt=0"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type listResponse struct {
	BookmarkedCards []Bookmark `json:"bookmarkedCards"`
}

/*
POST /api/v1/favorites.

Request: {"username": "alice", "cardID": 12}

Response:
  - 200: {"message": "Card bookmarked successfully"}
  - 400: Missing username or cardID
  - 404: Unknown user or card
*/
func (handler *Handler) bookmark(writer http.ResponseWriter, request *http.Request) {
	var body bookmarkRequest
	if err := requestutil.DecodeAndValidate(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Bookmark(request.Context(), body.Username, body.CardID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, messageResponse{Message: MessageBookmarked})
}

/*
DELETE /api/v1/favorites.

Request: {"username": "alice", "cardID": 12}
*/
func (handler *Handler) unbookmark(writer http.ResponseWriter, request *http.Request) {
	var body bookmarkRequest
	if err := requestutil.DecodeAndValidate(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Unbookmark(request.Context(), body.Username, body.CardID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, messageResponse{Message: MessageUnbookmarked})
}

/*
GET /api/v1/favorites?username=.

Response:
  - 200: {"bookmarkedCards": [{"cardID": 12}]}
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	username := strings.TrimSpace(request.URL.Query().Get("username"))
	if username == "" {
		respond.Error(writer, request, validate.RequiredError("username", "This field is required"))
		return
	}

	bookmarks, err := handler.service.List(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, listResponse{BookmarkedCards: bookmarks})
}
