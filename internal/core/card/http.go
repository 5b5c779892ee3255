// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/livingatlas/internal/platform/constants"
	requestutil "github.com/taibuivan/livingatlas/internal/platform/request"
	"github.com/taibuivan/livingatlas/internal/platform/respond"
	"github.com/taibuivan/livingatlas/internal/platform/validate"
	"github.com/taibuivan/livingatlas/pkg/convert"
	"github.com/taibuivan/livingatlas/pkg/query"
)

// formOverhead is the allowance for multipart text fields and boundaries.
const formOverhead = 1 << 20

// # Handler Implementation

// Handler implements the HTTP layer of the card pipeline.
type Handler struct {
	service        *Service
	maxUploadBytes int64
}

// NewHandler constructs a card [Handler]. maxUploadBytes caps a submission body.
func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

// Routes returns the /cards endpoints.
//
// Submissions stream attachments and get their own deadline; every other
// route shares the global request timeout.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Card Writer
	router.With(chimw.Timeout(constants.SubmissionTimeout)).Post("/", handler.submitCard)

	// ## Card Reader
	router.Group(func(read chi.Router) {
		read.Use(chimw.Timeout(constants.GlobalRequestTimeout))

		read.Get("/", handler.listCards)
		read.Get("/filter", handler.filterCards)
		read.Get("/search", handler.searchCards)
		read.Post("/bounds", handler.cardsInBounds)
		read.Get("/profile", handler.profileCards)
		read.Get("/markers", handler.listMarkers)
		read.Get("/{cardID}", handler.getCard)
		read.Delete("/", handler.deleteCard)
	})

	return router
}

// FileRoutes returns the /files endpoints.
func (handler *Handler) FileRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{fileID}", handler.getFileLink)
	return router
}

// # Card Writer

/*
POST /api/v1/cards (multipart/form-data).

Request: title, email, username, name, category, latitude, longitude,
description, funding, org, link, tags (CSV), files (0..n, also "file"),
thumbnail, update, original_username, original_email, original_title.

Response:
  - 201: Result (created)
  - 200: Result (updated)
  - 400/404/409/413: Validation, owner or card lookup, duplicate title, size ceiling
  - 502: Blob store failure
*/
func (handler *Handler) submitCard(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, handler.maxUploadBytes+formOverhead)

	if err := requestutil.ParseMultipart(request, constants.MultipartMemory, handler.maxUploadBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer request.MultipartForm.RemoveAll()

	submission := Submission{
		Title:            requestutil.FormValue(request, FieldTitle),
		Email:            requestutil.FormValue(request, FieldEmail),
		Username:         requestutil.FormValue(request, FieldUsername),
		Name:             requestutil.FormValue(request, FieldName),
		Category:         requestutil.FormValue(request, FieldCategory),
		Latitude:         requestutil.FormValue(request, FieldLatitude),
		Longitude:        requestutil.FormValue(request, FieldLongitude),
		Description:      requestutil.FormValue(request, FieldDescription),
		Funding:          requestutil.FormValue(request, FieldFunding),
		Organization:     requestutil.FormValue(request, FieldOrganization),
		Link:             requestutil.FormValue(request, FieldLink),
		Tags:             requestutil.FormValue(request, FieldTags),
		Update:           convert.ToBool(requestutil.FormValue(request, FieldUpdate)),
		OriginalUsername: requestutil.FormValue(request, FieldOriginalUsername),
		OriginalEmail:    requestutil.FormValue(request, FieldOriginalEmail),
		OriginalTitle:    requestutil.FormValue(request, FieldOriginalTitle),
	}

	// Uploads
	if headers := request.MultipartForm.File[FieldThumbnail]; len(headers) > 0 && headers[0].Filename != "" {
		thumbnail := uploadFrom(headers[0])
		submission.Thumbnail = &thumbnail
	}

	for _, field := range []string{FieldFiles, FieldFile} {
		for _, header := range request.MultipartForm.File[field] {
			if header.Filename == "" {
				continue
			}
			submission.Files = append(submission.Files, uploadFrom(header))
		}
	}

	result, err := handler.service.Submit(request.Context(), submission)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if submission.Update {
		respond.OK(writer, result)
		return
	}
	respond.Created(writer, result)
}

/*
DELETE /api/v1/cards?username=&title=.

Response:
  - 200: {"Success": "The card is deleted"}
  - 404: No card with that title for that username
*/
func (handler *Handler) deleteCard(writer http.ResponseWriter, request *http.Request) {
	username := strings.TrimSpace(request.URL.Query().Get(FieldUsername))
	title := strings.TrimSpace(request.URL.Query().Get(FieldTitle))

	if err := handler.service.DeleteCard(request.Context(), username, title); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"Success": MessageDeleted})
}

// # Card Reader

/*
GET /api/v1/cards.

Response:
  - 200: []View newest first
*/
func (handler *Handler) listCards(writer http.ResponseWriter, request *http.Request) {
	handler.respondList(writer, request, Filter{})
}

/*
GET /api/v1/cards/filter?categoryString=&tagString=&sortString=.

Description: tagString is a comma-separated list of required tags.
sortString is "RecentlyAdded" or "ClosestToMe,<lat>,<long>".
*/
func (handler *Handler) filterCards(writer http.ResponseWriter, request *http.Request) {
	params := request.URL.Query()

	sort, origin, err := parseSort(params.Get("sortString"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.respondList(writer, request, Filter{
		Category: strings.TrimSpace(params.Get("categoryString")),
		Tags:     query.StringSlice(params.Get("tagString")),
		Sort:     sort,
		Origin:   origin,
	})
}

/*
GET /api/v1/cards/search?titleSearch=.
*/
func (handler *Handler) searchCards(writer http.ResponseWriter, request *http.Request) {
	handler.respondList(writer, request, Filter{
		Title: strings.TrimSpace(request.URL.Query().Get("titleSearch")),
	})
}

// pointRequest is one corner of a map rectangle.
type pointRequest struct {
	Latitude  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"long" validate:"required,gte=-180,lte=180"`
}

// boundsRequest is the body of POST /cards/bounds.
type boundsRequest struct {
	NorthEast *pointRequest `json:"NEpoint" validate:"required"`
	SouthWest *pointRequest `json:"SWpoint" validate:"required"`
}

/*
POST /api/v1/cards/bounds.

Request: {"NEpoint": {"lat": 48, "long": -116}, "SWpoint": {"lat": 47, "long": -118}}

Response:
  - 200: []View inside the rectangle (inclusive)
  - 400: Missing or out-of-range corner
*/
func (handler *Handler) cardsInBounds(writer http.ResponseWriter, request *http.Request) {
	var body boundsRequest
	if err := requestutil.DecodeAndValidate(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.respondList(writer, request, Filter{
		Bounds: &Bounds{
			NorthEast: Point{Latitude: *body.NorthEast.Latitude, Longitude: *body.NorthEast.Longitude},
			SouthWest: Point{Latitude: *body.SouthWest.Latitude, Longitude: *body.SouthWest.Longitude},
		},
	})
}

/*
GET /api/v1/cards/profile?username=.
*/
func (handler *Handler) profileCards(writer http.ResponseWriter, request *http.Request) {
	username := strings.TrimSpace(request.URL.Query().Get(FieldUsername))
	if username == "" {
		respond.Error(writer, request, validate.RequiredError(FieldUsername, "This field is required"))
		return
	}
	handler.respondList(writer, request, Filter{Username: username})
}

func (handler *Handler) listMarkers(writer http.ResponseWriter, request *http.Request) {
	markers, err := handler.service.Markers(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, markers)
}

func (handler *Handler) getCard(writer http.ResponseWriter, request *http.Request) {
	cardID, err := requestutil.Int64Param(request, "cardID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.GetCard(request.Context(), cardID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
GET /api/v1/files/{fileID}.

Description: With redirect=true the client is sent straight to the blob.

Response:
  - 200: FileLink
  - 302: Location set to the public file URL
  - 404: Unknown file
*/
func (handler *Handler) getFileLink(writer http.ResponseWriter, request *http.Request) {
	fileID, err := requestutil.Int64Param(request, "fileID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	link, err := handler.service.FileLink(request.Context(), fileID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if convert.ToBool(request.URL.Query().Get("redirect")) {
		http.Redirect(writer, request, link.Link, http.StatusFound)
		return
	}
	respond.OK(writer, link)
}

func (handler *Handler) respondList(writer http.ResponseWriter, request *http.Request, filter Filter) {
	views, err := handler.service.ListCards(request.Context(), filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, views)
}

// # Helpers

// parseSort reads "RecentlyAdded" or "ClosestToMe,<lat>,<long>".
func parseSort(raw string) (Sort, *Point, error) {
	parts := query.StringSlice(raw)
	if len(parts) == 0 {
		return SortDefault, nil, nil
	}

	switch Sort(parts[0]) {
	case SortRecentlyAdded:
		return SortRecentlyAdded, nil, nil
	case SortClosestToMe:
		if len(parts) != 3 {
			return "", nil, validate.RequiredError("sortString", "ClosestToMe needs a latitude and a longitude")
		}

		latitude, latErr := strconv.ParseFloat(parts[1], 64)
		longitude, longErr := strconv.ParseFloat(parts[2], 64)
		if latErr != nil || longErr != nil || !(latitude >= -90 && latitude <= 90) || !(longitude >= -180 && longitude <= 180) {
			return "", nil, validate.RequiredError("sortString", "ClosestToMe needs a valid latitude and longitude")
		}
		return SortClosestToMe, &Point{Latitude: latitude, Longitude: longitude}, nil
	default:
		return "", nil, validate.RequiredError("sortString", "Must be RecentlyAdded or ClosestToMe")
	}
}

// uploadFrom adapts a multipart header to an [Upload].
func uploadFrom(header *multipart.FileHeader) Upload {
	return Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}
