// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package card implements the card submission and retrieval pipeline.

A card is a catalogued point of interest with metadata, a category, tags,
zipped attachments and a thumbnail. The package is split along the pipeline:

  - validate.go: fail-fast field checks producing [Fields].
  - tags.go: the tag reconciler (parse, partition, ensure, link).
  - packager.go: thumbnail upload and attachment compression.
  - service.go: the transactional card writer and the reader entry points.
  - store_postgres*.go: the PostgreSQL writer transaction and aggregation queries.
*/
package card

import (
	"io"
	"time"
)

// # Form Fields

const (
	FieldTitle            = "title"
	FieldEmail            = "email"
	FieldUsername         = "username"
	FieldName             = "name"
	FieldCategory         = "category"
	FieldLatitude         = "latitude"
	FieldLongitude        = "longitude"
	FieldDescription      = "description"
	FieldOrganization     = "org"
	FieldFunding          = "funding"
	FieldLink             = "link"
	FieldTags             = "tags"
	FieldThumbnail        = "thumbnail"
	FieldFiles            = "files"
	FieldFile             = "file"
	FieldUpdate           = "update"
	FieldOriginalUsername = "original_username"
	FieldOriginalEmail    = "original_email"
	FieldOriginalTitle    = "original_title"
)

// # Reader Types

// Sort selects the ordering of a card listing.
type Sort string

const (
	// SortDefault orders by card id, newest first.
	SortDefault Sort = ""
	// SortClosestToMe orders by planar distance from [Filter.Origin].
	SortClosestToMe Sort = "ClosestToMe"
	// SortRecentlyAdded orders by date posted, newest first.
	SortRecentlyAdded Sort = "RecentlyAdded"
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"long"`
}

// Bounds is an inclusive map rectangle.
type Bounds struct {
	NorthEast Point
	SouthWest Point
}

// Filter narrows a card listing. Zero values disable a predicate.
type Filter struct {
	Category string
	Tags     []string
	Title    string
	Username string
	Bounds   *Bounds
	Sort     Sort
	Origin   *Point
}

// File is an attachment as exposed in a card view.
type File struct {
	ID        int64  `json:"fileid"`
	Name      string `json:"filename"`
	Link      string `json:"file_link"`
	Extension string `json:"fileextension"`
}

// View is the denormalized card returned by every read endpoint.
type View struct {
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Title         string    `json:"title"`
	ID            int64     `json:"cardID"`
	Category      string    `json:"category"`
	DatePosted    time.Time `json:"date"`
	Description   string    `json:"description"`
	Organization  string    `json:"org"`
	Funding       string    `json:"funding"`
	Link          string    `json:"link"`
	Tags          string    `json:"tags"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	ThumbnailLink string    `json:"thumbnail_link"`
	Files         []File    `json:"files"`
}

// Marker is the lightweight card projection used to draw the map.
type Marker struct {
	ID        int64   `json:"cardID"`
	Title     string  `json:"title"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Category  string  `json:"category"`
	Tags      string  `json:"tags"`
}

// FileLink is the download pointer for a single attachment.
type FileLink struct {
	Link     string `json:"file_link"`
	FileName string `json:"filename"`
}

// # Writer Types

// Upload is a client-supplied file. Open may be called once per packaging step.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Submission carries the raw form values of a create or update request.
type Submission struct {
	Title        string
	Email        string
	Username     string
	Name         string
	Category     string
	Latitude     string
	Longitude    string
	Description  string
	Funding      string
	Organization string
	Link         string
	Tags         string

	// Update switches the writer to in-place update of (owner, title).
	Update bool

	// Original* locate the card being updated when the owner or title changes.
	OriginalUsername string
	OriginalEmail    string
	OriginalTitle    string

	Thumbnail *Upload
	Files     []Upload
}

// Fields is a validated submission.
type Fields struct {
	Title        string
	CategoryID   int
	Latitude     float64
	Longitude    float64
	Description  string
	Organization string
	Funding      string
	Link         string
}

// Card is a row written by the card writer.
type Card struct {
	ID      int64
	OwnerID int64
	Name    string
	Fields  Fields

	// ThumbnailLink empty on update keeps the stored link.
	ThumbnailLink string
}

// Owned identifies an existing card and the blobs it references.
type Owned struct {
	ID            int64
	OwnerID       int64
	ThumbnailLink string
}

// StoredFile is an attachment row.
type StoredFile struct {
	CardID    int64
	Name      string
	Key       string
	Link      string
	Size      int64
	Extension string
}

// Result is returned by a successful submission.
type Result struct {
	Message string `json:"message"`
	CardID  int64  `json:"card_id"`
}
