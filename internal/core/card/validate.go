// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/taibuivan/livingatlas/internal/core/category"
	"github.com/taibuivan/livingatlas/internal/platform/validate"
)

// Column limits of atlas.cards.
const (
	MaxTitleLength        = 255
	MaxDescriptionLength  = 2000
	MaxOrganizationLength = 255
	MaxFundingLength      = 255
	MaxLinkLength         = 255
	MaxCoordinateDecimals = 8
)

var errNotFinite = errors.New("coordinate is not finite")

/*
Validate checks a submission against the card column limits and resolves
its category.

Description: Checks run in a fixed order and stop at the first violation,
so the returned error names exactly one field. Nothing is written.

Parameters:
  - registry: *category.Registry
  - submission: Submission

Returns:
  - Fields: Parsed coordinates and resolved category id
  - error: VALIDATION_ERROR naming the offending field
*/
func Validate(registry *category.Registry, submission Submission) (Fields, error) {
	validator := &validate.Validator{StopOnFirst: true}

	// Category
	resolved, known := registry.Resolve(submission.Category)
	validator.Required(FieldCategory, submission.Category).
		Custom(FieldCategory, !known, "Must be one of: "+strings.Join(registry.Labels(), ", "))

	// Title
	title := strings.TrimSpace(submission.Title)
	validator.Required(FieldTitle, title).MaxLen(FieldTitle, title, MaxTitleLength)

	// Coordinates
	latitude, latitudeErr := parseCoordinate(submission.Latitude)
	validator.Required(FieldLatitude, submission.Latitude).
		Custom(FieldLatitude, latitudeErr != nil, "Must be a number").
		FloatRange(FieldLatitude, latitude, -90, 90).
		MaxDecimals(FieldLatitude, latitude, MaxCoordinateDecimals)

	longitude, longitudeErr := parseCoordinate(submission.Longitude)
	validator.Required(FieldLongitude, submission.Longitude).
		Custom(FieldLongitude, longitudeErr != nil, "Must be a number").
		FloatRange(FieldLongitude, longitude, -180, 180).
		MaxDecimals(FieldLongitude, longitude, MaxCoordinateDecimals)

	// Free text
	validator.MaxLen(FieldDescription, submission.Description, MaxDescriptionLength).
		MaxLen(FieldOrganization, submission.Organization, MaxOrganizationLength).
		MaxLen(FieldFunding, submission.Funding, MaxFundingLength).
		MaxLen(FieldLink, submission.Link, MaxLinkLength)

	if err := validator.Err(); err != nil {
		return Fields{}, err
	}

	return Fields{
		Title:        title,
		CategoryID:   resolved.ID,
		Latitude:     latitude,
		Longitude:    longitude,
		Description:  submission.Description,
		Organization: submission.Organization,
		Funding:      submission.Funding,
		Link:         submission.Link,
	}, nil
}

// parseCoordinate parses a decimal degree value, rejecting NaN and infinities.
func parseCoordinate(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errNotFinite
	}
	return value, nil
}
