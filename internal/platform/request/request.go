// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
DecodeAndValidate decodes a JSON body and runs its `validate` struct tags.
*/
func DecodeAndValidate(request *http.Request, target interface{}) error {
	if err := DecodeJSON(request, target); err != nil {
		return err
	}
	return validate.Struct(target)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Int64Param parses a named URL parameter as a positive integer ID.

Returns:
  - int64: The parsed identifier
  - error: VALIDATION_ERROR naming the parameter if it is not a positive integer
*/
func Int64Param(request *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || value <= 0 {
		return 0, validate.RequiredError(name, "Must be a positive integer")
	}
	return value, nil
}

/*
ParseMultipart parses a multipart/form-data body, spilling parts above
memory bytes to temporary files.

Description: A body larger than the server's MaxBytesReader ceiling is
reported as PAYLOAD_TOO_LARGE rather than a generic form error.

Parameters:
  - request: *http.Request
  - memory: int64 (bytes kept in RAM)
  - limit: int64 (ceiling reported in the 413 message)

Returns:
  - error: validate.ErrInvalidForm, apperr.PayloadTooLarge, or nil
*/
func ParseMultipart(request *http.Request, memory, limit int64) error {
	err := request.ParseMultipartForm(memory)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.PayloadTooLarge(limit)
	}

	return validate.ErrInvalidForm
}

/*
FormValue returns a trimmed multipart or urlencoded form value.
*/
func FormValue(request *http.Request, name string) string {
	return strings.TrimSpace(request.FormValue(name))
}
