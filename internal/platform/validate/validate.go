// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// The chainable [Validator] is used in the service layer for domain rules.
// [Struct] validates typed request payloads at the HTTP boundary.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
)

var (
	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

	// ErrInvalidForm is returned when a multipart body cannot be parsed.
	ErrInvalidForm = apperr.ValidationError("Invalid multipart form payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// With StopOnFirst set, every rule after the first failure is skipped and
// [Validator.Err] reports exactly one field.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	StopOnFirst bool

	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if v.halted() {
		return v
	}
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if v.halted() {
		return v
	}
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if v.halted() {
		return v
	}
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// FloatRange fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) FloatRange(field string, value, min, max float64) *Validator {
	if v.halted() {
		return v
	}
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %s and %s", formatFloat(min), formatFloat(max)))
	}
	return v
}

// MaxDecimals fails if the shortest decimal form of value has more than
// places fractional digits.
func (v *Validator) MaxDecimals(field string, value float64, places int) *Validator {
	if v.halted() {
		return v
	}
	if FractionalDigits(value) > places {
		v.add(field, fmt.Sprintf("Maximum %d decimal places", places))
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if v.halted() {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("latitude", err != nil, "Must be a number")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if v.halted() {
		return v
	}
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// Call it once, at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// halted reports whether a fail-fast validator already recorded a failure.
func (v *Validator) halted() bool {
	return v.StopOnFirst && len(v.errs) > 0
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}

// FractionalDigits counts the digits after the decimal point in the shortest
// representation that round-trips value (47.1 → 1, -117.123456789 → 9).
func FractionalDigits(value float64) int {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return 0
	}
	return len(text) - dot - 1
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
