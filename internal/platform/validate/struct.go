// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// engine returns the shared validator configured to report JSON field names.
func engine() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := field.Tag.Get("json")
			if name == "" || name == "-" {
				return field.Name
			}
			if comma := strings.IndexByte(name, ','); comma >= 0 {
				name = name[:comma]
			}
			return name
		})
	})
	return structValidator
}

/*
Struct validates a typed request payload using its `validate` struct tags.

Description: Failures are converted into a VALIDATION_ERROR whose details
name each offending JSON field, so boundary validation renders the same
envelope as service-layer validation.

Parameters:
  - target: any (pointer to a struct carrying `validate` tags)

Returns:
  - error: *apperr.AppError on rule failure, nil otherwise
*/
func Struct(target any) error {
	err := engine().Struct(target)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperr.Internal(err)
	}

	details := make([]apperr.FieldError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		details = append(details, apperr.FieldError{
			Field:   fieldPath(fieldError),
			Message: friendlyMessage(fieldError),
		})
	}

	return apperr.ValidationError("Validation failed", details...)
}

// fieldPath drops the root struct name from the namespace ("boundsRequest.NEpoint.lat" → "NEpoint.lat").
func fieldPath(fieldError validator.FieldError) string {
	namespace := fieldError.Namespace()
	if dot := strings.IndexByte(namespace, '.'); dot >= 0 {
		return namespace[dot+1:]
	}
	return fieldError.Field()
}

func friendlyMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s", fieldError.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fieldError.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fieldError.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fieldError.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fieldError.Param())
	case "email":
		return "Must be a valid email address"
	default:
		return fmt.Sprintf("Failed %s rule", fieldError.Tag())
	}
}
