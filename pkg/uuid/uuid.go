// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered identifiers for request correlation.

Version 7 values sort by creation time (millisecond precision), so request IDs
in aggregated logs line up with arrival order.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
//
// It falls back to a random v4 value if the v7 clock read fails.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsValid reports whether value parses as a UUID of any version.
func IsValid(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
