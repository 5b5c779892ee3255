// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-shaped request parameters.
package query

import "strings"

// StringSlice splits a comma-separated value into trimmed, non-empty parts.
//
// It returns nil for an empty or blank-only value.
func StringSlice(value string) []string {
	if value == "" {
		return nil
	}

	var parts []string
	for _, item := range strings.Split(value, ",") {
		if clean := strings.TrimSpace(item); clean != "" {
			parts = append(parts, clean)
		}
	}
	return parts
}
