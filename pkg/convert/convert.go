// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides lenient conversions for form and query values.

Malformed input collapses to the zero value. Use [strconv] directly where a
malformed value must be reported.
*/
package convert

import "strconv"

// ToBool parses "true", "1", "false", "0" and friends.
// It returns false on an empty string or a parse error.
func ToBool(s string) bool {
	if s == "" {
		return false
	}

	v, _ := strconv.ParseBool(s)
	return v
}
