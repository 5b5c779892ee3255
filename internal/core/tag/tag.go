// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package tag exposes the shared tag vocabulary.
//
// Labels are created by the card writer when a submission names a tag that
// does not exist yet; this package only reads them.
package tag

// Tag is one label of the vocabulary.
type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}
