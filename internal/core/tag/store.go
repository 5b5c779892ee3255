// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import "context"

// Repository reads the tag vocabulary.
type Repository interface {
	// ListTags returns every tag ordered by label.
	ListTags(context context.Context) ([]*Tag, error)
}
