// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"
	"log/slog"
)

// Service reads the tag vocabulary.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new tag [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

// ListLabels returns every tag label in ascending order. An empty
// vocabulary yields an empty, non-nil slice.
func (service *Service) ListLabels(context context.Context) ([]string, error) {
	tags, err := service.repository.ListTags(context)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(tags))
	for _, tag := range tags {
		labels = append(labels, tag.Label)
	}

	service.logger.DebugContext(context, "tags_listed", slog.Int("count", len(labels)))
	return labels, nil
}
