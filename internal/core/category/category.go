// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package category owns the card classification reference data (River,
Watershed, Places).

Categories are seeded by migration and read once at startup into a
[Registry]. Card validation resolves labels through the registry, so
reordering or renumbering rows in the table never silently remaps cards.
*/
package category

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
)

// Category is a single card classification.
type Category struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Source loads every category row.
type Source interface {
	List(context context.Context) ([]Category, error)
}

// Registry is an immutable, case-insensitive label index. Safe for concurrent use.
type Registry struct {
	byLabel map[string]Category
	ordered []Category
}

// NewRegistry indexes the given categories.
func NewRegistry(categories []Category) *Registry {
	ordered := append([]Category(nil), categories...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	byLabel := make(map[string]Category, len(ordered))
	for _, category := range ordered {
		byLabel[normalize(category.Label)] = category
	}

	return &Registry{byLabel: byLabel, ordered: ordered}
}

// Load reads the categories from source and builds a registry.
func Load(context context.Context, source Source, logger *slog.Logger) (*Registry, error) {
	categories, err := source.List(context)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, errors.New("category: table is empty, migrations not applied")
	}

	registry := NewRegistry(categories)
	logger.Info("category_registry_loaded", slog.Int("count", len(categories)))
	return registry, nil
}

// Resolve returns the category whose label matches (case-insensitive, trimmed).
func (registry *Registry) Resolve(label string) (Category, bool) {
	category, ok := registry.byLabel[normalize(label)]
	return category, ok
}

// Labels returns every label ordered by id.
func (registry *Registry) Labels() []string {
	labels := make([]string, 0, len(registry.ordered))
	for _, category := range registry.ordered {
		labels = append(labels, category.Label)
	}
	return labels
}

// All returns a copy of the categories ordered by id.
func (registry *Registry) All() []Category {
	return append([]Category(nil), registry.ordered...)
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
