// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/livingatlas/internal/core/category"
)

type fakeSource struct {
	categories []category.Category
	err        error
}

func (source fakeSource) List(_ context.Context) ([]category.Category, error) {
	return source.categories, source.err
}

/*
TestRegistry_Resolve checks case-insensitive label lookup against loaded rows.
*/
func TestRegistry_Resolve(t *testing.T) {
	source := fakeSource{categories: []category.Category{
		{ID: 3, Label: "Places"},
		{ID: 1, Label: "River"},
		{ID: 2, Label: "Watershed"},
	}}

	registry, err := category.Load(context.Background(), source, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	tests := []struct {
		label string
		id    int
		found bool
	}{
		{"River", 1, true},
		{"river", 1, true},
		{"  WATERSHED ", 2, true},
		{"Places", 3, true},
		{"Lake", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		resolved, ok := registry.Resolve(tt.label)
		assert.Equal(t, tt.found, ok, tt.label)
		assert.Equal(t, tt.id, resolved.ID, tt.label)
	}

	assert.Equal(t, []string{"River", "Watershed", "Places"}, registry.Labels())
}

/*
TestRegistry_RenumberedRows ensures ids come from the table, not a fixed mapping.
*/
func TestRegistry_RenumberedRows(t *testing.T) {
	registry := category.NewRegistry([]category.Category{{ID: 7, Label: "River"}})

	resolved, ok := registry.Resolve("River")
	require.True(t, ok)
	assert.Equal(t, 7, resolved.ID)
}

/*
TestLoad_SourceError surfaces the source failure.
*/
func TestLoad_SourceError(t *testing.T) {
	_, err := category.Load(context.Background(), fakeSource{err: errors.New("boom")}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
