// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestBuildListQuery checks predicate text and positional arguments per filter.
*/
func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		contains []string
		args     []any
	}{
		{
			name:     "no filter",
			filter:   Filter{},
			contains: []string{"ORDER BY c.cardid DESC"},
			args:     nil,
		},
		{
			name:     "category",
			filter:   Filter{Category: "River"},
			contains: []string{"LOWER(cat.categorylabel) = LOWER($1)"},
			args:     []any{"River"},
		},
		{
			name:     "tags are folded and counted",
			filter:   Filter{Tags: []string{"Clean", "clean", " Scenic "}},
			contains: []string{"= ANY($1)", ") = $2"},
			args:     []any{[]string{"clean", "scenic"}, 2},
		},
		{
			name:     "title escapes wildcards",
			filter:   Filter{Title: "100%_creek"},
			contains: []string{"ILIKE $1 ESCAPE"},
			args:     []any{`%100\%\_creek%`},
		},
		{
			name:     "username",
			filter:   Filter{Username: "Alice"},
			contains: []string{"LOWER(u.username) = LOWER($1)"},
			args:     []any{"Alice"},
		},
		{
			name: "bounds normalize corners",
			filter: Filter{Bounds: &Bounds{
				NorthEast: Point{Latitude: 47, Longitude: -118},
				SouthWest: Point{Latitude: 48, Longitude: -116},
			}},
			contains: []string{"BETWEEN $1 AND $2", "BETWEEN $3 AND $4"},
			args:     []any{47.0, 48.0, -118.0, -116.0},
		},
		{
			name:     "closest to me",
			filter:   Filter{Sort: SortClosestToMe, Origin: &Point{Latitude: 47, Longitude: -117}},
			contains: []string{"power(c.latitude::float8 - $1, 2)", "power(c.longitude::float8 - $2, 2) ASC"},
			args:     []any{47.0, -117.0},
		},
		{
			name:     "recently added",
			filter:   Filter{Sort: SortRecentlyAdded},
			contains: []string{"ORDER BY c.dateposted DESC, c.cardid DESC"},
			args:     nil,
		},
		{
			name:     "combined filters number arguments in order",
			filter:   Filter{Category: "River", Tags: []string{"Clean"}, Title: "creek"},
			contains: []string{"LOWER($1)", "= ANY($2)", ") = $3", "ILIKE $4"},
			args:     []any{"River", []string{"clean"}, 1, "%creek%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildListQuery(tt.filter)

			for _, fragment := range tt.contains {
				assert.Contains(t, query, fragment)
			}
			assert.Equal(t, tt.args, args)
		})
	}
}
