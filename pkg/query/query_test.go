// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSlice(t *testing.T) {
	assert.Nil(t, StringSlice(""))
	assert.Nil(t, StringSlice(" , ,"))
	assert.Equal(t, []string{"Clean", "Scenic"}, StringSlice("Clean, Scenic,"))
	assert.Equal(t, []string{"47.5", "-117"}, StringSlice(" 47.5 ,-117 "))
}
