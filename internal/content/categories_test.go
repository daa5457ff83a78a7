// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCreate(t *testing.T) {
	ctx := context.Background()
	f := newFakeTables(t)
	s := NewCategoryService(f.client(), testGuard(), nil)

	cat, err := s.Create(ctx, "tok", CategoryInput{Name: "Egzaminy próbne", Color: "#3b82f6"})
	require.NoError(t, err)
	assert.Equal(t, "egzaminy-probne", cat.Slug)

	_, err = s.Create(ctx, "tok", CategoryInput{Name: "x", Color: "blue"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "color", vErr.Field)

	_, err = s.Create(ctx, "tok", CategoryInput{Name: ""})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
}

func TestCategoryDeleteRequiresFullAccess(t *testing.T) {
	ctx := context.Background()
	f := newFakeTables(t)
	s := NewCategoryService(f.client(), testGuard(), nil)
	id := f.seed("categories", map[string]any{"name": "x", "slug": "x"})

	require.Error(t, s.Delete(ctx, "tok", basicUser(), id))
	assert.Zero(t, f.deleteCount())
	require.NoError(t, s.Delete(ctx, "tok", fullAccessUser(), id))
}
