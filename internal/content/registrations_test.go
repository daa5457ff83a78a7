// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrationService(t *testing.T) (*RegistrationService, *fakeTables) {
	t.Helper()
	f := newFakeTables(t)
	return NewRegistrationService(f.client(), testGuard(), nil), f
}

func TestRegistrationCreate(t *testing.T) {
	ctx := context.Background()
	s, _ := registrationService(t)

	reg, err := s.Create(ctx, RegistrationInput{
		Name:    " Jan Kowalski ",
		Contact: "jan@example.com",
		Course:  "B",
		City:    "Kłecko",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jan Kowalski", reg.Name)
	assert.Equal(t, RegistrationStatusNew, reg.Status)
}

func TestRegistrationCreateValidation(t *testing.T) {
	ctx := context.Background()
	s, f := registrationService(t)

	for _, in := range []RegistrationInput{
		{Contact: "c", Course: "B"},
		{Name: "n", Course: "B"},
		{Name: "n", Contact: "c"},
	} {
		_, err := s.Create(ctx, in)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	}
	assert.Empty(t, f.rows("registrations"))
}

func TestRegistrationStatusWorkflow(t *testing.T) {
	ctx := context.Background()
	s, f := registrationService(t)
	id := f.seed("registrations", map[string]any{"name": "x", "status": RegistrationStatusNew})

	reg, err := s.UpdateStatus(ctx, "tok", id, RegistrationStatusContacted)
	require.NoError(t, err)
	assert.Equal(t, RegistrationStatusContacted, reg.Status)

	_, err = s.UpdateStatus(ctx, "tok", id, "archived")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestRegistrationDeleteRequiresFullAccess(t *testing.T) {
	ctx := context.Background()
	s, f := registrationService(t)
	id := f.seed("registrations", map[string]any{"name": "x", "status": RegistrationStatusNew})

	require.Error(t, s.Delete(ctx, "tok", basicUser(), id))
	assert.Zero(t, f.deleteCount())

	require.NoError(t, s.Delete(ctx, "tok", fullAccessUser(), id))
}
