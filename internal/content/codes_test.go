// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeRe = regexp.MustCompile(`^OSK-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{4}-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{4}$`)

func codeService(t *testing.T) (*CodeService, *fakeTables) {
	t.Helper()
	f := newFakeTables(t)
	return NewCodeService(f.client(), testGuard(), nil), f
}

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		if !codeRe.MatchString(code) {
			t.Fatalf("generateCode() = %q, want OSK-XXXX-XXXX from the safe charset", code)
		}
		seen[code] = true
	}
	// 200 draws from a 32^8 space colliding would mean broken randomness.
	assert.Len(t, seen, 200)
}

func TestCodeIssueVerifyRedeem(t *testing.T) {
	ctx := context.Background()
	s, _ := codeService(t)

	issued, err := s.Issue(ctx, "tok", "Jan Kowalski", "B")
	require.NoError(t, err)
	assert.Equal(t, CodeStatusActive, issued.Status)
	require.NotNil(t, issued.ExpiresAt)

	vc, err := s.Verify(ctx, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, vc.ID)

	// Lookup is tolerant of case and padding.
	_, err = s.Verify(ctx, "  "+issued.Code+" ")
	require.NoError(t, err)

	require.NoError(t, s.Redeem(ctx, vc.ID, "review-1"))

	_, err = s.Verify(ctx, issued.Code)
	assert.ErrorIs(t, err, ErrCodeUsed)
}

func TestCodeVerifyRejections(t *testing.T) {
	ctx := context.Background()
	s, f := codeService(t)

	_, err := s.Verify(ctx, "OSK-ZZZZ-ZZZZ")
	assert.ErrorIs(t, err, ErrCodeInvalid)

	_, err = s.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrCodeInvalid)

	expired := time.Now().Add(-time.Hour)
	f.seed("verification_codes", map[string]any{
		"code": "OSK-AAAA-AAAA", "student_name": "x", "status": CodeStatusActive, "expires_at": expired,
	})
	_, err = s.Verify(ctx, "OSK-AAAA-AAAA")
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestCodeIssueRequiresName(t *testing.T) {
	s, _ := codeService(t)

	_, err := s.Issue(context.Background(), "tok", "  ", "B")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "student_name", vErr.Field)
}

func TestCodeSweepExpired(t *testing.T) {
	ctx := context.Background()
	s, f := codeService(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	f.seed("verification_codes", map[string]any{"code": "OSK-AAAA-BBBB", "status": CodeStatusActive, "expires_at": past})
	f.seed("verification_codes", map[string]any{"code": "OSK-CCCC-DDDD", "status": CodeStatusActive, "expires_at": future})
	// Used codes are never swept, expired or not.
	f.seed("verification_codes", map[string]any{"code": "OSK-EEEE-FFFF", "status": CodeStatusUsed, "expires_at": past})

	removed, err := s.SweepExpired(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	left := map[string]bool{}
	for _, row := range f.rows("verification_codes") {
		left[row["code"].(string)] = true
	}
	assert.False(t, left["OSK-AAAA-BBBB"])
	assert.True(t, left["OSK-CCCC-DDDD"])
	assert.True(t, left["OSK-EEEE-FFFF"])
}
