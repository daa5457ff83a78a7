// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
)

// Verification code format: OSK-XXXX-XXXX. The charset drops easily confused
// characters (0/O, 1/I/L). Its length of 32 divides 256, so byte-modulo
// indexing is unbiased.
const (
	codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codePrefix  = "OSK"

	// CodeStatusActive and CodeStatusUsed are the only persisted states; an
	// active code past its expires_at is treated as expired at read time.
	CodeStatusActive = "active"
	CodeStatusUsed   = "used"

	// DefaultCodeTTL is how long a freshly issued code stays redeemable.
	DefaultCodeTTL = 90 * 24 * time.Hour
)

var (
	// ErrCodeInvalid means no such code exists.
	ErrCodeInvalid = errors.New("verification code not found")
	// ErrCodeUsed means the code was already redeemed.
	ErrCodeUsed = errors.New("verification code already used")
	// ErrCodeExpired means the code's expiry has passed.
	ErrCodeExpired = errors.New("verification code expired")
)

// CodeService issues and redeems single-use review verification codes.
type CodeService struct {
	gw     *gateway.Client
	guard  *guard.Guard
	logger *slog.Logger
	now    func() time.Time
}

// NewCodeService creates the verification-code service.
func NewCodeService(gw *gateway.Client, g *guard.Guard, logger *slog.Logger) *CodeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeService{gw: gw, guard: g, logger: logger, now: time.Now}
}

// generateCode builds one OSK-XXXX-XXXX code from crypto/rand.
func generateCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}
	chars := make([]byte, 8)
	for i, b := range buf {
		chars[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return fmt.Sprintf("%s-%s-%s", codePrefix, chars[:4], chars[4:]), nil
}

// Issue creates a new active code for a student.
func (s *CodeService) Issue(ctx context.Context, token, studentName, courseCategory string) (*gateway.VerificationCode, error) {
	studentName = strings.TrimSpace(studentName)
	if studentName == "" {
		return nil, &ValidationError{Field: "student_name", Message: "student name is required"}
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(DefaultCodeTTL)

	vc, err := s.gw.WithToken(token).CreateVerificationCode(ctx, gateway.VerificationCode{
		Code:           code,
		StudentName:    studentName,
		CourseCategory: courseCategory,
		Status:         CodeStatusActive,
		ExpiresAt:      &expires,
	})
	if err != nil {
		return nil, fmt.Errorf("creating verification code: %w", err)
	}

	s.logger.Info("verification code issued", "category", "content", "student", studentName)
	return vc, nil
}

// Verify checks that a code can still be redeemed. Rejects unknown, used and
// expired codes with distinct errors so the form can explain which.
func (s *CodeService) Verify(ctx context.Context, code string) (*gateway.VerificationCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrCodeInvalid
	}

	vc, err := s.gw.GetVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, ErrCodeInvalid
		}
		return nil, fmt.Errorf("looking up verification code: %w", err)
	}

	if vc.Status == CodeStatusUsed {
		return nil, ErrCodeUsed
	}
	if vc.ExpiresAt != nil && !vc.ExpiresAt.After(s.now()) {
		return nil, ErrCodeExpired
	}
	return vc, nil
}

// Redeem marks a verified code as used and links it to the review it
// authorized.
func (s *CodeService) Redeem(ctx context.Context, id, reviewID string) error {
	usedAt := s.now()
	_, err := s.gw.UpdateVerificationCode(ctx, id, map[string]any{
		"status":    CodeStatusUsed,
		"used_at":   usedAt,
		"review_id": reviewID,
	})
	if err != nil {
		return fmt.Errorf("redeeming verification code: %w", err)
	}
	return nil
}

// List returns codes filtered by status ("" for all).
func (s *CodeService) List(ctx context.Context, status string) ([]gateway.VerificationCode, error) {
	return s.gw.ListVerificationCodes(ctx, status)
}

// Delete removes a code. Full-access tier only.
func (s *CodeService) Delete(ctx context.Context, token string, user *gateway.User, id string) error {
	if err := s.guard.RequireFullAccess(user); err != nil {
		return err
	}
	if err := s.gw.WithToken(token).DeleteVerificationCode(ctx, id); err != nil {
		return fmt.Errorf("deleting verification code: %w", err)
	}
	return nil
}

// SweepExpired deletes active codes whose expiry passed. Run periodically;
// used codes are kept for the review audit trail.
func (s *CodeService) SweepExpired(ctx context.Context, token string) (int, error) {
	codes, err := s.gw.ListVerificationCodes(ctx, CodeStatusActive)
	if err != nil {
		return 0, fmt.Errorf("listing active codes: %w", err)
	}

	now := s.now()
	removed := 0
	for _, vc := range codes {
		if vc.ExpiresAt == nil || vc.ExpiresAt.After(now) {
			continue
		}
		if err := s.gw.WithToken(token).DeleteVerificationCode(ctx, vc.ID); err != nil {
			s.logger.Error("failed to remove expired code", "category", "content", "id", vc.ID, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("expired verification codes removed", "category", "content", "count", removed)
	}
	return removed, nil
}
