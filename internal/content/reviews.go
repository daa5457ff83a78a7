// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
)

// FeaturedLimit caps how many reviews may be featured on the home page at
// once.
const FeaturedLimit = 5

// ReviewService manages customer reviews and their moderation.
type ReviewService struct {
	gw     *gateway.Client
	guard  *guard.Guard
	codes  *CodeService
	logger *slog.Logger
}

// NewReviewService creates the review service.
func NewReviewService(gw *gateway.Client, g *guard.Guard, codes *CodeService, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{gw: gw, guard: g, codes: codes, logger: logger}
}

// ReviewInput is a review submission.
type ReviewInput struct {
	Author         string
	Content        string
	Rating         int
	CourseCategory string
	CourseYear     int
}

func (s *ReviewService) validate(in *ReviewInput) error {
	in.Author = strings.TrimSpace(in.Author)
	if in.Author == "" {
		return &ValidationError{Field: "author", Message: "author is required"}
	}
	in.Content = strings.TrimSpace(reviewPolicy.Sanitize(in.Content))
	if in.Content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if in.Rating < 1 || in.Rating > 5 {
		return &ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	return nil
}

// SubmitVerified handles the public review form: the verification code must
// be valid and unredeemed, the review is created unpublished for moderation,
// and the code is redeemed against it.
func (s *ReviewService) SubmitVerified(ctx context.Context, code string, in ReviewInput) (*gateway.Review, error) {
	vc, err := s.codes.Verify(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	review, err := s.gw.CreateReview(ctx, gateway.Review{
		Author:             in.Author,
		Content:            in.Content,
		Rating:             in.Rating,
		CourseCategory:     in.CourseCategory,
		CourseYear:         in.CourseYear,
		IsVerified:         true,
		VerificationCodeID: &vc.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}

	if err := s.codes.Redeem(ctx, vc.ID, review.ID); err != nil {
		// The review exists but the code stayed active; moderation catches
		// duplicates. Log loudly.
		s.logger.Error("review created but code redemption failed",
			"category", "content", "review_id", review.ID, "code_id", vc.ID, "error", err)
	}

	s.logger.Info("verified review submitted", "category", "content", "review_id", review.ID)
	return review, nil
}

// ListPublished returns published reviews for the public site.
func (s *ReviewService) ListPublished(ctx context.Context, limit int) ([]gateway.Review, error) {
	published := true
	return s.gw.ListReviews(ctx, gateway.ReviewFilter{Published: &published, Limit: limit})
}

// ListFeatured returns the home-page reviews.
func (s *ReviewService) ListFeatured(ctx context.Context) ([]gateway.Review, error) {
	featured, published := true, true
	return s.gw.ListReviews(ctx, gateway.ReviewFilter{Featured: &featured, Published: &published})
}

// ListAll returns every review for moderation.
func (s *ReviewService) ListAll(ctx context.Context) ([]gateway.Review, error) {
	return s.gw.ListReviews(ctx, gateway.ReviewFilter{})
}

// SetPublished flips a review's published flag.
func (s *ReviewService) SetPublished(ctx context.Context, token, id string, published bool) (*gateway.Review, error) {
	review, err := s.gw.WithToken(token).UpdateReview(ctx, id, map[string]any{"is_published": published})
	if err != nil {
		return nil, fmt.Errorf("updating review: %w", err)
	}
	return review, nil
}

// SetFeatured flips a review's featured flag, enforcing the home-page cap
// before the remote write.
func (s *ReviewService) SetFeatured(ctx context.Context, token, id string, featured bool) (*gateway.Review, error) {
	if featured {
		f := true
		current, err := s.gw.ListReviews(ctx, gateway.ReviewFilter{Featured: &f})
		if err != nil {
			return nil, fmt.Errorf("counting featured reviews: %w", err)
		}
		count := 0
		for _, r := range current {
			if r.ID != id {
				count++
			}
		}
		if count >= FeaturedLimit {
			return nil, &ValidationError{Field: "is_featured",
				Message: fmt.Sprintf("at most %d reviews can be featured", FeaturedLimit)}
		}
	}

	review, err := s.gw.WithToken(token).UpdateReview(ctx, id, map[string]any{"is_featured": featured})
	if err != nil {
		return nil, fmt.Errorf("updating review: %w", err)
	}
	return review, nil
}

// Delete removes a review. Full-access tier only.
func (s *ReviewService) Delete(ctx context.Context, token string, user *gateway.User, id string) error {
	if err := s.guard.RequireFullAccess(user); err != nil {
		return err
	}
	if err := s.gw.WithToken(token).DeleteReview(ctx, id); err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	s.logger.Info("review deleted", "category", "content", "id", id, "by", user.Email)
	return nil
}
