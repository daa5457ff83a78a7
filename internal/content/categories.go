// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
	"github.com/stxworks/osksite/internal/util"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CategoryService manages news categories.
type CategoryService struct {
	gw     *gateway.Client
	guard  *guard.Guard
	logger *slog.Logger
}

// NewCategoryService creates the category service.
func NewCategoryService(gw *gateway.Client, g *guard.Guard, logger *slog.Logger) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{gw: gw, guard: g, logger: logger}
}

// CategoryInput is the admin form payload.
type CategoryInput struct {
	Name  string
	Slug  string
	Color string
}

func (s *CategoryService) validate(in *CategoryInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if in.Slug == "" {
		in.Slug = util.Slugify(in.Name)
	}
	if !util.IsValidSlug(in.Slug) {
		return &ValidationError{Field: "slug", Message: "invalid slug"}
	}
	if in.Color != "" && !hexColorRe.MatchString(in.Color) {
		return &ValidationError{Field: "color", Message: "color must be #RRGGBB"}
	}
	return nil
}

// List returns all categories.
func (s *CategoryService) List(ctx context.Context) ([]gateway.Category, error) {
	return s.gw.ListCategories(ctx)
}

// Create validates and stores a category.
func (s *CategoryService) Create(ctx context.Context, token string, in CategoryInput) (*gateway.Category, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	cat, err := s.gw.WithToken(token).CreateCategory(ctx, gateway.Category{
		Name: in.Name, Slug: in.Slug, Color: in.Color,
	})
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return cat, nil
}

// Update validates and patches a category.
func (s *CategoryService) Update(ctx context.Context, token, id string, in CategoryInput) (*gateway.Category, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	cat, err := s.gw.WithToken(token).UpdateCategory(ctx, id, map[string]any{
		"name": in.Name, "slug": in.Slug, "color": in.Color,
	})
	if err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}
	return cat, nil
}

// Delete removes a category. Full-access tier only.
func (s *CategoryService) Delete(ctx context.Context, token string, user *gateway.User, id string) error {
	if err := s.guard.RequireFullAccess(user); err != nil {
		return err
	}
	if err := s.gw.WithToken(token).DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	s.logger.Info("category deleted", "category", "content", "id", id, "by", user.Email)
	return nil
}
