// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
	"github.com/stxworks/osksite/internal/store"
	"github.com/stxworks/osksite/internal/util"
)

// Article statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

// DraftMaxAge bounds draft autosave restoration. Older drafts are discarded.
const DraftMaxAge = 24 * time.Hour

// NewsService manages news articles and the draft autosave.
type NewsService struct {
	gw     *gateway.Client
	guard  *guard.Guard
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time
}

// NewNewsService creates the news service.
func NewNewsService(gw *gateway.Client, g *guard.Guard, kv store.KV, logger *slog.Logger) *NewsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsService{gw: gw, guard: g, kv: kv, logger: logger, now: time.Now}
}

// ArticleInput is the admin form payload for creating or updating an article.
type ArticleInput struct {
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	CategoryID  *string
	Status      string
	PublishedAt *time.Time
	ImageURL    string
}

func (s *NewsService) validate(in *ArticleInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}

	if in.Slug == "" {
		in.Slug = util.Slugify(in.Title)
	}
	if !util.IsValidSlug(in.Slug) {
		return &ValidationError{Field: "slug", Message: "invalid slug"}
	}

	switch in.Status {
	case "", StatusDraft:
		in.Status = StatusDraft
	case StatusPublished:
		if in.PublishedAt == nil {
			now := s.now()
			in.PublishedAt = &now
		}
	case StatusScheduled:
		if in.PublishedAt == nil || !in.PublishedAt.After(s.now()) {
			return &ValidationError{Field: "published_at", Message: "scheduled publish date must be in the future"}
		}
	default:
		return &ValidationError{Field: "status", Message: "unknown status"}
	}

	in.Content = articlePolicy.Sanitize(in.Content)
	in.Excerpt = reviewPolicy.Sanitize(in.Excerpt)
	return nil
}

// Create validates and stores a new article.
func (s *NewsService) Create(ctx context.Context, token string, in ArticleInput) (*gateway.Article, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	article, err := s.gw.WithToken(token).CreateArticle(ctx, gateway.Article{
		Title:       in.Title,
		Slug:        in.Slug,
		Excerpt:     in.Excerpt,
		Content:     in.Content,
		CategoryID:  in.CategoryID,
		Status:      in.Status,
		PublishedAt: in.PublishedAt,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating article: %w", err)
	}

	s.logger.Info("article created", "category", "content", "slug", article.Slug, "status", article.Status)
	return article, nil
}

// Update validates and patches an existing article.
func (s *NewsService) Update(ctx context.Context, token, id string, in ArticleInput) (*gateway.Article, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	article, err := s.gw.WithToken(token).UpdateArticle(ctx, id, map[string]any{
		"title":        in.Title,
		"slug":         in.Slug,
		"excerpt":      in.Excerpt,
		"content":      in.Content,
		"category_id":  in.CategoryID,
		"status":       in.Status,
		"published_at": in.PublishedAt,
		"image_url":    in.ImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("updating article: %w", err)
	}
	return article, nil
}

// Delete removes an article. Full-access tier only; the gate runs before the
// remote call.
func (s *NewsService) Delete(ctx context.Context, token string, user *gateway.User, id string) error {
	if err := s.guard.RequireFullAccess(user); err != nil {
		return err
	}
	if err := s.gw.WithToken(token).DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	s.logger.Info("article deleted", "category", "content", "id", id, "by", user.Email)
	return nil
}

// List returns articles with the given status ("" for all).
func (s *NewsService) List(ctx context.Context, status string, limit, offset int) ([]gateway.Article, error) {
	return s.gw.ListArticles(ctx, status, limit, offset)
}

// GetBySlug returns one published article for the public site.
func (s *NewsService) GetBySlug(ctx context.Context, slug string) (*gateway.Article, error) {
	return s.gw.GetArticleBySlug(ctx, slug)
}

// PublishScheduled flips scheduled articles whose publish date has passed to
// published. Run periodically.
func (s *NewsService) PublishScheduled(ctx context.Context, token string) (int, error) {
	articles, err := s.gw.ListArticles(ctx, StatusScheduled, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("listing scheduled articles: %w", err)
	}

	now := s.now()
	published := 0
	for _, a := range articles {
		if a.PublishedAt == nil || a.PublishedAt.After(now) {
			continue
		}
		if _, err := s.gw.WithToken(token).UpdateArticle(ctx, a.ID, map[string]any{"status": StatusPublished}); err != nil {
			s.logger.Error("failed to publish scheduled article", "category", "content", "id", a.ID, "error", err)
			continue
		}
		published++
	}

	if published > 0 {
		s.logger.Info("scheduled articles published", "category", "content", "count", published)
	}
	return published, nil
}

// Draft is the autosaved editor state. The JSON shape is the wire contract
// for the autosave key.
type Draft struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Excerpt string    `json:"excerpt"`
	SavedAt time.Time `json:"savedAt"`
}

// SaveDraft persists the editor state for crash recovery.
func (s *NewsService) SaveDraft(ctx context.Context, d Draft) error {
	d.SavedAt = s.now()
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	return s.kv.Set(ctx, store.KeyArticleDraft, string(raw))
}

// RestoreDraft returns the autosaved draft if one exists and is newer than
// DraftMaxAge. A stale or malformed draft is discarded.
func (s *NewsService) RestoreDraft(ctx context.Context) (*Draft, bool) {
	raw, err := s.kv.Get(ctx, store.KeyArticleDraft)
	if err != nil {
		return nil, false
	}

	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		s.ClearDraft(ctx)
		return nil, false
	}
	if s.now().Sub(d.SavedAt) > DraftMaxAge {
		s.ClearDraft(ctx)
		return nil, false
	}
	return &d, true
}

// ClearDraft removes the autosaved draft.
func (s *NewsService) ClearDraft(ctx context.Context) {
	if err := s.kv.Remove(ctx, store.KeyArticleDraft); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		s.logger.Warn("failed to clear draft", "category", "content", "error", err)
	}
}
