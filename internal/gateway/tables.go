// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Row types mirror the backend schema column-for-column; the JSON tags are the
// wire contract and must not drift from it.

// Price is one row of the prices table.
type Price struct {
	ID           string     `json:"id,omitempty"`
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	BasePrice    float64    `json:"base_price"`
	PriceUnit    string     `json:"price_unit"`
	PromoActive  bool       `json:"promo_active"`
	PromoPrice   *float64   `json:"promo_price"`
	PromoEndDate *time.Time `json:"promo_end_date"`
	SortOrder    int        `json:"sort_order"`
}

// Article is one row of the news table.
type Article struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CategoryID  *string    `json:"category_id"`
	Status      string     `json:"status"` // draft | published | scheduled
	PublishedAt *time.Time `json:"published_at"`
	ImageURL    string     `json:"image_url"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Category is one row of the categories table.
type Category struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// Review is one row of the reviews table.
type Review struct {
	ID                 string     `json:"id,omitempty"`
	Author             string     `json:"author"`
	Content            string     `json:"content"`
	Rating             int        `json:"rating"`
	CourseCategory     string     `json:"course_category"`
	CourseYear         int        `json:"course_year"`
	IsVerified         bool       `json:"is_verified"`
	IsFeatured         bool       `json:"is_featured"`
	IsPublished        bool       `json:"is_published"`
	VerificationCodeID *string    `json:"verification_code_id,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
}

// Registration is one row of the course registrations table.
type Registration struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Contact   string     `json:"contact"`
	Course    string     `json:"course"`
	City      string     `json:"city"`
	Status    string     `json:"status"` // new | contacted | completed
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// VerificationCode is one row of the verification_codes table.
type VerificationCode struct {
	ID             string     `json:"id,omitempty"`
	Code           string     `json:"code"`
	StudentName    string     `json:"student_name"`
	CourseCategory string     `json:"course_category"`
	Status         string     `json:"status"` // active | used
	ExpiresAt      *time.Time `json:"expires_at"`
	UsedAt         *time.Time `json:"used_at"`
	ReviewID       *string    `json:"review_id"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// returnRepresentation asks the REST layer to echo the affected rows back.
var returnRepresentation = map[string]string{"Prefer": "return=representation"}

// listRows fetches all rows of a table matching the query.
func listRows[T any](ctx context.Context, c *Client, table string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	if query.Get("select") == "" {
		query.Set("select", "*")
	}
	var rows []T
	if err := c.rest(ctx, http.MethodGet, table, query, nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// singleRow fetches exactly one row or ErrNotFound.
func singleRow[T any](ctx context.Context, c *Client, table string, query url.Values) (*T, error) {
	rows, err := listRows[T](ctx, c, table, query)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// insertRow creates a row and returns the stored representation.
func insertRow[T any](ctx context.Context, c *Client, table string, row T) (*T, error) {
	var created []T
	if err := c.rest(ctx, http.MethodPost, table, nil, returnRepresentation, []T{row}, &created); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("gateway: insert into %s returned no rows", table)
	}
	return &created[0], nil
}

// updateRow patches the row with the given id and returns the updated row.
func updateRow[T any](ctx context.Context, c *Client, table, id string, patch any) (*T, error) {
	query := url.Values{}
	query.Set("id", "eq."+id)
	var updated []T
	if err := c.rest(ctx, http.MethodPatch, table, query, returnRepresentation, patch, &updated); err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, ErrNotFound
	}
	return &updated[0], nil
}

// deleteRow removes the row with the given id.
func deleteRow(ctx context.Context, c *Client, table, id string) error {
	query := url.Values{}
	query.Set("id", "eq."+id)
	return c.rest(ctx, http.MethodDelete, table, query, nil, nil, nil)
}

// ---- Prices ----

// ListPrices returns the full price catalog ordered by sort_order.
func (c *Client) ListPrices(ctx context.Context) ([]Price, error) {
	query := url.Values{}
	query.Set("order", "sort_order.asc")
	return listRows[Price](ctx, c, "prices", query)
}

// GetPriceBySlug returns a single price entry.
func (c *Client) GetPriceBySlug(ctx context.Context, slug string) (*Price, error) {
	query := url.Values{}
	query.Set("slug", "eq."+slug)
	return singleRow[Price](ctx, c, "prices", query)
}

// UpdatePrice patches a price row.
func (c *Client) UpdatePrice(ctx context.Context, id string, patch map[string]any) (*Price, error) {
	return updateRow[Price](ctx, c, "prices", id, patch)
}

// ---- News ----

// ListArticles returns news articles, newest first. Pass status "" for all.
func (c *Client) ListArticles(ctx context.Context, status string, limit, offset int) ([]Article, error) {
	query := url.Values{}
	query.Set("order", "published_at.desc.nullslast,created_at.desc")
	if status != "" {
		query.Set("status", "eq."+status)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
		query.Set("offset", fmt.Sprint(offset))
	}
	return listRows[Article](ctx, c, "news", query)
}

// GetArticleBySlug returns one article.
func (c *Client) GetArticleBySlug(ctx context.Context, slug string) (*Article, error) {
	query := url.Values{}
	query.Set("slug", "eq."+slug)
	return singleRow[Article](ctx, c, "news", query)
}

// CreateArticle inserts a news article.
func (c *Client) CreateArticle(ctx context.Context, a Article) (*Article, error) {
	return insertRow(ctx, c, "news", a)
}

// UpdateArticle patches a news article.
func (c *Client) UpdateArticle(ctx context.Context, id string, patch map[string]any) (*Article, error) {
	return updateRow[Article](ctx, c, "news", id, patch)
}

// DeleteArticle removes a news article.
func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	return deleteRow(ctx, c, "news", id)
}

// ---- Categories ----

// ListCategories returns all categories ordered by name.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	query := url.Values{}
	query.Set("order", "name.asc")
	return listRows[Category](ctx, c, "categories", query)
}

// CreateCategory inserts a category.
func (c *Client) CreateCategory(ctx context.Context, cat Category) (*Category, error) {
	return insertRow(ctx, c, "categories", cat)
}

// UpdateCategory patches a category.
func (c *Client) UpdateCategory(ctx context.Context, id string, patch map[string]any) (*Category, error) {
	return updateRow[Category](ctx, c, "categories", id, patch)
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return deleteRow(ctx, c, "categories", id)
}

// ---- Reviews ----

// ReviewFilter narrows ListReviews.
type ReviewFilter struct {
	Featured  *bool
	Published *bool
	Limit     int
}

// ListReviews returns reviews, newest first.
func (c *Client) ListReviews(ctx context.Context, f ReviewFilter) ([]Review, error) {
	query := url.Values{}
	query.Set("order", "created_at.desc")
	if f.Featured != nil {
		query.Set("is_featured", fmt.Sprintf("eq.%t", *f.Featured))
	}
	if f.Published != nil {
		query.Set("is_published", fmt.Sprintf("eq.%t", *f.Published))
	}
	if f.Limit > 0 {
		query.Set("limit", fmt.Sprint(f.Limit))
	}
	return listRows[Review](ctx, c, "reviews", query)
}

// CreateReview inserts a review.
func (c *Client) CreateReview(ctx context.Context, r Review) (*Review, error) {
	return insertRow(ctx, c, "reviews", r)
}

// UpdateReview patches a review.
func (c *Client) UpdateReview(ctx context.Context, id string, patch map[string]any) (*Review, error) {
	return updateRow[Review](ctx, c, "reviews", id, patch)
}

// DeleteReview removes a review.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return deleteRow(ctx, c, "reviews", id)
}

// ---- Registrations ----

// ListRegistrations returns course registrations, newest first.
func (c *Client) ListRegistrations(ctx context.Context, status string) ([]Registration, error) {
	query := url.Values{}
	query.Set("order", "created_at.desc")
	if status != "" {
		query.Set("status", "eq."+status)
	}
	return listRows[Registration](ctx, c, "registrations", query)
}

// CreateRegistration inserts a registration.
func (c *Client) CreateRegistration(ctx context.Context, r Registration) (*Registration, error) {
	return insertRow(ctx, c, "registrations", r)
}

// UpdateRegistration patches a registration.
func (c *Client) UpdateRegistration(ctx context.Context, id string, patch map[string]any) (*Registration, error) {
	return updateRow[Registration](ctx, c, "registrations", id, patch)
}

// DeleteRegistration removes a registration.
func (c *Client) DeleteRegistration(ctx context.Context, id string) error {
	return deleteRow(ctx, c, "registrations", id)
}

// ---- Verification codes ----

// ListVerificationCodes returns codes, newest first. Pass status "" for all.
func (c *Client) ListVerificationCodes(ctx context.Context, status string) ([]VerificationCode, error) {
	query := url.Values{}
	query.Set("order", "created_at.desc")
	if status != "" {
		query.Set("status", "eq."+status)
	}
	return listRows[VerificationCode](ctx, c, "verification_codes", query)
}

// GetVerificationCode looks up a code by its value.
func (c *Client) GetVerificationCode(ctx context.Context, code string) (*VerificationCode, error) {
	query := url.Values{}
	query.Set("code", "eq."+code)
	return singleRow[VerificationCode](ctx, c, "verification_codes", query)
}

// CreateVerificationCode inserts a code.
func (c *Client) CreateVerificationCode(ctx context.Context, vc VerificationCode) (*VerificationCode, error) {
	return insertRow(ctx, c, "verification_codes", vc)
}

// UpdateVerificationCode patches a code.
func (c *Client) UpdateVerificationCode(ctx context.Context, id string, patch map[string]any) (*VerificationCode, error) {
	return updateRow[VerificationCode](ctx, c, "verification_codes", id, patch)
}

// DeleteVerificationCode removes a code.
func (c *Client) DeleteVerificationCode(ctx context.Context, id string) error {
	return deleteRow(ctx, c, "verification_codes", id)
}
