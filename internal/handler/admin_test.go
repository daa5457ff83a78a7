// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxworks/osksite/internal/content"
	"github.com/stxworks/osksite/internal/store"
)

const adminToken = "token-123"

func adminRequest(method, path, body, email string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	return withAdmin(r, email, adminToken)
}

func TestNewsCreateAndDeleteGating(t *testing.T) {
	backend := newFakeBackend(t)
	gw := backend.client()
	g := testGuard(gw)
	news := content.NewNewsService(gw, g, store.NewMemoryKV(), slog.Default())
	h := NewNewsHandler(news, slog.Default())

	r := chi.NewRouter()
	r.Post("/admin/news", h.Create)
	r.Delete("/admin/news/{id}", h.Delete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/news",
		`{"title":"Nowy kurs kategorii B","content":"<p>Start w marcu</p>","status":"published"}`,
		"admin@osk.pl"))
	require.Equal(t, http.StatusOK, w.Code)

	rows := backend.rows("news")
	require.Len(t, rows, 1)
	assert.Equal(t, "nowy-kurs-kategorii-b", rows[0]["slug"])
	id := rows[0]["id"].(string)

	// Basic-tier admins cannot delete; the remote never sees the call.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodDelete, "/admin/news/"+id, "", "basic@osk.pl"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "pełnym dostępem")
	assert.Equal(t, 0, backend.deleteCount())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodDelete, "/admin/news/"+id, "", "admin@osk.pl"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, backend.deleteCount())
	assert.Empty(t, backend.rows("news"))
}

func TestNewsValidationSurfaces(t *testing.T) {
	backend := newFakeBackend(t)
	gw := backend.client()
	news := content.NewNewsService(gw, testGuard(gw), store.NewMemoryKV(), slog.Default())
	h := NewNewsHandler(news, slog.Default())

	w := httptest.NewRecorder()
	h.Create(w, adminRequest(http.MethodPost, "/admin/news",
		`{"title":"","content":"x"}`, "admin@osk.pl"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDraftRoundTripOverHTTP(t *testing.T) {
	backend := newFakeBackend(t)
	gw := backend.client()
	news := content.NewNewsService(gw, testGuard(gw), store.NewMemoryKV(), slog.Default())
	h := NewNewsHandler(news, slog.Default())

	w := httptest.NewRecorder()
	h.SaveDraft(w, adminRequest(http.MethodPut, "/admin/news/draft",
		`{"id":"","title":"Szkic","content":"treść","excerpt":""}`, "admin@osk.pl"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.RestoreDraft(w, adminRequest(http.MethodGet, "/admin/news/draft", "", "admin@osk.pl"))
	body := decodeBody(t, w)
	draft := body["draft"].(map[string]any)
	assert.Equal(t, "Szkic", draft["title"])

	w = httptest.NewRecorder()
	h.ClearDraft(w, adminRequest(http.MethodDelete, "/admin/news/draft", "", "admin@osk.pl"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.RestoreDraft(w, adminRequest(http.MethodGet, "/admin/news/draft", "", "admin@osk.pl"))
	body = decodeBody(t, w)
	assert.Nil(t, body["draft"])
}

func TestFeaturedCapOverHTTP(t *testing.T) {
	backend := newFakeBackend(t)
	for i := 0; i < 5; i++ {
		backend.seed("reviews", map[string]any{
			"author": "Jan", "content": "ok", "rating": 5,
			"is_published": true, "is_featured": true,
		})
	}
	extra := backend.seed("reviews", map[string]any{
		"author": "Ala", "content": "ok", "rating": 5,
		"is_published": true, "is_featured": false,
	})

	gw := backend.client()
	g := testGuard(gw)
	reviews := content.NewReviewService(gw, g, content.NewCodeService(gw, g, slog.Default()), slog.Default())
	h := NewReviewsHandler(reviews, slog.Default())

	r := chi.NewRouter()
	r.Put("/admin/reviews/{id}/featured", h.SetFeatured)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPut, "/admin/reviews/"+extra+"/featured",
		`{"value":true}`, "admin@osk.pl"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "najwyżej 5 opinii")
}

func TestPromoSaveReloadsCatalog(t *testing.T) {
	backend := newFakeBackend(t)
	backend.seed("prices", map[string]any{
		"slug": "course-b", "name": "Kurs kat. B", "base_price": 3300.0,
		"price_unit": "", "promo_active": false, "sort_order": 1,
	})

	gw := backend.client()
	prices := content.NewPriceService(gw, testGuard(gw), slog.Default())

	var reloads atomic.Int32
	h := NewPricesHandler(prices, func(context.Context) error {
		reloads.Add(1)
		return nil
	}, slog.Default())

	r := chi.NewRouter()
	r.Put("/admin/prices/{slug}/promo", h.SavePromo)

	end := time.Now().Add(72 * time.Hour).Format(time.RFC3339)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPut, "/admin/prices/course-b/promo",
		`{"promo_active":true,"promo_price":2990,"promo_end_date":"`+end+`"}`, "admin@osk.pl"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), reloads.Load())

	// A rejected write never reloads.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPut, "/admin/prices/course-b/promo",
		`{"promo_active":true,"promo_price":5000,"promo_end_date":"`+end+`"}`, "admin@osk.pl"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, int32(1), reloads.Load())
}

func TestCodesIssueOverHTTP(t *testing.T) {
	backend := newFakeBackend(t)
	gw := backend.client()
	g := testGuard(gw)
	h := NewCodesHandler(content.NewCodeService(gw, g, slog.Default()), slog.Default())

	w := httptest.NewRecorder()
	h.Issue(w, adminRequest(http.MethodPost, "/admin/codes",
		`{"student_name":"Jan Kowalski","course":"b"}`, "admin@osk.pl"))

	require.Equal(t, http.StatusOK, w.Code)
	rows := backend.rows("verification_codes")
	require.Len(t, rows, 1)
	code := rows[0]["code"].(string)
	assert.True(t, strings.HasPrefix(code, "OSK-"), "code %q", code)
	assert.Equal(t, "active", rows[0]["status"])
}

func TestRegistrationStatusWorkflowOverHTTP(t *testing.T) {
	backend := newFakeBackend(t)
	id := backend.seed("registrations", map[string]any{
		"name": "Anna", "contact": "anna@example.com", "course": "b",
		"city": "klecko", "status": "new",
	})

	gw := backend.client()
	h := NewRegistrationsHandler(content.NewRegistrationService(gw, testGuard(gw), slog.Default()), slog.Default())

	r := chi.NewRouter()
	r.Put("/admin/registrations/{id}/status", h.UpdateStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPut, "/admin/registrations/"+id+"/status",
		`{"status":"contacted"}`, "admin@osk.pl"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "contacted", backend.rows("registrations")[0]["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPut, "/admin/registrations/"+id+"/status",
		`{"status":"bogus"}`, "admin@osk.pl"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCategoryCreateOverHTTP(t *testing.T) {
	backend := newFakeBackend(t)
	gw := backend.client()
	h := NewCategoriesHandler(content.NewCategoryService(gw, testGuard(gw), slog.Default()), slog.Default())

	w := httptest.NewRecorder()
	h.Create(w, adminRequest(http.MethodPost, "/admin/categories",
		`{"name":"Egzaminy próbne","color":"#ff8800"}`, "admin@osk.pl"))

	require.Equal(t, http.StatusOK, w.Code)
	rows := backend.rows("categories")
	require.Len(t, rows, 1)
	assert.Equal(t, "egzaminy-probne", rows[0]["slug"])
}
