// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stxworks/osksite/internal/content"
	"github.com/stxworks/osksite/internal/i18n"
	"github.com/stxworks/osksite/internal/mailer"
	"github.com/stxworks/osksite/internal/pricing"
)

// PublicHandler serves the unauthenticated site API.
type PublicHandler struct {
	engine        *pricing.Engine
	popup         *pricing.PopupGate
	news          *content.NewsService
	reviews       *content.ReviewService
	registrations *content.RegistrationService
	mail          *mailer.Mailer
	logger        *slog.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(engine *pricing.Engine, popup *pricing.PopupGate,
	news *content.NewsService, reviews *content.ReviewService,
	registrations *content.RegistrationService, mail *mailer.Mailer,
	logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		engine:        engine,
		popup:         popup,
		news:          news,
		reviews:       reviews,
		registrations: registrations,
		mail:          mail,
		logger:        logger,
	}
}

// priceView is the wire shape for a single catalog entry. Effective
// price is computed per request, never cached.
type priceView struct {
	Slug           string     `json:"slug"`
	Name           string     `json:"name"`
	BasePrice      float64    `json:"base_price"`
	EffectivePrice float64    `json:"effective_price"`
	Formatted      string     `json:"formatted"`
	Unit           string     `json:"unit,omitempty"`
	PromoActive    bool       `json:"promo_active"`
	PromoEndDate   *time.Time `json:"promo_end_date,omitempty"`
	SavingsPercent int        `json:"savings_percent,omitempty"`
}

func (h *PublicHandler) priceView(e pricing.Entry, now time.Time) priceView {
	v := priceView{
		Slug:           e.Slug,
		Name:           e.Name,
		BasePrice:      e.BasePrice,
		EffectivePrice: e.EffectivePriceAt(now),
		Unit:           e.PriceUnit,
		PromoActive:    e.PromoActiveAt(now),
	}
	v.Formatted = pricing.FormatPrice(v.EffectivePrice, e.PriceUnit)
	if v.PromoActive {
		v.PromoEndDate = e.PromoEndDate
		v.SavingsPercent = e.SavingsPercent()
	}
	return v
}

// Prices returns the full catalog with effective prices.
func (h *PublicHandler) Prices(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	entries := h.engine.Entries()
	views := make([]priceView, 0, len(entries))
	for _, e := range entries {
		views = append(views, h.priceView(e, now))
	}
	writeJSONSuccess(w, map[string]any{
		"prices":   views,
		"fallback": h.engine.UsingFallback(),
	})
}

// Promotions returns currently live promotions plus countdown data for
// the soonest-ending one.
func (h *PublicHandler) Promotions(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	promos := h.engine.ListActivePromotions()
	views := make([]priceView, 0, len(promos))
	for _, e := range promos {
		views = append(views, h.priceView(e, now))
	}

	resp := map[string]any{"promotions": views}
	if end := h.engine.SoonestPromoEnd(); end != nil {
		resp["ends_at"] = end
		resp["time_remaining"] = pricing.FormatTimeRemaining(*end, now)
	}
	writeJSONSuccess(w, resp)
}

// Popup decides whether the promo popup may be shown to this visitor.
// The decision consumes the 7-day throttle window when positive.
func (h *PublicHandler) Popup(w http.ResponseWriter, r *http.Request) {
	decision, err := h.popup.MaybeShow(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "popup", err)
		return
	}

	resp := map[string]any{"show": decision.Show}
	if decision.Show {
		now := time.Now()
		views := make([]priceView, 0, len(decision.Promotions))
		for _, e := range decision.Promotions {
			views = append(views, h.priceView(e, now))
		}
		resp["promotions"] = views
		if decision.SoonestEnd != nil {
			resp["ends_at"] = decision.SoonestEnd
		}
	}
	writeJSONSuccess(w, resp)
}

// News lists published articles.
func (h *PublicHandler) News(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	articles, err := h.news.List(r.Context(), content.StatusPublished, limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, "news.list", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"articles": articles})
}

// NewsArticle returns a single published article by slug.
func (h *PublicHandler) NewsArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.news.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, h.logger, "news.get", err)
		return
	}
	if article.Status != content.StatusPublished {
		writeJSONError(w, http.StatusNotFound, "Nie znaleziono")
		return
	}
	writeJSONSuccess(w, map[string]any{"article": article})
}

// Reviews lists published reviews.
func (h *PublicHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListPublished(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, h.logger, "reviews.list", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"reviews": reviews})
}

// FeaturedReviews lists reviews pinned to the homepage.
func (h *PublicHandler) FeaturedReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListFeatured(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "reviews.featured", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"reviews": reviews})
}

// submitReviewRequest is the code-gated public review submission.
type submitReviewRequest struct {
	Code       string `json:"code"`
	Author     string `json:"author"`
	Content    string `json:"content"`
	Rating     int    `json:"rating"`
	Course     string `json:"course"`
	CourseYear int    `json:"course_year"`
}

// SubmitReview accepts a review from a verified student. The review
// lands unpublished and waits for moderation.
func (h *PublicHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req submitReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.reviews.SubmitVerified(r.Context(), req.Code, content.ReviewInput{
		Author:         req.Author,
		Content:        req.Content,
		Rating:         req.Rating,
		CourseCategory: req.Course,
		CourseYear:     req.CourseYear,
	})
	if err != nil {
		switch {
		case errors.Is(err, content.ErrCodeInvalid):
			writeJSONError(w, http.StatusBadRequest, i18n.T(i18n.DefaultLanguage, "review.code_invalid"))
		case errors.Is(err, content.ErrCodeUsed):
			writeJSONError(w, http.StatusConflict, i18n.T(i18n.DefaultLanguage, "review.code_used"))
		case errors.Is(err, content.ErrCodeExpired):
			writeJSONError(w, http.StatusGone, i18n.T(i18n.DefaultLanguage, "review.code_expired"))
		default:
			writeServiceError(w, h.logger, "reviews.submit", err)
		}
		return
	}
	writeJSONSuccess(w, map[string]any{"review": review})
}

// registrationRequest is the public course sign-up form.
type registrationRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Course  string `json:"course"`
	City    string `json:"city"`
	Message string `json:"message"`
}

// SubmitRegistration stores a course sign-up and notifies the office by
// email. The record is kept even when the notification fails; losing a
// lead over a mail outage is worse than a delayed email.
func (h *PublicHandler) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reg, err := h.registrations.Create(r.Context(), content.RegistrationInput{
		Name:    req.Name,
		Contact: joinContact(req.Email, req.Phone),
		Course:  req.Course,
		City:    req.City,
	})
	if err != nil {
		writeServiceError(w, h.logger, "registrations.create", err)
		return
	}

	if err := h.mail.SendRegistration(r.Context(), mailer.RegistrationMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Course:  req.Course,
		City:    req.City,
		Message: req.Message,
	}); err != nil && !errors.Is(err, mailer.ErrNotConfigured) {
		h.logger.Error("registration email failed", "registration_id", reg.ID, "error", err)
	}

	writeJSONSuccess(w, map[string]any{"registration": reg})
}

// contactRequest is the public contact form.
type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitContact relays a contact form message.
func (h *PublicHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "Wypełnij wymagane pola formularza")
		return
	}

	err := h.mail.SendContact(r.Context(), mailer.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		h.logger.Error("contact email failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, i18n.T(i18n.DefaultLanguage, "form.send_failed"))
		return
	}
	writeJSONSuccess(w, nil)
}

// joinContact folds the form's email and phone fields into the single
// contact column the registrations table carries.
func joinContact(email, phone string) string {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	switch {
	case email != "" && phone != "":
		return email + ", " + phone
	case email != "":
		return email
	default:
		return phone
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
