// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer sends transactional email through the EmailJS REST API.
// Two credential pairs are used: one account for the contact form and one
// for course registrations, each with a notification template and an
// auto-reply template. Auto-replies are best effort.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultEndpoint is the EmailJS send endpoint.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

const sendTimeout = 15 * time.Second

// ErrNotConfigured is returned when an account's credentials are absent.
var ErrNotConfigured = errors.New("mailer: account not configured")

// Account is one EmailJS service with its two templates.
type Account struct {
	PublicKey   string
	ServiceID   string
	TemplateID  string // operator notification
	AutoReplyID string // sender auto-reply, optional
}

func (a Account) configured() bool {
	return a.PublicKey != "" && a.ServiceID != "" && a.TemplateID != ""
}

// Mailer sends through EmailJS.
type Mailer struct {
	contact      Account
	registration Account

	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// New creates a mailer with the two configured accounts.
func New(contact, registration Account, logger *slog.Logger) *Mailer {
	return NewWithEndpoint(contact, registration, DefaultEndpoint, logger)
}

// NewWithEndpoint creates a mailer against a non-default API endpoint.
func NewWithEndpoint(contact, registration Account, endpoint string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		contact:      contact,
		registration: registration,
		endpoint:     endpoint,
		http:         &http.Client{Timeout: sendTimeout},
		logger:       logger,
	}
}

// sendRequest is the EmailJS wire format.
type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams map[string]any `json:"template_params"`
}

func (m *Mailer) send(ctx context.Context, acct Account, templateID string, params map[string]any) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:      acct.ServiceID,
		TemplateID:     templateID,
		UserID:         acct.PublicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("encoding send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email send failed: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// deliver sends the notification, then the auto-reply. The auto-reply is
// best effort: its failure is logged and swallowed, never propagated.
func (m *Mailer) deliver(ctx context.Context, kind string, acct Account, notify, reply map[string]any) error {
	if !acct.configured() {
		return ErrNotConfigured
	}

	if err := m.send(ctx, acct, acct.TemplateID, notify); err != nil {
		return err
	}

	if acct.AutoReplyID != "" {
		if err := m.send(ctx, acct, acct.AutoReplyID, reply); err != nil {
			m.logger.Warn("auto-reply send failed", "category", "mailer", "kind", kind, "error", err)
		}
	}

	m.logger.Info("email sent", "category", "mailer", "kind", kind)
	return nil
}

// ContactMessage is a contact-form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// SendContact delivers the contact-form notification plus auto-reply.
func (m *Mailer) SendContact(ctx context.Context, msg ContactMessage) error {
	subject := SubjectLabel(msg.Subject)
	notify := map[string]any{
		"from_name":  msg.Name,
		"from_email": msg.Email,
		"phone":      msg.Phone,
		"subject":    subject,
		"message":    msg.Message,
	}
	reply := map[string]any{
		"to_name":  msg.Name,
		"to_email": msg.Email,
		"subject":  subject,
	}
	return m.deliver(ctx, "contact", m.contact, notify, reply)
}

// RegistrationMessage is a course-registration submission.
type RegistrationMessage struct {
	Name    string
	Email   string
	Phone   string
	Course  string
	City    string
	Message string
}

// SendRegistration delivers the registration notification plus auto-reply.
func (m *Mailer) SendRegistration(ctx context.Context, msg RegistrationMessage) error {
	course := CourseLabel(msg.Course)
	city := CityLabel(msg.City)
	notify := map[string]any{
		"from_name":  msg.Name,
		"from_email": msg.Email,
		"phone":      msg.Phone,
		"course":     course,
		"city":       city,
		"message":    msg.Message,
	}
	reply := map[string]any{
		"to_name":  msg.Name,
		"to_email": msg.Email,
		"course":   course,
		"city":     city,
	}
	return m.deliver(ctx, "registration", m.registration, notify, reply)
}
