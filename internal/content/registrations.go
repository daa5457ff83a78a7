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

// Registration statuses.
const (
	RegistrationStatusNew       = "new"
	RegistrationStatusContacted = "contacted"
	RegistrationStatusCompleted = "completed"
)

var registrationStatuses = map[string]bool{
	RegistrationStatusNew:       true,
	RegistrationStatusContacted: true,
	RegistrationStatusCompleted: true,
}

// RegistrationService manages course registrations from the public form.
type RegistrationService struct {
	gw     *gateway.Client
	guard  *guard.Guard
	logger *slog.Logger
}

// NewRegistrationService creates the registration service.
func NewRegistrationService(gw *gateway.Client, g *guard.Guard, logger *slog.Logger) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{gw: gw, guard: g, logger: logger}
}

// RegistrationInput is the public form payload.
type RegistrationInput struct {
	Name    string
	Contact string
	Course  string
	City    string
}

// Create stores a new registration with status "new".
func (s *RegistrationService) Create(ctx context.Context, in RegistrationInput) (*gateway.Registration, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Contact = strings.TrimSpace(in.Contact)
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	if in.Contact == "" {
		return nil, &ValidationError{Field: "contact", Message: "contact is required"}
	}
	if in.Course == "" {
		return nil, &ValidationError{Field: "course", Message: "course is required"}
	}

	reg, err := s.gw.CreateRegistration(ctx, gateway.Registration{
		Name:    in.Name,
		Contact: in.Contact,
		Course:  in.Course,
		City:    in.City,
		Status:  RegistrationStatusNew,
	})
	if err != nil {
		return nil, fmt.Errorf("creating registration: %w", err)
	}

	s.logger.Info("course registration received", "category", "content", "course", in.Course)
	return reg, nil
}

// List returns registrations filtered by status ("" for all).
func (s *RegistrationService) List(ctx context.Context, status string) ([]gateway.Registration, error) {
	return s.gw.ListRegistrations(ctx, status)
}

// UpdateStatus moves a registration along its workflow.
func (s *RegistrationService) UpdateStatus(ctx context.Context, token, id, status string) (*gateway.Registration, error) {
	if !registrationStatuses[status] {
		return nil, &ValidationError{Field: "status", Message: "unknown status"}
	}
	reg, err := s.gw.WithToken(token).UpdateRegistration(ctx, id, map[string]any{"status": status})
	if err != nil {
		return nil, fmt.Errorf("updating registration: %w", err)
	}
	return reg, nil
}

// Delete removes a registration. Full-access tier only.
func (s *RegistrationService) Delete(ctx context.Context, token string, user *gateway.User, id string) error {
	if err := s.guard.RequireFullAccess(user); err != nil {
		return err
	}
	if err := s.gw.WithToken(token).DeleteRegistration(ctx, id); err != nil {
		return fmt.Errorf("deleting registration: %w", err)
	}
	s.logger.Info("registration deleted", "category", "content", "id", id, "by", user.Email)
	return nil
}
