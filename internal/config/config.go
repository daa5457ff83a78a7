// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OSK_DB_PATH" envDefault:"./data/osksite.db"`
	SessionSecret string `env:"OSK_SESSION_SECRET,required"`
	ServerHost    string `env:"OSK_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OSK_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OSK_ENV" envDefault:"development"`
	LogLevel      string `env:"OSK_LOG_LEVEL" envDefault:"info"`

	// Remote data gateway (Supabase-compatible REST backend)
	GatewayURL     string `env:"OSK_GATEWAY_URL"`
	GatewayAnonKey string `env:"OSK_GATEWAY_ANON_KEY"`

	// Admin access
	AdminEmails      []string `env:"OSK_ADMIN_EMAILS" envSeparator:","`
	FullAccessEmails []string `env:"OSK_FULL_ACCESS_EMAILS" envSeparator:","`

	// EmailJS credentials: one account for the contact form, one for registrations
	ContactEmailPublicKey        string `env:"OSK_CONTACT_EMAIL_PUBLIC_KEY"`
	ContactEmailServiceID        string `env:"OSK_CONTACT_EMAIL_SERVICE_ID"`
	ContactEmailTemplateID       string `env:"OSK_CONTACT_EMAIL_TEMPLATE_ID"`
	ContactEmailAutoReplyID      string `env:"OSK_CONTACT_EMAIL_AUTOREPLY_ID"`
	RegistrationEmailPublicKey   string `env:"OSK_REGISTRATION_EMAIL_PUBLIC_KEY"`
	RegistrationEmailServiceID   string `env:"OSK_REGISTRATION_EMAIL_SERVICE_ID"`
	RegistrationEmailTemplateID  string `env:"OSK_REGISTRATION_EMAIL_TEMPLATE_ID"`
	RegistrationEmailAutoReplyID string `env:"OSK_REGISTRATION_EMAIL_AUTOREPLY_ID"`

	// GeoIP configuration
	GeoIPDBPath string `env:"OSK_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// IP echo service used for login telemetry (best-effort)
	IPLookupURL string `env:"OSK_IP_LOOKUP_URL" envDefault:"https://api.ipify.org?format=json"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// GatewayConfigured returns true if the remote data gateway is configured.
func (c Config) GatewayConfigured() bool {
	return c.GatewayURL != "" && c.GatewayAnonKey != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("OSK_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Gateway is optional (the site degrades to fallback prices and local
	// lockout tracking), but a half-configured gateway is a mistake.
	if (cfg.GatewayURL == "") != (cfg.GatewayAnonKey == "") {
		return nil, fmt.Errorf("OSK_GATEWAY_URL and OSK_GATEWAY_ANON_KEY must be set together")
	}

	// Normalize allowlists once so the rest of the app never worries about
	// case or stray whitespace.
	cfg.AdminEmails = normalizeEmails(cfg.AdminEmails)
	cfg.FullAccessEmails = normalizeEmails(cfg.FullAccessEmails)

	for _, email := range cfg.FullAccessEmails {
		if !contains(cfg.AdminEmails, email) {
			return nil, fmt.Errorf("full-access email %q is not in OSK_ADMIN_EMAILS", email)
		}
	}

	return cfg, nil
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
