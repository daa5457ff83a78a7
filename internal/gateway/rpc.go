// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import "context"

// LockoutStatus is the authoritative answer from the backend's lockout
// procedure. The backend considers both per-account attempt counts and, when
// recorded, the caller's IP.
type LockoutStatus struct {
	Locked    bool   `json:"locked"`
	Attempts  int    `json:"attempts"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}

// CheckLoginLockout asks the backend whether the account is locked out.
func (c *Client) CheckLoginLockout(ctx context.Context, email string) (*LockoutStatus, error) {
	var status LockoutStatus
	err := c.rpc(ctx, "check_login_lockout", map[string]string{"user_email": email}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// RecordLoginAttempt reports a login attempt to the backend. clientIP and
// userAgent are telemetry and may be empty.
func (c *Client) RecordLoginAttempt(ctx context.Context, email string, success bool, clientIP, userAgent string) error {
	params := map[string]any{
		"user_email":     email,
		"was_successful": success,
	}
	if clientIP != "" {
		params["client_ip"] = clientIP
	}
	if userAgent != "" {
		params["client_user_agent"] = userAgent
	}
	return c.rpc(ctx, "record_login_attempt", params, nil)
}
