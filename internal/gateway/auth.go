// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// User is the remote auth identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the result of a successful sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	query := url.Values{}
	query.Set("grant_type", "password")

	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token", query, nil,
		map[string]string{"email": email, "password": password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the given access token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.WithToken(token).do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil, nil)
}

// GetUser fetches the identity behind an access token. A revoked or expired
// token yields an APIError; callers treat that as "no session".
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	var user User
	err := c.WithToken(token).do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
