// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gateway is the client for the remote managed backend: auth, tabular
// CRUD over its REST API, stored procedures, and file storage. The application
// is a pure consumer; every caller is expected to degrade gracefully when the
// gateway is unreachable or not configured.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

var (
	// ErrNotConfigured means the gateway URL or key is missing; callers fall
	// back to local behavior.
	ErrNotConfigured = errors.New("gateway not configured")

	// ErrUnavailable wraps network-level failures reaching the gateway.
	ErrUnavailable = errors.New("gateway unavailable")

	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// APIError is a well-formed error response from the gateway.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("gateway: status %d", e.StatusCode)
}

// Client talks to the remote backend. The zero value is an unconfigured
// client; use New.
type Client struct {
	baseURL   string
	anonKey   string
	userToken string // set via WithToken for authenticated requests
	http      *http.Client
}

// New creates a gateway client. Empty url/key yields an unconfigured client
// whose every call returns ErrNotConfigured.
func New(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Configured reports whether the client can reach a backend at all.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.anonKey != ""
}

// WithToken returns a copy of the client that authenticates requests with the
// given user access token instead of the anonymous key.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.userToken = token
	return &clone
}

// do performs one request against the gateway and decodes the JSON response
// into out (when out is non-nil and the response has a body).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, headers map[string]string, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	token := c.anonKey
	if c.userToken != "" {
		token = c.userToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// rest performs a request against the tabular REST surface.
func (c *Client) rest(ctx context.Context, method, table string, query url.Values, headers map[string]string, body, out any) error {
	return c.do(ctx, method, "/rest/v1/"+table, query, headers, body, out)
}

// rpc calls a stored procedure by name.
func (c *Client) rpc(ctx context.Context, name string, params, out any) error {
	return c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+name, nil, nil, params, out)
}
