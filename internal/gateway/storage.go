// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ImageBucket is the storage bucket for uploaded article images.
const ImageBucket = "news-images"

// UploadImage streams an image into the storage bucket and returns its public
// URL.
func (c *Client) UploadImage(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	u := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, ImageBucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, r)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	token := c.anonKey
	if c.userToken != "" {
		token = c.userToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "image upload failed"}
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, ImageBucket, name), nil
}

// DeleteImage removes a previously uploaded image given its public URL.
func (c *Client) DeleteImage(ctx context.Context, publicURL string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	// The object name is the last URL segment, as produced by UploadImage.
	idx := strings.LastIndex(publicURL, "/")
	if idx < 0 || idx == len(publicURL)-1 {
		return fmt.Errorf("gateway: malformed image URL %q", publicURL)
	}
	name := publicURL[idx+1:]

	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/storage/v1/object/%s/%s", ImageBucket, name), nil, nil, nil, nil)
}
