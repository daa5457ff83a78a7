// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content implements the admin-facing services over the remote
// gateway: news articles, categories, reviews, verification codes, course
// registrations and price maintenance. Destructive operations are gated on
// the full-access tier before any remote call is issued.
package content

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"
)

// ValidationError is a write-time rejection tied to a single field. Surfaced
// inline next to the offending input, never persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// articlePolicy allows the rich-text subset the news editor produces.
// reviewPolicy strips everything; reviews are plain text.
var (
	articlePolicy = bluemonday.UGCPolicy()
	reviewPolicy  = bluemonday.StrictPolicy()
)
