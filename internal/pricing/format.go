// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package pricing

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var plPrinter = message.NewPrinter(language.Polish)

// FormatPrice renders a price value the way the site always has: Polish
// grouping, no decimals, optional unit ("3 300 zł"). The locale's non-breaking
// group separator is normalized to a plain space for the JSON/text surface.
func FormatPrice(value float64, unit string) string {
	formatted := plPrinter.Sprint(number.Decimal(value, number.MaxFractionDigits(0)))
	formatted = strings.NewReplacer(" ", " ", " ", " ").Replace(formatted)
	if unit == "" {
		return formatted
	}
	return formatted + " " + unit
}

// FormatRemaining renders a Remaining reading in countdown notation: days
// unpadded, the rest zero-padded ("1d 01h 01m 01s").
func FormatRemaining(r Remaining) string {
	return fmt.Sprintf("%dd %02dh %02dm %02ds", r.Days, r.Hours, r.Minutes, r.Seconds)
}

// FormatTimeRemaining renders the time left until end in the compact form
// used by the promo modal: "2d 5h 10m", "5h 10m" or "10m". Returns "" when
// the end has already passed.
func FormatTimeRemaining(end, now time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return ""
	}

	r := remainingUnits(diff)
	switch {
	case r.Days > 0:
		return fmt.Sprintf("%dd %dh %dm", r.Days, r.Hours, r.Minutes)
	case r.Hours > 0:
		return fmt.Sprintf("%dh %dm", r.Hours, r.Minutes)
	default:
		return fmt.Sprintf("%dm", r.Minutes)
	}
}
