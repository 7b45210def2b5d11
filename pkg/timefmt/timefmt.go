// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

// Package timefmt formats durations for display in reading statistics.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// Reading formats a total reading duration as a human-readable string,
// e.g. "1 hour 5 minutes 30 seconds".
//
// # Rules
//
// Every zero unit is omitted ("2 hours 7 seconds", not
// "2 hours 0 minutes 7 seconds"). Units are singular when the value is 1.
// A zero or negative duration formats as "0 seconds".
func Reading(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	return strings.Join(parts, " ")
}

// plural renders "n unit" with an "s" suffix unless n is exactly 1.
func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
