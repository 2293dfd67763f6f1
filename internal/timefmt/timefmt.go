// Package timefmt owns the canonical datetime representation used on every
// wire surface: "YYYY-MM-DD HH:MM:SS.mmm", always UTC, millisecond precision
// by truncation.
package timefmt

import (
	"strings"
	"time"

	"github.com/xeonx/timeago"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
)

// Layout is the canonical wire format.
const Layout = "2006-01-02 15:04:05.000"

// Accepted input layouts, tried in order. Go's parser also accepts a longer
// fractional second against the seconds-terminated layouts, so sub-millisecond
// inputs parse fine and get truncated on output.
var parseLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Normalize renders t in the canonical format. Sub-millisecond precision is
// truncated, never rounded. The zero time renders as the empty string.
func Normalize(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Millisecond).Format(Layout)
}

// NormalizePtr is the nil-safe variant for optional columns.
func NormalizePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := Normalize(*t)
	return &s
}

// Parse reads any accepted datetime form into a UTC time. The empty string
// parses to the zero time. Offsets are converted to UTC. Anything else
// returns a FormatError naming the input.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.NewFormatError(s, "expected YYYY-MM-DD HH:MM:SS.mmm or an RFC 3339 timestamp")
}

// ParsePtr parses an optional value; nil and empty both yield nil.
func ParsePtr(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := Parse(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AgeDays returns the whole number of days elapsed from created to now,
// floored, never negative.
func AgeDays(now, created time.Time) int {
	d := now.Sub(created)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// Humanize renders a relative age like "3 days ago" for context payloads.
func Humanize(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timeago.English.FormatReference(t, now)
}
