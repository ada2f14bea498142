package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned for strings that are not ISO-8601 timestamps.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// ErrNegativeDuration is returned when an event ends before it starts.
var ErrNegativeDuration = errors.New("end is before start")

// Layouts accepted for timestamps with an explicit offset, in any of the
// ISO-8601 spellings ("+01:00", "+0100", "+01").
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-0700",
}

// Layouts accepted for timestamps without an explicit offset; they are read as UTC.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" (either case) is
// treated as "+00:00", timestamps without an offset are taken to be UTC, and a
// bare date means midnight UTC.
func ParseTimestamp(s string) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	if last := raw[len(raw)-1]; last == 'Z' || last == 'z' {
		raw = raw[:len(raw)-1] + "+00:00"
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// DurationMinutes returns the whole minutes between start and end, truncated.
func DurationMinutes(start, end time.Time) (int, error) {
	d := end.Sub(start)
	if d < 0 {
		return 0, fmt.Errorf("%w: %s < %s", ErrNegativeDuration,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return int(d / time.Minute), nil
}

// ToWorklogRequest converts a calendar event into a worklog entry for issueKey.
func (e CalendarEvent) ToWorklogRequest(issueKey string) (WorklogRequest, error) {
	start, err := ParseTimestamp(e.Start)
	if err != nil {
		return WorklogRequest{}, fmt.Errorf("start: %w", err)
	}
	end, err := ParseTimestamp(e.End)
	if err != nil {
		return WorklogRequest{}, fmt.Errorf("end: %w", err)
	}
	minutes, err := DurationMinutes(start, end)
	if err != nil {
		return WorklogRequest{}, err
	}
	return WorklogRequest{
		IssueKey:         issueKey,
		TimeSpentMinutes: minutes,
		Started:          start,
		Comment:          e.Comment,
	}, nil
}
