package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	decimalRegex  = regexp.MustCompile(`^(\d+(?:\.\d+)?)$`)
	unitRegex     = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(h|hr|hrs|hour|hours|m|min|mins|minute|minutes)$`)
	compoundRegex = regexp.MustCompile(`^(\d+)h\s*(\d+)m$`)
	dateTimeRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})\s+(\d{1,2}):(\d{2})$`)

	// ISO date-times with no offset are read in the caller's zone
	localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}
)

// ParseHours parses an amount of volunteer time into decimal hours
// Supported formats:
// - decimal hours (e.g., "1.5")
// - X hours / X minutes (e.g., "2 hours", "90m", "1.5h")
// - XhYm (e.g., "1h30m")
func ParseHours(input string) (float64, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, fmt.Errorf("hours are required")
	}

	hours, err := parseAmount(input)
	if err != nil {
		return 0, err
	}
	// Round before the sign check so "0.001" is rejected instead of becoming 0
	hours = math.Round(hours*100) / 100
	if hours <= 0 || math.IsInf(hours, 0) || math.IsNaN(hours) {
		return 0, fmt.Errorf("hours must be positive")
	}
	return hours, nil
}

func parseAmount(input string) (float64, error) {
	if m := decimalRegex.FindStringSubmatch(input); m != nil {
		return strconv.ParseFloat(m[1], 64)
	}

	if m := compoundRegex.FindStringSubmatch(input); m != nil {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number of hours: %w", err)
		}
		mins, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, fmt.Errorf("invalid number of minutes: %w", err)
		}
		if mins >= 60 {
			return 0, fmt.Errorf("minutes must be below 60")
		}
		return float64(h) + float64(mins)/60, nil
	}

	if m := unitRegex.FindStringSubmatch(input); m != nil {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number")
		}
		switch m[2] {
		case "m", "min", "mins", "minute", "minutes":
			return amount / 60, nil
		default:
			return amount, nil
		}
	}

	return 0, fmt.Errorf("invalid hours format. Use: 1.5, 90m, 2 hours, or 1h30m")
}

// ParseTimestamp parses a point in time given on the command line
// Supported formats:
// - RFC 3339 (e.g., "2024-03-01T10:00:00Z")
// - yyyy-mm-ddThh:mm[:ss] without an offset, in loc
// - dd/mm/yyyy hh:mm in loc (e.g., "01/03/2024 10:00")
func ParseTimestamp(input string, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t.UTC(), nil
		}
	}

	m := dateTimeRegex.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid time format. Use: dd/mm/yyyy hh:mm or RFC 3339")
	}

	var fields [5]int
	for i := range fields {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time: %w", err)
		}
		fields[i] = n
	}
	day, month, year, hour, minute := fields[0], fields[1], fields[2], fields[3], fields[4]

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid time of day")
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)

	// Check if date is valid (handles leap years, etc.)
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("invalid date")
	}

	return t.UTC(), nil
}

// FormatHours renders decimal hours for display (e.g., "1h 30m")
func FormatHours(hours float64) string {
	total := int(math.Round(hours * 60))
	h, m := total/60, total%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// FormatDuration formats an elapsed duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
