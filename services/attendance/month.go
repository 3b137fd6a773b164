package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"oza-scraper/lib/timezone"
)

// ResolveMonth maps "auto" (or empty) to the previous calendar month
// on the Tokyo clock; anything else passes through for MonthRange to
// validate.
func ResolveMonth(value string) string {
	if value == "" || strings.EqualFold(value, "auto") {
		today := timezone.Now()
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, timezone.Location)
		return first.AddDate(0, 0, -1).Format("2006-01")
	}
	return value
}

// MonthRange turns "YYYY-MM" or "YYYYMM" into the month's first and
// last day.
func MonthRange(month string) (time.Time, time.Time, error) {
	compact := strings.ReplaceAll(month, "-", "")
	if len(compact) != 6 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM or YYYYMM", month)
	}
	year, err := strconv.Atoi(compact[:4])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	m, err := strconv.Atoi(compact[4:])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	if m < 1 || m > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: month out of range", month)
	}

	start := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, timezone.Location)
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}
