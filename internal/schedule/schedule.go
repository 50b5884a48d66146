// Package schedule provides deterministic ordering and date-membership
// queries over a post collection, independent of storage.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"almanac/internal/models"
)

// MonthAll is the FilterByMonth sentinel meaning "no month filter".
const MonthAll = "all"

// ParseDisplayDate parses a DD/MM display date against the current calendar
// year at call time. Malformed input fails loudly; it never returns a zero
// time alongside a nil error.
func ParseDisplayDate(dateStr string) (time.Time, error) {
	return ParseDisplayDateInYear(dateStr, time.Now().Year())
}

// ParseDisplayDateInYear parses a DD/MM display date against an explicit
// year. Posts carry a Year field so dates created near a year boundary keep
// their intended year; a zero year falls back to the current one.
func ParseDisplayDateInYear(dateStr string, year int) (time.Time, error) {
	if year == 0 {
		year = time.Now().Year()
	}

	parts := strings.Split(dateStr, "/")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid display date %q: want DD/MM", dateStr)
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day in display date %q: %w", dateStr, err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month in display date %q: %w", dateStr, err)
	}

	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid display date %q: day %d out of range", dateStr, day)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid display date %q: month %d out of range", dateStr, month)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/04 -> 01/05); reject that instead.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("invalid display date %q: no such calendar day", dateStr)
	}
	return t, nil
}

// PostDate resolves a post's concrete calendar date from its display date and
// optional explicit year.
func PostDate(p models.Post) (time.Time, error) {
	return ParseDisplayDateInYear(p.Date, p.Year)
}

// SortByDate returns a new slice ordered ascending by display date. The sort
// is stable: posts on the same day keep their relative input order, and the
// input slice is never mutated. The first malformed date aborts the sort with
// a descriptive error.
func SortByDate(posts []models.Post) ([]models.Post, error) {
	dates := make([]time.Time, len(posts))
	for i, p := range posts {
		d, err := PostDate(p)
		if err != nil {
			return nil, fmt.Errorf("post %d: %w", p.ID, err)
		}
		dates[i] = d
	}

	out := make([]models.Post, len(posts))
	idx := make([]int, len(posts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return dates[idx[a]].Before(dates[idx[b]])
	})
	for i, j := range idx {
		out[i] = posts[j]
	}
	return out, nil
}

// HasPostOnDate reports whether any post falls on the same calendar day
// (year, month, day) as date. Posts with malformed dates are ignored here;
// they are rejected at creation time.
func HasPostOnDate(date time.Time, posts []models.Post) bool {
	y, m, d := date.Date()
	for _, p := range posts {
		pd, err := PostDate(p)
		if err != nil {
			continue
		}
		py, pm, pday := pd.Date()
		if py == y && pm == m && pday == d {
			return true
		}
	}
	return false
}

// FilterByMonth returns the posts whose date's month token equals month,
// preserving relative order. The MonthAll sentinel returns every post
// unchanged. Comparison is on the raw month token, so "2" and "02" are
// normalized before matching.
func FilterByMonth(posts []models.Post, month string) []models.Post {
	if month == "" || month == MonthAll {
		out := make([]models.Post, len(posts))
		copy(out, posts)
		return out
	}

	want := normalizeMonthToken(month)
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		parts := strings.Split(p.Date, "/")
		if len(parts) < 2 {
			continue
		}
		if normalizeMonthToken(parts[1]) == want {
			out = append(out, p)
		}
	}
	return out
}

func normalizeMonthToken(tok string) string {
	tok = strings.TrimSpace(tok)
	if len(tok) == 1 {
		return "0" + tok
	}
	return tok
}

// DayTokens derives the precomputed Day (two-digit day token) and DayOfWeek
// (weekday name) fields stored on a post at creation time.
func DayTokens(date time.Time) (day string, dayOfWeek string) {
	return fmt.Sprintf("%02d", date.Day()), date.Weekday().String()
}
