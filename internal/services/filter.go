package services

import (
	"net/url"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const SortNewest = "newest"

// EventFilter is the parsed form of the /api/events query string. Nil fields are
// not applied.
type EventFilter struct {
	Years      []int
	Year       *int
	Month      *int
	Day        *int
	CategoryID *int64
	Newest     bool
}

// ParseEventFilter reads years, year, month, day, category_id and sort. Tokens that do
// not parse as integers are dropped; a years list with at least one valid entry
// replaces the single year parameter.
func ParseEventFilter(values url.Values) EventFilter {
	var f EventFilter
	if raw := values.Get("years"); strings.TrimSpace(raw) != "" {
		f.Years = parseYears(raw)
	}
	if len(f.Years) == 0 {
		f.Year = parseIntParam(values.Get("year"))
	}
	f.Month = parseIntParam(values.Get("month"))
	f.Day = parseIntParam(values.Get("day"))
	if raw := strings.TrimSpace(values.Get("category_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.CategoryID = &id
		}
	}
	f.Newest = strings.EqualFold(strings.TrimSpace(values.Get("sort")), SortNewest)
	return f
}

func parseYears(raw string) []int {
	years := []int{}
	seen := map[int]bool{}
	for _, token := range strings.Split(raw, ",") {
		value, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || seen[value] {
			continue
		}
		seen[value] = true
		years = append(years, value)
	}
	return years
}

func parseIntParam(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

// Apply adds the filter's predicates and ordering to a select over events aliased "e".
func (f EventFilter) Apply(b sq.SelectBuilder) sq.SelectBuilder {
	switch {
	case len(f.Years) > 0:
		b = b.Where(sq.Eq{"e.year": f.Years})
	case f.Year != nil:
		b = b.Where(sq.Eq{"e.year": *f.Year})
	}
	if f.Month != nil {
		b = b.Where(sq.Eq{"e.month": *f.Month})
	}
	if f.Day != nil {
		b = b.Where(sq.Eq{"e.day": *f.Day})
	}
	if f.CategoryID != nil {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM event_categories ec WHERE ec.event_id = e.id AND ec.category_id = ?)",
			*f.CategoryID,
		))
	}
	if f.Newest {
		return b.OrderBy("e.created_at DESC", "e.id DESC")
	}
	return b.OrderBy("e.year ASC", "e.month ASC", "e.day ASC", "e.id ASC")
}
