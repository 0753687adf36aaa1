// Package txfilter selects subsets of a fetched record set. Filtering is a
// pure function of (records, criteria, now): it never mutates records and
// never re-sorts, so output order always matches fetch order.
package txfilter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/luokaci05/btctrack/service/explorer"
)

// Period is the enumerated time-window selector.
type Period string

const (
	AllTime    Period = "All time"
	Last7Days  Period = "Last 7 days"
	Last30Days Period = "Last 30 days"
	Last90Days Period = "Last 90 days"
	YearToDate Period = "Year to date"
	LastYear   Period = "Last 1 year"
)

// Periods lists all selectable periods in display order.
func Periods() []Period {
	return []Period{AllTime, Last7Days, Last30Days, Last90Days, YearToDate, LastYear}
}

// ParsePeriod maps a label to a Period. Unknown labels fall back to AllTime.
func ParsePeriod(label string) Period {
	for _, p := range Periods() {
		if string(p) == label {
			return p
		}
	}
	return AllTime
}

// WindowStart returns the inclusive lower bound of the period's time window
// evaluated against now, or the zero time for an unconstrained window. The
// window is always evaluated at filter time, not at fetch time.
func (p Period) WindowStart(now time.Time) time.Time {
	switch p {
	case Last7Days:
		return now.AddDate(0, 0, -7)
	case Last30Days:
		return now.AddDate(0, 0, -30)
	case Last90Days:
		return now.AddDate(0, 0, -90)
	case LastYear:
		return now.AddDate(0, 0, -365)
	case YearToDate:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

// Criteria is the conjunction of filter predicates. Zero values mean
// unconstrained. Criteria carry no state of their own; they are read fresh
// from the UI on every application.
type Criteria struct {
	Period    Period
	Search    string // case-insensitive substring over the full hash
	MinAmount *float64
	MaxAmount *float64
}

// BoundError reports a non-numeric min/max amount entry. It is a warning,
// not a hard failure: the offending bound is treated as unconstrained.
type BoundError struct {
	Field string // "min" or "max"
	Input string
}

func (e *BoundError) Error() string {
	return fmt.Sprintf("%s amount %q is not a valid number", e.Field, e.Input)
}

// ParseBound parses a user-entered amount bound. An empty entry means no
// bound. A non-numeric entry also means no bound, but additionally returns
// a *BoundError so the caller can surface a warning.
func ParseBound(field, input string) (*float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return nil, &BoundError{Field: field, Input: input}
	}
	return &v, nil
}

// Apply returns the ordered subsequence of records satisfying all active
// predicates. It is idempotent and stable.
func Apply(records []explorer.Transaction, c Criteria, now time.Time) []explorer.Transaction {
	start := c.Period.WindowStart(now)
	search := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]explorer.Transaction, 0, len(records))
	for _, r := range records {
		if !start.IsZero() && r.Time.Before(start) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.HashFull), search) {
			continue
		}
		if c.MinAmount != nil && r.Amount < *c.MinAmount {
			continue
		}
		if c.MaxAmount != nil && r.Amount > *c.MaxAmount {
			continue
		}
		out = append(out, r)
	}
	return out
}
