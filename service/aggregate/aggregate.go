// Package aggregate buckets a record subset into chart-ready series.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/luokaci05/btctrack/service/explorer"
)

// Granularity is the time unit records are bucketed by.
type Granularity string

const (
	Day     Granularity = "Day"
	Week    Granularity = "Week" // Monday-aligned ISO week start
	Month   Granularity = "Month"
	Year    Granularity = "Year"
	Weekday Granularity = "Weekday" // Monday=0 .. Sunday=6, always 7 buckets
)

// Granularities lists the selectable calendar granularities in display
// order. Weekday is a dedicated chart, not a grouping selector entry.
func Granularities() []Granularity {
	return []Granularity{Day, Week, Month, Year}
}

// ParseGranularity maps a label to a Granularity, defaulting to Month.
func ParseGranularity(label string) Granularity {
	switch Granularity(label) {
	case Day, Week, Month, Year, Weekday:
		return Granularity(label)
	default:
		return Month
	}
}

// Mode selects what a bucket's value measures.
type Mode string

const (
	// Count buckets hold the number of records.
	Count Mode = "count"

	// Volume buckets hold the summed BTC amount.
	Volume Mode = "volume"
)

// ParseMode maps a label to a Mode, defaulting to Count.
func ParseMode(label string) Mode {
	if Mode(label) == Volume {
		return Volume
	}
	return Count
}

// Bucket is one (key, value) pair of an aggregated series. Sort is a
// granularity-appropriate ordering key (unix seconds for calendar buckets,
// the ordinal for weekdays and histogram bins); Label is the display form.
type Bucket struct {
	Label string
	Sort  int64
	Value float64
}

// XLabel returns the chart axis label for a granularity.
func (g Granularity) XLabel() string {
	switch g {
	case Day:
		return "Date"
	case Week:
		return "Week (starts on Monday)"
	case Year:
		return "Year"
	case Weekday:
		return "Weekday"
	default:
		return "Month"
	}
}

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Aggregate buckets the records by granularity and accumulates the mode's
// value per bucket, returning the series sorted ascending by bucket key.
//
// Weekday granularity always yields exactly 7 buckets, zero-filled. Month
// granularity pre-populates every month from January of the earliest
// record's year through December of the latest record's year, guaranteeing
// continuous monthly buckets with no gaps even across inactive years. The
// remaining granularities only materialize buckets that received at least
// one record.
func Aggregate(records []explorer.Transaction, g Granularity, m Mode) []Bucket {
	if g == Weekday {
		return aggregateWeekday(records, m)
	}

	acc := make(map[int64]float64)
	labels := make(map[int64]string)

	if g == Month && len(records) > 0 {
		prefillMonths(records, acc, labels)
	}

	for _, r := range records {
		key, label := bucketKey(r.Time, g)
		labels[key] = label
		acc[key] += value(r, m)
	}

	buckets := make([]Bucket, 0, len(acc))
	for key, v := range acc {
		buckets = append(buckets, Bucket{Label: labels[key], Sort: key, Value: v})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Sort < buckets[j].Sort })
	return buckets
}

func aggregateWeekday(records []explorer.Transaction, m Mode) []Bucket {
	buckets := make([]Bucket, 7)
	for i := range buckets {
		buckets[i] = Bucket{Label: weekdayLabels[i], Sort: int64(i)}
	}
	for _, r := range records {
		buckets[mondayOrdinal(r.Time.Weekday())].Value += value(r, m)
	}
	return buckets
}

// mondayOrdinal converts Go's Sunday-based weekday to Monday=0 .. Sunday=6.
func mondayOrdinal(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func value(r explorer.Transaction, m Mode) float64 {
	if m == Volume {
		return r.Amount
	}
	return 1
}

func bucketKey(t time.Time, g Granularity) (int64, string) {
	var b time.Time
	switch g {
	case Day:
		b = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return b.Unix(), b.Format("2006-01-02")
	case Week:
		b = t.AddDate(0, 0, -mondayOrdinal(t.Weekday()))
		b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, b.Location())
		return b.Unix(), b.Format("2006-01-02")
	case Year:
		b = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
		return b.Unix(), b.Format("2006")
	default: // Month
		b = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return b.Unix(), b.Format("2006-01")
	}
}

// prefillMonths seeds a zero bucket for every month between January of the
// earliest record's year and December of the latest record's year.
func prefillMonths(records []explorer.Transaction, acc map[int64]float64, labels map[int64]string) {
	minYear, maxYear := records[0].Time.Year(), records[0].Time.Year()
	loc := records[0].Time.Location()
	for _, r := range records[1:] {
		if y := r.Time.Year(); y < minYear {
			minYear = y
		} else if y > maxYear {
			maxYear = y
		}
	}
	for y := minYear; y <= maxYear; y++ {
		for mo := time.January; mo <= time.December; mo++ {
			b := time.Date(y, mo, 1, 0, 0, 0, 0, loc)
			key := b.Unix()
			acc[key] = 0
			labels[key] = b.Format("2006-01")
		}
	}
}

// Histogram bins the records' amounts into equal-width bins over [0, max].
// It backs the amount-distribution chart. Bins with no records are kept so
// the distribution's shape is visible.
func Histogram(records []explorer.Transaction, bins int) []Bucket {
	if bins <= 0 {
		bins = 10
	}
	if len(records) == 0 {
		return nil
	}

	maxAmount := records[0].Amount
	for _, r := range records[1:] {
		if r.Amount > maxAmount {
			maxAmount = r.Amount
		}
	}
	if maxAmount == 0 {
		// All amounts are zero; everything lands in one degenerate bin.
		return []Bucket{{Label: "0", Sort: 0, Value: float64(len(records))}}
	}

	width := maxAmount / float64(bins)
	buckets := make([]Bucket, bins)
	for i := range buckets {
		lo := width * float64(i)
		hi := lo + width
		buckets[i] = Bucket{
			Label: fmt.Sprintf("%.4f-%.4f", lo, hi),
			Sort:  int64(i),
		}
	}
	for _, r := range records {
		idx := int(r.Amount / width)
		if idx >= bins {
			idx = bins - 1 // the max amount lands in the last bin
		}
		buckets[idx].Value++
	}
	return buckets
}
