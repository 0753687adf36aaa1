package txfilter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luokaci05/btctrack/service/explorer"
)

var testNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func testRecords() []explorer.Transaction {
	return []explorer.Transaction{
		{HashFull: "abc123def456ghi789", Time: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), Amount: 0.5},
		{HashFull: "def456jkl012mno345", Time: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), Amount: 1.25},
	}
}

func TestApply_AllTimeNoConstraints(t *testing.T) {
	records := testRecords()

	got := Apply(records, Criteria{Period: AllTime}, testNow)

	require.Len(t, got, 2)
	assert.Equal(t, records, got, "unconstrained filter must preserve records and order")
}

func TestApply_MinAmount(t *testing.T) {
	min := 1.0
	got := Apply(testRecords(), Criteria{Period: AllTime, MinAmount: &min}, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, "def456jkl012mno345", got[0].HashFull)
}

func TestApply_MaxAmount(t *testing.T) {
	max := 1.0
	got := Apply(testRecords(), Criteria{Period: AllTime, MaxAmount: &max}, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, "abc123def456ghi789", got[0].HashFull)
}

func TestApply_BoundsInclusive(t *testing.T) {
	min := 0.5
	max := 1.25
	got := Apply(testRecords(), Criteria{Period: AllTime, MinAmount: &min, MaxAmount: &max}, testNow)
	assert.Len(t, got, 2)
}

func TestApply_SearchCaseInsensitiveFullHash(t *testing.T) {
	// The substring matches against the full hash, not the truncated
	// display form.
	got := Apply(testRecords(), Criteria{Period: AllTime, Search: "MNO345"}, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, "def456jkl012mno345", got[0].HashFull)
}

func TestApply_PeriodWindow(t *testing.T) {
	// Only the June record falls within 90 days of testNow.
	got := Apply(testRecords(), Criteria{Period: Last90Days}, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, "def456jkl012mno345", got[0].HashFull)
}

func TestApply_YearToDate(t *testing.T) {
	records := append(testRecords(), explorer.Transaction{
		HashFull: "old000",
		Time:     time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC),
		Amount:   2,
	})

	got := Apply(records, Criteria{Period: YearToDate}, testNow)
	assert.Len(t, got, 2, "previous-year record must be excluded")
}

func TestApply_Idempotent(t *testing.T) {
	min := 0.4
	c := Criteria{Period: Last90Days, Search: "def", MinAmount: &min}

	first := Apply(testRecords(), c, testNow)
	second := Apply(first, c, testNow)
	assert.Equal(t, first, second)
}

func TestApply_MonotonicPerPredicate(t *testing.T) {
	records := testRecords()
	base := Apply(records, Criteria{Period: AllTime}, testNow)

	// Narrowing any single bound never grows the output.
	min := 1.0
	assert.LessOrEqual(t, len(Apply(records, Criteria{Period: AllTime, MinAmount: &min}, testNow)), len(base))

	max := 0.6
	assert.LessOrEqual(t, len(Apply(records, Criteria{Period: AllTime, MaxAmount: &max}, testNow)), len(base))

	assert.LessOrEqual(t, len(Apply(records, Criteria{Period: Last7Days}, testNow)), len(base))
}

func TestApply_EmptyResult(t *testing.T) {
	min := 100.0
	got := Apply(testRecords(), Criteria{Period: AllTime, MinAmount: &min}, testNow)
	assert.Empty(t, got)
}

func TestParseBound(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      *float64
		wantError bool
	}{
		{name: "empty means unconstrained", input: "", want: nil},
		{name: "whitespace means unconstrained", input: "   ", want: nil},
		{name: "valid number", input: "1.0", want: ptr(1.0)},
		{name: "non-numeric warns and stays unconstrained", input: "abc", want: nil, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBound("min", tt.input)
			if tt.wantError {
				require.Error(t, err)
				var be *BoundError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, "min", be.Field)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBound_WarningDoesNotAffectOutput(t *testing.T) {
	// A non-numeric bound is a warning only; filtering proceeds with that
	// bound unconstrained.
	bound, err := ParseBound("min", "abc")
	require.Error(t, err)
	require.Nil(t, bound)

	got := Apply(testRecords(), Criteria{Period: AllTime, MinAmount: bound}, testNow)
	assert.Len(t, got, 2)
}

func TestParsePeriod_RoundTrip(t *testing.T) {
	for _, p := range Periods() {
		assert.Equal(t, p, ParsePeriod(string(p)))
	}
	assert.Equal(t, AllTime, ParsePeriod("bogus"))
}

func ptr(v float64) *float64 { return &v }
