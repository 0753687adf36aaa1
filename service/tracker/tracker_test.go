package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luokaci05/btctrack/service/aggregate"
	"github.com/luokaci05/btctrack/service/explorer"
	"github.com/luokaci05/btctrack/service/txfilter"
)

// fakeFetcher returns canned raw transactions or an error.
type fakeFetcher struct {
	raw   []explorer.RawTransaction
	err   error
	calls int
}

func (f *fakeFetcher) FetchAddress(_ context.Context, _ string) ([]explorer.RawTransaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func sampleRaw() []explorer.RawTransaction {
	return []explorer.RawTransaction{
		{
			Hash: "abc123def456ghi789",
			Time: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC).Unix(),
			Out:  []explorer.RawOutput{{Value: 50000000}},
		},
		{
			Hash: "def456jkl012mno345",
			Time: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC).Unix(),
			Out:  []explorer.RawOutput{{Value: 125000000}},
		},
	}
}

func TestBeginFetch_EmptyAddressRejectedSynchronously(t *testing.T) {
	f := &fakeFetcher{}
	tr := New(f, explorer.AmountSumOutputs, nil, nil)

	run, err := tr.BeginFetch("   ")
	require.ErrorIs(t, err, ErrEmptyAddress)
	assert.Nil(t, run)
	assert.Equal(t, Idle, tr.State(), "empty address causes no state change")
	assert.Zero(t, f.calls, "no network call for an empty address")
}

func TestBeginFetch_SingleFlight(t *testing.T) {
	tr := New(&fakeFetcher{}, explorer.AmountSumOutputs, nil, nil)

	run, err := tr.BeginFetch("addr")
	require.NoError(t, err)
	assert.Equal(t, Fetching, tr.State())

	_, err = tr.BeginFetch("addr")
	assert.ErrorIs(t, err, ErrFetchInFlight)

	tr.CompleteFetch(run(context.Background()))
	assert.Equal(t, Idle, tr.State())

	_, err = tr.BeginFetch("addr")
	assert.NoError(t, err, "trigger re-enabled after completion")
}

func TestCompleteFetch_SuccessReplacesRecordSet(t *testing.T) {
	tr := New(&fakeFetcher{raw: sampleRaw()}, explorer.AmountSumOutputs, nil, nil)

	run, err := tr.BeginFetch("addr")
	require.NoError(t, err)
	res := run(context.Background())
	require.NoError(t, res.Err)
	tr.CompleteFetch(res)

	records := tr.Records()
	require.Len(t, records, 2)
	assert.Equal(t, 0.5, records[0].Amount)
	assert.Equal(t, 1.25, records[1].Amount)
}

func TestCompleteFetch_FailureLeavesPriorRecordSet(t *testing.T) {
	fetcher := &fakeFetcher{raw: sampleRaw()}
	tr := New(fetcher, explorer.AmountSumOutputs, nil, nil)

	run, _ := tr.BeginFetch("addr")
	tr.CompleteFetch(run(context.Background()))
	require.Len(t, tr.Records(), 2)

	fetcher.err = errors.New("boom")
	run, _ = tr.BeginFetch("addr")
	res := run(context.Background())
	require.Error(t, res.Err)
	tr.CompleteFetch(res)

	assert.Equal(t, Idle, tr.State(), "failed fetch returns to Idle")
	assert.Len(t, tr.Records(), 2, "prior record set untouched on failure")
}

func TestApplyFilters_UsesCurrentCriteria(t *testing.T) {
	tr := New(&fakeFetcher{raw: sampleRaw()}, explorer.AmountSumOutputs, nil, nil)
	run, _ := tr.BeginFetch("addr")
	tr.CompleteFetch(run(context.Background()))

	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.Len(t, tr.ApplyFilters(now), 2)

	min := 1.0
	tr.SetCriteria(txfilter.Criteria{Period: txfilter.AllTime, MinAmount: &min})
	got := tr.ApplyFilters(now)
	require.Len(t, got, 1)
	assert.Equal(t, "def456jkl012mno345", got[0].HashFull)
}

func TestAggregateAndExport(t *testing.T) {
	tr := New(&fakeFetcher{raw: sampleRaw()}, explorer.AmountSumOutputs, nil, nil)
	run, _ := tr.BeginFetch("addr")
	tr.CompleteFetch(run(context.Background()))

	displayed := tr.ApplyFilters(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))

	buckets := tr.Aggregate(displayed, aggregate.Month, aggregate.Count)
	require.NotEmpty(t, buckets)

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, tr.Export(path, displayed))
}
