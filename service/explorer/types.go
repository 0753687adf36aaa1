package explorer

import (
	"time"
)

// Transaction represents a parsed Bitcoin transaction for a tracked address.
// This is our domain model, independent of the explorer API response format.
// Records are immutable after parsing; filtering and aggregation only select
// and summarize, they never mutate.
type Transaction struct {
	HashFull string
	Time     time.Time
	Amount   float64 // BTC, always >= 0, rounded to 8 fractional digits
}

// hashDisplayLen is how many leading characters of the hash the table shows.
const hashDisplayLen = 15

// noHashPlaceholder is shown when the source record carried no hash.
const noHashPlaceholder = "(no hash)"

// displayTimeLayout is the table's date/time format.
const displayTimeLayout = "2006-01-02 15:04"

// HashDisplay returns the truncated hash form used in the table and CSV
// export, or a placeholder when the source record had no hash.
func (t Transaction) HashDisplay() string {
	if t.HashFull == "" {
		return noHashPlaceholder
	}
	if len(t.HashFull) <= hashDisplayLen {
		return t.HashFull + "..."
	}
	return t.HashFull[:hashDisplayLen] + "..."
}

// TimeDisplay returns the formatted date/time string used in the table and
// CSV export.
func (t Transaction) TimeDisplay() string {
	return t.Time.Format(displayTimeLayout)
}

// rawAddressResponse is the shape of the explorer's /rawaddr/{address}
// response. Only the fields we consume are declared.
type rawAddressResponse struct {
	Txs []RawTransaction `json:"txs"`
}

// RawTransaction is a single transaction object from the explorer API.
// Amounts are in satoshi. The "out" array and the "result" field offer two
// different amount semantics; see AmountMode.
type RawTransaction struct {
	Hash   string      `json:"hash"`
	Time   int64       `json:"time"`
	Out    []RawOutput `json:"out"`
	Result int64       `json:"result"`
}

// RawOutput is one output of a raw transaction.
type RawOutput struct {
	Value int64 `json:"value"`
}
