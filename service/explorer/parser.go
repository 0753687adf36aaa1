package explorer

import (
	"math"
	"time"
)

// satoshiPerBTC is the fixed scale factor between the explorer's integer
// unit and BTC.
const satoshiPerBTC = 1e8

// AmountMode selects how a record's amount is derived from the raw
// transaction. The explorer exposes two candidate fields and they are not
// equivalent for transactions with mixed inputs/outputs belonging to the
// queried address, so the choice is explicit rather than merged.
type AmountMode string

const (
	// AmountSumOutputs sums the values of all outputs. This is the
	// default.
	AmountSumOutputs AmountMode = "sum-outputs"

	// AmountNetResult takes the absolute value of the transaction's net
	// result for the queried address.
	AmountNetResult AmountMode = "net-result"
)

// ParseAmountMode maps a config/flag string to an AmountMode, defaulting to
// AmountSumOutputs for unknown values.
func ParseAmountMode(s string) AmountMode {
	if AmountMode(s) == AmountNetResult {
		return AmountNetResult
	}
	return AmountSumOutputs
}

// ParseTransactions converts raw explorer transactions into domain records.
// It is pure and total: every input element yields exactly one record, in
// input order. Missing fields default rather than fail: no hash yields an
// empty HashFull, no timestamp yields epoch zero, no outputs yield a zero
// amount. Amounts are converted from satoshi and rounded to 8 fractional
// digits; they are never negative.
func ParseTransactions(raw []RawTransaction, mode AmountMode) []Transaction {
	records := make([]Transaction, 0, len(raw))
	for _, tx := range raw {
		records = append(records, Transaction{
			HashFull: tx.Hash,
			Time:     time.Unix(tx.Time, 0),
			Amount:   parseAmount(tx, mode),
		})
	}
	return records
}

func parseAmount(tx RawTransaction, mode AmountMode) float64 {
	var sat int64
	switch mode {
	case AmountNetResult:
		sat = tx.Result
		if sat < 0 {
			sat = -sat
		}
	default:
		for _, out := range tx.Out {
			sat += out.Value
		}
	}
	return roundBTC(float64(sat) / satoshiPerBTC)
}

// roundBTC rounds to 8 fractional digits, the domain's full precision.
func roundBTC(v float64) float64 {
	return math.Round(v*satoshiPerBTC) / satoshiPerBTC
}
