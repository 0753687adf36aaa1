package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luokaci05/btctrack/service/explorer"
)

func TestWriteCSV(t *testing.T) {
	records := []explorer.Transaction{
		{
			HashFull: "abc123def456ghi789jkl",
			Time:     time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			Amount:   0.5,
		},
		{
			HashFull: "",
			Time:     time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
			Amount:   1.25,
		},
	}

	var buf bytes.Buffer
	err := WriteCSV(&buf, Rows(records))
	require.NoError(t, err)

	lines := []string{
		"Transaction Hash,Date/Time,Amount (BTC)",
		"abc123def456ghi...,2024-01-15 10:00,0.5",
		"(no hash),2024-06-01 09:30,1.25",
	}
	assert.Equal(t, lines[0]+"\n"+lines[1]+"\n"+lines[2]+"\n", buf.String())
}

func TestWriteCSV_EmptyRowsStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "Transaction Hash,Date/Time,Amount (BTC)\n", buf.String())
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	rows := []Row{{Hash: "abc...", Date: "2024-01-15 10:00", Amount: "0.5"}}

	err := ExportFile(path, rows)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Transaction Hash,Date/Time,Amount (BTC)")
	assert.Contains(t, string(content), "abc...,2024-01-15 10:00,0.5")
}

func TestExportFile_CreateError(t *testing.T) {
	err := ExportFile(filepath.Join(t.TempDir(), "missing-dir", "out.csv"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create export file")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.5", FormatAmount(0.5))
	assert.Equal(t, "1.25", FormatAmount(1.25))
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "0.00000001", FormatAmount(0.00000001))
}
