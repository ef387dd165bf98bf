package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbsjo/oc-harvester/internal/types"
)

func TestOutputManager_Paths(t *testing.T) {
	om := NewOutputManager("/data/DIARIO", "OC_HBSJO")
	day := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.Local)

	assert.Equal(t, filepath.Join("/data/DIARIO", "OC_HBSJO_20251205_detalle.csv"), om.DetailPath(day))
	assert.Equal(t, filepath.Join("/data/DIARIO", "OC_HBSJO_20251205_errores.csv"), om.ErrorPath(day))
	assert.Equal(t, filepath.Join("/data/DIARIO", "OC_HBSJO_20251205_detalle.xlsx"), om.XLSXPath(day))
}

func TestOutputManager_EnsureDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output", "DIARIO")
	om := NewOutputManager(dir, "OC_HBSJO")

	require.NoError(t, om.EnsureDirectories())
	assert.True(t, FileExists(dir))
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestWriteRunSummary(t *testing.T) {
	om := NewOutputManager(t.TempDir(), "OC_HBSJO")
	start := time.Date(2025, 12, 20, 8, 0, 0, 0, time.Local)

	summary := RunSummary{
		RunID:     "0b6c3a3e-1111-2222-3333-444455556666",
		StartTime: start,
		EndTime:   start.Add(90 * time.Second),
		Mode:      "range",
		Days: []types.DayReport{
			{Date: time.Date(2025, 12, 15, 0, 0, 0, 0, time.Local), Listed: 4, Processed: 3, Rows: 7,
				Errors:     []types.ErrorRecord{{Code: "X", Reason: "y"}},
				DetailFile: "/out/OC_HBSJO_20251215_detalle.csv"},
			{Date: time.Date(2025, 12, 16, 0, 0, 0, 0, time.Local), ListingFailed: true,
				Errors: []types.ErrorRecord{{Code: "LISTADO_20251216", Reason: "z"}}},
			{Date: time.Date(2025, 12, 17, 0, 0, 0, 0, time.Local), WriteErr: errors.New("disk full")},
		},
	}

	listed, processed, rows, errs, failed := summary.Totals()
	assert.Equal(t, []int{4, 3, 7, 2, 2}, []int{listed, processed, rows, errs, failed})

	path, err := om.WriteRunSummary(summary)
	require.NoError(t, err)
	assert.Equal(t, "run_summary_20251220_080000_0b6c3a3e.txt", filepath.Base(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "Run ID:         0b6c3a3e-1111-2222-3333-444455556666")
	assert.Contains(t, text, "Duration:       1m30s")
	assert.Contains(t, text, "Days With Failures: 2")
	assert.Contains(t, text, "Date:      16-12-2025\n")
	assert.Contains(t, text, "Listing:   FAILED")
	assert.Contains(t, text, "Write Err: disk full")
	assert.Contains(t, text, "End of Summary")
}
