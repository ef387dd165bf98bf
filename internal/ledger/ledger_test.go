package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbsjo/oc-harvester/internal/types"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func day(d int) time.Time { return time.Date(2025, time.December, d, 0, 0, 0, 0, time.Local) }

func TestRecordAndListDays(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	clock := time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	require.NoError(t, repo.RecordDay(ctx, "run-1", types.DayReport{
		Date: day(15), Listed: 5, Special: 1, Skipped: 1, Processed: 3, Rows: 9,
		Errors:     []types.ErrorRecord{{Code: "1057-9-SE25", Reason: "Error al obtener detalle"}},
		DetailFile: "/out/OC_HBSJO_20251215_detalle.csv",
		ErrorFile:  "/out/OC_HBSJO_20251215_errores.csv",
	}))
	require.NoError(t, repo.RecordDay(ctx, "run-1", types.DayReport{
		Date: day(16), ListingFailed: true,
		Errors:   []types.ErrorRecord{{Code: "LISTADO_20251216", Reason: "Error en listado diario"}},
		WriteErr: errors.New("disk full"),
	}))

	entries, err := repo.ListDays(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	latest := entries[0]
	assert.Equal(t, day(16).Format(dayLayout), latest.Day.Format(dayLayout))
	assert.True(t, latest.ListingFailed)
	assert.Equal(t, "disk full", latest.WriteError)
	assert.Empty(t, latest.DetailFile)
	assert.Equal(t, []types.ErrorRecord{{Code: "LISTADO_20251216", Reason: "Error en listado diario"}}, latest.Errors)

	first := entries[1]
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, 5, first.Listed)
	assert.Equal(t, 1, first.Special)
	assert.Equal(t, 1, first.Skipped)
	assert.Equal(t, 3, first.Processed)
	assert.Equal(t, 9, first.Rows)
	assert.Equal(t, 1, first.ErrorCount)
	assert.Equal(t, "/out/OC_HBSJO_20251215_detalle.csv", first.DetailFile)
	assert.Equal(t, time.Date(2025, 12, 20, 10, 1, 0, 0, time.UTC), first.RecordedAt)

	limited, err := repo.ListDays(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, latest.ID, limited[0].ID)
}

func TestRecordDay_ReplacesSameRunAndDay(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	report := types.DayReport{Date: day(15), Listed: 2,
		Errors: []types.ErrorRecord{{Code: "A", Reason: "x"}}}
	require.NoError(t, repo.RecordDay(ctx, "run-1", report))

	report.Listed = 3
	report.Errors = nil
	require.NoError(t, repo.RecordDay(ctx, "run-1", report))
	require.NoError(t, repo.RecordDay(ctx, "run-2", report))

	entries, err := repo.ListDays(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, 3, e.Listed)
		assert.Empty(t, e.Errors)
	}

	var orphans int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM harvest_errors`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestInitDB_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := InitDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDB(path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('harvest_days','harvest_errors')`).Scan(&n))
	assert.Equal(t, 2, n)
}
