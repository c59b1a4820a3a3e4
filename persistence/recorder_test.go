package persistence_test

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caesarchen000/ghbprefetch/persistence"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// A shared, single connection keeps every statement on the same
	// in-memory database; sqlite3 otherwise hands out a fresh one per
	// pooled connection.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestRecorderCreatesBothTables(t *testing.T) {
	db := openMemDB(t)
	rec := persistence.NewWithDB(db)

	assert.ElementsMatch(t, []string{"prefetch_records", "run_summary"}, rec.ListTables())
}

func TestRecorderFlushIsNoOpWithNothingBuffered(t *testing.T) {
	db := openMemDB(t)
	rec := persistence.NewWithDB(db)

	assert.NotPanics(t, rec.Flush)
}

func TestRecordPrefetchRejectsUnknownSource(t *testing.T) {
	db := openMemDB(t)
	rec := persistence.NewWithDB(db)

	assert.Panics(t, func() {
		rec.RecordPrefetch(persistence.PrefetchRecord{Seq: 1, Source: "guess"})
	})
}

func TestRecordPrefetchAndSummary(t *testing.T) {
	db := openMemDB(t)
	rec := persistence.NewWithDB(db)

	rec.RecordPrefetch(persistence.PrefetchRecord{
		Seq:           1,
		AccessAddr:    0x1000,
		PredictedAddr: 0x1040,
		Delta:         0x40,
		Source:        "stride",
	})
	rec.Flush()

	var predictedAddr uint64
	var delta int64
	var source string
	err := db.QueryRow(
		"SELECT predicted_addr, delta, source FROM prefetch_records WHERE seq=1;",
	).Scan(&predictedAddr, &delta, &source)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1040), predictedAddr)
	assert.Equal(t, int64(0x40), delta)
	assert.Equal(t, "stride", source)

	rec.RecordSummary(persistence.RunSummary{
		AccessesSeen: 10, AddressesEmitted: 30, PatternTableSize: 5,
	})

	var emitted uint64
	err = db.QueryRow("SELECT addresses_emitted FROM run_summary;").Scan(&emitted)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), emitted)
}

func TestRecordSummaryFlushesImmediately(t *testing.T) {
	db := openMemDB(t)
	rec := persistence.NewWithDB(db)

	rec.RecordSummary(persistence.RunSummary{AccessesSeen: 1})

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM run_summary;").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewCreatesFileBackedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace")
	rec := persistence.New(path)

	rec.RecordPrefetch(persistence.PrefetchRecord{Seq: 1, AccessAddr: 64, Source: "pattern"})
	rec.Flush()

	_, err := os.Stat(path + ".sqlite3")
	assert.NoError(t, err)
}
