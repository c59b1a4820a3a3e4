// Package persistence records prefetch activity into a SQLite database for
// later, offline analysis.
package persistence

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// PrefetchRecord is one row per predicted address a CalculatePrefetch
// invocation emitted: the source access's block address, the predicted
// address, the delta between them, and which pipeline stage produced it.
type PrefetchRecord struct {
	Seq           uint64
	AccessAddr    uint64
	PredictedAddr uint64
	Delta         int64
	Source        string
}

// RunSummary is a single-row snapshot of a dispatcher's lifetime counters,
// written once a trace finishes.
type RunSummary struct {
	AccessesSeen     uint64
	AddressesEmitted uint64
	PatternTableSize int
}

// Recorder is a backend that records the prefetch activity of a single
// replay run. It never fails at the call site: errors are treated as
// unrecoverable and panicked, matching the fire-and-forget instrumentation
// role this package plays.
type Recorder interface {
	// RecordPrefetch buffers one PrefetchRecord row.
	RecordPrefetch(rec PrefetchRecord)

	// RecordSummary buffers the single run_summary row and flushes
	// immediately, since a summary is written once at the end of a run.
	RecordSummary(summary RunSummary)

	// ListTables returns the names of the tables this recorder maintains.
	ListTables() []string

	// Flush writes every buffered row to the database.
	Flush()
}

const (
	prefetchTable = "prefetch_records"
	summaryTable  = "run_summary"
)

// New creates a Recorder backed by a fresh SQLite file named path plus a
// ".sqlite3" suffix (path defaults to an auto-generated xid-based name when
// empty), pre-creates the
// prefetch_records and run_summary tables, and registers a flush-on-exit
// handler.
func New(path string) Recorder {
	r := &sqliteRecorder{dbName: path, batchSize: 10000}
	r.init()
	r.createTables()

	atexit.Register(r.Flush)

	return r
}

// NewWithDB creates a Recorder against an already-open database connection
// and creates its tables on it.
func NewWithDB(db *sql.DB) Recorder {
	r := &sqliteRecorder{DB: db, batchSize: 10000}
	r.createTables()

	atexit.Register(r.Flush)

	return r
}

type sqliteRecorder struct {
	*sql.DB

	dbName    string
	batchSize int

	prefetchRows []PrefetchRecord
	summaryRows  []RunSummary
}

func (r *sqliteRecorder) init() {
	if r.dbName == "" {
		r.dbName = "ghbprefetch_recording_" + xid.New().String()
	}

	filename := r.dbName + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "recording prefetch trace to %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r.DB = db
}

func (r *sqliteRecorder) createTables() {
	r.mustExecute(`CREATE TABLE ` + prefetchTable + ` (
		seq INTEGER,
		access_addr INTEGER,
		predicted_addr INTEGER,
		delta INTEGER,
		source TEXT
	);`)

	r.mustExecute(`CREATE TABLE ` + summaryTable + ` (
		accesses_seen INTEGER,
		addresses_emitted INTEGER,
		pattern_table_size INTEGER
	);`)
}

// validSource reports whether source names one of the pipeline stages that
// can actually produce a prediction. An empty PrefetchRecord.Source is
// always a programmer error at the call site, not a legitimate "unknown".
func validSource(source string) bool {
	switch source {
	case "stride", "pattern", "fallback":
		return true
	default:
		return false
	}
}

func (r *sqliteRecorder) RecordPrefetch(rec PrefetchRecord) {
	if !validSource(rec.Source) {
		panic(fmt.Sprintf("persistence: invalid prefetch source %q", rec.Source))
	}

	r.prefetchRows = append(r.prefetchRows, rec)

	if len(r.prefetchRows) >= r.batchSize {
		r.Flush()
	}
}

func (r *sqliteRecorder) RecordSummary(summary RunSummary) {
	r.summaryRows = append(r.summaryRows, summary)
	r.Flush()
}

func (r *sqliteRecorder) ListTables() []string {
	return []string{prefetchTable, summaryTable}
}

func (r *sqliteRecorder) Flush() {
	if len(r.prefetchRows) == 0 && len(r.summaryRows) == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	if len(r.prefetchRows) > 0 {
		stmt := r.prepare(`INSERT INTO ` + prefetchTable + ` VALUES (?, ?, ?, ?, ?)`)

		for _, row := range r.prefetchRows {
			_, err := stmt.Exec(row.Seq, row.AccessAddr, row.PredictedAddr, row.Delta, row.Source)
			if err != nil {
				panic(err)
			}
		}

		stmt.Close()
		r.prefetchRows = nil
	}

	if len(r.summaryRows) > 0 {
		stmt := r.prepare(`INSERT INTO ` + summaryTable + ` VALUES (?, ?, ?)`)

		for _, row := range r.summaryRows {
			_, err := stmt.Exec(row.AccessesSeen, row.AddressesEmitted, row.PatternTableSize)
			if err != nil {
				panic(err)
			}
		}

		stmt.Close()
		r.summaryRows = nil
	}
}

func (r *sqliteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to execute: %s\n", query)
		panic(err)
	}
	return res
}

func (r *sqliteRecorder) prepare(query string) *sql.Stmt {
	stmt, err := r.Prepare(query)
	if err != nil {
		panic(err)
	}
	return stmt
}
