// ABOUTME: SQLite-backed ledger of every external program invocation made by the engine.
// ABOUTME: Implements imagine.Recorder; entries are keyed by ULID and queryable for recent runs and totals.
package ledger

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/2389-research/imagine/imagine"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// Entry is one recorded invocation.
type Entry struct {
	ID        ulid.ULID
	Program   string
	Args      []string
	Output    string
	CacheHit  bool
	Succeeded bool
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
}

// ProgramStats aggregates the entries of one program.
type ProgramStats struct {
	Program   string
	Runs      int
	CacheHits int
	Failures  int
}

// Stats aggregates the whole ledger.
type Stats struct {
	Total     int
	CacheHits int
	Failures  int
	Programs  []ProgramStats
}

// Ledger stores invocations in SQLite. It is safe for concurrent use.
type Ledger struct {
	db *sql.DB
}

// NewULID generates a new ULID using crypto/rand entropy.
func NewULID() ulid.ULID {
	return ulid.MustNew(ulid.Now(), rand.Reader)
}

// Open opens or creates the ledger database at path, creating its directory
// when needed.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS invocations (
			id TEXT PRIMARY KEY,
			program TEXT NOT NULL,
			args TEXT NOT NULL,
			output TEXT NOT NULL,
			cache_hit INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			exit_code INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS invocations_started ON invocations(started_at);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record implements imagine.Recorder.
func (l *Ledger) Record(inv imagine.Invocation) error {
	args, err := json.Marshal(inv.Args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	if inv.Args == nil {
		args = []byte("[]")
	}

	_, err = l.db.Exec(
		`INSERT INTO invocations (id, program, args, output, cache_hit, succeeded, exit_code, started_at, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		NewULID().String(),
		inv.Program,
		string(args),
		inv.Output,
		inv.CacheHit,
		inv.Succeeded,
		inv.ExitCode,
		inv.StartedAt.UnixNano(),
		int64(inv.Duration),
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.Query(
		`SELECT id, program, args, output, cache_hit, succeeded, exit_code, started_at, duration_ns
		 FROM invocations ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e              Entry
			id, args       string
			started, nanos int64
		)
		if err := rows.Scan(&id, &e.Program, &args, &e.Output, &e.CacheHit, &e.Succeeded, &e.ExitCode, &started, &nanos); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if e.ID, err = ulid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(args), &e.Args); err != nil {
			return nil, fmt.Errorf("decode args of %s: %w", id, err)
		}
		e.StartedAt = time.Unix(0, started)
		e.Duration = time.Duration(nanos)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates every entry, with per-program totals sorted by run count.
func (l *Ledger) Stats() (Stats, error) {
	rows, err := l.db.Query(
		`SELECT program, COUNT(*), SUM(cache_hit), SUM(CASE WHEN succeeded = 0 THEN 1 ELSE 0 END)
		 FROM invocations GROUP BY program ORDER BY COUNT(*) DESC, program`)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var s Stats
	for rows.Next() {
		var p ProgramStats
		if err := rows.Scan(&p.Program, &p.Runs, &p.CacheHits, &p.Failures); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		s.Total += p.Runs
		s.CacheHits += p.CacheHits
		s.Failures += p.Failures
		s.Programs = append(s.Programs, p)
	}
	return s, rows.Err()
}
