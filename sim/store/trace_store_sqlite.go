// Package store exports event logs of finished runs to SQLite and reads them
// back for inspection.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dispatch-sim/dispatch-sim/sim/trace"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// RunMeta describes the configuration a log was produced with.
type RunMeta struct {
	Strategy     string
	Acceleration float64
	Seed         int64
}

// Run is one stored run.
type Run struct {
	ID uuid.UUID
	RunMeta
	Entries   int
	CreatedAt time.Time
}

// Open opens (or creates) a SQLite database file.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps one ":memory:" database per handle
	return db, nil
}

type SQLiteTraceStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteTraceStore(db *sql.DB) (*SQLiteTraceStore, error) {
	s := &SQLiteTraceStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteTraceStore) migrate() error {
	queries := []string{`
    CREATE TABLE IF NOT EXISTS runs (
        run_id TEXT PRIMARY KEY,
        strategy TEXT NOT NULL,
        acceleration REAL NOT NULL,
        seed INTEGER NOT NULL,
        entries INTEGER NOT NULL,
        created_ns INTEGER NOT NULL
    );`, `
    CREATE TABLE IF NOT EXISTS entries (
        run_id TEXT NOT NULL,
        seq INTEGER NOT NULL,
        code TEXT NOT NULL,
        time_ns INTEGER NOT NULL,
        PRIMARY KEY (run_id, seq)
    );`, `
    CREATE TABLE IF NOT EXISTS params (
        run_id TEXT NOT NULL,
        seq INTEGER NOT NULL,
        idx INTEGER NOT NULL,
        key TEXT NOT NULL,
        kind TEXT NOT NULL,
        value INTEGER NOT NULL,
        PRIMARY KEY (run_id, seq, idx)
    );`}
	for _, q := range queries {
		if _, err := s.db.ExecContext(context.Background(), q); err != nil {
			return fmt.Errorf("failed to migrate trace store: %w", err)
		}
	}
	return nil
}

const (
	kindBool     = "bool"
	kindInt      = "int"
	kindDuration = "duration"
)

// SaveRun stores l under a fresh run id and returns it.
func (s *SQLiteTraceStore) SaveRun(ctx context.Context, meta RunMeta, l *trace.EventLog) (uuid.UUID, error) {
	id := uuid.New()
	entries := l.Entries()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, strategy, acceleration, seed, entries, created_ns) VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), meta.Strategy, meta.Acceleration, meta.Seed, len(entries), s.now().UnixNano(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}

	for seq, e := range entries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entries (run_id, seq, code, time_ns) VALUES (?, ?, ?, ?)`,
			id.String(), seq, string(e.Code), int64(e.Time),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert entry %d: %w", seq, err)
		}
		for idx, p := range e.Params {
			kind, value, err := encodeParam(p)
			if err != nil {
				return uuid.Nil, fmt.Errorf("entry %d: %w", seq, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO params (run_id, seq, idx, key, kind, value) VALUES (?, ?, ?, ?, ?, ?)`,
				id.String(), seq, idx, p.Key, kind, value,
			)
			if err != nil {
				return uuid.Nil, fmt.Errorf("failed to insert param %s of entry %d: %w", p.Key, seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *SQLiteTraceStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT run_id, strategy, acceleration, seed, entries, created_ns
        FROM runs
        ORDER BY created_ns DESC, rowid DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			id        string
			createdNs int64
		)
		if err := rows.Scan(&id, &r.Strategy, &r.Acceleration, &r.Seed, &r.Entries, &createdNs); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad run id %q: %w", id, err)
		}
		r.CreatedAt = time.Unix(0, createdNs).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// LoadLog rebuilds the event log of run id.
func (s *SQLiteTraceStore) LoadLog(ctx context.Context, id uuid.UUID) (*trace.EventLog, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT entries FROM runs WHERE run_id = ?`, id.String()).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}

	entries, err := s.loadEntries(ctx, id, n)
	if err != nil {
		return nil, err
	}
	if err := s.loadParams(ctx, id, entries); err != nil {
		return nil, err
	}

	l := trace.NewEventLog()
	for _, e := range entries {
		l.Append(e)
	}
	return l, nil
}

func (s *SQLiteTraceStore) loadEntries(ctx context.Context, id uuid.UUID, n int) ([]trace.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, time_ns FROM entries WHERE run_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]trace.Entry, 0, n)
	for rows.Next() {
		var (
			code string
			ns   int64
		)
		if err := rows.Scan(&code, &ns); err != nil {
			return nil, err
		}
		entries = append(entries, trace.NewEntry(trace.Code(code), time.Duration(ns)))
	}
	return entries, rows.Err()
}

func (s *SQLiteTraceStore) loadParams(ctx context.Context, id uuid.UUID, entries []trace.Entry) error {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, key, kind, value FROM params WHERE run_id = ? ORDER BY seq, idx`, id.String())
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			seq   int
			key   string
			kind  string
			value int64
		)
		if err := rows.Scan(&seq, &key, &kind, &value); err != nil {
			return err
		}
		if seq < 0 || seq >= len(entries) {
			return fmt.Errorf("param %s refers to missing entry %d", key, seq)
		}
		p, err := decodeParam(key, kind, value)
		if err != nil {
			return err
		}
		entries[seq].Params = append(entries[seq].Params, p)
	}
	return rows.Err()
}

func encodeParam(p trace.Param) (string, int64, error) {
	switch v := p.Value.(type) {
	case bool:
		if v {
			return kindBool, 1, nil
		}
		return kindBool, 0, nil
	case int:
		return kindInt, int64(v), nil
	case time.Duration:
		return kindDuration, int64(v), nil
	default:
		return "", 0, fmt.Errorf("param %s has unsupported type %T", p.Key, p.Value)
	}
}

func decodeParam(key, kind string, value int64) (trace.Param, error) {
	switch kind {
	case kindBool:
		return trace.Bool(key, value != 0), nil
	case kindInt:
		return trace.Int(key, int(value)), nil
	case kindDuration:
		return trace.Dur(key, time.Duration(value)), nil
	default:
		return trace.Param{}, fmt.Errorf("param %s has unknown kind %q", key, kind)
	}
}
