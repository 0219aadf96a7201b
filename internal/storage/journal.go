/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	applog "github.com/syedzohaibshah/urdu-card-generator/internal/log"
	"github.com/syedzohaibshah/urdu-card-generator/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	JournalFileName = "journal.sqlite"

	// schemaVersion tracks the journal schema. Bump it together with a
	// migration step in runMigrations.
	schemaVersion = 2
)

// timeLayout has fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Export outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var ErrNotFound = errors.New("storage: journal entry not found")

// Entry is one generated (or failed) document.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Kind      string // "pdf"
	WidthMM   float64
	HeightMM  float64
	DPI       int
	ImageW    int
	ImageH    int
	Bytes     int64
	Status    string
	Error     string
	// Client is the remote address of the requester.
	Client string
}

// Journal is the export journal. It is safe for concurrent use; SQLite
// serializes writers through the single pooled connection.
type Journal struct {
	db   *sql.DB
	d    dialect
	path string
	now  func() time.Time
}

// dialect covers the differences between the SQLite and Postgres backends.
type dialect struct {
	driver string
	// newest orders entries newest first with a stable tiebreak.
	newest string
}

var (
	sqliteDialect   = dialect{driver: "sqlite", newest: "created_at DESC, rowid DESC"}
	postgresDialect = dialect{driver: "pgx", newest: "created_at DESC, id DESC"}
)

// q rewrites ? placeholders to $n for Postgres.
func (d dialect) q(query string) string {
	if d.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsPostgresURL reports whether a journal location names a Postgres database
// rather than a SQLite file.
func IsPostgresURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// DefaultJournalPath places the journal in the per-user cache directory.
func DefaultJournalPath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "urducard", JournalFileName)
}

// OpenJournal creates or opens the journal at path, enables WAL and brings
// the schema up to date. A postgres:// URL opens a shared Postgres journal
// instead, so several render services can report into one place.
func OpenJournal(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	if IsPostgresURL(path) {
		return openPostgres(path)
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(slog.String("path", path))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create journal dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := prepare(ctx, db, sqliteDialect, l); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Info("journal ready")
	return &Journal{db: db, d: sqliteDialect, path: path, now: time.Now}, nil
}

func openPostgres(dsn string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(slog.String("backend", "postgres"))
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		l.Error("postgres open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		l.Error("postgres ping failed", slog.Any("err", err))
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := prepare(ctx, db, postgresDialect, l); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Info("journal ready")
	return &Journal{db: db, d: postgresDialect, path: dsn, now: time.Now}, nil
}

func prepare(ctx context.Context, db *sql.DB, d dialect, l *slog.Logger) error {
	if err := ensureMetaAndVersion(ctx, db, d); err != nil {
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return err
	}
	if err := ensureSchema(ctx, db); err != nil {
		l.Error("ensure journal schema failed", slog.Any("err", err))
		return err
	}
	if err := runMigrations(ctx, db, d); err != nil {
		l.Error("run migrations failed", slog.Any("err", err))
		return err
	}
	return nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB, d dialect) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, d.q(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`), schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the stored schema so migrations can run
		if _, err := db.ExecContext(ctx, d.q(`UPDATE version SET app=?, updated_at=? WHERE id=1`), appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the v1 tables; later columns come from migrations.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS exports (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		kind       TEXT NOT NULL,
		width_mm   DOUBLE PRECISION NOT NULL,
		height_mm  DOUBLE PRECISION NOT NULL,
		dpi        INTEGER NOT NULL,
		image_w    INTEGER NOT NULL DEFAULT 0,
		image_h    INTEGER NOT NULL DEFAULT 0,
		bytes      BIGINT NOT NULL DEFAULT 0,
		status     TEXT NOT NULL,
		error      TEXT NOT NULL DEFAULT ''
	);`)
	if err != nil {
		return fmt.Errorf("create exports table: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema steps up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if !hasColumn(ctx, db, d, "exports", "client") {
		// fresh databases are stamped with schemaVersion before the v2 columns exist
		cur = min(cur, 1)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`ALTER TABLE exports ADD COLUMN client TEXT NOT NULL DEFAULT '';`,
				`CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, d.q(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

func hasColumn(ctx context.Context, db *sql.DB, d dialect, table, column string) bool {
	q := `SELECT name FROM pragma_table_info(?)`
	if d.driver == "pgx" {
		q = `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`
	}
	rows, err := db.QueryContext(ctx, q, table)
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if rows.Scan(&name) == nil && name == column {
			return true
		}
	}
	return false
}

// Path returns the database file path, or the URL for Postgres journals.
func (j *Journal) Path() string { return j.path }

func (j *Journal) Close() error { return j.db.Close() }

// Record stores e, filling in the id and timestamp when they are empty.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	if e.Kind == "" {
		e.Kind = "pdf"
	}
	if e.Status == "" {
		e.Status = StatusOK
	}
	_, err := j.db.ExecContext(ctx, j.d.q(`INSERT INTO exports
		(id, created_at, kind, width_mm, height_mm, dpi, image_w, image_h, bytes, status, error, client)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.CreatedAt.UTC().Format(timeLayout), e.Kind, e.WidthMM, e.HeightMM, e.DPI,
		e.ImageW, e.ImageH, e.Bytes, e.Status, e.Error, e.Client)
	if err != nil {
		return Entry{}, fmt.Errorf("record export: %w", err)
	}
	return e, nil
}

const entryColumns = `id, created_at, kind, width_mm, height_mm, dpi, image_w, image_h, bytes, status, error, client`

type scanner interface{ Scan(dest ...any) error }

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var ts string
	if err := s.Scan(&e.ID, &ts, &e.Kind, &e.WidthMM, &e.HeightMM, &e.DPI, &e.ImageW, &e.ImageH, &e.Bytes, &e.Status, &e.Error, &e.Client); err != nil {
		return Entry{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at %q: %w", ts, err)
	}
	e.CreatedAt = t
	return e, nil
}

// Get returns the entry with id.
func (j *Journal) Get(ctx context.Context, id string) (Entry, error) {
	e, err := scanEntry(j.db.QueryRowContext(ctx, j.d.q(`SELECT `+entryColumns+` FROM exports WHERE id=?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get export: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, j.d.q(`SELECT `+entryColumns+` FROM exports ORDER BY `+j.d.newest+` LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarizes the journal.
type Stats struct {
	Total  int
	Failed int
	Bytes  int64
}

func (j *Journal) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := j.db.QueryRowContext(ctx, j.d.q(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN status != ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(bytes), 0) FROM exports`), StatusOK).Scan(&s.Total, &s.Failed, &s.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("journal stats: %w", err)
	}
	return s, nil
}

// Prune keeps the newest keep entries and deletes the rest.
func (j *Journal) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := j.db.ExecContext(ctx, j.d.q(`DELETE FROM exports WHERE id NOT IN (
		SELECT id FROM exports ORDER BY `+j.d.newest+` LIMIT ?)`), keep)
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}
