// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state tracks conversion outcomes in a SQLite ledger so batch
// runs can skip sources unchanged since their last successful conversion.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docx2md/pkg/types"
)

// Entry is one row of the conversion ledger.
type Entry struct {
	SourcePath    string
	OutputPath    string
	SourceModTime time.Time
	ConvertedAt   time.Time
	Equations     int
	Images        int
	Tables        int
	Status        types.ConversionStatus
}

// Store manages the conversion ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path. Parent directories
// and the schema are created as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS conversions (
		source_path TEXT PRIMARY KEY,
		output_path TEXT,
		source_mod_time TEXT,
		converted_at TEXT,
		equations INTEGER,
		images INTEGER,
		tables_count INTEGER,
		status TEXT
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// NeedsConversion reports whether sourcePath must be converted again.
// A source is current when its last conversion succeeded and the
// recorded mod time matches modTime; anything else, including a missing
// record, means it needs conversion.
func (s *Store) NeedsConversion(ctx context.Context, sourcePath string, modTime time.Time) bool {
	var storedModTime, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT source_mod_time, status FROM conversions WHERE source_path = ?`,
		sourcePath,
	).Scan(&storedModTime, &status)
	if err != nil {
		return true
	}
	return status != string(types.StatusConverted) ||
		storedModTime != modTime.UTC().Format(time.RFC3339Nano)
}

// Record upserts the ledger row for e.SourcePath.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (source_path, output_path, source_mod_time, converted_at, equations, images, tables_count, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
			output_path=excluded.output_path, source_mod_time=excluded.source_mod_time,
			converted_at=excluded.converted_at, equations=excluded.equations,
			images=excluded.images, tables_count=excluded.tables_count,
			status=excluded.status`,
		e.SourcePath, e.OutputPath,
		e.SourceModTime.UTC().Format(time.RFC3339Nano),
		e.ConvertedAt.UTC().Format(time.RFC3339),
		e.Equations, e.Images, e.Tables, string(e.Status),
	)
	if err != nil {
		return fmt.Errorf("recording conversion: %w", err)
	}
	return nil
}

// Lookup returns the ledger entry for sourcePath. The second return is
// false when no record exists.
func (s *Store) Lookup(ctx context.Context, sourcePath string) (Entry, bool, error) {
	var e Entry
	var modTime, convertedAt, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT source_path, output_path, source_mod_time, converted_at, equations, images, tables_count, status
		 FROM conversions WHERE source_path = ?`, sourcePath,
	).Scan(&e.SourcePath, &e.OutputPath, &modTime, &convertedAt,
		&e.Equations, &e.Images, &e.Tables, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("querying ledger: %w", err)
	}
	e.SourceModTime, _ = time.Parse(time.RFC3339Nano, modTime)
	e.ConvertedAt, _ = time.Parse(time.RFC3339, convertedAt)
	e.Status = types.ConversionStatus(status)
	return e, true, nil
}

// Summary holds aggregate counts over the whole ledger. Equations,
// Images, and Tables sum over successful conversions only.
type Summary struct {
	Tracked   int
	Converted int
	Failed    int
	Equations int
	Images    int
	Tables    int
}

// Summarize aggregates the ledger by conversion status.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, count(*), sum(equations), sum(images), sum(tables_count)
		 FROM conversions GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var sum Summary
	for rows.Next() {
		var status string
		var count, equations, images, tables int
		if err := rows.Scan(&status, &count, &equations, &images, &tables); err != nil {
			return Summary{}, fmt.Errorf("scanning ledger row: %w", err)
		}
		sum.Tracked += count
		switch types.ConversionStatus(status) {
		case types.StatusConverted:
			sum.Converted += count
			sum.Equations += equations
			sum.Images += images
			sum.Tables += tables
		case types.StatusFailed:
			sum.Failed += count
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("reading ledger rows: %w", err)
	}
	return sum, nil
}
