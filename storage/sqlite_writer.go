package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"listings-etl/models"
)

// SQLiteWriter mirrors the latest run into a local SQLite file. The file is
// recreated on open.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter removes any existing database at path and creates the schema.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrapf(err, "sqlite: remove %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, eris.Wrap(err, "sqlite: create dir")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}

	for _, stmt := range []string{
		`CREATE TABLE quality_reports (
			run_id                     TEXT PRIMARY KEY,
			source_rows                INTEGER NOT NULL,
			valid_rows_after_clean     INTEGER NOT NULL,
			rows_after_dedup           INTEGER NOT NULL,
			dropped_non_positive_price INTEGER NOT NULL,
			dropped_missing_required   INTEGER NOT NULL
		)`,
		`CREATE TABLE clean_listings (
			run_id    TEXT NOT NULL,
			date      TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			region    TEXT NOT NULL,
			category  TEXT NOT NULL,
			item_id   TEXT NOT NULL,
			price_gbp REAL NOT NULL,
			segment   TEXT
		)`,
		`CREATE INDEX idx_clean_listings_key ON clean_listings(date, item_id)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, eris.Wrap(err, "sqlite: create schema")
		}
	}

	return &SQLiteWriter{db: db}, nil
}

// Write inserts the report and listings in one transaction.
func (sw *SQLiteWriter) Write(out *models.Output) error {
	tx, err := sw.db.Begin()
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO quality_reports VALUES (?,?,?,?,?,?)`,
		reportArgs(out.RunID, out.Report)...); err != nil {
		return eris.Wrap(err, "sqlite: insert report")
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(listingColumns)), ",")
	stmt, err := tx.Prepare(`INSERT INTO clean_listings (` + strings.Join(listingColumns, ",") + `) VALUES (` + ph + `)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare")
	}
	defer stmt.Close()

	for _, l := range out.Rows {
		if _, err := stmt.Exec(listingArgs(out.RunID, l)...); err != nil {
			return eris.Wrap(err, "sqlite: insert listing")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (sw *SQLiteWriter) Close() error {
	return sw.db.Close()
}
