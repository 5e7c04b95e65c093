package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"

	"listings-etl/models"
	"listings-etl/utils"
)

// PostgresWriter mirrors each run's cleaned listings and quality report into
// PostgreSQL, keyed by run id.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, waits for the server with retry, runs
// schema migrations and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}

	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "postgres: migrate")
	}

	return pw, nil
}

// postgresSchema creates the mirror tables. price_gbp is unconstrained so
// every finite positive price the validator accepts is stored as-is.
const postgresSchema = `
	CREATE TABLE IF NOT EXISTS quality_reports (
		run_id                     UUID        PRIMARY KEY,
		source_rows                INTEGER     NOT NULL,
		valid_rows_after_clean     INTEGER     NOT NULL,
		rows_after_dedup           INTEGER     NOT NULL,
		dropped_non_positive_price INTEGER     NOT NULL,
		dropped_missing_required   INTEGER     NOT NULL,
		created_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS clean_listings (
		run_id    UUID             NOT NULL REFERENCES quality_reports(run_id),
		date      DATE             NOT NULL,
		seller_id TEXT             NOT NULL,
		region    TEXT             NOT NULL,
		category  TEXT             NOT NULL,
		item_id   TEXT             NOT NULL,
		price_gbp DOUBLE PRECISION NOT NULL,
		segment   TEXT,
		PRIMARY KEY (run_id, date, item_id)
	);

	CREATE INDEX IF NOT EXISTS idx_clean_listings_category ON clean_listings(category);
	CREATE INDEX IF NOT EXISTS idx_clean_listings_segment  ON clean_listings(segment);
`

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(postgresSchema)
	return err
}

// Write inserts the report and all listings of one run in a single transaction.
func (pw *PostgresWriter) Write(out *models.Output) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO quality_reports (run_id, source_rows, valid_rows_after_clean, rows_after_dedup,
			dropped_non_positive_price, dropped_missing_required)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, reportArgs(out.RunID, out.Report)...); err != nil {
		return eris.Wrap(err, "postgres: insert report")
	}

	const batchSize = 500
	for i := 0; i < len(out.Rows); i += batchSize {
		end := i + batchSize
		if end > len(out.Rows) {
			end = len(out.Rows)
		}
		if err := insertBatch(tx, out.RunID, out.Rows[i:end]); err != nil {
			return eris.Wrap(err, "postgres: insert listings")
		}
	}

	return eris.Wrap(tx.Commit(), "postgres: commit")
}

func insertBatch(tx *sql.Tx, runID string, batch []*models.EnrichedListing) error {
	valueArgs := make([]any, 0, len(batch)*len(listingColumns))
	for _, l := range batch {
		valueArgs = append(valueArgs, listingArgs(runID, l)...)
	}

	query := fmt.Sprintf("INSERT INTO clean_listings (%s) VALUES %s",
		strings.Join(listingColumns, ", "),
		valuesClause(len(batch), len(listingColumns)))

	_, err := tx.Exec(query, valueArgs...)
	return err
}

// valuesClause builds "($1,$2),($3,$4)" style placeholders.
func valuesClause(rows, cols int) string {
	groups := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		ph := make([]string, cols)
		for c := 0; c < cols; c++ {
			ph[c] = fmt.Sprintf("$%d", r*cols+c+1)
		}
		groups = append(groups, "("+strings.Join(ph, ",")+")")
	}
	return strings.Join(groups, ",")
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
