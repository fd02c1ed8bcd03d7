package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"growth-scraper/models"
)

// PostgresWriter mirrors the clean table into PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

// NewPostgresWriterFromDB wraps an already opened database handle.
func NewPostgresWriterFromDB(db *sql.DB) *PostgresWriter {
	return &PostgresWriter{db: db}
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id         SERIAL PRIMARY KEY,
			position   INTEGER       NOT NULL,
			produto    TEXT          NOT NULL,
			preco      NUMERIC(12,2) NOT NULL,
			desconto   INTEGER,
			created_at TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_products_preco ON products(preco);
	`)
	return err
}

// Write replaces the table contents with the clean records inside one
// transaction, so readers never see a half-written table.
func (pw *PostgresWriter) Write(ctx context.Context, table models.CleanTable) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	records := table.Records
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := insertBatch(ctx, tx, i, records[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, offset int, batch []models.CleanRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*4)

	for idx, r := range batch {
		base := idx * 4
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))

		var discount sql.NullInt64
		if r.HasDiscount {
			discount = sql.NullInt64{Int64: int64(r.Discount), Valid: true}
		}
		valueArgs = append(valueArgs, offset+idx, r.Product, r.Price, discount)
	}

	query := fmt.Sprintf(
		"INSERT INTO products (position, produto, preco, desconto) VALUES %s",
		strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// FetchAll retrieves the mirrored rows in table order.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]models.CleanRecord, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT produto, preco, desconto
		FROM products
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []models.CleanRecord
	for rows.Next() {
		var r models.CleanRecord
		var discount sql.NullInt64
		if err := rows.Scan(&r.Product, &r.Price, &discount); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if discount.Valid {
			r.Discount = int(discount.Int64)
			r.HasDiscount = true
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
