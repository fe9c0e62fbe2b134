package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/punchamoorthee/paygate/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS payment_records (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL DEFAULT '',
	utr               TEXT NOT NULL DEFAULT '',
	pending_count     INTEGER NOT NULL DEFAULT 0 CHECK (pending_count >= 0),
	credits           INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
	used_count        INTEGER NOT NULL DEFAULT 0 CHECK (used_count >= 0),
	last_submitted_at TIMESTAMPTZ,
	approved_at       TIMESTAMPTZ,
	last_used_at      TIMESTAMPTZ
)`

const selectRecordSQL = `SELECT id, name, utr, pending_count, credits, used_count,
	last_submitted_at, approved_at, last_used_at FROM payment_records`

var recordColumns = []string{
	"id", "name", "utr", "pending_count", "credits", "used_count",
	"last_submitted_at", "approved_at", "last_used_at",
}

// PostgresStore keeps one row per identifier. Mutations on the same id are
// serialized by a transaction-scoped advisory lock; different ids never wait
// on each other.
type PostgresStore struct {
	Db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresStore{Db: pool}, nil
}

func (s *PostgresStore) Close() {
	s.Db.Close()
}

// EnsureSchema creates the payment_records table if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.Db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*domain.PaymentRecord, error) {
	var r domain.PaymentRecord
	err := row.Scan(&r.ID, &r.Name, &r.UTR, &r.PendingCount, &r.Credits, &r.UsedCount,
		&r.LastSubmittedAt, &r.ApprovedAt, &r.LastUsedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Snapshot reads every record in a single statement.
func (s *PostgresStore) Snapshot(ctx context.Context) (domain.Ledger, error) {
	rows, err := s.Db.Query(ctx, selectRecordSQL+" ORDER BY id")
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("snapshot query failed: %w", err)
	}
	defer rows.Close()

	ledger := domain.NewLedger()
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			log.Printf("Error scanning payment record: %v", err)
			continue
		}
		ledger.Records[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return domain.Ledger{}, fmt.Errorf("snapshot read failed: %w", err)
	}
	return ledger, nil
}

// Mutate locks the id, reads its row, applies fn and upserts the result in
// one transaction.
func (s *PostgresStore) Mutate(ctx context.Context, id string, fn MutateFunc) (domain.PaymentRecord, error) {
	tx, err := s.Db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", id); err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("lock acquisition failed: %w", err)
	}

	current, err := scanRecord(tx.QueryRow(ctx, selectRecordSQL+" WHERE id = $1", id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.PaymentRecord{}, fmt.Errorf("record query failed: %w", err)
		}
		current = nil
	}

	updated, err := fn(current)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	if updated == nil {
		return domain.PaymentRecord{}, fmt.Errorf("mutation of %s returned no record", id)
	}
	updated.ID = id

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_records (id, name, utr, pending_count, credits, used_count,
			last_submitted_at, approved_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			utr = EXCLUDED.utr,
			pending_count = EXCLUDED.pending_count,
			credits = EXCLUDED.credits,
			used_count = EXCLUDED.used_count,
			last_submitted_at = EXCLUDED.last_submitted_at,
			approved_at = EXCLUDED.approved_at,
			last_used_at = EXCLUDED.last_used_at`,
		updated.ID, updated.Name, updated.UTR, updated.PendingCount, updated.Credits, updated.UsedCount,
		updated.LastSubmittedAt, updated.ApprovedAt, updated.LastUsedAt,
	)
	if err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("record upsert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("tx commit failed: %w", err)
	}
	return *updated, nil
}

// Count returns the number of stored records.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.Db.QueryRow(ctx, "SELECT COUNT(*) FROM payment_records").Scan(&n)
	return n, err
}

// ImportRecords bulk-loads records with COPY. The table must not already hold
// any of the ids.
func (s *PostgresStore) ImportRecords(ctx context.Context, ledger domain.Ledger) (int64, error) {
	rows := make([][]any, 0, len(ledger.Records))
	for id, r := range ledger.Records {
		rows = append(rows, []any{
			id, r.Name, r.UTR, int32(r.PendingCount), int32(r.Credits), int32(r.UsedCount),
			r.LastSubmittedAt, r.ApprovedAt, r.LastUsedAt,
		})
	}
	n, err := s.Db.CopyFrom(ctx, pgx.Identifier{"payment_records"}, recordColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("bulk insert failed: %w", err)
	}
	return n, nil
}
