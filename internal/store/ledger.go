package store

import (
	"context"
	"errors"

	"github.com/punchamoorthee/paygate/internal/domain"
)

var ErrLedgerCorrupt = errors.New("ledger file is unreadable")

// MutateFunc receives the current record for an id (nil if none exists) and
// returns the record to persist. Returning an error aborts the mutation and
// nothing is written.
type MutateFunc func(rec *domain.PaymentRecord) (*domain.PaymentRecord, error)

// Ledger is the persistence boundary for payment records.
type Ledger interface {
	// Snapshot returns a consistent copy of every record.
	Snapshot(ctx context.Context) (domain.Ledger, error)
	// Mutate applies fn to one record as an atomic read-modify-write and
	// returns the persisted result.
	Mutate(ctx context.Context, id string, fn MutateFunc) (domain.PaymentRecord, error)
}
