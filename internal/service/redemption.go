package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/paygate/internal/domain"
	"github.com/punchamoorthee/paygate/internal/store"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNameRequired = errors.New("name is required")
	ErrBlocked      = errors.New("id is not allowed")
	ErrNotInCatalog = errors.New("id not found in catalog")
)

var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "paygate_transitions_total",
	Help: "Payment state transitions, labeled by transition and outcome",
}, []string{"transition", "outcome"})

// Catalog resolves normalized identifiers to entries.
type Catalog interface {
	Lookup(id string) (domain.Entry, bool)
}

type RedemptionService struct {
	ledger  store.Ledger
	catalog Catalog
	blocked map[string]struct{}
	now     func() time.Time
}

// NewRedemptionService wires the ledger and catalog. Blocked ids are
// normalized before use.
func NewRedemptionService(ledger store.Ledger, catalog Catalog, blocked []string) *RedemptionService {
	s := &RedemptionService{
		ledger:  ledger,
		catalog: catalog,
		blocked: make(map[string]struct{}, len(blocked)),
		now:     time.Now,
	}
	for _, id := range blocked {
		if id = domain.NormalizeID(id); id != "" {
			s.blocked[id] = struct{}{}
		}
	}
	return s
}

// SetClock replaces the time source used to stamp transitions.
func (s *RedemptionService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *RedemptionService) isBlocked(id string) bool {
	_, ok := s.blocked[id]
	return ok
}

// Submit registers one payment claim for rawID and returns the updated record.
func (s *RedemptionService) Submit(ctx context.Context, rawID, rawName, rawUTR string) (rec domain.PaymentRecord, err error) {
	defer func() { observe("submit", err) }()

	id := domain.NormalizeID(rawID)
	if id == "" {
		return rec, ErrIDRequired
	}
	if s.isBlocked(id) {
		return rec, ErrBlocked
	}
	name := strings.TrimSpace(rawName)
	if name == "" {
		return rec, ErrNameRequired
	}
	if _, ok := s.catalog.Lookup(id); !ok {
		return rec, ErrNotInCatalog
	}
	utr := strings.TrimSpace(rawUTR)

	return s.ledger.Mutate(ctx, id, func(cur *domain.PaymentRecord) (*domain.PaymentRecord, error) {
		return domain.Submit(cur, id, name, utr, s.now()), nil
	})
}

// Approve converts one pending submission for rawID into a credit.
func (s *RedemptionService) Approve(ctx context.Context, rawID string) (rec domain.PaymentRecord, err error) {
	defer func() { observe("approve", err) }()

	id := domain.NormalizeID(rawID)
	if id == "" {
		return rec, ErrIDRequired
	}
	return s.ledger.Mutate(ctx, id, func(cur *domain.PaymentRecord) (*domain.PaymentRecord, error) {
		if err := domain.Approve(cur, s.now()); err != nil {
			return nil, err
		}
		return cur, nil
	})
}

// Redeem spends one credit for rawID and returns the catalog entry it unlocks.
// The credit check and the spend happen under the same ledger lock.
func (s *RedemptionService) Redeem(ctx context.Context, rawID string) (entry domain.Entry, rec domain.PaymentRecord, err error) {
	defer func() { observe("redeem", err) }()

	id := domain.NormalizeID(rawID)
	if id == "" {
		return entry, rec, ErrIDRequired
	}
	if s.isBlocked(id) {
		return entry, rec, ErrBlocked
	}

	rec, err = s.ledger.Mutate(ctx, id, func(cur *domain.PaymentRecord) (*domain.PaymentRecord, error) {
		if err := domain.CheckRedeemable(cur); err != nil {
			return nil, err
		}
		e, ok := s.catalog.Lookup(id)
		if !ok {
			return nil, ErrNotInCatalog
		}
		if err := domain.ConsumeCredit(cur, s.now()); err != nil {
			return nil, err
		}
		entry = e
		return cur, nil
	})
	if err != nil {
		return domain.Entry{}, domain.PaymentRecord{}, err
	}
	return entry, rec, nil
}

// Status returns the derived status for rawID and its record, if any.
func (s *RedemptionService) Status(ctx context.Context, rawID string) (string, *domain.PaymentRecord, error) {
	id := domain.NormalizeID(rawID)
	if id == "" {
		return domain.StatusNone, nil, nil
	}
	ledger, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return "", nil, err
	}
	rec := ledger.Records[id]
	if rec == nil {
		return domain.StatusNone, nil, nil
	}
	return domain.Status(rec), rec, nil
}

// ListPending returns every record with at least one pending submission,
// ordered by id.
func (s *RedemptionService) ListPending(ctx context.Context) ([]domain.PaymentRecord, error) {
	ledger, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]domain.PaymentRecord, 0)
	for _, rec := range ledger.Records {
		if rec != nil && rec.PendingCount > 0 {
			pending = append(pending, *rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

func observe(transition string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrIDRequired), errors.Is(err, ErrNameRequired):
		outcome = "invalid"
	case errors.Is(err, ErrBlocked):
		outcome = "blocked"
	case errors.Is(err, ErrNotInCatalog):
		outcome = "not_found"
	case errors.Is(err, domain.ErrNoPayment), errors.Is(err, domain.ErrNotSubmitted):
		outcome = "no_record"
	case errors.Is(err, domain.ErrNothingToApprove):
		outcome = "nothing_pending"
	case errors.Is(err, domain.ErrPendingApproval):
		outcome = "pending_approval"
	case errors.Is(err, domain.ErrNoCredit):
		outcome = "no_credit"
	default:
		outcome = "error"
	}
	transitionsTotal.WithLabelValues(transition, outcome).Inc()
}
