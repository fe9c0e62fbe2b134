package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/punchamoorthee/paygate/internal/catalog"
	"github.com/punchamoorthee/paygate/internal/domain"
	"github.com/punchamoorthee/paygate/internal/store"
)

const (
	aliceID   = "2025A1PS0001P"
	blockedID = "2025A5PS1503P"
)

func newTestService(t *testing.T) (*RedemptionService, *store.FileStore) {
	t.Helper()
	ledger := store.NewFileStore(filepath.Join(t.TempDir(), "payments.json"))
	cat := catalog.New(map[string]json.RawMessage{
		aliceID:   json.RawMessage(`{"name":"Alice","match":"Bob","message":"hi"}`),
		blockedID: json.RawMessage(`{"name":"Mallory"}`),
	})
	svc := NewRedemptionService(ledger, cat, []string{blockedID})
	fixed := time.Date(2025, 2, 14, 8, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return fixed })
	return svc, ledger
}

func TestFullRedemptionScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Submit(ctx, "2025a1ps0001p", "Alice", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.PendingCount != 1 || rec.Credits != 0 || rec.UsedCount != 0 || domain.Status(&rec) != domain.StatusPending {
		t.Fatalf("unexpected record after submit: %+v", rec)
	}

	rec, err = svc.Approve(ctx, aliceID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if rec.PendingCount != 0 || rec.Credits != 1 {
		t.Fatalf("unexpected record after approve: %+v", rec)
	}

	entry, rec, err := svc.Redeem(ctx, " 2025a1ps 0001p ")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if entry.ID != aliceID || entry.Message != "hi" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if rec.Credits != 0 || rec.UsedCount != 1 {
		t.Fatalf("credits_left=%d used_count=%d", rec.Credits, rec.UsedCount)
	}

	if _, _, err := svc.Redeem(ctx, aliceID); !errors.Is(err, domain.ErrNoCredit) {
		t.Fatalf("second redeem: expected ErrNoCredit, got %v", err)
	}
}

func TestSubmitValidationOrder(t *testing.T) {
	svc, ledger := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		id, name string
		want     error
	}{
		{"   ", "Alice", ErrIDRequired},
		{blockedID, "", ErrBlocked},
		{aliceID, "  ", ErrNameRequired},
		{"UNKNOWN1", "Alice", ErrNotInCatalog},
	}
	for _, tc := range cases {
		if _, err := svc.Submit(ctx, tc.id, tc.name, ""); !errors.Is(err, tc.want) {
			t.Fatalf("Submit(%q,%q): expected %v, got %v", tc.id, tc.name, tc.want, err)
		}
	}

	if _, err := os.Stat(ledger.Path()); !os.IsNotExist(err) {
		t.Fatalf("rejected submits must not create a ledger")
	}
}

func TestResubmitKeepsFirstUTR(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, aliceID, "Alice", " UTR-1 "); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	rec, err := svc.Submit(ctx, aliceID, "Alicia", "UTR-2")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.PendingCount != 2 || rec.Name != "Alicia" || rec.UTR != "UTR-1" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestApproveFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, ""); !errors.Is(err, ErrIDRequired) {
		t.Fatalf("expected ErrIDRequired, got %v", err)
	}
	if _, err := svc.Approve(ctx, aliceID); !errors.Is(err, domain.ErrNoPayment) {
		t.Fatalf("expected ErrNoPayment, got %v", err)
	}

	if _, err := svc.Submit(ctx, aliceID, "Alice", ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Approve(ctx, aliceID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.Approve(ctx, aliceID); !errors.Is(err, domain.ErrNothingToApprove) {
		t.Fatalf("approve with credits but nothing pending: got %v", err)
	}
}

func TestRedeemErrorOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Redeem(ctx, ""); !errors.Is(err, ErrIDRequired) {
		t.Fatalf("expected ErrIDRequired, got %v", err)
	}
	if _, _, err := svc.Redeem(ctx, blockedID); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if _, _, err := svc.Redeem(ctx, aliceID); !errors.Is(err, domain.ErrNotSubmitted) {
		t.Fatalf("expected ErrNotSubmitted, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(ctx, aliceID, "Alice", ""); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if _, _, err := svc.Redeem(ctx, aliceID); !errors.Is(err, domain.ErrPendingApproval) {
		t.Fatalf("expected ErrPendingApproval, got %v", err)
	}
}

func TestRedeemMissingCatalogEntryKeepsCredit(t *testing.T) {
	ledger := store.NewFileStore(filepath.Join(t.TempDir(), "payments.json"))
	ctx := context.Background()
	if _, err := ledger.Mutate(ctx, "GHOST", func(*domain.PaymentRecord) (*domain.PaymentRecord, error) {
		return &domain.PaymentRecord{Credits: 1}, nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewRedemptionService(ledger, catalog.Empty(), nil)

	if _, _, err := svc.Redeem(ctx, "ghost"); !errors.Is(err, ErrNotInCatalog) {
		t.Fatalf("expected ErrNotInCatalog, got %v", err)
	}
	_, rec, err := svc.Status(ctx, "GHOST")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec.Credits != 1 || rec.UsedCount != 0 {
		t.Fatalf("credit must survive a catalog miss: %+v", rec)
	}
}

func TestStatusAndListPending(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	status, rec, err := svc.Status(ctx, aliceID)
	if err != nil || status != domain.StatusNone || rec != nil {
		t.Fatalf("Status on empty ledger = %q %+v %v", status, rec, err)
	}

	if _, err := svc.Submit(ctx, aliceID, "Alice", ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pending, err := svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != aliceID {
		t.Fatalf("unexpected pending list %+v", pending)
	}

	if _, err := svc.Approve(ctx, aliceID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	pending, err = svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("approved record must leave the pending list: %+v", pending)
	}

	status, rec, err = svc.Status(ctx, "2025a1ps0001p")
	if err != nil || status != domain.StatusApproved || rec == nil || rec.Credits != 1 {
		t.Fatalf("Status after approve = %q %+v %v", status, rec, err)
	}
}

func TestConcurrentSubmitsAreAllCounted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	const n = 30

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Submit(ctx, aliceID, "Alice", ""); err != nil {
				t.Errorf("Submit: %v", err)
			}
		}()
	}
	wg.Wait()

	_, rec, err := svc.Status(ctx, aliceID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec.PendingCount != n {
		t.Fatalf("pending_count = %d, want %d", rec.PendingCount, n)
	}
}

func TestConcurrentRedeemsNeverOverspend(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(ctx, aliceID, "Alice", ""); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if _, err := svc.Approve(ctx, aliceID); err != nil {
			t.Fatalf("Approve: %v", err)
		}
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Redeem(ctx, aliceID); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 3 {
		t.Fatalf("%d redemptions succeeded with 3 credits", ok)
	}
	_, rec, _ := svc.Status(ctx, aliceID)
	if rec.Credits != 0 || rec.UsedCount != 3 {
		t.Fatalf("unexpected final record %+v", rec)
	}
}
