package domain

import (
	"errors"
	"time"
)

var (
	ErrNoPayment        = errors.New("no payment found")
	ErrNothingToApprove = errors.New("no pending payment to approve")
	ErrNotSubmitted     = errors.New("payment not submitted")
	ErrPendingApproval  = errors.New("payment pending approval")
	ErrNoCredit         = errors.New("no approved payment credit available")
)

// Status derives the externally visible status. Credits take priority over
// pending submissions.
func Status(rec *PaymentRecord) string {
	switch {
	case rec == nil:
		return StatusNone
	case rec.Credits > 0:
		return StatusApproved
	case rec.PendingCount > 0:
		return StatusPending
	default:
		return StatusNone
	}
}

// Submit records one more payment claim. A nil rec creates a new record; the
// UTR is only kept from the first submission while the name always follows
// the latest one.
func Submit(rec *PaymentRecord, id, name, utr string, now time.Time) *PaymentRecord {
	ts := now.UTC()
	if rec == nil {
		return &PaymentRecord{
			ID:              id,
			Name:            name,
			UTR:             utr,
			PendingCount:    1,
			LastSubmittedAt: &ts,
		}
	}
	rec.PendingCount++
	rec.Name = name
	rec.LastSubmittedAt = &ts
	return rec
}

// Approve turns one pending submission into one credit.
func Approve(rec *PaymentRecord, now time.Time) error {
	if rec == nil {
		return ErrNoPayment
	}
	if rec.PendingCount <= 0 {
		return ErrNothingToApprove
	}
	ts := now.UTC()
	rec.PendingCount--
	rec.Credits++
	rec.ApprovedAt = &ts
	return nil
}

// CheckRedeemable reports why rec cannot be redeemed, if it cannot. The order
// of the checks decides which error a caller sees.
func CheckRedeemable(rec *PaymentRecord) error {
	switch {
	case rec == nil:
		return ErrNotSubmitted
	case rec.PendingCount > 0 && rec.Credits <= 0:
		return ErrPendingApproval
	case rec.Credits <= 0:
		return ErrNoCredit
	}
	return nil
}

// ConsumeCredit spends one credit. Callers must have passed CheckRedeemable
// under the same lock.
func ConsumeCredit(rec *PaymentRecord, now time.Time) error {
	if err := CheckRedeemable(rec); err != nil {
		return err
	}
	ts := now.UTC()
	rec.Credits--
	rec.UsedCount++
	rec.LastUsedAt = &ts
	return nil
}
