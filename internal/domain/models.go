package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Derived payment statuses. They are computed from the counters and never persisted.
const (
	StatusNone     = "none"
	StatusPending  = "pending"
	StatusApproved = "approved"

	// statusUsed only appears in legacy single-status records.
	statusUsed = "used"
)

// LedgerVersion is written into every saved ledger document.
const LedgerVersion = 2

// PaymentRecord tracks the submissions, credits and redemptions of one identifier.
// PendingCount, Credits and UsedCount are never negative.
type PaymentRecord struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	UTR             string     `json:"utr"`
	PendingCount    int        `json:"pending_count"`
	Credits         int        `json:"credits"`
	UsedCount       int        `json:"used_count"`
	LastSubmittedAt *time.Time `json:"lastSubmittedAt,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	LastUsedAt      *time.Time `json:"lastUsedAt,omitempty"`
}

// storedRecord is the loosest shape a persisted record may take, including
// the legacy single "status" field.
type storedRecord struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	UTR             string          `json:"utr"`
	PendingCount    json.RawMessage `json:"pending_count"`
	Credits         json.RawMessage `json:"credits"`
	UsedCount       json.RawMessage `json:"used_count"`
	Status          *string         `json:"status"`
	LastSubmittedAt json.RawMessage `json:"lastSubmittedAt"`
	ApprovedAt      json.RawMessage `json:"approvedAt"`
	LastUsedAt      json.RawMessage `json:"lastUsedAt"`
}

// UnmarshalJSON upgrades legacy records to counters. Running it on an
// already-upgraded record is a no-op.
func (r *PaymentRecord) UnmarshalJSON(data []byte) error {
	var s storedRecord
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	pending, hasPending := parseCounter(s.PendingCount)
	credits, hasCredits := parseCounter(s.Credits)
	used, hasUsed := parseCounter(s.UsedCount)

	if !hasPending && !hasCredits && !hasUsed && s.Status != nil {
		switch *s.Status {
		case StatusPending:
			pending, credits, used = 1, 0, 0
		case StatusApproved:
			pending, credits, used = 0, 1, 0
		case statusUsed:
			pending, credits, used = 0, 0, 1
		default:
			pending, credits, used = 0, 0, 0
		}
	}

	*r = PaymentRecord{
		ID:              s.ID,
		Name:            s.Name,
		UTR:             s.UTR,
		PendingCount:    pending,
		Credits:         credits,
		UsedCount:       used,
		LastSubmittedAt: parseTimestamp(s.LastSubmittedAt),
		ApprovedAt:      parseTimestamp(s.ApprovedAt),
		LastUsedAt:      parseTimestamp(s.LastUsedAt),
	}
	return nil
}

// parseCounter accepts a JSON number or a numeric string. The second result
// reports whether the field was present at all.
func parseCounter(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, true
	}
	f, err := n.Float64()
	if err != nil || f < 0 {
		return 0, true
	}
	return int(f), true
}

func parseTimestamp(raw json.RawMessage) *time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// Clone returns a deep copy of the record.
func (r *PaymentRecord) Clone() *PaymentRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.LastSubmittedAt = cloneTime(r.LastSubmittedAt)
	c.ApprovedAt = cloneTime(r.ApprovedAt)
	c.LastUsedAt = cloneTime(r.LastUsedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Ledger is the persisted container of every payment record, keyed by
// normalized identifier.
type Ledger struct {
	Version int                       `json:"version,omitempty"`
	Records map[string]*PaymentRecord `json:"records"`
}

// NewLedger returns an empty ledger.
func NewLedger() Ledger {
	return Ledger{Version: LedgerVersion, Records: make(map[string]*PaymentRecord)}
}

// Normalize fills in missing record ids from their keys and drops null records.
func (l *Ledger) Normalize() {
	if l.Records == nil {
		l.Records = make(map[string]*PaymentRecord)
	}
	for id, rec := range l.Records {
		if rec == nil {
			delete(l.Records, id)
			continue
		}
		if rec.ID == "" {
			rec.ID = id
		}
	}
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	c := Ledger{Version: l.Version, Records: make(map[string]*PaymentRecord, len(l.Records))}
	for id, rec := range l.Records {
		c.Records[id] = rec.Clone()
	}
	return c
}

// Entry is a catalog record. Its JSON form is the original object, untouched.
type Entry struct {
	ID      string
	Message string
	raw     json.RawMessage
}

// NewEntry wraps a raw catalog object.
func NewEntry(id string, raw json.RawMessage) Entry {
	e := Entry{ID: id, raw: raw}
	var fields struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &fields) == nil {
		e.Message = fields.Message
	}
	return e
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if len(e.raw) == 0 {
		return []byte("null"), nil
	}
	return e.raw, nil
}
