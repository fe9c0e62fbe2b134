package models

import "github.com/punchamoorthee/paygate/internal/domain"

// SubmitPaymentRequest is the payload of POST /api/submit-payment.
type SubmitPaymentRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	UTR  string `json:"utr"`
}

// IDRequest is the payload of POST /api/lookup and POST /api/admin/approve.
type IDRequest struct {
	ID string `json:"id"`
}

// StatusResponse omits the record when none exists.
type StatusResponse struct {
	Status string                `json:"status"`
	Record *domain.PaymentRecord `json:"record,omitempty"`
}

type SubmitPaymentResponse struct {
	Status       string `json:"status"`
	PendingCount int    `json:"pending_count"`
	Credits      int    `json:"credits"`
	UsedCount    int    `json:"used_count"`
}

type LookupResponse struct {
	Entry       domain.Entry `json:"entry"`
	CreditsLeft int          `json:"credits_left"`
	UsedCount   int          `json:"used_count"`
}

type PendingResponse struct {
	Pending []domain.PaymentRecord `json:"pending"`
}

type ApproveResponse struct {
	Status       string `json:"status"`
	PendingCount int    `json:"pending_count"`
	Credits      int    `json:"credits"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
