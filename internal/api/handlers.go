package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/paygate/internal/domain"
	"github.com/punchamoorthee/paygate/internal/models"
	"github.com/punchamoorthee/paygate/internal/service"
)

const maxBodyBytes = 1 << 20

var errInvalidJSON = errors.New("invalid json")

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paygate_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	service  *service.RedemptionService
	errorLog *log.Logger
}

func NewHandler(svc *service.RedemptionService, errorLog *log.Logger) *Handler {
	if errorLog == nil {
		errorLog = log.Default()
	}
	return &Handler{service: svc, errorLog: errorLog}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFoundHandler answers every unknown route and method.
func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusNotFound, "Not found.")
}

func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/status"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	status, rec, err := h.service.Status(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		h.respondServiceError(w, "GET", endpoint, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.StatusResponse{Status: status, Record: rec}, "GET", endpoint)
}

func (h *Handler) PendingHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/admin/pending"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	pending, err := h.service.ListPending(r.Context())
	if err != nil {
		h.respondServiceError(w, "GET", endpoint, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.PendingResponse{Pending: pending}, "GET", endpoint)
}

func (h *Handler) SubmitPaymentHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/submit-payment"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req models.SubmitPaymentRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON.", "POST", endpoint)
		return
	}

	rec, err := h.service.Submit(r.Context(), req.ID, req.Name, req.UTR)
	if err != nil {
		h.respondServiceError(w, "POST", endpoint, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.SubmitPaymentResponse{
		Status:       domain.Status(&rec),
		PendingCount: rec.PendingCount,
		Credits:      rec.Credits,
		UsedCount:    rec.UsedCount,
	}, "POST", endpoint)
}

func (h *Handler) LookupHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/lookup"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req models.IDRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON.", "POST", endpoint)
		return
	}

	entry, rec, err := h.service.Redeem(r.Context(), req.ID)
	if err != nil {
		h.respondServiceError(w, "POST", endpoint, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.LookupResponse{
		Entry:       entry,
		CreditsLeft: rec.Credits,
		UsedCount:   rec.UsedCount,
	}, "POST", endpoint)
}

func (h *Handler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/admin/approve"
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req models.IDRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON.", "POST", endpoint)
		return
	}

	rec, err := h.service.Approve(r.Context(), req.ID)
	if err != nil {
		h.respondServiceError(w, "POST", endpoint, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.ApproveResponse{
		Status:       domain.StatusApproved,
		PendingCount: rec.PendingCount,
		Credits:      rec.Credits,
	}, "POST", endpoint)
}

// decodeBody treats an empty body as an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errInvalidJSON
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

// errorStatus maps service and state machine failures to a status code and
// the message shown to clients.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrIDRequired):
		return http.StatusBadRequest, "ID is required."
	case errors.Is(err, service.ErrNameRequired):
		return http.StatusBadRequest, "Name is required."
	case errors.Is(err, service.ErrBlocked):
		return http.StatusForbidden, "This ID is not allowed to access the site."
	case errors.Is(err, service.ErrNotInCatalog):
		return http.StatusNotFound, "ID not found in matches."
	case errors.Is(err, domain.ErrNotSubmitted):
		return http.StatusForbidden, "Payment not submitted."
	case errors.Is(err, domain.ErrPendingApproval):
		return http.StatusForbidden, "Payment pending approval."
	case errors.Is(err, domain.ErrNoCredit):
		return http.StatusForbidden, "No approved payment credit available."
	case errors.Is(err, domain.ErrNoPayment):
		return http.StatusNotFound, "No payment found."
	case errors.Is(err, domain.ErrNothingToApprove):
		return http.StatusBadRequest, "No pending payment to approve."
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// Helpers
func (h *Handler) respondServiceError(w http.ResponseWriter, method, endpoint string, err error) {
	code, msg := errorStatus(err)
	if code == http.StatusInternalServerError {
		h.errorLog.Printf("%s %s: %v", method, endpoint, err)
	}
	h.respondError(w, code, msg, method, endpoint)
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	respondWithJSON(w, code, payload)
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, models.ErrorResponse{Error: msg}, method, endpoint)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, models.ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
