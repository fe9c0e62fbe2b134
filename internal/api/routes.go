package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers the JSON API, metrics, the admin alias and the static
// fallback. Anything unmatched answers 404 with a JSON body.
func NewRouter(h *Handler, static *StaticHandler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.StatusHandler).Methods("GET")
	api.HandleFunc("/admin/pending", h.PendingHandler).Methods("GET")
	api.HandleFunc("/submit-payment", h.SubmitPaymentHandler).Methods("POST")
	api.HandleFunc("/lookup", h.LookupHandler).Methods("POST")
	api.HandleFunc("/admin/approve", h.ApproveHandler).Methods("POST")
	api.PathPrefix("/").HandlerFunc(h.NotFoundHandler)

	if static != nil {
		r.HandleFunc("/rose", static.ServeAdmin).Methods("GET", "HEAD")
		r.PathPrefix("/").Handler(static)
	}

	r.NotFoundHandler = http.HandlerFunc(h.NotFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.NotFoundHandler)
	return r
}
