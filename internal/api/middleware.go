package api

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/justinas/alice"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Middleware is the chain every request passes through.
func Middleware(infoLog, errorLog *log.Logger) alice.Chain {
	return alice.New(recoverPanic(errorLog), logRequest(infoLog), secureHeaders)
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		next.ServeHTTP(w, r)
	})
}

func logRequest(infoLog *log.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			infoLog.Printf("%s - %s %s %s %d %s id=%s", r.RemoteAddr, r.Proto, r.Method,
				r.URL.RequestURI(), rec.status, time.Since(start).Round(time.Microsecond), requestID)
		})
	}
}

func recoverPanic(errorLog *log.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					w.Header().Set("Connection", "close")
					errorLog.Printf("panic serving %s: %v", r.URL.Path, err)
					respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
