package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/signalengine/internal/api/handlers"
	"github.com/wonny/signalengine/pkg/logger"
	"github.com/wonny/signalengine/pkg/metrics"
)

// HealthCheck probes one dependency for /health
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// NewRouter creates and configures the HTTP router. A nil recorder leaves
// /metrics answering 404.
func NewRouter(signalHandler *handlers.SignalHandler, recorder *metrics.Recorder, log *logger.Logger, checks ...HealthCheck) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler(checks)).Methods(http.MethodGet)
	r.Handle("/metrics", recorder.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/signals", signalHandler.ListSignals).Methods(http.MethodGet)
	api.HandleFunc("/scan", signalHandler.RunScan).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondError(w, http.StatusNotFound, "Not found")
	})

	r.Use(loggingMiddleware(log, recorder))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler reports ok, or 503 with the failing dependencies
func healthCheckHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		body := map[string]interface{}{
			"status":  "ok",
			"service": "signalengine-api",
		}
		status := http.StatusOK

		failed := map[string]string{}
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				failed[c.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			body["status"] = "degraded"
			body["failed"] = failed
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

// loggingMiddleware logs HTTP requests and records their latency
func loggingMiddleware(log *logger.Logger, recorder *metrics.Recorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			duration := time.Since(start)
			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			recorder.RecordLatency("http "+r.Method+" "+route, duration)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": duration,
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					handlers.RespondError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
