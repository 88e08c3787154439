package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/sector-rotation/internal/api/handlers"
	"github.com/wonny/sector-rotation/internal/metrics"
	"github.com/wonny/sector-rotation/pkg/logger"
)

// RouterDeps are the handlers mounted by NewRouter. Nil members disable their routes.
type RouterDeps struct {
	Rotation  *handlers.RotationHandler
	Scheduler *handlers.SchedulerHandler
	Hub       *Hub
	Metrics   *metrics.Registry
	Logger    *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Rotation endpoints
	if deps.Rotation != nil {
		api.HandleFunc("/rotation/latest", deps.Rotation.GetLatest).Methods("GET")
		api.HandleFunc("/rotation/run", deps.Rotation.Run).Methods("POST")
	}
	if deps.Scheduler != nil {
		api.HandleFunc("/scheduler/jobs", deps.Scheduler.GetJobs).Methods("GET")
	}

	// Push
	if deps.Hub != nil {
		r.HandleFunc("/ws/rotation", deps.Hub.ServeWS).Methods("GET")
	}

	// Prometheus
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})).Methods("GET")
		r.Use(metrics.HTTPMiddleware(deps.Metrics))
	}

	r.Use(loggingMiddleware(deps.Logger))
	r.Use(recoveryMiddleware(deps.Logger))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "sector-rotation-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
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

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
