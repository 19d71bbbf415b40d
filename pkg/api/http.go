// Package api assembles the HTTP router: /v1 routes, middleware,
// probes, metrics and docs.
package api

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"timelined/pkg/api/handlers"
	"timelined/pkg/auth"
	"timelined/pkg/config"
	"timelined/pkg/httpx"
	"timelined/pkg/logger"
	"timelined/pkg/mediaindex"
	"timelined/pkg/store"
	"timelined/pkg/telemetry"
	"timelined/pkg/timeline"
)

//go:embed openapi.yaml
var openapiSpec []byte

// NewRouter wires every route and middleware.
func NewRouter(cfg *config.Config, reg *timeline.Registry, media *mediaindex.Index, clock timeline.Clock) http.Handler {
	h := handlers.New(reg, media, clock)
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !store.Ready() {
			httpx.WriteError(w, http.StatusServiceUnavailable, "store not ready")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/docs/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openapiSpec)
	}).Methods(http.MethodGet)
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/docs/openapi.yaml"),
	))

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(requestMiddleware)
	v1.Use(auth.CORSMiddleware(cfg.Auth.CORSOrigins))
	v1.Use(auth.KeyMiddleware(cfg.Auth.APIKeys))
	v1.Use(auth.NewRateLimiter(cfg.Auth.RatePerSec, cfg.Auth.RateBurst).Middleware)

	v1.HandleFunc("/conversations", h.UpsertConversation).Methods(http.MethodPost)
	v1.HandleFunc("/conversations", h.ListConversations).Methods(http.MethodGet)
	v1.HandleFunc("/conversations/{id}", h.GetConversation).Methods(http.MethodGet)
	v1.HandleFunc("/conversations/{id}", h.DeleteConversation).Methods(http.MethodDelete)
	v1.HandleFunc("/conversations/{id}/clear", h.ClearConversation).Methods(http.MethodPost)

	v1.HandleFunc("/conversations/{id}/messages", h.AddMessage).Methods(http.MethodPost)
	v1.HandleFunc("/conversations/{id}/messages", h.GetMessages).Methods(http.MethodGet)
	v1.HandleFunc("/conversations/{id}/messages/{msgId}", h.EditMessage).Methods(http.MethodPut)
	v1.HandleFunc("/conversations/{id}/messages/{msgId}", h.DeleteMessage).Methods(http.MethodDelete)
	v1.HandleFunc("/conversations/{id}/slices/older", h.AddOlderSlice).Methods(http.MethodPost)
	v1.HandleFunc("/conversations/{id}/slices/newer", h.AddNewerSlice).Methods(http.MethodPost)
	v1.HandleFunc("/conversations/{id}/range", h.GetRange).Methods(http.MethodGet)

	v1.HandleFunc("/conversations/{id}/dialog", h.ApplyDialog).Methods(http.MethodPost)
	v1.HandleFunc("/conversations/{id}/read/inbox", h.ReadInbox).Methods(http.MethodPost)
	v1.HandleFunc("/conversations/{id}/read/outbox", h.ReadOutbox).Methods(http.MethodPost)
	v1.HandleFunc("/conversations/{id}/unread", h.GetUnread).Methods(http.MethodGet)

	v1.HandleFunc("/conversations/{id}/drafts", h.GetDrafts).Methods(http.MethodGet)
	v1.HandleFunc("/conversations/{id}/drafts", h.PutDraft).Methods(http.MethodPut)
	v1.HandleFunc("/conversations/{id}/drafts", h.DeleteDraft).Methods(http.MethodDelete)
	v1.HandleFunc("/conversations/{id}/drafts/sent", h.SentDraft).Methods(http.MethodPost)

	v1.HandleFunc("/conversations/{id}/actions", h.RegisterAction).Methods(http.MethodPost)
	v1.HandleFunc("/conversations/{id}/actions", h.GetActions).Methods(http.MethodGet)

	v1.HandleFunc("/conversations/{id}/media", h.GetMedia).Methods(http.MethodGet)
	v1.HandleFunc("/conversations/{id}/media/counts", h.GetMediaCounts).Methods(http.MethodGet)

	v1.HandleFunc("/migrations", h.Migrate).Methods(http.MethodPost)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		telemetry.HTTPRequests.WithLabelValues(route, statusClass(rec.status)).Inc()
		logger.Debug("http_request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
