package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/infrastructure/api"
	"NoticeBoard/internal/ports"
)

// RouterDeps wires the handlers to the board.
type RouterDeps struct {
	Source ports.NotificationSource
	// Page renders the board for a selection, served on /.
	Page    func(ctx context.Context, sel domain.Selection) (string, error)
	Metrics *Metrics
	Logger  *slog.Logger
}

type handler struct {
	source  ports.NotificationSource
	page    func(ctx context.Context, sel domain.Selection) (string, error)
	metrics *Metrics
	logger  *slog.Logger
}

// NewRouter builds the HTTP surface of the board.
func NewRouter(deps RouterDeps) http.Handler {
	h := &handler{
		source:  deps.Source,
		page:    deps.Page,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.HandleFunc(api.NotificationsPath, h.notifications).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(h.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	return r
}

func selectionOf(r *http.Request) domain.Selection {
	q := r.URL.Query()
	return domain.Selection{Department: q.Get("department"), Year: q.Get("year")}
}

func (h *handler) notifications(w http.ResponseWriter, r *http.Request) {
	sel := selectionOf(r)
	scope := "unscoped"
	if sel.Scoped() {
		scope = "scoped"
	}

	started := time.Now()
	payload, err := h.source.Fetch(r.Context(), sel)
	if err != nil {
		h.metrics.observe(scope, "error", time.Since(started).Seconds())
		h.logger.Error("build notifications payload", "error", err, "department", sel.Department, "year", sel.Year)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load notifications"})
		return
	}
	h.metrics.observe(scope, "ok", time.Since(started).Seconds())
	writeJSON(w, http.StatusOK, payload)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	if h.page == nil {
		http.NotFound(w, r)
		return
	}
	body, err := h.page(r.Context(), selectionOf(r))
	if err != nil {
		h.logger.Error("render page", "error", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(started))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
