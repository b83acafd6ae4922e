// Package httpapi serves a small read-only JSON API for operators:
// health, lots, pending scheduler jobs and marketplace statistics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/logging"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/scheduler"
	"github.com/dmitrijs2005/lotkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

type lotReader interface {
	GetLot(ctx context.Context, lotID string) (*models.Lot, error)
	ListLots(ctx context.Context, statuses ...models.LotStatus) ([]*models.Lot, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type jobLister interface {
	Jobs() []scheduler.Job
}

type Handler struct {
	lots      lotReader
	jobs      jobLister
	logger    logging.Logger
	increment int64
}

func NewHandler(lots lotReader, jobs jobLister, logger logging.Logger, increment int64) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{lots: lots, jobs: jobs, logger: logger, increment: increment}
}

// NewRouter wires the routes.
func (h *Handler) NewRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/lots", h.ListLots).Methods(http.MethodGet)
	router.HandleFunc("/lots/{id}", h.GetLot).Methods(http.MethodGet)
	router.HandleFunc("/jobs", h.Jobs).Methods(http.MethodGet)
	router.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)

	router.Use(h.loggingMiddleware)

	return router
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListLots takes an optional comma separated status filter.
func (h *Handler) ListLots(w http.ResponseWriter, r *http.Request) {
	var statuses []models.LotStatus
	if q := r.URL.Query().Get("status"); q != "" {
		for _, s := range strings.Split(q, ",") {
			st := models.LotStatus(strings.TrimSpace(s))
			if !st.Valid() {
				respondError(w, http.StatusBadRequest, "unknown status "+string(st))
				return
			}
			statuses = append(statuses, st)
		}
	}

	lots, err := h.lots.ListLots(r.Context(), statuses...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := api.LotsResponse{Lots: make([]api.Lot, 0, len(lots))}
	for _, l := range lots {
		out.Lots = append(out.Lots, *services.LotToAPI(l, h.increment))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetLot(w http.ResponseWriter, r *http.Request) {
	lot, err := h.lots.GetLot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, services.LotToAPI(lot, h.increment))
}

func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"jobs": h.jobs.Jobs()})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.lots.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, services.StatsToAPI(st))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	h.logger.Error(r.Context(), "ops request failed", "path", r.URL.Path, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug(r.Context(), "http", "method", r.Method, "uri", r.RequestURI, "duration", time.Since(start))
	})
}
