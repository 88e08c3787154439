package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/wonny/sector-rotation/internal/contracts"
	"github.com/wonny/sector-rotation/internal/screener"
	"github.com/wonny/sector-rotation/internal/storage"
	"github.com/wonny/sector-rotation/pkg/logger"
)

// Screener is the part of screener.Screener the API needs
type Screener interface {
	Latest(ctx context.Context) (*contracts.ScreenRun, error)
	Run(ctx context.Context, asOf time.Time, opts screener.RunOptions) (*contracts.ScreenRun, error)
}

// RotationHandler handles sector rotation endpoints
// ⭐ SSOT: 순환매 API 핸들러는 이 구조체에서만
type RotationHandler struct {
	screener Screener
	logger   *logger.Logger

	// 백그라운드 실행은 요청이 아닌 서버 수명에 묶임
	baseCtx context.Context
	running atomic.Bool
}

// NewRotationHandler creates a new rotation handler.
// Background runs are cancelled with baseCtx.
func NewRotationHandler(baseCtx context.Context, s Screener, log *logger.Logger) *RotationHandler {
	return &RotationHandler{
		screener: s,
		logger:   log.WithComponent("api.rotation"),
		baseCtx:  baseCtx,
	}
}

// GetLatest returns the latest screening run
// GET /api/rotation/latest
func (h *RotationHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	run, err := h.screener.Latest(r.Context())
	if err != nil {
		if errors.Is(err, screener.ErrNoRun) || errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No screening run yet")
			return
		}
		h.logger.WithError(err).Error("Failed to get latest run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// RunRequest represents a screening request (all fields optional)
type RunRequest struct {
	Date  string `json:"date"`  // YYYY-MM-DD, 기본: 어제
	News  *bool  `json:"news"`  // 기본 true
	Alert *bool  `json:"alert"` // 기본 true
}

// RunResponse is returned when a run is started in the background
type RunResponse struct {
	Status string `json:"status"`
	AsOf   string `json:"as_of,omitempty"`
}

// Run triggers a screening run.
// POST /api/rotation/run           → 202, result pushed on /ws/rotation
// POST /api/rotation/run?wait=true → 200 with the run
func (h *RotationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var asOf time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
		asOf = d
	}

	opts := screener.DefaultRunOptions()
	if req.News != nil {
		opts.News = *req.News
	}
	if req.Alert != nil {
		opts.Alert = *req.Alert
	}

	if !h.running.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "A screening run is already in progress")
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		defer h.running.Store(false)

		run, err := h.screener.Run(r.Context(), asOf, opts)
		if err != nil {
			h.logger.WithError(err).Error("Screening run failed")
			respondError(w, http.StatusBadGateway, "Screening run failed: "+err.Error())
			return
		}
		respondJSON(w, http.StatusOK, run)
		return
	}

	go func() {
		defer h.running.Store(false)
		if _, err := h.screener.Run(h.baseCtx, asOf, opts); err != nil {
			h.logger.WithError(err).Error("Background screening run failed")
		}
	}()

	resp := RunResponse{Status: "started"}
	if !asOf.IsZero() {
		resp.AsOf = asOf.Format("2006-01-02")
	}
	respondJSON(w, http.StatusAccepted, resp)
}
