package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/internal/scanner"
	"github.com/wonny/signalengine/pkg/logger"
)

const (
	// DefaultLimit is the page size when ?limit is absent
	DefaultLimit = 20
	// MaxLimit caps ?limit
	MaxLimit = 200
)

// SignalReader lists stored signals
type SignalReader interface {
	Recent(ctx context.Context, limit int) ([]contracts.Signal, error)
}

// ScanRunner runs a live scan
type ScanRunner interface {
	Run(ctx context.Context) (*scanner.Report, error)
}

// SignalHandler handles signal endpoints
type SignalHandler struct {
	store   SignalReader
	scanner ScanRunner
	logger  *logger.Logger
}

// NewSignalHandler creates a new signal handler. scan may be nil, in which
// case POST /api/scan answers 503.
func NewSignalHandler(store SignalReader, scan ScanRunner, log *logger.Logger) *SignalHandler {
	return &SignalHandler{
		store:   store,
		scanner: scan,
		logger:  log,
	}
}

// ListSignals returns the most recent unexpired signals
// GET /api/signals?limit=N
func (h *SignalHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	signals, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list signals")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signals")
		return
	}
	if signals == nil {
		signals = []contracts.Signal{}
	}

	respondSuccess(w, http.StatusOK, signals)
}

// RunScan runs a scan and returns its report
// POST /api/scan
func (h *SignalHandler) RunScan(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		respondError(w, http.StatusServiceUnavailable, "Scanner not configured")
		return
	}

	report, err := h.scanner.Run(r.Context())
	if errors.Is(err, scanner.ErrScanInProgress) {
		respondError(w, http.StatusConflict, "A scan is already running")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Manual scan failed")
		respondError(w, http.StatusInternalServerError, "Scan failed")
		return
	}

	respondSuccess(w, http.StatusOK, report)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit, nil
}
