package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/internal/scanner"
	"github.com/wonny/signalengine/pkg/logger"
)

type stubReader struct {
	signals   []contracts.Signal
	err       error
	lastLimit int
}

func (s *stubReader) Recent(_ context.Context, limit int) ([]contracts.Signal, error) {
	s.lastLimit = limit
	return s.signals, s.err
}

type stubScanner struct {
	report *scanner.Report
	err    error
}

func (s stubScanner) Run(context.Context) (*scanner.Report, error) {
	return s.report, s.err
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListSignals(t *testing.T) {
	reader := &stubReader{signals: []contracts.Signal{
		{Symbol: "AAPL", Type: contracts.SignalBuy, Confidence: 85, GeneratedAt: time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)},
	}}
	h := NewSignalHandler(reader, nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.ListSignals(rec, httptest.NewRequest(http.MethodGet, "/api/signals", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, DefaultLimit, reader.lastLimit)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
}

func TestListSignals_Limit(t *testing.T) {
	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{query: "?limit=5", wantCode: http.StatusOK, wantLimit: 5},
		{query: "?limit=1000", wantCode: http.StatusOK, wantLimit: MaxLimit},
		{query: "?limit=0", wantCode: http.StatusBadRequest},
		{query: "?limit=abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			reader := &stubReader{}
			h := NewSignalHandler(reader, nil, logger.NewNop())

			rec := httptest.NewRecorder()
			h.ListSignals(rec, httptest.NewRequest(http.MethodGet, "/api/signals"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantLimit, reader.lastLimit)
				assert.Equal(t, []interface{}{}, decode(t, rec)["data"], "empty list, not null")
			} else {
				assert.Equal(t, false, decode(t, rec)["success"])
			}
		})
	}
}

func TestListSignals_StoreError(t *testing.T) {
	h := NewSignalHandler(&stubReader{err: errors.New("connection refused")}, nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.ListSignals(rec, httptest.NewRequest(http.MethodGet, "/api/signals", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to retrieve signals", decode(t, rec)["error"])
}

func TestRunScan(t *testing.T) {
	tests := []struct {
		name     string
		scanner  ScanRunner
		wantCode int
	}{
		{name: "success", scanner: stubScanner{report: &scanner.Report{Status: scanner.StatusSuccess, SignalsFound: 3}}, wantCode: http.StatusOK},
		{name: "in progress", scanner: stubScanner{err: scanner.ErrScanInProgress}, wantCode: http.StatusConflict},
		{name: "failure", scanner: stubScanner{err: context.Canceled}, wantCode: http.StatusInternalServerError},
		{name: "not configured", scanner: nil, wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSignalHandler(&stubReader{}, tt.scanner, logger.NewNop())

			rec := httptest.NewRecorder()
			h.RunScan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantCode == http.StatusOK, body["success"])
			if tt.wantCode == http.StatusOK {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, float64(3), data["signals_found"])
			}
		})
	}
}
