package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/horo42/saferpay/infra/opensearch"
	"github.com/horo42/saferpay/infra/response"
)

const (
	defaultLogHours = 24
	maxLogHours     = 24 * 30
)

// LogStore is the read side of the gateway log index. *opensearch.Logger implements it.
type LogStore interface {
	SearchLogs(ctx context.Context, provider string, query map[string]any) ([]opensearch.GatewayLog, error)
	GetTransactionLogs(ctx context.Context, provider, transactionID string) ([]opensearch.GatewayLog, error)
	GetRecentErrorLogs(ctx context.Context, provider string, hours int) ([]opensearch.GatewayLog, error)
}

// LogsHandler handles logs related HTTP requests
type LogsHandler struct {
	store LogStore
}

// NewLogsHandler creates a new logs handler. A nil store answers 503.
func NewLogsHandler(store LogStore) *LogsHandler {
	return &LogsHandler{store: store}
}

// ListLogs lists gateway logs of a provider, optionally filtered by
// operation, transactionId, requestId, errorsOnly and hours
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.Error(w, http.StatusServiceUnavailable, "Logging service not available", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	provider := chi.URLParam(r, "provider")
	if provider == "" {
		response.Error(w, http.StatusBadRequest, "Provider parameter is required", nil)
		return
	}

	hours, err := parseHours(r.URL.Query().Get("hours"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid hours parameter", err)
		return
	}

	filters := logFilters{
		Operation:     r.URL.Query().Get("operation"),
		TransactionID: r.URL.Query().Get("transactionId"),
		RequestID:     r.URL.Query().Get("requestId"),
		ErrorsOnly:    r.URL.Query().Get("errorsOnly") == "true",
		Hours:         hours,
	}

	logs, err := h.store.SearchLogs(ctx, provider, filters.query())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to search logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved successfully", map[string]any{
		"provider": provider,
		"filters":  filters,
		"count":    len(logs),
		"logs":     logs,
	})
}

// GetTransactionLogs returns every logged call of one gateway transaction
func (h *LogsHandler) GetTransactionLogs(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.Error(w, http.StatusServiceUnavailable, "Logging service not available", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	provider := chi.URLParam(r, "provider")
	transactionID := chi.URLParam(r, "transactionID")
	if provider == "" || transactionID == "" {
		response.Error(w, http.StatusBadRequest, "provider and transactionID parameters are required", nil)
		return
	}

	logs, err := h.store.GetTransactionLogs(ctx, provider, transactionID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved successfully", map[string]any{
		"provider":      provider,
		"transactionId": transactionID,
		"count":         len(logs),
		"logs":          logs,
	})
}

// GetErrorLogs returns failed gateway calls of the last hours
func (h *LogsHandler) GetErrorLogs(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.Error(w, http.StatusServiceUnavailable, "Logging service not available", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	provider := chi.URLParam(r, "provider")
	if provider == "" {
		response.Error(w, http.StatusBadRequest, "Provider parameter is required", nil)
		return
	}

	hours, err := parseHours(r.URL.Query().Get("hours"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid hours parameter", err)
		return
	}

	logs, err := h.store.GetRecentErrorLogs(ctx, provider, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to get error logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Error logs retrieved successfully", map[string]any{
		"provider": provider,
		"hours":    hours,
		"count":    len(logs),
		"logs":     logs,
	})
}

// GetLogStats summarizes the logged calls of the last hours per operation
func (h *LogsHandler) GetLogStats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.Error(w, http.StatusServiceUnavailable, "Logging service not available", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	provider := chi.URLParam(r, "provider")
	if provider == "" {
		response.Error(w, http.StatusBadRequest, "Provider parameter is required", nil)
		return
	}

	hours, err := parseHours(r.URL.Query().Get("hours"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid hours parameter", err)
		return
	}

	logs, err := h.store.SearchLogs(ctx, provider, logFilters{Hours: hours}.query())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve log statistics", err)
		return
	}

	response.Success(w, http.StatusOK, "Log statistics retrieved successfully", map[string]any{
		"provider": provider,
		"hours":    hours,
		"stats":    summarize(logs),
	})
}

type logFilters struct {
	Operation     string `json:"operation,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
	ErrorsOnly    bool   `json:"errorsOnly"`
	Hours         int    `json:"hours"`
}

func (f logFilters) query() map[string]any {
	must := []map[string]any{
		{"range": map[string]any{"timestamp": map[string]any{"gte": "now-" + strconv.Itoa(f.Hours) + "h"}}},
	}

	for field, value := range map[string]string{
		"operation":      f.Operation,
		"transaction.id": f.TransactionID,
		"request_id":     f.RequestID,
	} {
		if value != "" {
			must = append(must, map[string]any{"term": map[string]any{field: value}})
		}
	}

	if f.ErrorsOnly {
		must = append(must, map[string]any{"exists": map[string]any{"field": "error.message"}})
	}

	return map[string]any{"bool": map[string]any{"must": must}}
}

// OperationStats counts the calls of one gateway operation
type OperationStats struct {
	Total               int     `json:"total"`
	Errors              int     `json:"errors"`
	AvgProcessingTimeMs float64 `json:"avgProcessingTimeMs"`
}

func summarize(logs []opensearch.GatewayLog) map[string]*OperationStats {
	stats := make(map[string]*OperationStats)
	totals := make(map[string]int64)

	for _, l := range logs {
		s, ok := stats[l.Operation]
		if !ok {
			s = &OperationStats{}
			stats[l.Operation] = s
		}
		s.Total++
		if l.Error.Message != "" {
			s.Errors++
		}
		totals[l.Operation] += l.Response.ProcessingTimeMs
	}

	for op, s := range stats {
		s.AvgProcessingTimeMs = float64(totals[op]) / float64(s.Total)
	}

	return stats
}

func parseHours(raw string) (int, error) {
	if raw == "" {
		return defaultLogHours, nil
	}

	hours, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if hours < 1 {
		hours = 1
	}
	if hours > maxLogHours {
		hours = maxLogHours
	}
	return hours, nil
}
