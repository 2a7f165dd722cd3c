package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"kvittera/internal/indexing"
	"kvittera/pkg/model"
)

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeTooLarge      = "BATCH_TOO_LARGE"
	ErrCodeCanceled      = "CANCELED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Handler serves the read and ingestion-hook endpoints of the sync engine.
type Handler struct {
	engine  indexing.Service
	decoder *schema.Decoder
}

func NewHandler(engine indexing.Service) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{engine: engine, decoder: decoder}
}

// RegisterRoutes attaches all endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/occurrences", h.handleOccurrences)
	mux.HandleFunc("GET /v1/references/{code}", h.handleReferences)
	mux.HandleFunc("POST /v1/receipts/{id}/sync", h.handleSync)
	mux.HandleFunc("DELETE /v1/receipts/{id}", h.handlePurgeReceipt)
	mux.HandleFunc("DELETE /v1/owners/{id}/receipts", h.handlePurgeOwner)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

type occurrencesQuery struct {
	Codes []string `schema:"code"`
	Owner string   `schema:"owner"`
}

func (h *Handler) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	var q occurrencesQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}
	if len(q.Codes) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "At least one code is required")
		return
	}

	counts, err := h.engine.OccurrenceCounts(r.Context(), q.Codes, q.Owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

type referencesQuery struct {
	Owner string `schema:"owner"`
	Limit int    `schema:"limit"`
	Raw   bool   `schema:"raw"`
}

// ReferenceView is one purchase history row. Price is parsed from the item
// payload when possible.
type ReferenceView struct {
	ReceiptID   string     `json:"receiptId"`
	OwnerID     string     `json:"ownerId,omitempty"`
	ReceiptDate string     `json:"receiptDate,omitempty"`
	StoreLabel  string     `json:"storeLabel,omitempty"`
	Price       string     `json:"price,omitempty"`
	Item        model.Item `json:"item"`
}

func (h *Handler) handleReferences(w http.ResponseWriter, r *http.Request) {
	rawCode := r.PathValue("code")

	var q referencesQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}

	// Read-side matching runs through the same normalization as indexing,
	// unless the caller already holds a canonical code.
	code := rawCode
	if !q.Raw {
		normalized, ok := indexing.NormalizeValue(rawCode)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Code does not normalize to a product code")
			return
		}
		code = normalized
	}

	entries, err := h.engine.References(r.Context(), code, q.Owner, q.Limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	views := make([]ReferenceView, 0, len(entries))
	for _, entry := range entries {
		view := ReferenceView{
			ReceiptID:   entry.ReceiptID,
			OwnerID:     entry.OwnerID,
			ReceiptDate: entry.ReceiptDate,
			StoreLabel:  entry.StoreLabel,
			Item:        entry.Item,
		}
		if price, ok := entry.Item.Price(); ok {
			view.Price = price.String()
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, map[string]any{"code": code, "references": views})
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	receiptID := r.PathValue("id")

	result, err := h.engine.Sync(r.Context(), receiptID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePurgeReceipt(w http.ResponseWriter, r *http.Request) {
	receiptID := r.PathValue("id")

	if err := h.engine.PurgeReceipt(r.Context(), receiptID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"receiptId": receiptID, "purged": true})
}

func (h *Handler) handlePurgeOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("id")

	purged, err := h.engine.PurgeOwner(r.Context(), ownerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ownerId": ownerID, "receipts": purged})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Receipt not found")
	case errors.Is(err, model.ErrBatchTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "Sync plan exceeds the store batch limit")
	case errors.Is(err, model.ErrCanceled):
		writeError(w, 499, ErrCodeCanceled, "Request canceled")
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal error")
	}
}

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
