package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sha1n/winref/internal/domain"
	"github.com/sha1n/winref/internal/lookup"
)

// maxBodyBytes bounds lookup request bodies.
const maxBodyBytes = 1 << 20

// Lookup answers the lookups exposed over HTTP.
type Lookup interface {
	LookupHash(ctx context.Context, value string) (lookup.Aggregation, error)
	LookupName(ctx context.Context, l lookup.NameLookup) (lookup.NameResult, error)
	LookupFullName(ctx context.Context, value string) (lookup.NameResult, error)
	KnownName(ctx context.Context, l lookup.NameLookup) (lookup.KnownResult, error)
	KnownFullName(ctx context.Context, value string) (lookup.KnownResult, error)
}

// Stats describes the served index.
type Stats interface {
	DocCount() (uint64, error)
	Schema() *domain.Schema
}

// ValueRequest carries a single lookup value.
type ValueRequest struct {
	Value string `json:"value"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	Documents uint64         `json:"documents"`
	Fields    []domain.Field `json:"fields"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	lookup Lookup
	stats  Stats
}

func (h *handlers) lookupHash(w http.ResponseWriter, r *http.Request) {
	var req ValueRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.lookup.LookupHash(r.Context(), req.Value)
	respond(w, r, res, err)
}

func (h *handlers) lookupName(w http.ResponseWriter, r *http.Request) {
	var req lookup.NameLookup
	if !decode(w, r, &req) {
		return
	}
	res, err := h.lookup.LookupName(r.Context(), req)
	respond(w, r, res, err)
}

func (h *handlers) lookupFullName(w http.ResponseWriter, r *http.Request) {
	var req ValueRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.lookup.LookupFullName(r.Context(), req.Value)
	respond(w, r, res, err)
}

func (h *handlers) knownName(w http.ResponseWriter, r *http.Request) {
	var req lookup.NameLookup
	if !decode(w, r, &req) {
		return
	}
	res, err := h.lookup.KnownName(r.Context(), req)
	respond(w, r, res, err)
}

func (h *handlers) knownFullName(w http.ResponseWriter, r *http.Request) {
	var req ValueRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.lookup.KnownFullName(r.Context(), req.Value)
	respond(w, r, res, err)
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.stats.DocCount()
	if err != nil {
		respond(w, r, nil, err)
		return
	}
	respond(w, r, StatsResponse{
		Documents: count,
		Fields:    h.stats.Schema().Fields(),
	}, nil)
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		LoggerFromContext(r.Context()).WarnContext(r.Context(), "Invalid request body", "error", err)
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err == nil {
		writeJSON(w, r, http.StatusOK, v)
		return
	}

	logger := LoggerFromContext(r.Context())
	switch {
	case errors.Is(err, lookup.ErrValidation):
		logger.WarnContext(r.Context(), "Invalid lookup", "error", err)
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrIndexStorage):
		logger.ErrorContext(r.Context(), "Lookup failed", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: domain.ErrIndexStorage.Error()})
	default:
		logger.ErrorContext(r.Context(), "Lookup failed", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		LoggerFromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}
