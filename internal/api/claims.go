package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/factcheck/internal/analysis"
	"github.com/zombar/factcheck/internal/preprocess"
	"github.com/zombar/factcheck/internal/tracing"
)

// ClaimInspector lists the claims in a text and checks it for contradictions
type ClaimInspector interface {
	ExtractClaims(ctx context.Context, content string) []string
	CheckConsistency(ctx context.Context, content string) analysis.Consistency
}

type claimsRequest struct {
	Content string `json:"content"`
}

// ClaimsResponse is returned by the claims endpoint
type ClaimsResponse struct {
	Claims      []string             `json:"claims"`
	Consistency analysis.Consistency `json:"consistency"`
}

// handleClaims runs claim extraction and the consistency check on text content
func (h *Handler) handleClaims(w http.ResponseWriter, r *http.Request) {
	if h.opts.Claims == nil {
		h.respondError(w, r, "Claim analysis is not available", nil, http.StatusServiceUnavailable)
		return
	}

	var req claimsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		h.respondError(w, r, "Invalid request body", err, http.StatusBadRequest)
		return
	}

	content := preprocess.Clean(preprocess.Sanitize(req.Content))
	if !preprocess.IsValidContent(content) {
		h.respondError(w, r, "Content too short or invalid. Minimum of 10 characters.", nil, http.StatusBadRequest)
		return
	}

	claims := h.opts.Claims.ExtractClaims(r.Context(), content)
	consistency := h.opts.Claims.CheckConsistency(r.Context(), content)

	tracing.SetSpanAttributes(r.Context(),
		attribute.Int("claims.count", len(claims)),
		attribute.Bool("claims.consistent", consistency.IsConsistent),
	)

	respondJSON(w, ClaimsResponse{Claims: claims, Consistency: consistency}, http.StatusOK)
}
