package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Appraisal/internal/review"
	"github.com/MikeSquared-Agency/Appraisal/internal/scoring"
)

type ReviewsHandler struct {
	appraiser   *scoring.Appraiser
	defaultKind review.Kind
}

func NewReviewsHandler(a *scoring.Appraiser, defaultKind review.Kind) *ReviewsHandler {
	return &ReviewsHandler{appraiser: a, defaultKind: defaultKind}
}

type CreateReviewRequest struct {
	Reviewer string          `json:"reviewer,omitempty"`
	Review   review.Document `json:"review"`
}

type CreateReviewResponse struct {
	RecordID  uuid.UUID          `json:"record_id"`
	Appraisal *scoring.Appraisal `json:"appraisal"`
}

type SummaryResponse struct {
	Target  string      `json:"target"`
	Kind    review.Kind `json:"kind"`
	Score   float64     `json:"score"`
	Samples int         `json:"samples"`
	Summary string      `json:"summary"`
}

func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	candidate, err := review.Decode(req.Review, h.defaultKind)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, appraisal, err := h.appraiser.Record(r.Context(), chi.URLParam(r, "target"), req.Reviewer, candidate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateReviewResponse{RecordID: rec.ID, Appraisal: appraisal})
}

// Difference appraises a review without storing it.
func (h *ReviewsHandler) Difference(w http.ResponseWriter, r *http.Request) {
	var doc review.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	candidate, err := review.Decode(doc, h.defaultKind)
	if err != nil {
		writeError(w, err)
		return
	}

	appraisal, err := h.appraiser.Evaluate(r.Context(), chi.URLParam(r, "target"), candidate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appraisal)
}

func (h *ReviewsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	kind, err := review.ParseKind(r.URL.Query().Get("kind"), h.defaultKind)
	if err != nil {
		writeError(w, err)
		return
	}
	target := chi.URLParam(r, "target")

	summary, n, err := h.appraiser.Summary(r.Context(), target, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		Target:  target,
		Kind:    kind,
		Score:   summary.Score(),
		Samples: n,
		Summary: summary.String(),
	})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scoring.ErrNoHistory):
		status = http.StatusNotFound
	case errors.Is(err, scoring.ErrNoTarget),
		errors.Is(err, review.ErrType),
		errors.Is(err, review.ErrEmpty),
		errors.Is(err, review.ErrDivisionByZero):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
