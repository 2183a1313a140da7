package api

import (
	"fmt"
	"net/http"

	"github.com/okian/attreval/internal/domain/model"
)

// scoreRequest is the body of POST /v1/score. A null or missing value is an
// absent cell.
type scoreRequest struct {
	Records []recordRequest `json:"records"`
}

type recordRequest struct {
	GroundTruth *string `json:"ground_truth"`
	Prediction  *string `json:"prediction"`
}

// ScoreHandler handles score requests.
type ScoreHandler struct {
	deps         Dependencies
	maxRecords   int
	maxBodyBytes int64
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies) *ScoreHandler {
	return &ScoreHandler{
		deps:         deps,
		maxRecords:   defaultMaxRecords,
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// HandlePostScore handles POST /v1/score requests.
func (h *ScoreHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if !allowMethod(w, r, op, http.MethodPost) {
		return
	}

	var req scoreRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeDecodeError(w, op, err)
		return
	}
	if req.Records == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("missing records")))
		return
	}
	if len(req.Records) > h.maxRecords {
		writeError(w, http.StatusRequestEntityTooLarge, "too_many_records",
			WrapKind(op, ErrTooManyRecords, fmt.Errorf("%d > %d", len(req.Records), h.maxRecords)))
		return
	}

	records := make([]model.ValueRecord, len(req.Records))
	for i, rec := range req.Records {
		records[i] = model.ValueRecord{
			GroundTruth: model.TextFromPtr(rec.GroundTruth),
			Prediction:  model.TextFromPtr(rec.Prediction),
		}
	}
	writeJSON(w, http.StatusOK, h.deps.ScoreRecords(r.Context(), records))
}
