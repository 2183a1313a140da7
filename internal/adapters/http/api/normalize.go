package api

import (
	"fmt"
	"net/http"

	"github.com/okian/attreval/internal/domain/model"
	"github.com/okian/attreval/internal/domain/normalize"
)

type normalizeRequest struct {
	Values []*string `json:"values"`
}

type normalizeResponse struct {
	Values []string `json:"values"`
}

// NormalizeHandler handles normalize requests.
type NormalizeHandler struct {
	normalizer   normalize.Normalizer
	maxBodyBytes int64
}

// NewNormalizeHandler creates a new normalize handler.
func NewNormalizeHandler(n normalize.Normalizer) *NormalizeHandler {
	return &NormalizeHandler{normalizer: n, maxBodyBytes: defaultMaxBodyBytes}
}

// HandlePostNormalize handles POST /v1/normalize requests. Null values
// normalize to "".
func (h *NormalizeHandler) HandlePostNormalize(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_normalize"
	if !allowMethod(w, r, op, http.MethodPost) {
		return
	}

	var req normalizeRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeDecodeError(w, op, err)
		return
	}
	if req.Values == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("missing values")))
		return
	}

	out := make([]string, len(req.Values))
	for i, v := range req.Values {
		t := model.TextFromPtr(v)
		if t.Valid {
			out[i] = h.normalizer.Normalize(t.Value)
		}
	}
	writeJSON(w, http.StatusOK, normalizeResponse{Values: out})
}
