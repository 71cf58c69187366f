package api

import (
	"errors"
	"fmt"
	"net/http"

	"rigcheck/services/artifacts"
	"rigcheck/services/checklist"
)

type exportRequest struct {
	Checklist checklist.Checklist `json:"checklist"`
	// EmailSent marks the artifact as already notified, e.g. when the client
	// mailed the report itself.
	EmailSent bool `json:"email_sent"`
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if !req.Checklist.Variant.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Errorf("unknown checklist type %q", req.Checklist.Variant))
		return
	}

	res, err := a.pipeline.Export(r.Context(), req.Checklist, req.EmailSent)
	if err != nil {
		if errors.Is(err, artifacts.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondStoreResult(w, res.Deduplicated, res)
}
