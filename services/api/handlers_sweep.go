package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const sweepTokenHeader = "X-Sweep-Token"

// handleSweep removes expired artifacts. It is meant to be driven by a cron
// job or the CLI; the shared token keeps it off the public surface.
func (a *API) handleSweep(w http.ResponseWriter, r *http.Request) {
	if a.config.SweepToken == "" {
		respondError(w, http.StatusForbidden, errors.New("sweep endpoint disabled"))
		return
	}
	token := strings.TrimSpace(r.Header.Get(sweepTokenHeader))
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.config.SweepToken)) != 1 {
		respondError(w, http.StatusUnauthorized, errors.New("invalid sweep token"))
		return
	}

	batchSize := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("batch")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, errors.New("batch must be a positive integer"))
			return
		}
		batchSize = parsed
	}

	res, err := a.store.Sweep(r.Context(), batchSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
