package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// maxRequestBody caps decoded request bodies. Archives arrive base64-encoded
// inside JSON, so the cap leaves headroom above the raw archive size.
const maxRequestBody = 64 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// respondStoreResult reports a store outcome: 201 for a fresh artifact, 200
// when the fingerprint was already known.
func respondStoreResult(w http.ResponseWriter, deduplicated bool, payload any) {
	status := http.StatusCreated
	if deduplicated {
		status = http.StatusOK
	}
	respondJSON(w, status, payload)
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}
