package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rigcheck/services/artifacts"
	"rigcheck/services/checklist"
)

type storeArtifactRequest struct {
	ChecklistType string `json:"checklist_type"`
	Fingerprint   string `json:"fingerprint"`
	// Archive carries the zip bytes, base64-encoded by encoding/json.
	Archive   []byte         `json:"archive"`
	Meta      artifacts.Meta `json:"meta"`
	EmailSent bool           `json:"email_sent"`
}

// handleStoreArtifact accepts a pre-built archive from a client that rendered
// locally. The export endpoint is the usual path; this one exists for offline
// clients that sync later.
func (a *API) handleStoreArtifact(w http.ResponseWriter, r *http.Request) {
	var req storeArtifactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := a.store.StoreArchive(r.Context(), artifacts.StoreInput{
		ChecklistType: checklist.Variant(strings.TrimSpace(req.ChecklistType)),
		Fingerprint:   strings.ToLower(strings.TrimSpace(req.Fingerprint)),
		Archive:       req.Archive,
		Meta:          req.Meta,
		EmailSent:     req.EmailSent,
	})
	if err != nil {
		// Bad input is the caller's fault; anything else is the blob store or
		// the database acting up.
		if errors.Is(err, artifacts.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		respondError(w, http.StatusBadGateway, err)
		return
	}

	respondStoreResult(w, res.Deduplicated, res)
}

func (a *API) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	checklistType := strings.TrimSpace(r.URL.Query().Get("type"))
	if checklistType != "" && !checklist.Variant(checklistType).Valid() {
		respondError(w, http.StatusBadRequest, fmt.Errorf("unknown checklist type %q", checklistType))
		return
	}

	items, err := a.store.List(r.Context(), checklistType)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"artifacts": items})
}

func (a *API) handleArtifactLink(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "hash")))
	if hash == "" {
		respondError(w, http.StatusBadRequest, errors.New("hash is required"))
		return
	}

	link, err := a.store.Link(r.Context(), hash)
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"download_url": link})
}

func (a *API) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	if !a.authorizeDelete(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="rigcheck"`)
		respondError(w, http.StatusUnauthorized, errors.New("delete requires credentials"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid artifact id is required"))
		return
	}

	if err := a.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// authorizeDelete checks the configured basic-auth pair. Unset credentials
// disable the endpoint rather than opening it.
func (a *API) authorizeDelete(r *http.Request) bool {
	if a.config.DeleteUser == "" && a.config.DeletePass == "" {
		return false
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.config.DeleteUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.config.DeletePass)) == 1
	return userOK && passOK
}
