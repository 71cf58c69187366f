package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zip"

	"rigcheck/services/artifacts"
)

// handleArtifactPreview streams the report PDF out of a stored archive so the
// browser can show it inline without downloading the whole zip.
func (a *API) handleArtifactPreview(w http.ResponseWriter, r *http.Request) {
	hash := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "hash")))
	if hash == "" {
		respondError(w, http.StatusBadRequest, errors.New("hash is required"))
		return
	}

	data, err := a.store.Fetch(r.Context(), hash)
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	pdf, err := extractPDF(data)
	if err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", artifacts.SafeFileName(hash, ".pdf")))
	_, _ = w.Write(pdf)
}

// extractPDF returns the first .pdf entry from a zip archive.
func extractPDF(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".pdf") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, errors.New("archive contains no report")
}
