// Package exporter runs the export pipeline: fingerprint the checklist,
// render the report, package the archive and hand it to the artifact store.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rigcheck/services/archive"
	"rigcheck/services/artifacts"
	"rigcheck/services/checklist"
	"rigcheck/services/report"
)

// Config wires the pipeline's collaborators.
type Config struct {
	Renderer *report.Renderer
	Store    *artifacts.Store
	// Signer optionally signs archive manifests. Nil disables signing.
	Signer     *archive.Signer
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Pipeline turns one checklist submission into a stored artifact.
type Pipeline struct {
	renderer *report.Renderer
	store    *artifacts.Store
	signer   *archive.Signer
	client   *http.Client
	logger   zerolog.Logger
}

// New validates the configuration and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Pipeline{
		renderer: cfg.Renderer,
		store:    cfg.Store,
		signer:   cfg.Signer,
		client:   cfg.HTTPClient,
		logger:   cfg.Logger,
	}, nil
}

// Result is what one export run produced.
type Result struct {
	Fingerprint string                   `json:"fingerprint"`
	Artifact    artifacts.ArtifactRecord `json:"artifact"`
	// Deduplicated is true when an identical checklist was exported before.
	Deduplicated bool `json:"deduplicated"`
}

// Export runs the full pipeline for one checklist. The fingerprint is taken
// before any rendering, so two visually different runs of the same form state
// still collapse onto one stored artifact.
func (p *Pipeline) Export(ctx context.Context, c checklist.Checklist, emailSent bool) (*Result, error) {
	if !c.Variant.Valid() {
		return nil, fmt.Errorf("unknown checklist type %q", c.Variant)
	}

	fingerprint, err := checklist.Fingerprint(c)
	if err != nil {
		return nil, fmt.Errorf("fingerprint checklist: %w", err)
	}

	started := time.Now()
	pdf, err := p.renderer.Render(c)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	zipBytes, err := archive.Build(ctx, archive.BuildConfig{
		Report:     pdf,
		ReportName: artifacts.SafeFileName(fingerprint, ".pdf"),
		Photos:     c.Photos,
		Signer:     p.signer,
		HTTPClient: p.client,
		Logger:     p.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build archive: %w", err)
	}

	stored, err := p.store.StoreArchive(ctx, artifacts.StoreInput{
		ChecklistType: c.Variant,
		Fingerprint:   fingerprint,
		Archive:       zipBytes,
		Meta:          metaFor(c),
		EmailSent:     emailSent,
	})
	if err != nil {
		return nil, fmt.Errorf("store archive: %w", err)
	}

	p.logger.Info().
		Str("hash", fingerprint).
		Str("checklist_type", string(c.Variant)).
		Bool("deduplicated", stored.Deduplicated).
		Dur("elapsed", time.Since(started)).
		Msg("export complete")

	return &Result{
		Fingerprint:  fingerprint,
		Artifact:     stored.Record,
		Deduplicated: stored.Deduplicated,
	}, nil
}

func metaFor(c checklist.Checklist) artifacts.Meta {
	meta := artifacts.Meta{
		DriverName:    c.DriverName,
		TruckPlate:    c.TruckPlate,
		TrailerPlate:  c.TrailerPlate,
		InspectorName: c.InspectorName,
	}
	if !c.InspectionDate.IsZero() {
		meta.InspectionDate = c.InspectionDate.Format("2006-01-02")
	}
	return meta
}
