// Package api exposes the export pipeline and artifact store over HTTP.
package api

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"rigcheck/services/artifacts"
	"rigcheck/services/exporter"
)

const requestTimeout = 60 * time.Second

// Config controls runtime behaviour for the API handlers.
type Config struct {
	// SweepToken guards the sweep endpoint; empty disables it.
	SweepToken string
	// DeleteUser and DeletePass guard the delete endpoint via basic auth.
	// Both empty disables deletes entirely.
	DeleteUser string
	DeletePass string

	AllowedOrigins []string
}

// API wires dependencies and configuration for the HTTP handlers.
type API struct {
	deps     *Store
	pipeline *exporter.Pipeline
	store    *artifacts.Store
	config   Config
	logger   zerolog.Logger
}

// New initialises the API layer with defaults applied to the provided configuration.
func New(deps *Store, pipeline *exporter.Pipeline, store *artifacts.Store, cfg Config, logger zerolog.Logger) (*API, error) {
	if deps == nil {
		return nil, errors.New("deps are required")
	}
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}

	if cfg.SweepToken == "" {
		cfg.SweepToken = os.Getenv("SWEEP_TOKEN")
	}

	return &API{
		deps:     deps,
		pipeline: pipeline,
		store:    store,
		config:   cfg,
		logger:   logger,
	}, nil
}
