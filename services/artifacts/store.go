package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rigcheck/pkg/bus"
	gos3 "rigcheck/pkg/s3"
	"rigcheck/services/checklist"
)

const (
	// RetentionPeriod is how long an archive is kept; every re-store of the
	// same fingerprint extends the window from that moment.
	RetentionPeriod = 60 * 24 * time.Hour
	// LinkTTL bounds the validity of issued retrieval links.
	LinkTTL = time.Hour

	archiveContentType = "application/zip"

	// SubjectStored is published after every successful store call.
	SubjectStored = "rigcheck.artifacts.stored"
	// SubjectDeleted is published after an explicit delete.
	SubjectDeleted = "rigcheck.artifacts.deleted"
	// SubjectSwept is published after a sweep that removed rows.
	SubjectSwept = "rigcheck.artifacts.swept"
)

// StoredEvent is the payload published on SubjectStored.
type StoredEvent struct {
	ID            uuid.UUID `json:"id"`
	ChecklistType string    `json:"checklist_type"`
	ChecklistHash string    `json:"checklist_hash"`
	Deduplicated  bool      `json:"deduplicated"`
	EmailSent     bool      `json:"email_sent"`
	Meta          Meta      `json:"meta"`
}

// Config wires the Store's collaborators. Bus may be nil; events are
// best-effort.
type Config struct {
	Records Records
	Blobs   Blobs
	Bus     *bus.Bus
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Store owns the mapping between fingerprints and (record, blob) pairs.
// No other component writes either side directly.
type Store struct {
	records Records
	blobs   Blobs
	bus     *bus.Bus
	logger  zerolog.Logger
	now     func() time.Time
}

// New validates the configuration and returns a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Records == nil {
		return nil, errors.New("records are required")
	}
	if cfg.Blobs == nil {
		return nil, errors.New("blobs are required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		records: cfg.Records,
		blobs:   cfg.Blobs,
		bus:     cfg.Bus,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}, nil
}

// StoreInput carries one store request.
type StoreInput struct {
	ChecklistType checklist.Variant
	Fingerprint   string
	Archive       []byte
	Meta          Meta
	EmailSent     bool
}

// StoreResult reports the outcome of a store call.
type StoreResult struct {
	Record ArtifactRecord `json:"artifact"`
	// Deduplicated is true when the fingerprint was already stored and only
	// its retention and metadata were refreshed.
	Deduplicated bool `json:"deduplicated"`
}

// StoreArchive persists an archive exactly once per fingerprint. Repeat calls
// with the same fingerprint never create a second blob or row; they extend
// the retention window, merge meta and OR the email flag. The returned
// download link is optional: issuance failure does not fail the store.
func (s *Store) StoreArchive(ctx context.Context, in StoreInput) (*StoreResult, error) {
	if !in.ChecklistType.Valid() {
		return nil, fmt.Errorf("unknown checklist type %q: %w", in.ChecklistType, ErrInvalidInput)
	}
	if err := validateFingerprint(in.Fingerprint); err != nil {
		return nil, err
	}
	if len(in.Archive) == 0 {
		return nil, fmt.Errorf("archive bytes are required: %w", ErrInvalidInput)
	}

	existing, err := s.records.FindByHash(ctx, in.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("lookup artifact record: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(RetentionPeriod)

	var rec *Record
	deduplicated := existing != nil

	if existing == nil {
		rec, err = s.insertNew(ctx, in, now, expiresAt)
		if err != nil {
			return nil, err
		}
		artifactsStoredTotal.Inc()
	} else {
		merged := MetaFromJSONMap(existing.Meta).merge(in.Meta)
		if err := s.records.UpdateByHash(ctx, in.Fingerprint, expiresAt, merged.toJSONMap(), in.EmailSent); err != nil {
			return nil, fmt.Errorf("refresh artifact record: %w", err)
		}
		updated := *existing
		updated.ExpiresAt = expiresAt
		updated.Meta = merged.toJSONMap()
		updated.EmailSent = existing.EmailSent || in.EmailSent
		rec = &updated
		artifactsDedupedTotal.Inc()
	}

	result := &StoreResult{Record: rec.toAPI(), Deduplicated: deduplicated}

	link, err := s.blobs.SignedURL(ctx, rec.FilePath, LinkTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", rec.FilePath).Msg("retrieval link issuance failed")
	} else {
		result.Record.DownloadURL = link
	}

	s.publish(ctx, SubjectStored, StoredEvent{
		ID:            rec.ID,
		ChecklistType: rec.ChecklistType,
		ChecklistHash: rec.ChecklistHash,
		Deduplicated:  deduplicated,
		EmailSent:     rec.EmailSent,
		Meta:          MetaFromJSONMap(rec.Meta),
	})

	return result, nil
}

// insertNew uploads the blob (refusing to overwrite an existing object) and
// inserts the metadata row. A failed insert triggers a best-effort
// compensating delete of the just-uploaded blob.
func (s *Store) insertNew(ctx context.Context, in StoreInput, now, expiresAt time.Time) (*Record, error) {
	path := CanonicalPath(string(in.ChecklistType), in.Fingerprint)
	sum := sha256.Sum256(in.Archive)

	err := s.blobs.Put(ctx, path, in.Archive, gos3.PutOptions{
		ContentType:  archiveContentType,
		FailIfExists: true,
		SHA256:       hex.EncodeToString(sum[:]),
	})
	if err != nil {
		return nil, fmt.Errorf("upload archive: %w", err)
	}

	rec := &Record{
		ID:            uuid.New(),
		ChecklistType: string(in.ChecklistType),
		ChecklistHash: in.Fingerprint,
		FilePath:      path,
		SizeBytes:     int64(len(in.Archive)),
		EmailSent:     in.EmailSent,
		Meta:          in.Meta.toJSONMap(),
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
	}

	if err := s.records.Insert(ctx, rec); err != nil {
		if cleanupErr := s.blobs.Remove(ctx, []string{path}); cleanupErr != nil {
			s.logger.Warn().Err(cleanupErr).Str("path", path).Msg("compensating blob delete failed")
		}
		return nil, fmt.Errorf("insert artifact record: %w", err)
	}
	return rec, nil
}

// List returns all records, optionally filtered by checklist type, each with
// a freshly issued link. Link failures degrade to an empty link per item.
func (s *Store) List(ctx context.Context, checklistType string) ([]ArtifactRecord, error) {
	recs, err := s.records.List(ctx, checklistType)
	if err != nil {
		return nil, fmt.Errorf("list artifact records: %w", err)
	}

	items := make([]ArtifactRecord, 0, len(recs))
	for _, rec := range recs {
		item := rec.toAPI()
		link, err := s.resolveLink(ctx, rec)
		if err != nil {
			s.logger.Warn().Err(err).Str("hash", rec.ChecklistHash).Msg("listing link issuance failed")
		} else {
			item.DownloadURL = link
		}
		items = append(items, item)
	}
	return items, nil
}

// Link issues a one-hour retrieval link for a fingerprint.
func (s *Store) Link(ctx context.Context, hash string) (string, error) {
	rec, err := s.records.FindByHash(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("lookup artifact record: %w", err)
	}
	if rec == nil {
		return "", ErrNotFound
	}
	return s.resolveLink(ctx, *rec)
}

// resolveLink probes candidate storage paths in fixed order (the record's own
// path, then canonical, then legacy aliases) and signs the first that exists.
func (s *Store) resolveLink(ctx context.Context, rec Record) (string, error) {
	candidates := []string{rec.FilePath}
	for _, p := range CandidatePaths(rec.ChecklistType, rec.ChecklistHash) {
		if p != rec.FilePath {
			candidates = append(candidates, p)
		}
	}

	var lastErr error
	for _, path := range candidates {
		if err := s.blobs.Head(ctx, path); err != nil {
			lastErr = err
			continue
		}
		return s.blobs.SignedURL(ctx, path, LinkTTL)
	}
	return "", fmt.Errorf("no archive found for %s: %w", rec.ChecklistHash, lastErr)
}

// Fetch downloads the archive bytes for a fingerprint, probing candidate paths.
func (s *Store) Fetch(ctx context.Context, hash string) ([]byte, error) {
	rec, err := s.records.FindByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("lookup artifact record: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	var lastErr error
	candidates := []string{rec.FilePath}
	for _, p := range CandidatePaths(rec.ChecklistType, rec.ChecklistHash) {
		if p != rec.FilePath {
			candidates = append(candidates, p)
		}
	}
	for _, path := range candidates {
		data, err := s.blobs.Get(ctx, path)
		if err != nil {
			lastErr = err
			continue
		}
		return data, nil
	}
	return nil, fmt.Errorf("download archive %s: %w", rec.ChecklistHash, lastErr)
}

// MarkNotified persists the email flag for a fingerprint after a notification
// was delivered, so later dedupe stores do not trigger a repeat send.
func (s *Store) MarkNotified(ctx context.Context, hash string) error {
	rec, err := s.records.FindByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("lookup artifact record: %w", err)
	}
	if rec == nil {
		return ErrNotFound
	}
	if rec.EmailSent {
		return nil
	}
	if err := s.records.MarkEmailSent(ctx, hash); err != nil {
		return fmt.Errorf("mark artifact notified: %w", err)
	}
	return nil
}

// Delete removes an artifact: blob first (best-effort), then the metadata
// row. A missing row fails the operation; a failed blob delete does not.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	rec, err := s.records.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup artifact record: %w", err)
	}
	if rec == nil {
		return ErrNotFound
	}

	if err := s.blobs.Remove(ctx, []string{rec.FilePath}); err != nil {
		s.logger.Warn().Err(err).Str("path", rec.FilePath).Msg("blob delete failed, removing metadata anyway")
	}

	if _, err := s.records.DeleteByIDs(ctx, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("delete artifact record: %w", err)
	}

	s.publish(ctx, SubjectDeleted, map[string]any{
		"id":             rec.ID,
		"checklist_type": rec.ChecklistType,
		"checklist_hash": rec.ChecklistHash,
	})
	return nil
}

// ErrNotFound is returned when no record exists for the requested artifact.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidInput marks store failures caused by the caller's input rather
// than by storage. Handlers map it to a client error.
var ErrInvalidInput = errors.New("invalid input")

func validateFingerprint(hash string) error {
	if hash == "" {
		return fmt.Errorf("fingerprint is required: %w", ErrInvalidInput)
	}
	if len(hash) != 64 {
		return fmt.Errorf("fingerprint must be 64 hex characters, got %d: %w", len(hash), ErrInvalidInput)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return fmt.Errorf("fingerprint is not hex: %w", ErrInvalidInput)
	}
	return nil
}

func (s *Store) publish(ctx context.Context, subject string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, subject, payload); err != nil {
		s.logger.Debug().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}
