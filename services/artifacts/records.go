package artifacts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Records is the metadata table consumed by the Store. Implementations exist
// for GORM (server) and raw pgx (CLI); tests use an in-memory fake.
type Records interface {
	// FindByHash returns the record for a fingerprint, or nil when absent.
	FindByHash(ctx context.Context, hash string) (*Record, error)
	// FindByID returns the record with the given id, or nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// List returns all records, optionally filtered by checklist type,
	// newest first.
	List(ctx context.Context, checklistType string) ([]Record, error)
	Insert(ctx context.Context, rec *Record) error
	// UpdateByHash refreshes the retention window, replaces meta and ORs the
	// email flag (monotonic true) for the record with the given fingerprint.
	UpdateByHash(ctx context.Context, hash string, expiresAt time.Time, meta datatypes.JSONMap, emailSent bool) error
	// MarkEmailSent sets the email flag without touching retention or meta.
	MarkEmailSent(ctx context.Context, hash string) error
	// ExpiredBefore returns up to limit records whose expiry has passed,
	// oldest expiry first.
	ExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]Record, error)
	// DeleteByIDs removes the given rows and reports how many were deleted.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// GormRecords implements Records on a GORM handle.
type GormRecords struct {
	orm *gorm.DB
}

// NewGormRecords wraps the provided GORM handle.
func NewGormRecords(orm *gorm.DB) (*GormRecords, error) {
	if orm == nil {
		return nil, errors.New("gorm handle is required")
	}
	return &GormRecords{orm: orm}, nil
}

func (g *GormRecords) FindByHash(ctx context.Context, hash string) (*Record, error) {
	var rec Record
	err := g.orm.WithContext(ctx).First(&rec, "checklist_hash = ?", hash).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &rec, nil
}

func (g *GormRecords) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	var rec Record
	err := g.orm.WithContext(ctx).First(&rec, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &rec, nil
}

func (g *GormRecords) List(ctx context.Context, checklistType string) ([]Record, error) {
	query := g.orm.WithContext(ctx).Order("created_at DESC")
	if checklistType != "" {
		query = query.Where("checklist_type = ?", checklistType)
	}

	var recs []Record
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (g *GormRecords) Insert(ctx context.Context, rec *Record) error {
	return g.orm.WithContext(ctx).Create(rec).Error
}

func (g *GormRecords) UpdateByHash(ctx context.Context, hash string, expiresAt time.Time, meta datatypes.JSONMap, emailSent bool) error {
	updates := map[string]any{
		"expires_at": expiresAt,
		"meta":       meta,
	}
	if emailSent {
		updates["email_sent"] = true
	}

	result := g.orm.WithContext(ctx).Model(&Record{}).Where("checklist_hash = ?", hash).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (g *GormRecords) MarkEmailSent(ctx context.Context, hash string) error {
	result := g.orm.WithContext(ctx).Model(&Record{}).
		Where("checklist_hash = ?", hash).
		Update("email_sent", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (g *GormRecords) ExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]Record, error) {
	var recs []Record
	err := g.orm.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (g *GormRecords) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := g.orm.WithContext(ctx).Delete(&Record{}, "id IN ?", ids)
	return result.RowsAffected, result.Error
}
