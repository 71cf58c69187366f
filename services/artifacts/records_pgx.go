package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/datatypes"

	"rigcheck/pkg/db"
)

// PgxRecords implements Records on a raw pgx pool. Used by rigcheckctl, which
// has no need for the full ORM stack.
type PgxRecords struct {
	pool *pgxpool.Pool
}

// NewPgxRecords wraps the provided pool.
func NewPgxRecords(pool *pgxpool.Pool) (*PgxRecords, error) {
	if pool == nil {
		return nil, errors.New("pgx pool is required")
	}
	return &PgxRecords{pool: pool}, nil
}

const recordColumns = `id, checklist_type, checklist_hash, file_path, size_bytes, email_sent, meta, created_at, expires_at`

func (p *PgxRecords) FindByHash(ctx context.Context, hash string) (*Record, error) {
	var rec Record
	err := db.Get(ctx, p.pool, &rec,
		`SELECT `+recordColumns+` FROM artifact_records WHERE checklist_hash = $1`, hash)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *PgxRecords) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	var rec Record
	err := db.Get(ctx, p.pool, &rec,
		`SELECT `+recordColumns+` FROM artifact_records WHERE id = $1`, id)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *PgxRecords) List(ctx context.Context, checklistType string) ([]Record, error) {
	var recs []Record
	if checklistType != "" {
		err := db.Select(ctx, p.pool, &recs,
			`SELECT `+recordColumns+` FROM artifact_records WHERE checklist_type = $1 ORDER BY created_at DESC`, checklistType)
		return recs, err
	}
	err := db.Select(ctx, p.pool, &recs,
		`SELECT `+recordColumns+` FROM artifact_records ORDER BY created_at DESC`)
	return recs, err
}

func (p *PgxRecords) Insert(ctx context.Context, rec *Record) error {
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	_, err = db.Exec(ctx, p.pool, `
        INSERT INTO artifact_records (id, checklist_type, checklist_hash, file_path, size_bytes, email_sent, meta, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)`,
		rec.ID, rec.ChecklistType, rec.ChecklistHash, rec.FilePath, rec.SizeBytes, rec.EmailSent, string(meta), rec.CreatedAt, rec.ExpiresAt)
	return err
}

func (p *PgxRecords) UpdateByHash(ctx context.Context, hash string, expiresAt time.Time, meta datatypes.JSONMap, emailSent bool) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	tag, err := db.Exec(ctx, p.pool, `
        UPDATE artifact_records
        SET expires_at = $2, meta = $3::jsonb, email_sent = email_sent OR $4
        WHERE checklist_hash = $1`,
		hash, expiresAt, string(payload), emailSent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("artifact record %s not found", hash)
	}
	return nil
}

func (p *PgxRecords) MarkEmailSent(ctx context.Context, hash string) error {
	tag, err := db.Exec(ctx, p.pool,
		`UPDATE artifact_records SET email_sent = TRUE WHERE checklist_hash = $1`, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("artifact record %s not found", hash)
	}
	return nil
}

func (p *PgxRecords) ExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]Record, error) {
	var recs []Record
	err := db.Select(ctx, p.pool, &recs,
		`SELECT `+recordColumns+` FROM artifact_records WHERE expires_at < $1 ORDER BY expires_at ASC LIMIT $2`,
		cutoff, limit)
	return recs, err
}

func (p *PgxRecords) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	asText := make([]string, 0, len(ids))
	for _, id := range ids {
		asText = append(asText, id.String())
	}

	tag, err := db.Exec(ctx, p.pool,
		`DELETE FROM artifact_records WHERE id = ANY($1::uuid[])`, asText)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
