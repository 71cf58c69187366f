package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

// ArtifactRecord is the metadata row describing one stored checklist archive.
// checklist_hash is the content fingerprint; exactly one blob exists per hash.
type ArtifactRecord struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ChecklistType string            `gorm:"type:text;not null;index"`
	ChecklistHash string            `gorm:"type:text;uniqueIndex;not null"`
	FilePath      string            `gorm:"type:text;not null"`
	SizeBytes     int64             `gorm:"type:bigint;not null;default:0"`
	EmailSent     bool              `gorm:"type:boolean;not null;default:false"`
	Meta          datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt     time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	ExpiresAt     time.Time         `gorm:"type:timestamptz;not null;index"`
}

func (ArtifactRecord) TableName() string { return "artifact_records" }

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).AutoMigrate(&ArtifactRecord{})
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Migrator().DropTable(&ArtifactRecord{})
}
