package artifacts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Record is the persisted metadata row describing one stored archive.
// Exactly one row (and one blob) exists per checklist hash.
type Record struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" db:"id"`
	ChecklistType string            `gorm:"type:text;not null;index" db:"checklist_type"`
	ChecklistHash string            `gorm:"type:text;uniqueIndex;not null" db:"checklist_hash"`
	FilePath      string            `gorm:"type:text;not null" db:"file_path"`
	SizeBytes     int64             `gorm:"type:bigint;not null;default:0" db:"size_bytes"`
	EmailSent     bool              `gorm:"type:boolean;not null;default:false" db:"email_sent"`
	Meta          datatypes.JSONMap `gorm:"type:jsonb" db:"meta"`
	CreatedAt     time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime" db:"created_at"`
	ExpiresAt     time.Time         `gorm:"type:timestamptz;not null;index" db:"expires_at"`
}

// TableName implements the GORM tabler interface.
func (Record) TableName() string { return "artifact_records" }

func (r Record) toAPI() ArtifactRecord {
	return ArtifactRecord{
		ID:            r.ID,
		ChecklistType: r.ChecklistType,
		ChecklistHash: r.ChecklistHash,
		FilePath:      r.FilePath,
		SizeBytes:     r.SizeBytes,
		EmailSent:     r.EmailSent,
		Meta:          MetaFromJSONMap(r.Meta),
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
	}
}

// ArtifactRecord is the API projection of a stored archive's metadata.
type ArtifactRecord struct {
	ID            uuid.UUID `json:"id"`
	ChecklistType string    `json:"checklist_type"`
	ChecklistHash string    `json:"checklist_hash"`
	FilePath      string    `json:"file_path"`
	SizeBytes     int64     `json:"size_bytes"`
	EmailSent     bool      `json:"email_sent"`
	Meta          Meta      `json:"meta"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	// DownloadURL is a freshly issued one-hour link; empty when issuance failed.
	DownloadURL string `json:"download_url,omitempty"`
}

// Meta holds the display-only descriptive fields attached to a record. None of
// them participate in identity.
type Meta struct {
	DriverName     string `json:"driver_name,omitempty"`
	TruckPlate     string `json:"truck_plate,omitempty"`
	TrailerPlate   string `json:"trailer_plate,omitempty"`
	InspectionDate string `json:"inspection_date,omitempty"`
	InspectorName  string `json:"inspector_name,omitempty"`
}

// MetaFromJSONMap parses a stored meta payload defensively: historical rows
// carried free-form shapes, so non-string values are simply ignored.
func MetaFromJSONMap(src datatypes.JSONMap) Meta {
	str := func(key string) string {
		if v, ok := src[key].(string); ok {
			return v
		}
		return ""
	}
	return Meta{
		DriverName:     str("driver_name"),
		TruckPlate:     str("truck_plate"),
		TrailerPlate:   str("trailer_plate"),
		InspectionDate: str("inspection_date"),
		InspectorName:  str("inspector_name"),
	}
}

func (m Meta) toJSONMap() datatypes.JSONMap {
	out := datatypes.JSONMap{}
	if m.DriverName != "" {
		out["driver_name"] = m.DriverName
	}
	if m.TruckPlate != "" {
		out["truck_plate"] = m.TruckPlate
	}
	if m.TrailerPlate != "" {
		out["trailer_plate"] = m.TrailerPlate
	}
	if m.InspectionDate != "" {
		out["inspection_date"] = m.InspectionDate
	}
	if m.InspectorName != "" {
		out["inspector_name"] = m.InspectorName
	}
	return out
}

// merge overlays the non-empty fields of other onto m (shallow overwrite).
func (m Meta) merge(other Meta) Meta {
	if other.DriverName != "" {
		m.DriverName = other.DriverName
	}
	if other.TruckPlate != "" {
		m.TruckPlate = other.TruckPlate
	}
	if other.TrailerPlate != "" {
		m.TrailerPlate = other.TrailerPlate
	}
	if other.InspectionDate != "" {
		m.InspectionDate = other.InspectionDate
	}
	if other.InspectorName != "" {
		m.InspectorName = other.InspectorName
	}
	return m
}
