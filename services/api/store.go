package api

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"rigcheck/pkg/bus"
	gos3 "rigcheck/pkg/s3"
)

// Store holds the external dependencies shared by the API layer. Any of them
// except DB may be nil; handlers degrade accordingly.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
	S3  *gos3.Client
	Bus *bus.Bus
}
