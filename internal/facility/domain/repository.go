package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists facilities. Capacity is a shared pool, so
// Reserve and Release are single atomic statements rather than
// read-modify-write from the service layer.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, facility *Facility) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Facility, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Facility, error)
	// ListAvailable returns active facilities with at least minCapacity
	// free, tightest fit first.
	ListAvailable(ctx context.Context, db *gorm.DB, minCapacity float64) ([]Facility, error)
	// Reserve decrements available capacity, failing with
	// ErrInsufficientSpace when the facility no longer has room.
	Reserve(ctx context.Context, db *gorm.DB, id snowflake.ID, volume float64) error
	// Release returns reserved capacity to the pool.
	Release(ctx context.Context, db *gorm.DB, id snowflake.ID, volume float64) error
}
