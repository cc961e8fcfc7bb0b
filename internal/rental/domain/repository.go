package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists rentals, inventory and the access log. Methods
// take the database handle so callers can pass a transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rental *CustomerStorage) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CustomerStorage, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]CustomerStorage, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]CustomerStorage, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status StorageStatus) error
	// MarkDelinquent flips the rental to overdue/delinquent in one write.
	MarkDelinquent(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	InsertItems(ctx context.Context, db *gorm.DB, items []InventoryItem) error
	ListItems(ctx context.Context, db *gorm.DB, storageID snowflake.ID) ([]InventoryItem, error)

	InsertAccess(ctx context.Context, db *gorm.DB, entry *AccessEntry) error
	ListAccess(ctx context.Context, db *gorm.DB, storageID snowflake.ID) ([]AccessEntry, error)

	// ActiveRates returns the monthly rate of every active rental.
	ActiveRates(ctx context.Context, db *gorm.DB) ([]int64, error)
}
