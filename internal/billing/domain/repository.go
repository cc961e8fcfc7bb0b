package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists billing records and the invoice number sequence.
// Methods take the database handle so callers can pass a transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *BillingRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingRecord, error)
	ListByStorage(ctx context.Context, db *gorm.DB, storageID snowflake.ID) ([]BillingRecord, error)
	// ListDue returns pending records with a due date at or before the
	// given day, oldest first. limit <= 0 means no limit.
	ListDue(ctx context.Context, db *gorm.DB, dueBefore time.Time, limit int) ([]BillingRecord, error)
	// ListExpiredPeriods returns the latest billing record of every
	// active rental whose period has ended without a successor.
	ListExpiredPeriods(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]BillingRecord, error)
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time, reference string) error
	RecordReminder(ctx context.Context, db *gorm.DB, id snowflake.ID, sentAt time.Time) error
	// AddLateFee adds the fee on top of the current total.
	AddLateFee(ctx context.Context, db *gorm.DB, id snowflake.ID, fee int64) error
	// NextInvoiceNumber atomically claims the next sequence number for
	// the year. Call it inside the transaction that inserts the record.
	NextInvoiceNumber(ctx context.Context, db *gorm.DB, year int) (int64, error)
}
