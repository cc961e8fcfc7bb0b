package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/nordflytt/lagring/internal/billing/domain"
	pkgdb "github.com/nordflytt/lagring/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.BillingRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillingRecord, error) {
	var record domain.BillingRecord
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM storage_billing WHERE id = ?`,
		id,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

func (r *repo) ListByStorage(ctx context.Context, db *gorm.DB, storageID snowflake.ID) ([]domain.BillingRecord, error) {
	var records []domain.BillingRecord
	err := db.WithContext(ctx).
		Model(&domain.BillingRecord{}).
		Where("storage_id = ?", storageID).
		Order("invoice_date desc, id desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, dueBefore time.Time, limit int) ([]domain.BillingRecord, error) {
	var records []domain.BillingRecord
	stmt := db.WithContext(ctx).
		Model(&domain.BillingRecord{}).
		Where("payment_status = ?", domain.PaymentStatusPending).
		Where("due_date <= ?", dueBefore).
		Order("due_date asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListExpiredPeriods(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]domain.BillingRecord, error) {
	var records []domain.BillingRecord
	stmt := db.WithContext(ctx).Raw(
		`SELECT b.* FROM storage_billing b
		 JOIN customer_storage s ON s.id = b.storage_id AND s.status = 'active'
		 WHERE b.period_end < ?
		 AND NOT EXISTS (
			SELECT 1 FROM storage_billing n
			WHERE n.storage_id = b.storage_id AND n.period_start > b.period_start
		 )
		 ORDER BY b.period_end asc, b.id asc`,
		before,
	)
	if err := stmt.Scan(&records).Error; err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time, reference string) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE storage_billing
		 SET payment_status = ?, payment_date = ?, payment_reference = ?, updated_at = ?
		 WHERE id = ? AND payment_status = ?`,
		domain.PaymentStatusPaid,
		paidAt,
		reference,
		time.Now().UTC(),
		id,
		domain.PaymentStatusPending,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) RecordReminder(ctx context.Context, db *gorm.DB, id snowflake.ID, sentAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE storage_billing
		 SET reminder_count = reminder_count + 1, last_reminder_date = ?, updated_at = ?
		 WHERE id = ?`,
		sentAt,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) AddLateFee(ctx context.Context, db *gorm.DB, id snowflake.ID, fee int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE storage_billing
		 SET late_fees = late_fees + ?, total_amount = total_amount + ?, updated_at = ?
		 WHERE id = ?`,
		fee,
		fee,
		time.Now().UTC(),
		id,
	).Error
}

// NextInvoiceNumber claims a sequence number with an update-or-insert
// pair. The row lock taken by the UPDATE serializes concurrent claims
// for the rest of the surrounding transaction.
func (r *repo) NextInvoiceNumber(ctx context.Context, db *gorm.DB, year int) (int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		result := db.WithContext(ctx).Exec(
			`UPDATE invoice_sequences SET next_number = next_number + 1 WHERE year = ?`,
			year,
		)
		if result.Error != nil {
			return 0, result.Error
		}
		if result.RowsAffected > 0 {
			var claimed int64
			err := db.WithContext(ctx).Raw(
				`SELECT next_number - 1 FROM invoice_sequences WHERE year = ?`,
				year,
			).Scan(&claimed).Error
			if err != nil {
				return 0, err
			}
			return claimed, nil
		}

		err := db.WithContext(ctx).Exec(
			`INSERT INTO invoice_sequences (year, next_number) VALUES (?, 2)`,
			year,
		).Error
		if err == nil {
			return 1, nil
		}
		if !pkgdb.IsDuplicateKeyErr(err) {
			return 0, err
		}
		// Lost the insert race; take the update path.
	}
	return 0, gorm.ErrInvalidTransaction
}
