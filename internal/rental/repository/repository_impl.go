package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/nordflytt/lagring/internal/rental/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rental *domain.CustomerStorage) error {
	return db.WithContext(ctx).Create(rental).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CustomerStorage, error) {
	var rental domain.CustomerStorage
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM customer_storage WHERE id = ?`,
		id,
	).Scan(&rental).Error
	if err != nil {
		return nil, err
	}
	if rental.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &rental, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.CustomerStorage, error) {
	var rentals []domain.CustomerStorage
	err := db.WithContext(ctx).
		Model(&domain.CustomerStorage{}).
		Where("status = ?", domain.StorageStatusActive).
		Order("created_at desc, id desc").
		Find(&rentals).Error
	if err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.CustomerStorage, error) {
	var rentals []domain.CustomerStorage
	err := db.WithContext(ctx).
		Model(&domain.CustomerStorage{}).
		Where("customer_id = ?", customerID).
		Order("created_at desc, id desc").
		Find(&rentals).Error
	if err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.StorageStatus) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE customer_storage SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) MarkDelinquent(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE customer_storage SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?`,
		domain.StorageStatusOverdue,
		domain.PaymentStatusDelinquent,
		time.Now().UTC(),
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, storageID snowflake.ID) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	err := db.WithContext(ctx).
		Model(&domain.InventoryItem{}).
		Where("storage_id = ?", storageID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertAccess(ctx context.Context, db *gorm.DB, entry *domain.AccessEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListAccess(ctx context.Context, db *gorm.DB, storageID snowflake.ID) ([]domain.AccessEntry, error) {
	var entries []domain.AccessEntry
	err := db.WithContext(ctx).
		Model(&domain.AccessEntry{}).
		Where("storage_id = ?", storageID).
		Order("access_date asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) ActiveRates(ctx context.Context, db *gorm.DB) ([]int64, error) {
	var rates []int64
	err := db.WithContext(ctx).Raw(
		`SELECT monthly_rate FROM customer_storage WHERE status = ?`,
		domain.StorageStatusActive,
	).Scan(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}
