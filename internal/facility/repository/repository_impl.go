package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/nordflytt/lagring/internal/facility/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, facility *domain.Facility) error {
	return db.WithContext(ctx).Create(facility).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Facility, error) {
	var facility domain.Facility
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM storage_facilities WHERE id = ?`,
		id,
	).Scan(&facility).Error
	if err != nil {
		return nil, err
	}
	if facility.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &facility, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Facility, error) {
	var facilities []domain.Facility
	err := db.WithContext(ctx).
		Model(&domain.Facility{}).
		Where("status = ?", domain.FacilityStatusActive).
		Order("name").
		Find(&facilities).Error
	if err != nil {
		return nil, err
	}
	return facilities, nil
}

func (r *repo) ListAvailable(ctx context.Context, db *gorm.DB, minCapacity float64) ([]domain.Facility, error) {
	var facilities []domain.Facility
	err := db.WithContext(ctx).
		Model(&domain.Facility{}).
		Where("status = ?", domain.FacilityStatusActive).
		Where("available_capacity >= ?", minCapacity).
		Order("available_capacity asc").
		Find(&facilities).Error
	if err != nil {
		return nil, err
	}
	return facilities, nil
}

func (r *repo) Reserve(ctx context.Context, db *gorm.DB, id snowflake.ID, volume float64) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE storage_facilities
		 SET available_capacity = available_capacity - ?, updated_at = ?
		 WHERE id = ? AND status = ? AND available_capacity >= ?`,
		volume,
		time.Now().UTC(),
		id,
		domain.FacilityStatusActive,
		volume,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInsufficientSpace
	}
	return nil
}

func (r *repo) Release(ctx context.Context, db *gorm.DB, id snowflake.ID, volume float64) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE storage_facilities
		 SET available_capacity = CASE
			WHEN available_capacity + ? > total_capacity THEN total_capacity
			ELSE available_capacity + ?
		 END,
		 updated_at = ?
		 WHERE id = ?`,
		volume,
		volume,
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
