// Package seed bootstraps a fresh database with the storage
// facilities a self-hosted deployment starts from.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	facilitydomain "github.com/nordflytt/lagring/internal/facility/domain"
	"gorm.io/gorm"
)

type facilitySpec struct {
	Name        string
	Address     string
	Capacity    float64
	Climate     bool
	Security    facilitydomain.SecurityLevel
	AccessHours string
	ContactInfo string
}

var defaultFacilities = []facilitySpec{
	{
		Name:        "Nordflytt Lager Väst",
		Address:     "Industrivägen 12, 441 39 Alingsås",
		Capacity:    2000,
		Climate:     false,
		Security:    facilitydomain.SecurityStandard,
		AccessHours: "Mån-Fre 07:00-18:00",
		ContactInfo: "lager.vast@nordflytt.se",
	},
	{
		Name:        "Nordflytt Klimatlager",
		Address:     "Hantverksgatan 4, 441 57 Alingsås",
		Capacity:    800,
		Climate:     true,
		Security:    facilitydomain.SecurityHigh,
		AccessHours: "Mån-Sön 06:00-22:00",
		ContactInfo: "klimatlager@nordflytt.se",
	},
	{
		Name:        "Nordflytt Dokumentarkiv",
		Address:     "Arkivgatan 2, 441 30 Alingsås",
		Capacity:    400,
		Climate:     true,
		Security:    facilitydomain.SecurityMaximum,
		AccessHours: "Mån-Fre 08:00-16:00",
		ContactInfo: "arkiv@nordflytt.se",
	},
}

// EnsureDefaultFacilities inserts the default facilities if their
// codes are not present. Existing rows are never modified.
func EnsureDefaultFacilities(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, spec := range defaultFacilities {
			code := slug.Make(spec.Name)

			var count int64
			err := tx.WithContext(ctx).
				Model(&facilitydomain.Facility{}).
				Where("code = ?", code).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			now := time.Now().UTC()
			facility := facilitydomain.Facility{
				ID:                node.Generate(),
				Name:              spec.Name,
				Code:              code,
				Address:           spec.Address,
				TotalCapacity:     spec.Capacity,
				AvailableCapacity: spec.Capacity,
				ClimateControlled: spec.Climate,
				SecurityLevel:     spec.Security,
				Status:            facilitydomain.FacilityStatusActive,
				AccessHours:       spec.AccessHours,
				ContactInfo:       spec.ContactInfo,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := tx.WithContext(ctx).Create(&facility).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
