package migration

import (
	billingdomain "github.com/nordflytt/lagring/internal/billing/domain"
	"github.com/nordflytt/lagring/internal/config"
	facilitydomain "github.com/nordflytt/lagring/internal/facility/domain"
	rentaldomain "github.com/nordflytt/lagring/internal/rental/domain"
	"github.com/nordflytt/lagring/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql development databases use the model
			// definitions directly.
			err := conn.AutoMigrate(
				&facilitydomain.Facility{},
				&rentaldomain.CustomerStorage{},
				&rentaldomain.InventoryItem{},
				&rentaldomain.AccessEntry{},
				&billingdomain.BillingRecord{},
				&billingdomain.InvoiceSequence{},
			)
			if err != nil {
				return err
			}
		}

		return seed.EnsureDefaultFacilities(conn)
	}),
)
