package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/nordflytt/lagring/internal/billing/domain"
	billingrepo "github.com/nordflytt/lagring/internal/billing/repository"
	billingservice "github.com/nordflytt/lagring/internal/billing/service"
	"github.com/nordflytt/lagring/internal/clock"
	"github.com/nordflytt/lagring/internal/config"
	facilitydomain "github.com/nordflytt/lagring/internal/facility/domain"
	facilityrepo "github.com/nordflytt/lagring/internal/facility/repository"
	facilityservice "github.com/nordflytt/lagring/internal/facility/service"
	"github.com/nordflytt/lagring/internal/payment"
	"github.com/nordflytt/lagring/internal/providers/email"
	"github.com/nordflytt/lagring/internal/rental/domain"
	rentalrepo "github.com/nordflytt/lagring/internal/rental/repository"
	"github.com/nordflytt/lagring/internal/requirement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type rentalFixture struct {
	db   *gorm.DB
	svc  *Service
	node *snowflake.Node
	clk  *clock.FakeClock
}

func setupRental(t *testing.T, now time.Time) *rentalFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&facilitydomain.Facility{},
		&domain.CustomerStorage{},
		&domain.InventoryItem{},
		&domain.AccessEntry{},
		&billingdomain.BillingRecord{},
		&billingdomain.InvoiceSequence{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.NewFakeClock(now)
	pricing := config.NewStaticPricingHolder(config.DefaultPricingConfig())
	rentalRepository := rentalrepo.Provide()
	facilityRepository := facilityrepo.Provide()

	billing := billingservice.New(billingservice.Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Repo:       billingrepo.Provide(),
		RentalRepo: rentalRepository,
		Processor:  payment.NewSimulated(log, 1),
		Email:      &email.NoOpProvider{},
		Pricing:    pricing,
	})

	svc := New(Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Repo:         rentalRepository,
		FacilityRepo: facilityRepository,
		Allocator: facilityservice.New(facilityservice.Params{
			Log:  log,
			Repo: facilityRepository,
		}),
		Billing: billing,
		Pricing: pricing,
	})

	return &rentalFixture{db: db, svc: svc, node: node, clk: clk}
}

func (f *rentalFixture) seedFacility(t *testing.T, name string, capacity float64, climate bool, security facilitydomain.SecurityLevel) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.db.Create(&facilitydomain.Facility{
		ID:                id,
		Name:              name,
		Code:              strings.ToLower(name),
		Address:           "Lagervägen 1, Göteborg",
		TotalCapacity:     capacity,
		AvailableCapacity: capacity,
		ClimateControlled: climate,
		SecurityLevel:     security,
		AccessHours:       "07:00-21:00",
		ContactInfo:       "lager@nordflytt.se",
		Status:            facilitydomain.FacilityStatusActive,
	}).Error)
	return id
}

func TestCreate_FullFlow(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	f := setupRental(t, now)
	facilityID := f.seedFacility(t, "Klimatlager", 100, true, facilitydomain.SecurityHigh)

	result, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID:     42,
		ContactEmail:   "kund@example.se",
		StorageType:    "long_term",
		Volume:         25,
		Climate:        true,
		InsuranceValue: 50_000,
		Items: []requirement.Item{
			{Category: "furniture", Description: "Soffa", Quantity: 1, Value: 8000, Fragile: true},
			{Category: "boxes", Description: "Flyttkartonger", Quantity: 10},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3908), result.Storage.MonthlyRate)
	assert.Equal(t, 25.0, result.Storage.TotalVolume)
	assert.True(t, strings.HasPrefix(result.Storage.StorageUnitID, "STG-"))
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), result.Storage.AccessCode)
	assert.Equal(t, domain.AccessNordflyttOnly, result.Storage.AccessLevel)
	assert.Equal(t, facilityID, result.Storage.FacilityID)

	assert.Equal(t, "INV-2025-00001", result.Invoice.InvoiceNumber)
	assert.Equal(t, int64(4885), result.Invoice.TotalAmount)

	assert.Equal(t, int64(3908), result.Agreement.MonthlyRate)
	assert.Equal(t, int64(300), result.Agreement.SetupFee)
	assert.Equal(t, 6, result.Agreement.MinimumPeriod)
	assert.Equal(t, "Faktura, 30 dagar netto", result.Agreement.PaymentTerms)
	assert.Equal(t, "Försäkrat värde 50000 SEK, premie 2% av värdet per år", result.Agreement.Insurance)

	assert.Equal(t, "Klimatlager", result.AccessInstructions.FacilityName)
	assert.Equal(t, "07:00-21:00", result.AccessInstructions.AccessHours)
	assert.Equal(t, result.Storage.AccessCode, result.AccessInstructions.AccessCode)

	require.Len(t, result.Items, 2)
	for _, item := range result.Items {
		assert.True(t, strings.HasPrefix(item.Barcode, "ITM-"))
		assert.NotEmpty(t, item.LocationInStorage)
	}

	// Everything landed in one transaction.
	var rental domain.CustomerStorage
	require.NoError(t, f.db.First(&rental, "id = ?", result.Storage.ID).Error)
	assert.Equal(t, domain.StorageStatusActive, rental.Status)

	var facility facilitydomain.Facility
	require.NoError(t, f.db.First(&facility, "id = ?", facilityID).Error)
	assert.Equal(t, 75.0, facility.AvailableCapacity)

	var itemCount int64
	require.NoError(t, f.db.Model(&domain.InventoryItem{}).
		Where("storage_id = ?", result.Storage.ID).Count(&itemCount).Error)
	assert.Equal(t, int64(2), itemCount)
}

func TestCreate_CustomerAccessLevel(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	f := setupRental(t, now)
	f.seedFacility(t, "Standard", 100, false, facilitydomain.SecurityStandard)

	result, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID:     42,
		StorageType:    "short_term",
		Volume:         5,
		CustomerAccess: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AccessCustomer, result.Storage.AccessLevel)
	assert.Equal(t, string(domain.AccessCustomer), result.AccessInstructions.AccessLevel)
	assert.Equal(t, "Ingen försäkring tecknad", result.Agreement.Insurance)
}

func TestCreate_RejectsMissingCustomer(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	f := setupRental(t, now)

	_, err := f.svc.Create(context.Background(), CreateRequest{Volume: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreate_AllocationFailureRollsBack(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	f := setupRental(t, now)
	f.seedFacility(t, "Tiny", 5, false, facilitydomain.SecurityStandard)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID:  42,
		StorageType: "short_term",
		Volume:      25,
	})
	assert.ErrorIs(t, err, facilitydomain.ErrNoSuitableFacility)

	var rentals, invoices int64
	require.NoError(t, f.db.Model(&domain.CustomerStorage{}).Count(&rentals).Error)
	require.NoError(t, f.db.Model(&billingdomain.BillingRecord{}).Count(&invoices).Error)
	assert.Equal(t, int64(0), rentals)
	assert.Equal(t, int64(0), invoices)
}

func TestQuote_DoesNotTouchStorage(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	f := setupRental(t, now)

	quote, err := f.svc.Quote(context.Background(), QuoteRequest{
		StorageType:    "long_term",
		Volume:         25,
		Climate:        true,
		InsuranceValue: 50_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3908), quote.Pricing.MonthlyRate)
	assert.Equal(t, int64(4208), quote.Pricing.TotalFirstMonth)
	assert.Equal(t, 25.0, quote.Requirement.EstimatedVolume)

	var rentals int64
	require.NoError(t, f.db.Model(&domain.CustomerStorage{}).Count(&rentals).Error)
	assert.Equal(t, int64(0), rentals)
}

func TestRecordAccess_UnknownRental(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	f := setupRental(t, now)

	err := f.svc.RecordAccess(context.Background(), f.node.Generate(), "inspektion", "Nordflytt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReport_AggregatesRental(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	f := setupRental(t, now)
	f.seedFacility(t, "Standard", 100, false, facilitydomain.SecurityStandard)

	result, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID:  42,
		StorageType: "long_term",
		Volume:      25,
		Items: []requirement.Item{
			{Category: "furniture", Description: "Antik byrå", Quantity: 1, Value: 12_000, Fragile: true},
			{Category: "boxes", Description: "Kartonger", Quantity: 10, Value: 500},
		},
	})
	require.NoError(t, err)
	storageID := result.Storage.ID

	report, err := f.svc.Report(context.Background(), storageID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MonthsActive)
	assert.Equal(t, 2, report.Inventory.TotalItems)
	assert.Equal(t, int64(12_500), report.Inventory.TotalValue)
	assert.Equal(t, 1, report.Inventory.FragileItems)
	assert.Equal(t, 1, report.Inventory.HighValueItems)
	assert.Equal(t, map[string]int{"furniture": 1, "boxes": 1}, report.Inventory.ByCategory)
	assert.Equal(t, result.Invoice.TotalAmount, report.Financial.TotalInvoiced)
	assert.Equal(t, result.Invoice.TotalAmount, report.Financial.Outstanding)
	assert.Equal(t, 1, report.Financial.PendingRecords)
	require.NotNil(t, report.Financial.NextPaymentDue)
	assert.Equal(t, result.Invoice.DueDate, *report.Financial.NextPaymentDue)
	assert.Equal(t, "Aldrig", report.Access.Frequency)
	assert.Nil(t, report.Access.LastVisit)

	// A single visit is its own bucket.
	require.NoError(t, f.svc.RecordAccess(context.Background(), storageID, "inspektion", "Nordflytt"))
	report, err = f.svc.Report(context.Background(), storageID)
	require.NoError(t, err)
	assert.Equal(t, "Enstaka", report.Access.Frequency)

	// 45 days on: two billing months and a weekly visit cadence.
	f.clk.Advance(45 * 24 * time.Hour)
	for i := 0; i < 12; i++ {
		require.NoError(t, f.svc.RecordAccess(context.Background(), storageID, "hämtning", "Kund"))
	}

	report, err = f.svc.Report(context.Background(), storageID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MonthsActive)
	assert.Equal(t, 13, report.Access.TotalVisits)
	assert.Equal(t, "Veckovis", report.Access.Frequency)
	assert.Equal(t, "hämtning", report.Access.MostCommonPurpose)
	require.NotNil(t, report.Access.LastVisit)
}

func TestReport_UnknownRental(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	f := setupRental(t, now)

	_, err := f.svc.Report(context.Background(), f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
