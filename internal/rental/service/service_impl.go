// Package service implements rental creation, quoting and reporting.
package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/nordflytt/lagring/internal/billing/domain"
	billingservice "github.com/nordflytt/lagring/internal/billing/service"
	"github.com/nordflytt/lagring/internal/clock"
	"github.com/nordflytt/lagring/internal/config"
	facilitydomain "github.com/nordflytt/lagring/internal/facility/domain"
	facilityservice "github.com/nordflytt/lagring/internal/facility/service"
	"github.com/nordflytt/lagring/internal/rates"
	"github.com/nordflytt/lagring/internal/rental/domain"
	"github.com/nordflytt/lagring/internal/requirement"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	FacilityRepo facilitydomain.Repository
	Allocator    *facilityservice.Allocator
	Billing      *billingservice.Service
	Pricing      *config.PricingConfigHolder
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	facilityRepo facilitydomain.Repository
	allocator    *facilityservice.Allocator
	billing      *billingservice.Service
	pricing      *config.PricingConfigHolder
}

func New(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("rental.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		facilityRepo: p.FacilityRepo,
		allocator:    p.Allocator,
		billing:      p.Billing,
		pricing:      p.Pricing,
	}
}

func (r CreateRequest) requirement() requirement.Request {
	return requirement.Request{
		Volume:            r.Volume,
		Items:             r.Items,
		StorageType:       requirement.StorageType(r.StorageType),
		ClimateControlled: r.Climate,
		HighSecurity:      r.HighSecurity,
		CustomerAccess:    r.CustomerAccess,
		InsuranceValue:    r.InsuranceValue,
	}
}

// Quote prices a request without touching the database.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	cfg := s.pricing.Get()
	storageReq := requirement.Analyze(cfg, requirement.Request{
		Volume:            req.Volume,
		Items:             req.Items,
		StorageType:       requirement.StorageType(req.StorageType),
		ClimateControlled: req.Climate,
		HighSecurity:      req.HighSecurity,
		CustomerAccess:    req.CustomerAccess,
		InsuranceValue:    req.InsuranceValue,
	})
	pricing, err := rates.Calculate(cfg, storageReq)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Requirement: storageReq, Pricing: pricing}, nil
}

// Create rents a storage unit: it analyzes the request, reserves
// facility space, writes the rental, its inventory and the first
// billing record in one transaction, and returns the full result.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.CustomerID <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	cfg := s.pricing.Get()
	now := s.clock.Now()

	storageReq := requirement.Analyze(cfg, req.requirement())
	pricing, err := rates.Calculate(cfg, storageReq)
	if err != nil {
		return nil, err
	}

	accessLevel := domain.AccessNordflyttOnly
	if req.CustomerAccess {
		accessLevel = domain.AccessCustomer
	}

	var result CreateResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		allocation, err := s.allocator.Allocate(ctx, tx, storageReq)
		if err != nil {
			return err
		}

		id := s.genID.Generate()
		rental := &domain.CustomerStorage{
			ID:             id,
			CustomerID:     snowflake.ID(req.CustomerID),
			StorageUnitID:  generateUnitID(now),
			FacilityID:     allocation.FacilityID,
			Section:        allocation.Section,
			ContactEmail:   req.ContactEmail,
			StartDate:      now.UTC(),
			PlannedEndDate: req.PlannedEndDate,
			MonthlyRate:    pricing.MonthlyRate,
			TotalVolume:    storageReq.EstimatedVolume,
			StorageType:    string(storageReq.StorageType),
			AccessLevel:    accessLevel,
			InsuranceValue: storageReq.InsuranceValue,
			AccessCode:     generateAccessCode(),
			Status:         domain.StorageStatusActive,
			PaymentStatus:  domain.PaymentStatusCurrent,
			CreatedAt:      now.UTC(),
			UpdatedAt:      now.UTC(),
		}
		if err := s.repo.Insert(ctx, tx, rental); err != nil {
			return err
		}

		invoice, err := s.billing.GenerateInitial(ctx, tx, rental.ID, pricing, now)
		if err != nil {
			return err
		}

		items := s.buildItems(rental.ID, req.Items, now)
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}

		facility, err := s.facilityRepo.FindByID(ctx, tx, allocation.FacilityID)
		if err != nil {
			return err
		}

		result = CreateResult{
			Storage:    rental,
			Items:      items,
			Allocation: allocation,
			Pricing:    pricing,
			Invoice:    invoice,
			Agreement: Agreement{
				MonthlyRate:   pricing.MonthlyRate,
				SetupFee:      pricing.SetupFee,
				MinimumPeriod: pricing.MinimumPeriod,
				NoticePeriod:  30,
				PaymentTerms:  fmt.Sprintf("Faktura, %d dagar netto", cfg.DueDays),
				Insurance:     insuranceTerms(storageReq.InsuranceValue),
			},
			AccessInstructions: AccessInstructions{
				FacilityName: facility.Name,
				Address:      facility.Address,
				Section:      allocation.Section,
				AccessCode:   rental.AccessCode,
				AccessHours:  facility.AccessHours,
				Contact:      facility.ContactInfo,
				AccessLevel:  string(accessLevel),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("storage rental created",
		zap.String("storage_unit_id", result.Storage.StorageUnitID),
		zap.String("invoice_number", result.Invoice.InvoiceNumber),
		zap.Float64("volume", storageReq.EstimatedVolume),
		zap.Int64("monthly_rate", pricing.MonthlyRate),
	)
	return &result, nil
}

func (s *Service) buildItems(storageID snowflake.ID, items []requirement.Item, now time.Time) []domain.InventoryItem {
	out := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = "general"
		}
		itemID := s.genID.Generate()

		var dims datatypes.JSONMap
		if d := item.Dimensions; d != nil {
			dims = datatypes.JSONMap{
				"length": d.Length,
				"width":  d.Width,
				"height": d.Height,
			}
		}
		special := datatypes.JSONMap{}
		if item.Fragile {
			special["fragile"] = true
		}
		if item.Hazardous {
			special["hazardous"] = true
		}

		out = append(out, domain.InventoryItem{
			ID:                itemID,
			StorageID:         storageID,
			ItemCategory:      category,
			ItemDescription:   item.Description,
			EstimatedValue:    item.Value,
			ConditionOnEntry:  "good",
			Fragile:           item.Fragile,
			Hazardous:         item.Hazardous,
			Dimensions:        dims,
			Barcode:           fmt.Sprintf("ITM-%s", strconv.FormatInt(int64(itemID), 36)),
			LocationInStorage: assignLocation(category),
			InsuranceCovered:  true,
			SpecialHandling:   special,
			CreatedAt:         now.UTC(),
		})
	}
	return out
}

// Get returns one rental.
func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.CustomerStorage, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

// List returns active rentals, or all rentals of one customer when
// customerID is set.
func (s *Service) List(ctx context.Context, customerID int64) ([]domain.CustomerStorage, error) {
	if customerID > 0 {
		return s.repo.ListByCustomer(ctx, s.db, snowflake.ID(customerID))
	}
	return s.repo.ListActive(ctx, s.db)
}

// RecordAccess logs a visit to the unit.
func (s *Service) RecordAccess(ctx context.Context, storageID snowflake.ID, purpose, visitor string) error {
	if _, err := s.repo.FindByID(ctx, s.db, storageID); err != nil {
		return err
	}
	return s.repo.InsertAccess(ctx, s.db, &domain.AccessEntry{
		ID:         s.genID.Generate(),
		StorageID:  storageID,
		AccessDate: s.clock.Now().UTC(),
		Purpose:    purpose,
		Visitor:    visitor,
		CreatedAt:  s.clock.Now().UTC(),
	})
}

// Report assembles the storage report for one rental.
func (s *Service) Report(ctx context.Context, storageID snowflake.ID) (*Report, error) {
	rental, err := s.repo.FindByID(ctx, s.db, storageID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, storageID)
	if err != nil {
		return nil, err
	}
	records, err := s.billing.History(ctx, storageID)
	if err != nil {
		return nil, err
	}
	visits, err := s.repo.ListAccess(ctx, s.db, storageID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	monthsActive := monthsBetween(rental.StartDate, now)

	inventory := InventorySummary{ByCategory: map[string]int{}}
	for _, item := range items {
		inventory.TotalItems++
		inventory.TotalValue += item.EstimatedValue
		inventory.ByCategory[item.ItemCategory]++
		if item.Fragile {
			inventory.FragileItems++
		}
		if item.Hazardous {
			inventory.HazardousItems++
		}
		if item.EstimatedValue > highValueThreshold {
			inventory.HighValueItems++
		}
		if item.LastInspectionAt != nil &&
			(inventory.LastInspection == nil || item.LastInspectionAt.After(*inventory.LastInspection)) {
			inventory.LastInspection = item.LastInspectionAt
		}
	}

	financial := FinancialSummary{MonthlyRate: rental.MonthlyRate}
	for _, rec := range records {
		financial.TotalInvoiced += rec.TotalAmount
		financial.LateFees += rec.LateFees
		if rec.PaymentStatus == billingdomain.PaymentStatusPaid {
			financial.TotalPaid += rec.TotalAmount
		} else {
			financial.Outstanding += rec.TotalAmount
			financial.PendingRecords++
			if financial.NextPaymentDue == nil || rec.DueDate.Before(*financial.NextPaymentDue) {
				due := rec.DueDate
				financial.NextPaymentDue = &due
			}
		}
	}

	access := AccessSummary{TotalVisits: len(visits)}
	if len(visits) > 0 {
		last := visits[len(visits)-1].AccessDate
		access.LastVisit = &last
	}
	access.Frequency = accessFrequency(visits, now)
	access.MostCommonPurpose = mostCommonPurpose(visits)

	return &Report{
		Storage:      rental,
		MonthsActive: monthsActive,
		Inventory:    inventory,
		Financial:    financial,
		Access:       access,
		GeneratedAt:  now.UTC(),
	}, nil
}

// Revenue proxies the billing revenue summary.
func (s *Service) Revenue(ctx context.Context) (billingdomain.RevenueSummary, error) {
	return s.billing.Revenue(ctx)
}

func monthsBetween(start, now time.Time) int {
	if !now.After(start) {
		return 1
	}
	months := int(math.Ceil(now.Sub(start).Hours() / 24 / 30))
	if months < 1 {
		months = 1
	}
	return months
}

// Items above this value count as high value on the report.
const highValueThreshold = 10_000

// insuranceTerms renders the agreement's insurance clause.
func insuranceTerms(insuredValue int64) string {
	if insuredValue <= 0 {
		return "Ingen försäkring tecknad"
	}
	return fmt.Sprintf("Försäkrat värde %d SEK, premie 2%% av värdet per år", insuredValue)
}

// accessFrequency buckets visits per month into the labels used on
// customer-facing reports. The rate is measured from the first visit.
func accessFrequency(visits []domain.AccessEntry, now time.Time) string {
	switch len(visits) {
	case 0:
		return "Aldrig"
	case 1:
		return "Enstaka"
	}
	days := now.Sub(visits[0].AccessDate).Hours() / 24
	if days < 1 {
		days = 1
	}
	perMonth := float64(len(visits)) / (days / 30)
	switch {
	case perMonth < 0.5:
		return "Sällan"
	case perMonth < 2:
		return "Månatlig"
	case perMonth < 4:
		return "Varannan vecka"
	default:
		return "Veckovis"
	}
}

func mostCommonPurpose(visits []domain.AccessEntry) string {
	counts := map[string]int{}
	for _, visit := range visits {
		purpose := visit.Purpose
		if purpose == "" {
			purpose = "Annat"
		}
		counts[purpose]++
	}
	best, bestCount := "Ingen data", 0
	for purpose, count := range counts {
		if count > bestCount {
			best, bestCount = purpose, count
		}
	}
	return best
}

func generateAccessCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1_000_000))
}

// generateUnitID yields STG-<base36 ms>-<rand>; the column's unique
// index catches the unlikely collision.
func generateUnitID(now time.Time) string {
	return fmt.Sprintf("STG-%s-%04d", strconv.FormatInt(now.UnixMilli(), 36), rand.Intn(10_000))
}

// assignLocation hands out a cosmetic shelf label from the item
// category; collisions are acceptable.
func assignLocation(category string) string {
	prefix := strings.ToUpper(category)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s-%d", prefix, rand.Intn(100)+1)
}
