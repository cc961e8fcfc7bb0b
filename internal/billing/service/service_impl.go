// Package service implements billing cycle generation, the payment
// sweep and overdue escalation.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/nordflytt/lagring/internal/billing/domain"
	"github.com/nordflytt/lagring/internal/clock"
	"github.com/nordflytt/lagring/internal/config"
	"github.com/nordflytt/lagring/internal/observability/metrics"
	"github.com/nordflytt/lagring/internal/payment"
	"github.com/nordflytt/lagring/internal/providers/email"
	"github.com/nordflytt/lagring/internal/rates"
	rentaldomain "github.com/nordflytt/lagring/internal/rental/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	RentalRepo rentaldomain.Repository
	Processor  payment.Processor
	Email      email.Provider
	Pricing    *config.PricingConfigHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	rentalRepo rentaldomain.Repository
	processor  payment.Processor
	email      email.Provider
	pricing    *config.PricingConfigHolder
}

func New(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("billing.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		rentalRepo: p.RentalRepo,
		processor:  p.Processor,
		email:      p.Email,
		pricing:    p.Pricing,
	}
}

// SweepStats summarizes one sweep pass.
type SweepStats struct {
	Processed   int `json:"processed"`
	Paid        int `json:"paid"`
	Declined    int `json:"declined"`
	Reminded    int `json:"reminded"`
	LateFees    int `json:"late_fees"`
	Collections int `json:"collections"`
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// lastOfMonth returns the last day of t's month: the first day of the
// next month minus one day.
func lastOfMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}

// GenerateInitial writes the first billing record for a new rental
// inside the caller's transaction. The record covers from today to the
// end of the current month; VAT is applied on the monthly rate.
func (s *Service) GenerateInitial(ctx context.Context, tx *gorm.DB, storageID snowflake.ID, pricing rates.Pricing, now time.Time) (*domain.BillingRecord, error) {
	cfg := s.pricing.Get()
	start := dateOnly(now)

	number, err := s.repo.NextInvoiceNumber(ctx, tx, start.Year())
	if err != nil {
		return nil, err
	}

	tax := int64(math.Round(float64(pricing.MonthlyRate) * cfg.VATRate))
	total := int64(math.Round(float64(pricing.MonthlyRate) * (1 + cfg.VATRate)))

	record := &domain.BillingRecord{
		ID:                 s.genID.Generate(),
		StorageID:          storageID,
		BillingPeriod:      "monthly",
		PeriodStart:        start,
		PeriodEnd:          lastOfMonth(start),
		BaseStorageFee:     pricing.MonthlyBase,
		VolumeCharges:      pricing.ServiceFees,
		AdditionalServices: pricing.MonthlyInsurance,
		DiscountAmount:     pricing.DiscountAmount,
		TaxAmount:          tax,
		TotalAmount:        total,
		InvoiceNumber:      fmt.Sprintf("INV-%d-%05d", start.Year(), number),
		InvoiceDate:        start,
		DueDate:            start.AddDate(0, 0, cfg.DueDays),
		PaymentStatus:      domain.PaymentStatusPending,
		AutoGenerated:      true,
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}
	if err := s.repo.Insert(ctx, tx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RenewCycle writes the successor record for an expired billing period.
// The component amounts carry over from the previous record; late fees
// never do.
func (s *Service) RenewCycle(ctx context.Context, prev domain.BillingRecord, monthlyRate int64, now time.Time) (*domain.BillingRecord, error) {
	cfg := s.pricing.Get()
	start := dateOnly(prev.PeriodEnd.AddDate(0, 0, 1))
	today := dateOnly(now)

	tax := int64(math.Round(float64(monthlyRate) * cfg.VATRate))
	total := int64(math.Round(float64(monthlyRate) * (1 + cfg.VATRate)))

	var record *domain.BillingRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.repo.NextInvoiceNumber(ctx, tx, today.Year())
		if err != nil {
			return err
		}
		record = &domain.BillingRecord{
			ID:                 s.genID.Generate(),
			StorageID:          prev.StorageID,
			BillingPeriod:      prev.BillingPeriod,
			PeriodStart:        start,
			PeriodEnd:          lastOfMonth(start),
			BaseStorageFee:     prev.BaseStorageFee,
			VolumeCharges:      prev.VolumeCharges,
			AdditionalServices: prev.AdditionalServices,
			DiscountAmount:     prev.DiscountAmount,
			TaxAmount:          tax,
			TotalAmount:        total,
			InvoiceNumber:      fmt.Sprintf("INV-%d-%05d", today.Year(), number),
			InvoiceDate:        today,
			DueDate:            today.AddDate(0, 0, cfg.DueDays),
			PaymentStatus:      domain.PaymentStatusPending,
			AutoGenerated:      true,
			CreatedAt:          now.UTC(),
			UpdatedAt:          now.UTC(),
		}
		return s.repo.Insert(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RenewExpired generates successor records for every active rental
// whose current billing period has ended.
func (s *Service) RenewExpired(ctx context.Context, limit int) (SweepStats, error) {
	now := s.clock.Now()
	var stats SweepStats

	expired, err := s.repo.ListExpiredPeriods(ctx, s.db, dateOnly(now), limit)
	if err != nil {
		return stats, err
	}
	for _, prev := range expired {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++

		rental, err := s.rentalRepo.FindByID(ctx, s.db, prev.StorageID)
		if err != nil {
			s.log.Error("renew: load rental", zap.Int64("storage_id", int64(prev.StorageID)), zap.Error(err))
			metrics.Sweep().IncRecordSwept("renew_cycles", "error")
			continue
		}
		record, err := s.RenewCycle(ctx, prev, rental.MonthlyRate, now)
		if err != nil {
			s.log.Error("renew: generate record", zap.Int64("storage_id", int64(prev.StorageID)), zap.Error(err))
			metrics.Sweep().IncRecordSwept("renew_cycles", "error")
			continue
		}
		metrics.Sweep().IncRecordSwept("renew_cycles", "renewed")
		s.log.Info("billing cycle renewed",
			zap.Int64("storage_id", int64(prev.StorageID)),
			zap.String("invoice_number", record.InvoiceNumber),
		)
	}
	return stats, nil
}

// ChargeDue attempts payment for every pending record at or past its
// due date. The invoice number doubles as the idempotency key, so a
// retried sweep cannot double charge.
func (s *Service) ChargeDue(ctx context.Context, limit int) (SweepStats, error) {
	now := s.clock.Now()
	var stats SweepStats

	due, err := s.repo.ListDue(ctx, s.db, dateOnly(now), limit)
	if err != nil {
		return stats, err
	}
	for _, rec := range due {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++

		result, err := s.processor.Charge(ctx, payment.ChargeRequest{
			Amount:         rec.TotalAmount,
			Currency:       "SEK",
			Reference:      rec.InvoiceNumber,
			IdempotencyKey: "charge-" + rec.InvoiceNumber,
		})
		switch {
		case err == nil:
			if err := s.repo.MarkPaid(ctx, s.db, rec.ID, now.UTC(), result.TransactionID); err != nil {
				s.log.Error("charge: mark paid", zap.String("invoice_number", rec.InvoiceNumber), zap.Error(err))
				metrics.Sweep().IncRecordSwept("charge_due", "error")
				continue
			}
			stats.Paid++
			metrics.Sweep().IncRecordSwept("charge_due", "paid")
			metrics.Sweep().IncPaymentEvent(s.processor.Name(), "paid")
		case errors.Is(err, payment.ErrDeclined):
			stats.Declined++
			metrics.Sweep().IncRecordSwept("charge_due", "declined")
			metrics.Sweep().IncPaymentEvent(s.processor.Name(), "declined")
			s.log.Warn("charge declined", zap.String("invoice_number", rec.InvoiceNumber))
		case errors.Is(err, payment.ErrProviderUnavailable):
			metrics.Sweep().IncPaymentEvent(s.processor.Name(), "unavailable")
			return stats, err
		default:
			return stats, err
		}
	}
	return stats, nil
}

// EscalateOverdue walks pending records past their due date and applies
// exactly one escalation step per record per sweep.
func (s *Service) EscalateOverdue(ctx context.Context, limit int) (SweepStats, error) {
	now := s.clock.Now()
	cfg := s.pricing.Get()
	var stats SweepStats

	due, err := s.repo.ListDue(ctx, s.db, dateOnly(now), limit)
	if err != nil {
		return stats, err
	}
	for _, rec := range due {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		days := rec.DaysOverdue(dateOnly(now))
		if days == 0 {
			// Due today but not yet overdue.
			continue
		}
		stats.Processed++

		tier := domain.TierFor(days)
		if tier == domain.TierCollections {
			if err := s.rentalRepo.MarkDelinquent(ctx, s.db, rec.StorageID); err != nil {
				s.log.Error("escalate: mark delinquent", zap.Int64("storage_id", int64(rec.StorageID)), zap.Error(err))
				metrics.Sweep().IncRecordSwept("escalate_overdue", "error")
				continue
			}
			stats.Collections++
			metrics.Sweep().IncRecordSwept("escalate_overdue", "collections")
			s.log.Warn("rental sent to collections",
				zap.Int64("storage_id", int64(rec.StorageID)),
				zap.String("invoice_number", rec.InvoiceNumber),
				zap.Int("days_overdue", days),
			)
			continue
		}

		total := rec.TotalAmount
		if tier == domain.ReminderFinalNotice && rec.LateFees == 0 {
			fee := int64(math.Round(float64(rec.TotalAmount) * cfg.LateFeeRate))
			if err := s.repo.AddLateFee(ctx, s.db, rec.ID, fee); err != nil {
				s.log.Error("escalate: add late fee", zap.String("invoice_number", rec.InvoiceNumber), zap.Error(err))
				metrics.Sweep().IncRecordSwept("escalate_overdue", "error")
				continue
			}
			total += fee
			stats.LateFees++
		}

		s.sendReminder(ctx, rec, tier, days, total)
		if err := s.repo.RecordReminder(ctx, s.db, rec.ID, now.UTC()); err != nil {
			s.log.Error("escalate: record reminder", zap.String("invoice_number", rec.InvoiceNumber), zap.Error(err))
			metrics.Sweep().IncRecordSwept("escalate_overdue", "error")
			continue
		}
		stats.Reminded++
		metrics.Sweep().IncRecordSwept("escalate_overdue", string(tier))
	}
	return stats, nil
}

// sendReminder is best effort: a mail failure never blocks escalation.
func (s *Service) sendReminder(ctx context.Context, rec domain.BillingRecord, tier domain.ReminderTier, days int, total int64) {
	rental, err := s.rentalRepo.FindByID(ctx, s.db, rec.StorageID)
	if err != nil || rental.ContactEmail == "" {
		return
	}
	subjects := map[domain.ReminderTier]string{
		domain.ReminderFriendly:    "Påminnelse: faktura " + rec.InvoiceNumber,
		domain.ReminderFirm:        "Betalningspåminnelse: faktura " + rec.InvoiceNumber,
		domain.ReminderFinalNotice: "Slutlig påminnelse: faktura " + rec.InvoiceNumber,
	}
	err = s.email.SendTemplate(ctx, []string{rental.ContactEmail}, string(tier), map[string]interface{}{
		"subject":        subjects[tier],
		"invoice_number": rec.InvoiceNumber,
		"days_overdue":   days,
		"total_amount":   total,
		"due_date":       rec.DueDate.Format("2006-01-02"),
	})
	if err != nil {
		s.log.Warn("reminder email failed", zap.String("invoice_number", rec.InvoiceNumber), zap.Error(err))
	}
}

// History returns the billing records of a rental, newest first.
func (s *Service) History(ctx context.Context, storageID snowflake.ID) ([]domain.BillingRecord, error) {
	return s.repo.ListByStorage(ctx, s.db, storageID)
}

// Record returns one billing record.
func (s *Service) Record(ctx context.Context, id snowflake.ID) (*domain.BillingRecord, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

// Revenue summarizes monthly revenue across active rentals.
func (s *Service) Revenue(ctx context.Context) (domain.RevenueSummary, error) {
	rates, err := s.rentalRepo.ActiveRates(ctx, s.db)
	if err != nil {
		return domain.RevenueSummary{}, err
	}
	var summary domain.RevenueSummary
	for _, r := range rates {
		summary.MonthlyRevenue += r
	}
	summary.TotalCustomers = len(rates)
	summary.AnnualProjection = summary.MonthlyRevenue * 12
	if summary.TotalCustomers > 0 {
		summary.AveragePerCustomer = math.Round(float64(summary.MonthlyRevenue)/float64(summary.TotalCustomers)*100) / 100
	}
	return summary, nil
}
