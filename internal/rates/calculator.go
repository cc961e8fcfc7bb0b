// Package rates computes monthly storage pricing from the configured
// rate tables: base rate by storage type, per-service surcharges, a
// single largest-applicable volume discount and the monthly insurance
// premium.
package rates

import (
	"errors"
	"math"
	"sort"

	"github.com/nordflytt/lagring/internal/config"
	"github.com/nordflytt/lagring/internal/requirement"
)

var ErrUnknownStorageType = errors.New("unknown_storage_type")

// Pricing is a complete monthly rate quote. All amounts are whole SEK.
type Pricing struct {
	BaseRate         float64 `json:"base_rate"`
	Volume           float64 `json:"volume"`
	MonthlyBase      int64   `json:"monthly_base"`
	ServiceFees      int64   `json:"service_fees"`
	DiscountAmount   int64   `json:"discount_amount"`
	MonthlyInsurance int64   `json:"monthly_insurance"`
	MonthlyRate      int64   `json:"monthly_rate"`
	SetupFee         int64   `json:"setup_fee"`
	MinimumPeriod    int     `json:"minimum_period"`
	TotalFirstMonth  int64   `json:"total_first_month"`
}

// Calculate prices a storage requirement. Unknown storage types fall
// back to the short_term table unless pricing.strictTypes is set, in
// which case ErrUnknownStorageType is returned.
//
// The setup fee is charged without VAT on the first month; VAT is
// applied per billing record, not here.
func Calculate(cfg config.PricingConfig, req requirement.StorageRequirement) (Pricing, error) {
	table, ok := cfg.RateTables[string(req.StorageType)]
	if !ok {
		if cfg.StrictTypes {
			return Pricing{}, ErrUnknownStorageType
		}
		table = cfg.RateTables[string(requirement.TypeShortTerm)]
	}

	volume := req.EstimatedVolume
	monthlyBase := table.RatePerCubicMeter * volume

	perCubic := table.RatePerCubicMeter
	if req.ClimateControlled {
		perCubic += cfg.ClimateSurcharge
	}
	if req.HighSecurity {
		perCubic += cfg.SecuritySurcharge
	}
	if req.CustomerAccess {
		perCubic += cfg.AccessSurcharge
	}
	combined := perCubic * volume

	discounted := combined * discountMultiplier(cfg.Discounts, volume)

	monthlyInsurance := math.Round(float64(req.InsuranceValue) * cfg.InsuranceAnnualRate / 12)
	monthlyRate := math.Round(discounted + monthlyInsurance)

	return Pricing{
		BaseRate:         table.RatePerCubicMeter,
		Volume:           volume,
		MonthlyBase:      int64(math.Round(monthlyBase)),
		ServiceFees:      int64(math.Round(combined - monthlyBase)),
		DiscountAmount:   int64(math.Round(combined - discounted)),
		MonthlyInsurance: int64(monthlyInsurance),
		MonthlyRate:      int64(monthlyRate),
		SetupFee:         table.SetupFee,
		MinimumPeriod:    table.MinimumPeriod,
		TotalFirstMonth:  int64(monthlyRate) + table.SetupFee,
	}, nil
}

// discountMultiplier returns the multiplier of the largest discount
// tier the volume qualifies for. Tiers never stack.
func discountMultiplier(discounts []config.VolumeDiscount, volume float64) float64 {
	sorted := make([]config.VolumeDiscount, len(discounts))
	copy(sorted, discounts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinVolume > sorted[j].MinVolume
	})

	for _, d := range sorted {
		if volume > d.MinVolume {
			return d.Multiplier
		}
	}
	return 1
}
