package rates

import (
	"testing"

	"github.com/nordflytt/lagring/internal/config"
	"github.com/nordflytt/lagring/internal/requirement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_LongTermClimateWithInsurance(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	pricing, err := Calculate(cfg, requirement.StorageRequirement{
		EstimatedVolume:   25,
		StorageType:       requirement.TypeLongTerm,
		ClimateControlled: true,
		InsuranceValue:    50_000,
	})
	require.NoError(t, err)

	// 25 m³ × (120 + 50) = 4250, ×0.90 volume discount = 3825,
	// plus round(50000 × 0.02 / 12) = 83 insurance.
	assert.Equal(t, int64(3000), pricing.MonthlyBase)
	assert.Equal(t, int64(1250), pricing.ServiceFees)
	assert.Equal(t, int64(425), pricing.DiscountAmount)
	assert.Equal(t, int64(83), pricing.MonthlyInsurance)
	assert.Equal(t, int64(3908), pricing.MonthlyRate)
	assert.Equal(t, int64(300), pricing.SetupFee)
	assert.Equal(t, 6, pricing.MinimumPeriod)
	assert.Equal(t, int64(4208), pricing.TotalFirstMonth)
}

func TestCalculate_DiscountsNeverStack(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	pricing, err := Calculate(cfg, requirement.StorageRequirement{
		EstimatedVolume: 55,
		StorageType:     requirement.TypeLongTerm,
	})
	require.NoError(t, err)

	// 55 m³ qualifies for both tiers; only the 0.85 tier applies.
	assert.Equal(t, int64(5610), pricing.MonthlyRate)
	assert.Equal(t, int64(990), pricing.DiscountAmount)
}

func TestCalculate_DiscountThresholdIsExclusive(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	atThreshold, err := Calculate(cfg, requirement.StorageRequirement{
		EstimatedVolume: 20,
		StorageType:     requirement.TypeShortTerm,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), atThreshold.DiscountAmount)

	overThreshold, err := Calculate(cfg, requirement.StorageRequirement{
		EstimatedVolume: 21,
		StorageType:     requirement.TypeShortTerm,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(315), overThreshold.DiscountAmount) // 3150 × 0.10
}

func TestCalculate_InsuranceRounding(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	pricing, err := Calculate(cfg, requirement.StorageRequirement{
		EstimatedVolume: 1,
		StorageType:     requirement.TypeShortTerm,
		InsuranceValue:  120_000,
	})
	require.NoError(t, err)

	// 120000 × 0.02 / 12 = 200 exactly.
	assert.Equal(t, int64(200), pricing.MonthlyInsurance)
	assert.Equal(t, int64(350), pricing.MonthlyRate)
}

func TestCalculate_UnknownTypeFallsBackToShortTerm(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	pricing, err := Calculate(cfg, requirement.StorageRequirement{
		EstimatedVolume: 2,
		StorageType:     "igloo",
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, pricing.BaseRate)
	assert.Equal(t, int64(500), pricing.SetupFee)
}

func TestCalculate_StrictTypesRejectsUnknown(t *testing.T) {
	cfg := config.DefaultPricingConfig()
	cfg.StrictTypes = true

	_, err := Calculate(cfg, requirement.StorageRequirement{
		EstimatedVolume: 2,
		StorageType:     "igloo",
	})
	assert.ErrorIs(t, err, ErrUnknownStorageType)
}

func TestCalculate_RateGrowsWithVolume(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	var previous int64
	for _, volume := range []float64{1, 5, 10, 25, 60, 120} {
		pricing, err := Calculate(cfg, requirement.StorageRequirement{
			EstimatedVolume: volume,
			StorageType:     requirement.TypeSeasonal,
		})
		require.NoError(t, err)
		assert.Greater(t, pricing.MonthlyRate, previous, "volume %v", volume)
		previous = pricing.MonthlyRate
	}
}

func TestCalculate_AllSurchargesPerCubicMeter(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	pricing, err := Calculate(cfg, requirement.StorageRequirement{
		EstimatedVolume:   10,
		StorageType:       requirement.TypeShortTerm,
		ClimateControlled: true,
		HighSecurity:      true,
		CustomerAccess:    true,
	})
	require.NoError(t, err)

	// (150 + 50 + 30 + 25) × 10, no discount at 10 m³.
	assert.Equal(t, int64(2550), pricing.MonthlyRate)
	assert.Equal(t, int64(1050), pricing.ServiceFees)
}
