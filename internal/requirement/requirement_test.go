package requirement

import (
	"testing"

	"github.com/nordflytt/lagring/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestAnalyze_ExplicitVolume(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	req := Analyze(cfg, Request{Volume: 25, StorageType: TypeLongTerm})
	assert.Equal(t, 25.0, req.EstimatedVolume)
	assert.Equal(t, TypeLongTerm, req.StorageType)
}

func TestAnalyze_VolumeFloor(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	// Sub-cubic-meter requests still rent a full cubic meter.
	req := Analyze(cfg, Request{Volume: 0.3})
	assert.Equal(t, 1.0, req.EstimatedVolume)
}

func TestAnalyze_DefaultVolumeWhenEmpty(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	req := Analyze(cfg, Request{})
	assert.Equal(t, cfg.DefaultVolume, req.EstimatedVolume)
	assert.Equal(t, TypeShortTerm, req.StorageType)
}

func TestAnalyze_ItemVolumes(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	req := Analyze(cfg, Request{Items: []Item{
		{Category: "boxes", Quantity: 10},    // 2.0
		{Category: "documents", Quantity: 3}, // 0.3
	}})
	// 2.3 rounded up to whole cubic meters.
	assert.Equal(t, 3.0, req.EstimatedVolume)
}

func TestAnalyze_DimensionsOverrideCategory(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	req := Analyze(cfg, Request{Items: []Item{
		{
			Category:   "furniture",
			Quantity:   2,
			Dimensions: &Dimensions{Length: 100, Width: 100, Height: 50}, // 0.5 m³ each
		},
	}})
	assert.Equal(t, 1.0, req.EstimatedVolume)
}

func TestAnalyze_UnknownCategoryFallsBackToGeneral(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	req := Analyze(cfg, Request{Items: []Item{
		{Category: "velociraptors", Quantity: 2}, // general 0.5 each
	}})
	assert.Equal(t, 1.0, req.EstimatedVolume)
}

func TestAnalyze_ZeroQuantityCountsAsOne(t *testing.T) {
	cfg := config.DefaultPricingConfig()

	req := Analyze(cfg, Request{Items: []Item{
		{Category: "furniture"},
	}})
	assert.Equal(t, 2.0, req.EstimatedVolume)
}

func TestAnalyze_Deterministic(t *testing.T) {
	cfg := config.DefaultPricingConfig()
	in := Request{
		Items:             []Item{{Category: "appliances", Quantity: 2}},
		StorageType:       TypeSeasonal,
		ClimateControlled: true,
		InsuranceValue:    10_000,
	}

	first := Analyze(cfg, in)
	second := Analyze(cfg, in)
	assert.Equal(t, first, second)
}
