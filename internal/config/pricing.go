package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig holds every rate-policy table the billing engine reads.
// Amounts are SEK; volumes are cubic meters.
type PricingConfig struct {
	// StrictTypes rejects unknown storage types instead of silently
	// falling back to the short_term table.
	StrictTypes bool `mapstructure:"strictTypes"`

	RateTables map[string]RateTable `mapstructure:"rateTables"`

	// Surcharges are added per m³ per month when the matching
	// requirement flag is set.
	ClimateSurcharge  float64 `mapstructure:"climateSurcharge"`
	SecuritySurcharge float64 `mapstructure:"securitySurcharge"`
	AccessSurcharge   float64 `mapstructure:"accessSurcharge"`

	// Volume discounts, largest applicable only.
	Discounts []VolumeDiscount `mapstructure:"discounts"`

	// InsuranceAnnualRate is the yearly premium as a fraction of the
	// insured value, billed monthly.
	InsuranceAnnualRate float64 `mapstructure:"insuranceAnnualRate"`

	VATRate     float64 `mapstructure:"vatRate"`
	LateFeeRate float64 `mapstructure:"lateFeeRate"`
	DueDays     int     `mapstructure:"dueDays"`

	// CategoryVolumes estimates item volume when no dimensions are
	// given; unknown categories use the "general" entry.
	CategoryVolumes map[string]float64 `mapstructure:"categoryVolumes"`
	DefaultVolume   float64            `mapstructure:"defaultVolume"`
}

type RateTable struct {
	RatePerCubicMeter float64 `mapstructure:"ratePerCubicMeter"`
	MinimumPeriod     int     `mapstructure:"minimumPeriod"`
	SetupFee          int64   `mapstructure:"setupFee"`
}

type VolumeDiscount struct {
	MinVolume  float64 `mapstructure:"minVolume"`
	Multiplier float64 `mapstructure:"multiplier"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		StrictTypes: false,
		RateTables: map[string]RateTable{
			"short_term":       {RatePerCubicMeter: 150, MinimumPeriod: 1, SetupFee: 500},
			"long_term":        {RatePerCubicMeter: 120, MinimumPeriod: 6, SetupFee: 300},
			"seasonal":         {RatePerCubicMeter: 100, MinimumPeriod: 3, SetupFee: 200},
			"document_storage": {RatePerCubicMeter: 80, MinimumPeriod: 12, SetupFee: 150},
		},
		ClimateSurcharge:  50,
		SecuritySurcharge: 30,
		AccessSurcharge:   25,
		Discounts: []VolumeDiscount{
			{MinVolume: 50, Multiplier: 0.85},
			{MinVolume: 20, Multiplier: 0.90},
		},
		InsuranceAnnualRate: 0.02,
		VATRate:             0.25,
		LateFeeRate:         0.10,
		DueDays:             30,
		CategoryVolumes: map[string]float64{
			"furniture":  2,
			"appliances": 1.5,
			"boxes":      0.2,
			"documents":  0.1,
			"artwork":    0.5,
			"general":    0.5,
		},
		DefaultVolume: 5,
	}
}

// PricingConfigHolder serves the current pricing tables and swaps them
// atomically when pricing.yml changes on disk.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/lagring/config") // Volume-mounted config
	v.AddConfigPath("/etc/lagring")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("LAGRING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultPricingConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: run on the built-in tables.
		holder := &PricingConfigHolder{}
		holder.current.Store(cfg)
		return holder, nil
	}

	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultPricingConfig()
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPricingHolder wraps a fixed config, for tests.
func NewStaticPricingHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func validatePricingConfig(cfg PricingConfig) error {
	if len(cfg.RateTables) == 0 {
		return errors.New("pricing.rateTables cannot be empty")
	}
	if _, ok := cfg.RateTables["short_term"]; !ok {
		return errors.New("pricing.rateTables must define short_term")
	}
	if cfg.VATRate < 0 || cfg.VATRate > 1 {
		return errors.New("pricing.vatRate must be between 0 and 1")
	}
	if cfg.DueDays <= 0 {
		return errors.New("pricing.dueDays must be positive")
	}
	if _, ok := cfg.CategoryVolumes["general"]; !ok {
		return errors.New("pricing.categoryVolumes must define general")
	}
	for _, d := range cfg.Discounts {
		if d.Multiplier <= 0 || d.Multiplier > 1 {
			return errors.New("pricing.discounts multiplier must be in (0, 1]")
		}
	}
	return nil
}
