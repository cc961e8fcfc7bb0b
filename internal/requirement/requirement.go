// Package requirement normalizes raw storage requests into structured
// storage requirements the allocator and rate calculator consume.
package requirement

import (
	"math"

	"github.com/nordflytt/lagring/internal/config"
)

// StorageType identifies which rate table applies to a rental.
type StorageType string

const (
	TypeShortTerm       StorageType = "short_term"
	TypeLongTerm        StorageType = "long_term"
	TypeSeasonal        StorageType = "seasonal"
	TypeDocumentStorage StorageType = "document_storage"
)

// Request is the raw storage request as received from the API layer.
// Either Volume or Items drives the volume estimate; when both are
// empty the configured default applies.
type Request struct {
	Volume            float64     `json:"volume"`
	Items             []Item      `json:"items"`
	StorageType       StorageType `json:"storage_type"`
	ClimateControlled bool        `json:"climate_controlled"`
	HighSecurity      bool        `json:"high_security"`
	CustomerAccess    bool        `json:"customer_access"`
	InsuranceValue    int64       `json:"insurance_value"`
}

// Item describes one thing to be stored.
type Item struct {
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Value       int64       `json:"value"`
	Fragile     bool        `json:"fragile"`
	Hazardous   bool        `json:"hazardous"`
}

// Dimensions are centimeters.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StorageRequirement is the normalized output. EstimatedVolume is
// always at least 1 m³.
type StorageRequirement struct {
	EstimatedVolume   float64
	StorageType       StorageType
	ClimateControlled bool
	HighSecurity      bool
	CustomerAccess    bool
	InsuranceValue    int64
}

// Analyze normalizes a request against the given pricing tables. It is
// a pure function: identical input always yields an identical
// requirement.
func Analyze(cfg config.PricingConfig, req Request) StorageRequirement {
	storageType := req.StorageType
	if storageType == "" {
		storageType = TypeShortTerm
	}

	return StorageRequirement{
		EstimatedVolume:   estimateVolume(cfg, req),
		StorageType:       storageType,
		ClimateControlled: req.ClimateControlled,
		HighSecurity:      req.HighSecurity,
		CustomerAccess:    req.CustomerAccess,
		InsuranceValue:    req.InsuranceValue,
	}
}

func estimateVolume(cfg config.PricingConfig, req Request) float64 {
	if req.Volume > 0 {
		return math.Max(1, req.Volume)
	}
	if len(req.Items) == 0 {
		return cfg.DefaultVolume
	}

	var total float64
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		total += itemVolume(cfg, item) * float64(quantity)
	}

	return math.Max(1, math.Ceil(total))
}

func itemVolume(cfg config.PricingConfig, item Item) float64 {
	if d := item.Dimensions; d != nil && d.Length > 0 && d.Width > 0 && d.Height > 0 {
		// cm³ to m³
		return d.Length * d.Width * d.Height / 1_000_000
	}
	if v, ok := cfg.CategoryVolumes[item.Category]; ok {
		return v
	}
	return cfg.CategoryVolumes["general"]
}
