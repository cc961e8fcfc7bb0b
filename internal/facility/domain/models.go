// Package domain contains persistence models for storage facilities.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// SecurityLevel grades a facility's physical security.
type SecurityLevel string

const (
	SecurityStandard SecurityLevel = "standard"
	SecurityHigh     SecurityLevel = "high"
	SecurityMaximum  SecurityLevel = "maximum"
)

// FacilityStatus represents facility lifecycle states.
type FacilityStatus string

const (
	FacilityStatusActive   FacilityStatus = "active"
	FacilityStatusInactive FacilityStatus = "inactive"
)

// Facility is a physical warehouse with finite volumetric capacity.
type Facility struct {
	ID                snowflake.ID   `gorm:"primaryKey" json:"id"`
	Name              string         `gorm:"type:text;not null" json:"name"`
	Code              string         `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Address           string         `gorm:"type:text" json:"address"`
	TotalCapacity     float64        `gorm:"not null" json:"total_capacity"`
	AvailableCapacity float64        `gorm:"not null" json:"available_capacity"`
	ClimateControlled bool           `gorm:"not null;default:false" json:"climate_controlled"`
	SecurityLevel     SecurityLevel  `gorm:"type:text;not null;default:'standard'" json:"security_level"`
	Status            FacilityStatus `gorm:"type:text;not null;default:'active';index" json:"status"`
	AccessHours       string         `gorm:"type:text" json:"access_hours"`
	ContactInfo       string         `gorm:"type:text" json:"contact_info"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Facility) TableName() string { return "storage_facilities" }

// HighSecurity reports whether the facility satisfies a high-security
// requirement.
func (f Facility) HighSecurity() bool {
	return f.SecurityLevel == SecurityHigh || f.SecurityLevel == SecurityMaximum
}

// Allocation is the result of reserving space in a facility.
type Allocation struct {
	FacilityID     snowflake.ID `json:"facility_id"`
	AvailableSpace float64      `json:"available_space"`
	Section        string       `json:"section"`
}

var (
	ErrNoSuitableFacility = errors.New("no_suitable_facility")
	ErrNotFound           = errors.New("facility_not_found")
	ErrInsufficientSpace  = errors.New("insufficient_facility_space")
)
