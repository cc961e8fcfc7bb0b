// Package domain contains persistence models for customer storage
// rentals and their inventory.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// StorageStatus represents rental lifecycle states.
type StorageStatus string

const (
	StorageStatusActive     StorageStatus = "active"
	StorageStatusOverdue    StorageStatus = "overdue"
	StorageStatusTerminated StorageStatus = "terminated"
)

// RentalPaymentStatus tracks the customer's standing on the rental.
type RentalPaymentStatus string

const (
	PaymentStatusCurrent    RentalPaymentStatus = "current"
	PaymentStatusDelinquent RentalPaymentStatus = "delinquent"
)

// AccessLevel controls who may enter the unit.
type AccessLevel string

const (
	AccessNordflyttOnly AccessLevel = "nordflytt_only"
	AccessCustomer      AccessLevel = "customer"
	AccessShared        AccessLevel = "shared"
)

// CustomerStorage is one rented storage unit.
type CustomerStorage struct {
	ID             snowflake.ID        `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID        `gorm:"not null;index" json:"customer_id"`
	StorageUnitID  string              `gorm:"type:text;not null;uniqueIndex" json:"storage_unit_id"`
	FacilityID     snowflake.ID        `gorm:"not null;index" json:"facility_id"`
	Section        string              `gorm:"type:text" json:"section"`
	ContactEmail   string              `gorm:"type:text" json:"contact_email"`
	StartDate      time.Time           `gorm:"not null" json:"storage_start_date"`
	PlannedEndDate *time.Time          `json:"planned_end_date,omitempty"`
	MonthlyRate    int64               `gorm:"not null" json:"monthly_rate"`
	TotalVolume    float64             `gorm:"not null" json:"total_volume"`
	StorageType    string              `gorm:"type:text;not null" json:"storage_type"`
	AccessLevel    AccessLevel         `gorm:"type:text;not null;default:'nordflytt_only'" json:"access_level"`
	InsuranceValue int64               `gorm:"not null;default:0" json:"insurance_value"`
	AccessCode     string              `gorm:"type:text;not null" json:"access_code"`
	Status         StorageStatus       `gorm:"type:text;not null;default:'active';index" json:"status"`
	PaymentStatus  RentalPaymentStatus `gorm:"type:text;not null;default:'current'" json:"payment_status"`
	CreatedAt      time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CustomerStorage) TableName() string { return "customer_storage" }

// InventoryItem is one stored thing, belonging to exactly one rental.
type InventoryItem struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	StorageID         snowflake.ID      `gorm:"not null;index" json:"storage_id"`
	ItemCategory      string            `gorm:"type:text;not null;default:'general'" json:"item_category"`
	ItemDescription   string            `gorm:"type:text" json:"item_description"`
	EstimatedValue    int64             `gorm:"not null;default:0" json:"estimated_value"`
	ConditionOnEntry  string            `gorm:"type:text;default:'good'" json:"condition_on_entry"`
	ConditionNotes    string            `gorm:"type:text" json:"condition_notes"`
	Fragile           bool              `gorm:"not null;default:false" json:"fragile"`
	Hazardous         bool              `gorm:"not null;default:false" json:"hazardous"`
	Dimensions        datatypes.JSONMap `gorm:"type:jsonb" json:"dimensions"`
	Weight            float64           `gorm:"not null;default:0" json:"weight"`
	PhotoURLs         datatypes.JSON    `gorm:"type:jsonb" json:"photo_urls"`
	Barcode           string            `gorm:"type:text;not null" json:"barcode"`
	LocationInStorage string            `gorm:"type:text" json:"location_in_storage"`
	InsuranceCovered  bool              `gorm:"not null;default:true" json:"insurance_covered"`
	SpecialHandling   datatypes.JSONMap `gorm:"type:jsonb" json:"special_handling"`
	LastInspectionAt  *time.Time        `json:"last_inspection_at,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InventoryItem) TableName() string { return "customer_inventory_items" }

// AccessEntry logs one visit to a storage unit.
type AccessEntry struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	StorageID  snowflake.ID `gorm:"not null;index" json:"storage_id"`
	AccessDate time.Time    `gorm:"not null;index" json:"access_date"`
	Purpose    string       `gorm:"type:text" json:"purpose"`
	Visitor    string       `gorm:"type:text" json:"visitor"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AccessEntry) TableName() string { return "storage_access_log" }

var (
	ErrNotFound       = errors.New("storage_not_found")
	ErrInvalidRequest = errors.New("invalid_storage_request")
)
