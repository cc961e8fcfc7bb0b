// Package domain contains persistence models for storage billing.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus represents billing record payment states.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// ReminderTier is the escalation step selected by days overdue.
type ReminderTier string

const (
	ReminderFriendly    ReminderTier = "friendly"
	ReminderFirm        ReminderTier = "firm"
	ReminderFinalNotice ReminderTier = "final_notice"
	TierCollections     ReminderTier = "collections"
)

// BillingRecord is one monthly invoicing period for a storage unit.
// TotalAmount includes VAT at creation; late fees are added on top
// afterwards, never recomputed from scratch.
type BillingRecord struct {
	ID                 snowflake.ID  `gorm:"primaryKey" json:"id"`
	StorageID          snowflake.ID  `gorm:"not null;index" json:"storage_id"`
	BillingPeriod      string        `gorm:"type:text;not null;default:'monthly'" json:"billing_period"`
	PeriodStart        time.Time     `gorm:"not null" json:"period_start"`
	PeriodEnd          time.Time     `gorm:"not null" json:"period_end"`
	BaseStorageFee     int64         `gorm:"not null" json:"base_storage_fee"`
	VolumeCharges      int64         `gorm:"not null;default:0" json:"volume_charges"`
	AdditionalServices int64         `gorm:"not null;default:0" json:"additional_services"`
	AccessFees         int64         `gorm:"not null;default:0" json:"access_fees"`
	LateFees           int64         `gorm:"not null;default:0" json:"late_fees"`
	DiscountAmount     int64         `gorm:"not null;default:0" json:"discount_amount"`
	TaxAmount          int64         `gorm:"not null" json:"tax_amount"`
	TotalAmount        int64         `gorm:"not null" json:"total_amount"`
	InvoiceNumber      string        `gorm:"type:text;not null;uniqueIndex" json:"invoice_number"`
	InvoiceDate        time.Time     `gorm:"not null" json:"invoice_date"`
	DueDate            time.Time     `gorm:"not null;index" json:"due_date"`
	PaymentStatus      PaymentStatus `gorm:"type:text;not null;default:'pending';index" json:"payment_status"`
	PaymentDate        *time.Time    `json:"payment_date,omitempty"`
	PaymentReference   string        `gorm:"type:text" json:"payment_reference"`
	ReminderCount      int           `gorm:"not null;default:0" json:"reminder_count"`
	LastReminderDate   *time.Time    `json:"last_reminder_date,omitempty"`
	AutoGenerated      bool          `gorm:"not null;default:true" json:"auto_generated"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (BillingRecord) TableName() string { return "storage_billing" }

// DaysOverdue counts calendar days past the due date, rounded up.
func (b BillingRecord) DaysOverdue(now time.Time) int {
	diff := now.Sub(b.DueDate)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// TierFor selects the escalation tier for the given days overdue.
func TierFor(daysOverdue int) ReminderTier {
	switch {
	case daysOverdue <= 7:
		return ReminderFriendly
	case daysOverdue <= 14:
		return ReminderFirm
	case daysOverdue <= 30:
		return ReminderFinalNotice
	default:
		return TierCollections
	}
}

// InvoiceSequence backs per-year invoice numbering.
type InvoiceSequence struct {
	Year       int   `gorm:"primaryKey" json:"year"`
	NextNumber int64 `gorm:"not null" json:"next_number"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }

// RevenueSummary aggregates monthly revenue across active rentals.
type RevenueSummary struct {
	MonthlyRevenue     int64   `json:"monthly_revenue"`
	AnnualProjection   int64   `json:"annual_projection"`
	AveragePerCustomer float64 `json:"average_per_customer"`
	TotalCustomers     int     `json:"total_customers"`
}

var ErrNotFound = errors.New("billing_record_not_found")
