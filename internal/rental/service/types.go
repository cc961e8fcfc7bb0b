package service

import (
	"time"

	billingdomain "github.com/nordflytt/lagring/internal/billing/domain"
	facilitydomain "github.com/nordflytt/lagring/internal/facility/domain"
	"github.com/nordflytt/lagring/internal/rates"
	"github.com/nordflytt/lagring/internal/rental/domain"
	"github.com/nordflytt/lagring/internal/requirement"
)

// CreateRequest is the inbound payload for renting a storage unit.
type CreateRequest struct {
	CustomerID     int64              `json:"customer_id" binding:"required"`
	ContactEmail   string             `json:"contact_email"`
	StorageType    string             `json:"storage_type"`
	Volume         float64            `json:"volume"`
	Items          []requirement.Item `json:"items"`
	Climate        bool               `json:"climate_controlled"`
	HighSecurity   bool               `json:"high_security"`
	CustomerAccess bool               `json:"customer_access"`
	InsuranceValue int64              `json:"insurance_value"`
	PlannedEndDate *time.Time         `json:"planned_end_date,omitempty"`
}

// QuoteRequest prices a rental without committing anything.
type QuoteRequest struct {
	StorageType    string             `json:"storage_type"`
	Volume         float64            `json:"volume"`
	Items          []requirement.Item `json:"items"`
	Climate        bool               `json:"climate_controlled"`
	HighSecurity   bool               `json:"high_security"`
	CustomerAccess bool               `json:"customer_access"`
	InsuranceValue int64              `json:"insurance_value"`
}

// Quote is the pricing answer for a QuoteRequest.
type Quote struct {
	Requirement requirement.StorageRequirement `json:"requirement"`
	Pricing     rates.Pricing                  `json:"pricing"`
}

// Agreement summarizes the rental terms handed to the customer.
type Agreement struct {
	MonthlyRate   int64  `json:"monthly_rate"`
	SetupFee      int64  `json:"setup_fee"`
	MinimumPeriod int    `json:"minimum_period_months"`
	NoticePeriod  int    `json:"notice_period_days"`
	PaymentTerms  string `json:"payment_terms"`
	Insurance     string `json:"insurance"`
}

// AccessInstructions tells the customer how to reach their unit.
type AccessInstructions struct {
	FacilityName string `json:"facility_name"`
	Address      string `json:"address"`
	Section      string `json:"section"`
	AccessCode   string `json:"access_code"`
	AccessHours  string `json:"access_hours"`
	Contact      string `json:"contact"`
	AccessLevel  string `json:"access_level"`
}

// CreateResult is everything produced by a successful rental.
type CreateResult struct {
	Storage            *domain.CustomerStorage      `json:"storage"`
	Items              []domain.InventoryItem       `json:"items"`
	Allocation         facilitydomain.Allocation    `json:"allocation"`
	Pricing            rates.Pricing                `json:"pricing"`
	Invoice            *billingdomain.BillingRecord `json:"invoice"`
	Agreement          Agreement                    `json:"agreement"`
	AccessInstructions AccessInstructions           `json:"access_instructions"`
}

// InventorySummary aggregates the stored items for the report.
type InventorySummary struct {
	TotalItems     int            `json:"total_items"`
	TotalValue     int64          `json:"total_value"`
	ByCategory     map[string]int `json:"by_category"`
	FragileItems   int            `json:"fragile_items"`
	HazardousItems int            `json:"hazardous_items"`
	HighValueItems int            `json:"high_value_items"`
	LastInspection *time.Time     `json:"last_inspection,omitempty"`
}

// FinancialSummary aggregates billing for the report.
type FinancialSummary struct {
	MonthlyRate    int64      `json:"monthly_rate"`
	TotalInvoiced  int64      `json:"total_invoiced"`
	TotalPaid      int64      `json:"total_paid"`
	Outstanding    int64      `json:"outstanding"`
	LateFees       int64      `json:"late_fees"`
	PendingRecords int        `json:"pending_records"`
	NextPaymentDue *time.Time `json:"next_payment_due,omitempty"`
}

// AccessSummary aggregates visits for the report.
type AccessSummary struct {
	TotalVisits       int        `json:"total_visits"`
	LastVisit         *time.Time `json:"last_visit,omitempty"`
	Frequency         string     `json:"frequency"`
	MostCommonPurpose string     `json:"most_common_purpose"`
}

// Report is the full storage report for one rental.
type Report struct {
	Storage      *domain.CustomerStorage `json:"storage"`
	MonthsActive int                     `json:"months_active"`
	Inventory    InventorySummary        `json:"inventory"`
	Financial    FinancialSummary        `json:"financial"`
	Access       AccessSummary           `json:"access"`
	GeneratedAt  time.Time               `json:"generated_at"`
}
