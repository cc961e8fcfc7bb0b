package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/nordflytt/lagring/internal/providers/pdf"
	rentalservice "github.com/nordflytt/lagring/internal/rental/service"
)

func parseIDParam(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError("id", "invalid_id", "invalid id")
	}
	return id, nil
}

func (s *Server) CreateRental(c *gin.Context) {
	var req rentalservice.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rentalSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) QuoteRental(c *gin.Context) {
	var req rentalservice.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rentalSvc.Quote(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRentals(c *gin.Context) {
	var customerID int64
	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer_id"))
			return
		}
		customerID = parsed
	}

	resp, err := s.rentalSvc.List(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRental(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.rentalSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetStorageReport(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.rentalSvc.Report(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRentalBilling(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.billingSvc.History(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordAccessRequest struct {
	Purpose string `json:"purpose"`
	Visitor string `json:"visitor"`
}

func (s *Server) RecordAccess(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req recordAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.rentalSvc.RecordAccess(c.Request.Context(), id, strings.TrimSpace(req.Purpose), strings.TrimSpace(req.Visitor)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// GetInvoicePDF renders the latest invoice of the rental as a PDF.
func (s *Server) GetInvoicePDF(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rental, err := s.rentalSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	records, err := s.billingSvc.History(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if len(records) == 0 {
		AbortWithError(c, ErrNotFound)
		return
	}
	latest := records[0]

	facility, err := s.facilityRepo.FindByID(c.Request.Context(), s.db, rental.FacilityID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sek := func(amount int64) string { return fmt.Sprintf("%d SEK", amount) }

	lines := []pdf.InvoiceLine{
		{Description: "Grundavgift förvaring", Amount: sek(latest.BaseStorageFee)},
	}
	if latest.VolumeCharges != 0 {
		lines = append(lines, pdf.InvoiceLine{Description: "Tilläggstjänster", Amount: sek(latest.VolumeCharges)})
	}
	if latest.AdditionalServices != 0 {
		lines = append(lines, pdf.InvoiceLine{Description: "Försäkring", Amount: sek(latest.AdditionalServices)})
	}
	if latest.DiscountAmount != 0 {
		lines = append(lines, pdf.InvoiceLine{Description: "Volymrabatt", Amount: sek(-latest.DiscountAmount)})
	}

	data := pdf.InvoiceData{
		InvoiceNumber: latest.InvoiceNumber,
		IssueDate:     latest.InvoiceDate.Format("2006-01-02"),
		DueDate:       latest.DueDate.Format("2006-01-02"),
		ServicePeriod: latest.PeriodStart.Format("2006-01-02") + " – " + latest.PeriodEnd.Format("2006-01-02"),
		CustomerRef:   rental.CustomerID.String(),
		StorageUnit:   rental.StorageUnitID,
		FacilityName:  facility.Name,
		Lines:         lines,
		Subtotal:      sek(latest.TotalAmount - latest.TaxAmount - latest.LateFees),
		VAT:           sek(latest.TaxAmount),
		Total:         sek(latest.TotalAmount),
		AmountDue:     sek(latest.TotalAmount),
	}
	if latest.LateFees != 0 {
		data.LateFees = sek(latest.LateFees)
	}

	doc, err := s.pdf.GenerateInvoice(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+latest.InvoiceNumber+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, doc)
}
