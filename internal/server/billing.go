package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingservice "github.com/nordflytt/lagring/internal/billing/service"
)

func (s *Server) GetRevenue(c *gin.Context) {
	resp, err := s.billingSvc.Revenue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type sweepResponse struct {
	RenewCycles     billingservice.SweepStats `json:"renew_cycles"`
	ChargeDue       billingservice.SweepStats `json:"charge_due"`
	EscalateOverdue billingservice.SweepStats `json:"escalate_overdue"`
}

// RunSweep triggers the full billing sweep on demand. The scheduler
// runs the same jobs; this endpoint exists for operations tooling.
func (s *Server) RunSweep(c *gin.Context) {
	ctx := c.Request.Context()
	var resp sweepResponse
	var err error

	if resp.RenewCycles, err = s.billingSvc.RenewExpired(ctx, 0); err != nil {
		AbortWithError(c, err)
		return
	}
	if resp.ChargeDue, err = s.billingSvc.ChargeDue(ctx, 0); err != nil {
		AbortWithError(c, err)
		return
	}
	if resp.EscalateOverdue, err = s.billingSvc.EscalateOverdue(ctx, 0); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
