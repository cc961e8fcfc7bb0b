package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListFacilities(c *gin.Context) {
	resp, err := s.facilityRepo.ListActive(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
