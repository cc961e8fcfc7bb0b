package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nordflytt/lagring/internal/billing"
	billingservice "github.com/nordflytt/lagring/internal/billing/service"
	"github.com/nordflytt/lagring/internal/config"
	"github.com/nordflytt/lagring/internal/facility"
	facilitydomain "github.com/nordflytt/lagring/internal/facility/domain"
	"github.com/nordflytt/lagring/internal/joblock"
	"github.com/nordflytt/lagring/internal/observability"
	obsmiddleware "github.com/nordflytt/lagring/internal/observability/logger"
	obsmetrics "github.com/nordflytt/lagring/internal/observability/metrics"
	obstracing "github.com/nordflytt/lagring/internal/observability/tracing"
	"github.com/nordflytt/lagring/internal/payment"
	"github.com/nordflytt/lagring/internal/providers"
	"github.com/nordflytt/lagring/internal/providers/pdf"
	"github.com/nordflytt/lagring/internal/rental"
	rentalservice "github.com/nordflytt/lagring/internal/rental/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	providers.Module,
	payment.Module,
	joblock.Module,
	facility.Module,
	billing.Module,
	rental.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	genID        *snowflake.Node
	rentalSvc    *rentalservice.Service
	billingSvc   *billingservice.Service
	facilityRepo facilitydomain.Repository
	pdf          pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	RentalSvc    *rentalservice.Service
	BillingSvc   *billingservice.Service
	FacilityRepo facilitydomain.Repository
	PDF          pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		rentalSvc:    p.RentalSvc,
		billingSvc:   p.BillingSvc,
		facilityRepo: p.FacilityRepo,
		pdf:          p.PDF,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Rentals --------
	v1.POST("/rentals", s.CreateRental)
	v1.POST("/rentals/quote", s.QuoteRental)
	v1.GET("/rentals", s.ListRentals)
	v1.GET("/rentals/:id", s.GetRental)
	v1.GET("/rentals/:id/report", s.GetStorageReport)
	v1.GET("/rentals/:id/billing", s.ListRentalBilling)
	v1.GET("/rentals/:id/invoice.pdf", s.GetInvoicePDF)
	v1.POST("/rentals/:id/access", s.RecordAccess)

	// -------- Facilities --------
	v1.GET("/facilities", s.ListFacilities)

	// -------- Billing --------
	v1.GET("/billing/revenue", s.GetRevenue)
	v1.POST("/billing/sweep", s.RunSweep)
}
