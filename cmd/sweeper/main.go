package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/nordflytt/lagring/internal/billing"
	"github.com/nordflytt/lagring/internal/clock"
	"github.com/nordflytt/lagring/internal/config"
	"github.com/nordflytt/lagring/internal/facility"
	"github.com/nordflytt/lagring/internal/joblock"
	"github.com/nordflytt/lagring/internal/migration"
	"github.com/nordflytt/lagring/internal/observability"
	"github.com/nordflytt/lagring/internal/payment"
	"github.com/nordflytt/lagring/internal/providers"
	"github.com/nordflytt/lagring/internal/rental"
	"github.com/nordflytt/lagring/internal/scheduler"
	"github.com/nordflytt/lagring/pkg/db"
	"go.uber.org/fx"
)

// The sweeper runs the billing jobs without serving HTTP. Deployments
// that want a single process can skip it; the API binary exposes the
// same sweeps through POST /v1/billing/sweep.
func main() {
	app := fx.New(options()...)
	app.Run()
}

func options() []fx.Option {
	return []fx.Option{
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		providers.Module,
		payment.Module,
		joblock.Module,
		facility.Module,
		billing.Module,
		rental.Module,

		scheduler.Module,
		fx.Invoke(scheduler.Start),
	}
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
