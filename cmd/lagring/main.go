package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/nordflytt/lagring/internal/clock"
	"github.com/nordflytt/lagring/internal/migration"
	"github.com/nordflytt/lagring/internal/observability"
	"github.com/nordflytt/lagring/internal/server"
	"github.com/nordflytt/lagring/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(options()...)
	app.Run()
}

// options assembles the API binary's dependency graph. server.Module
// carries config.Module, so it must not be supplied again here.
func options() []fx.Option {
	return []fx.Option{
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	}
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
