package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scanprice/internal/blob/backend"
	"github.com/smallbiznis/scanprice/internal/clock"
	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/events"
	"github.com/smallbiznis/scanprice/internal/metricspush"
	"github.com/smallbiznis/scanprice/internal/observability"
	"github.com/smallbiznis/scanprice/internal/seed"
	"github.com/smallbiznis/scanprice/internal/server"
	"go.uber.org/fx"
)

func main() {
	// The blob backend decides which infrastructure modules get built, so
	// it is read before the graph is assembled.
	cfg := config.Load()

	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		events.Module,
		backend.Module(cfg.Blob.Backend),

		// HTTP and functional domains
		server.Module,
		metricspush.Module,
		seed.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
