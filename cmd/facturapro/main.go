package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/facturapro/facturapro/internal/clock"
	"github.com/facturapro/facturapro/internal/logger"
	"github.com/facturapro/facturapro/internal/migration"
	"github.com/facturapro/facturapro/internal/server"
	"github.com/facturapro/facturapro/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(RegisterSnowflake),
		logger.Module,
		clock.Module,
		db.Module,
		server.Module,
		migration.Module,
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
