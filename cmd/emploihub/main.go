package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/emploihub/emploihub/internal/audit"
	"github.com/emploihub/emploihub/internal/balance"
	"github.com/emploihub/emploihub/internal/cart"
	"github.com/emploihub/emploihub/internal/catalog"
	"github.com/emploihub/emploihub/internal/clock"
	"github.com/emploihub/emploihub/internal/config"
	"github.com/emploihub/emploihub/internal/migration"
	"github.com/emploihub/emploihub/internal/observability"
	"github.com/emploihub/emploihub/internal/pack"
	"github.com/emploihub/emploihub/internal/payment"
	"github.com/emploihub/emploihub/internal/purchase"
	"github.com/emploihub/emploihub/internal/quota"
	"github.com/emploihub/emploihub/internal/ratelimit"
	"github.com/emploihub/emploihub/internal/scheduler"
	"github.com/emploihub/emploihub/internal/server"
	"github.com/emploihub/emploihub/internal/subscription"
	"github.com/emploihub/emploihub/internal/usage"
	"github.com/emploihub/emploihub/pkg/db"
	"github.com/emploihub/emploihub/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		observability.Module,
		ratelimit.Module,
		migration.Module,

		balance.Module,
		catalog.Module,
		subscription.Module,
		pack.Module,
		usage.Module,
		quota.Module,
		purchase.Module,
		payment.Module,
		cart.Module,
		audit.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
