package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tenantforge/tenantforge/internal/cache"
	"github.com/tenantforge/tenantforge/internal/cleanup"
	"github.com/tenantforge/tenantforge/internal/config"
	"github.com/tenantforge/tenantforge/internal/events"
	"github.com/tenantforge/tenantforge/internal/identity"
	"github.com/tenantforge/tenantforge/internal/lock"
	"github.com/tenantforge/tenantforge/internal/logger"
	"github.com/tenantforge/tenantforge/internal/migration"
	"github.com/tenantforge/tenantforge/internal/roles"
	"github.com/tenantforge/tenantforge/internal/server"
	"github.com/tenantforge/tenantforge/internal/tenant"
	"github.com/tenantforge/tenantforge/internal/user"
	"github.com/tenantforge/tenantforge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Provisioning infrastructure
		lock.Module,
		roles.Module,
		cache.Module,
		cleanup.Module,
		events.Module,
		identity.Module,

		// Functional domains
		tenant.Module,
		user.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
