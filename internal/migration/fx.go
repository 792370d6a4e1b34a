package migration

import (
	"github.com/tenantforge/tenantforge/internal/cleanup"
	"github.com/tenantforge/tenantforge/internal/config"
	tenantdomain "github.com/tenantforge/tenantforge/internal/tenant/domain"
	userdomain "github.com/tenantforge/tenantforge/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}
		// Non-postgres (local sqlite) falls back to schema sync.
		return conn.AutoMigrate(
			&tenantdomain.Customer{},
			&tenantdomain.Organization{},
			&tenantdomain.Institution{},
			&tenantdomain.OrganizationUnit{},
			&userdomain.User{},
			&cleanup.Task{},
		)
	}),
)
