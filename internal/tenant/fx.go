package tenant

import (
	"github.com/tenantforge/tenantforge/internal/tenant/repository"
	"github.com/tenantforge/tenantforge/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
