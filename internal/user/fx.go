package user

import (
	"github.com/tenantforge/tenantforge/internal/user/repository"
	"github.com/tenantforge/tenantforge/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
