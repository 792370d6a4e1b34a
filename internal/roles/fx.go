package roles

import "go.uber.org/fx"

// Module wires the casbin enforcer and the role provisioner.
var Module = fx.Module("roles",
	fx.Provide(NewEnforcer),
	fx.Provide(NewProvisioner),
)
