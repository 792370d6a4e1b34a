package identity

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func provideLocal(genID *snowflake.Node) Provider {
	return NewLocalDirectory(genID)
}

// Module wires the identity provider. Deployments with a real identity
// system replace this provider at the composition root.
var Module = fx.Module("identity",
	fx.Provide(provideLocal),
)
