package cache

import "go.uber.org/fx"

// Module wires the in-memory hierarchy mirror.
var Module = fx.Module("cache",
	fx.Provide(NewHierarchy),
)
