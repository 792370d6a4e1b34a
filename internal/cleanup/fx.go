package cleanup

import "go.uber.org/fx"

// Module wires the cleanup task outbox.
var Module = fx.Module("cleanup",
	fx.Provide(NewOutboxQueue),
)
