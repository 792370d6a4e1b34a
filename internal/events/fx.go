package events

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/tenantforge/tenantforge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewConn connects to NATS when a URL is configured; otherwise event
// publishing stays disabled.
func NewConn(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*nats.Conn, error) {
	if cfg.NATSUrl == "" {
		log.Info("mutation events disabled: no NATS url configured")
		return nil, nil
	}
	conn, err := nats.Connect(cfg.NATSUrl, nats.Name(cfg.AppName))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

// Module wires the optional mutation-event publisher.
var Module = fx.Module("events",
	fx.Provide(NewConn),
	fx.Provide(NewNATSPublisher),
)
