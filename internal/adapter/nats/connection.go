package nats

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/nats-io/nats.go"
)

// NewConnection dials the event broker. Lost connections are retried
// cfg.MaxReconnects times; a negative value retries forever.
func NewConnection(cfg config.NATSConfig, log logger.Logger) (*nats.Conn, error) {
	name := cfg.ClientName
	if name == "" {
		name = "storefront"
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("event broker disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("event broker reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("event broker connection closed")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			log.With("subject", subject).Errorf("event broker async error: %v", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to event broker at %s: %w", cfg.URL, err)
	}
	return nc, nil
}
