// Package commsutil holds the router's NATS plumbing: connection setup, the
// JSON codec and subject names.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// Connection defaults. The router reconnects forever; requests in flight during
// an outage time out on the caller side.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReconnectWait  = 2 * time.Second
)

// Connect dials url with the router's connection defaults. Options in extra
// override the defaults.
func Connect(url, name string, extra ...comms.Option) (*comms.Conn, error) {
	slog.Info(fmt.Sprintf("%s - dialing %s as %q", logPrefix, url, name))

	opts := append(defaultOptions(name), extra...)
	nc, err := comms.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s - dial %s: %w", logPrefix, url, err)
	}

	slog.Info(fmt.Sprintf("%s - connected to %s (server %s)", logPrefix, nc.ConnectedUrl(), nc.ConnectedServerId()))
	return nc, nil
}

func defaultOptions(name string) []comms.Option {
	return []comms.Option{
		comms.Name(name),
		comms.Timeout(DefaultConnectTimeout),
		comms.ReconnectWait(DefaultReconnectWait),
		comms.MaxReconnects(-1),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			if err != nil {
				slog.Warn(fmt.Sprintf("%s - disconnected: %v", logPrefix, err))
			}
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(*comms.Conn) {
			slog.Info(fmt.Sprintf("%s - connection closed", logPrefix))
		}),
		// Slow consumers on the router subject surface here; the dropped
		// requests time out for their callers.
		comms.ErrorHandler(func(_ *comms.Conn, sub *comms.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			slog.Error(fmt.Sprintf("%s - async error on %q: %v", logPrefix, subject, err))
		}),
	}
}
