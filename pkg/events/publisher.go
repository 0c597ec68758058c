package events

import "context"

// EventPublisher delivers the RouteEvent the dispatcher emits once a call
// reaches FINISHED. A publish error is logged by the caller and never changes
// the routed response.
type EventPublisher interface {
	PublishRoute(ctx context.Context, event *RouteEvent) error
}

// NoOpPublisher drops route events. The router uses it when no COMMS
// connection is configured.
type NoOpPublisher struct{}

// PublishRoute discards the event.
func (p *NoOpPublisher) PublishRoute(_ context.Context, _ *RouteEvent) error {
	return nil
}

// CallbackPublisher hands each route event to a function, so callers can
// observe which procedure ran, for which account, and how it finished
// without a broker. A nil callback drops events.
type CallbackPublisher struct {
	callback func(ctx context.Context, event *RouteEvent) error
}

// NewCallbackPublisher creates a CallbackPublisher around cb.
func NewCallbackPublisher(cb func(ctx context.Context, event *RouteEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishRoute passes event to the callback.
func (p *CallbackPublisher) PublishRoute(ctx context.Context, event *RouteEvent) error {
	if p.callback == nil || event == nil {
		return nil
	}
	return p.callback(ctx, event)
}
