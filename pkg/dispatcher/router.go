// Package dispatcher routes one API call through version resolution,
// authentication, method lookup, argument validation and handler invocation.
package dispatcher

import (
	"context"
	"fmt"

	"github.com/morezero/json-api-router/pkg/arguments"
	"github.com/morezero/json-api-router/pkg/auth"
	"github.com/morezero/json-api-router/pkg/events"
	"github.com/morezero/json-api-router/pkg/payload"
	"github.com/morezero/json-api-router/pkg/provider"
	"github.com/morezero/json-api-router/pkg/result"
)

const routerLogPrefix = "dispatcher:router"

// CredentialValidator decides whether a caller may execute the payload's
// procedure, binding id on success and recording failures in res.
type CredentialValidator interface {
	Validate(ctx context.Context, p payload.Payload, res *result.Result, id *auth.Identity) bool
}

// ArgumentValidator checks arguments against a procedure's rules, recording
// failures in res.
type ArgumentValidator interface {
	Validate(args map[string]any, rules arguments.Rules, res *result.Result) bool
}

// Router holds the process-wide, read-only collaborators shared by every
// Dispatcher.
type Router struct {
	registry    *provider.Registry
	credentials CredentialValidator
	arguments   ArgumentValidator
	store       auth.IdentityStore
	publisher   events.EventPublisher
	format      result.Format
}

// NewRouterParams holds parameters for NewRouter.
type NewRouterParams struct {
	Registry    *provider.Registry
	Credentials CredentialValidator
	// Arguments defaults to arguments.NewValidator().
	Arguments ArgumentValidator
	// Store ends the sessions opened during authentication.
	Store auth.IdentityStore
	// Publisher defaults to events.NoOpPublisher.
	Publisher events.EventPublisher
	// Format is the initial output format of new dispatchers.
	Format result.Format
}

// NewRouter creates a Router and freezes the registry.
func NewRouter(params NewRouterParams) (*Router, error) {
	if params.Registry == nil {
		return nil, fmt.Errorf("%s - registry is required", routerLogPrefix)
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("%s - credential validator is required", routerLogPrefix)
	}
	if params.Store == nil {
		return nil, fmt.Errorf("%s - identity store is required", routerLogPrefix)
	}
	if !params.Format.Valid() {
		return nil, fmt.Errorf("%s - %w: %d", routerLogPrefix, result.ErrUnknownFormat, int(params.Format))
	}

	r := &Router{
		registry:    params.Registry,
		credentials: params.Credentials,
		arguments:   params.Arguments,
		store:       params.Store,
		publisher:   params.Publisher,
		format:      params.Format,
	}
	if r.arguments == nil {
		r.arguments = arguments.NewValidator()
	}
	if r.publisher == nil {
		r.publisher = &events.NoOpPublisher{}
	}
	params.Registry.Freeze()
	return r, nil
}

// Registry returns the handler-set registry.
func (r *Router) Registry() *provider.Registry { return r.registry }

// NewDispatcher creates an independent per-call Dispatcher.
func (r *Router) NewDispatcher() *Dispatcher {
	return &Dispatcher{router: r, format: r.format}
}
