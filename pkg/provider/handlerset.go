// Package provider holds the versioned handler-sets that implement API
// procedures.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/morezero/json-api-router/pkg/arguments"
	"github.com/morezero/json-api-router/pkg/auth"
	"github.com/morezero/json-api-router/pkg/payload"
	"github.com/morezero/json-api-router/pkg/result"
)

const logPrefix = "provider:handlerset"

var (
	// ErrDuplicateProcedure is returned when a name is registered twice.
	ErrDuplicateProcedure = errors.New("provider: duplicate procedure")
	// ErrFrozen is returned when registering into a frozen set or registry.
	ErrFrozen = errors.New("provider: registration closed")
	// ErrInvalidProcedure is returned for a procedure without a name or handler.
	ErrInvalidProcedure = errors.New("provider: invalid procedure")
	// ErrUnknownProcedure is returned by Invoke for an unregistered name.
	ErrUnknownProcedure = errors.New("provider: unknown procedure")
)

// Call is what a handler receives.
type Call struct {
	Payload payload.Payload
	// Arguments is the payload's arguments mapping, never nil.
	Arguments map[string]any
	Result    *result.Result
	// Caller is the authenticated account.
	Caller *auth.Account
}

// Handler implements one procedure. It sets the success value through
// call.Result and may add warnings or errors. A returned error is reported to
// the caller as an unexpected failure.
type Handler func(ctx context.Context, call Call) error

// Procedure describes one callable procedure.
type Procedure struct {
	Name        string
	Description string
	Args        arguments.Rules
	Handler     Handler
}

// HandlerSet is the set of procedures for one API version.
type HandlerSet struct {
	version int
	checker *arguments.Validator

	mu     sync.RWMutex
	procs  map[string]Procedure
	frozen bool
}

// NewHandlerSet creates an empty set for version.
func NewHandlerSet(version int) *HandlerSet {
	return &HandlerSet{
		version: version,
		checker: arguments.NewValidator(),
		procs:   make(map[string]Procedure),
	}
}

// Version returns the API version the set serves.
func (h *HandlerSet) Version() int { return h.version }

// Register adds a procedure. Names must be non-empty and unique, the handler
// non-nil and the argument rules valid validator tags.
func (h *HandlerSet) Register(p Procedure) error {
	name := strings.TrimSpace(p.Name)
	if name == "" || name != p.Name {
		return fmt.Errorf("%s - %w: name %q", logPrefix, ErrInvalidProcedure, p.Name)
	}
	if p.Handler == nil {
		return fmt.Errorf("%s - %w: %s has no handler", logPrefix, ErrInvalidProcedure, name)
	}
	if err := h.checker.Check(p.Args); err != nil {
		return fmt.Errorf("%s - %w: %s: %v", logPrefix, ErrInvalidProcedure, name, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.frozen {
		return fmt.Errorf("%s - %w: version %d", logPrefix, ErrFrozen, h.version)
	}
	if _, exists := h.procs[name]; exists {
		return fmt.Errorf("%s - %w: %s", logPrefix, ErrDuplicateProcedure, name)
	}
	h.procs[name] = p
	return nil
}

// MustRegister registers procedures and panics on error. It is meant for
// package-level handler-set construction.
func (h *HandlerSet) MustRegister(procs ...Procedure) *HandlerSet {
	for _, p := range procs {
		if err := h.Register(p); err != nil {
			panic(err)
		}
	}
	return h
}

// IsImplemented reports whether proc names a registered procedure.
func (h *HandlerSet) IsImplemented(proc string) bool {
	_, ok := h.Lookup(proc)
	return ok
}

// Lookup returns the procedure named proc.
func (h *HandlerSet) Lookup(proc string) (Procedure, bool) {
	if h == nil {
		return Procedure{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.procs[proc]
	return p, ok
}

// Procedures returns the registered names in sorted order.
func (h *HandlerSet) Procedures() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.procs))
	for name := range h.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named procedure's handler once.
func (h *HandlerSet) Invoke(ctx context.Context, proc string, call Call) error {
	p, ok := h.Lookup(proc)
	if !ok {
		return fmt.Errorf("%s - %w: %s", logPrefix, ErrUnknownProcedure, proc)
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	return p.Handler(ctx, call)
}

func (h *HandlerSet) freeze() {
	h.mu.Lock()
	h.frozen = true
	h.mu.Unlock()
}
