// Package auth decides whether a caller may execute a procedure and binds the
// caller identity for the duration of a call.
package auth

import (
	"context"
	"strings"
)

// Permission record keys.
const (
	PermToken         = "token"
	PermAccessTheAPI  = "can_access_the_api"
	permProcPrefix    = "can_"
	deniedValue       = "no"
	DefaultPluginName = "woocommerce_json_api"
)

// Account is a user account known to the identity store.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// PermissionRecord is the per-account metadata mapping consulted by the
// token path. Values keep a three-way meaning: absent, the literal "no", or
// anything else (allowed).
type PermissionRecord map[string]string

// ProcKey returns the record key gating a procedure.
func ProcKey(proc string) string {
	return permProcPrefix + proc
}

// Lookup returns a value and whether the key is present.
func (r PermissionRecord) Lookup(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r[key]
	return v, ok
}

// Denied reports whether key is present and explicitly set to "no".
func (r PermissionRecord) Denied(key string) bool {
	v, ok := r.Lookup(key)
	return ok && v == deniedValue
}

// PermissionKey derives the metadata key under which permission records are
// stored for a plugin prefix.
func PermissionKey(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPluginName
	}
	return prefix + "_settings"
}

// IdentityStore is the account collaborator used by the validator.
type IdentityStore interface {
	// FindAccountsByPermissionKey lists accounts carrying a permission record
	// under key for the tenant.
	FindAccountsByPermissionKey(ctx context.Context, key, tenant string) ([]Account, error)
	// GetPermissionRecord returns the account's record for key within the
	// tenant, or nil when unset.
	GetPermissionRecord(ctx context.Context, accountID, key, tenant string) (PermissionRecord, error)
	// AuthenticateByPassword verifies a username/password pair. A failed check
	// returns a *CredentialError.
	AuthenticateByPassword(ctx context.Context, username, password string) (*Account, error)
	// BindSession opens an authenticated session for the account.
	BindSession(ctx context.Context, accountID string) (string, error)
	// EndSession closes a session opened by BindSession.
	EndSession(ctx context.Context, sessionID string) error
}

// CredentialError reports a failed username/password check. It may carry
// several messages.
type CredentialError struct {
	messages []string
}

// NewCredentialError creates a CredentialError from one or more messages.
func NewCredentialError(messages ...string) *CredentialError {
	return &CredentialError{messages: messages}
}

func (e *CredentialError) Error() string {
	if len(e.messages) == 0 {
		return "invalid credentials"
	}
	return strings.Join(e.messages, "; ")
}

// Messages returns the individual failure messages.
func (e *CredentialError) Messages() []string {
	if len(e.messages) == 0 {
		return []string{e.Error()}
	}
	return append([]string(nil), e.messages...)
}
