package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/morezero/json-api-router/pkg/payload"
	"github.com/morezero/json-api-router/pkg/result"
)

const logPrefix = "auth:validator"

// Caller-facing messages.
const (
	MsgMissingArguments   = "Missing `arguments` key"
	MsgMissingToken       = "Missing `token` in `arguments`"
	MsgPermsNotSet        = "Permissions for this user have not been set"
	MsgBanned             = "You have been banned."
	MsgInsufficientPerms  = "You do not have sufficient permissions."
	MsgInvalidToken       = "No account matches the supplied token"
	MsgIdentityStoreError = "Identity store unavailable"
)

// Validator authenticates callers by token or username/password and checks
// per-procedure permissions.
type Validator struct {
	store         IdentityStore
	tenant        string
	permissionKey string
}

// NewValidatorParams holds parameters for NewValidator.
type NewValidatorParams struct {
	Store IdentityStore
	// Tenant scopes the token path's account listing.
	Tenant string
	// PluginPrefix derives the permission metadata key; empty uses the default.
	PluginPrefix string
}

// NewValidator creates a Validator.
func NewValidator(params NewValidatorParams) *Validator {
	return &Validator{
		store:         params.Store,
		tenant:        params.Tenant,
		permissionKey: PermissionKey(params.PluginPrefix),
	}
}

// PermissionKey returns the metadata key the validator reads.
func (v *Validator) PermissionKey() string { return v.permissionKey }

// Validate reports whether the caller may execute the payload's procedure. On
// success the identity is bound; every failure records one descriptive error
// in res (the password path records one per underlying message).
func (v *Validator) Validate(ctx context.Context, p payload.Payload, res *result.Result, id *Identity) bool {
	if id.Bound() {
		return true
	}

	args, ok := p.Arguments()
	if !ok {
		res.AddError(MsgMissingArguments, result.ExpectedArgument)
		return false
	}

	if token, ok := payload.StringArg(args, payload.ArgToken); ok {
		proc, _ := p.Proc()
		return v.byToken(ctx, token, proc, res, id)
	}

	username, hasUser := payload.StringArg(args, payload.ArgUsername)
	password, hasPass := payload.StringArg(args, payload.ArgPassword)
	if hasUser && hasPass {
		return v.byPassword(ctx, username, password, res, id)
	}

	res.AddError(MsgMissingToken, result.ExpectedArgument)
	return false
}

func (v *Validator) byToken(ctx context.Context, token, proc string, res *result.Result, id *Identity) bool {
	accounts, err := v.store.FindAccountsByPermissionKey(ctx, v.permissionKey, v.tenant)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - account listing failed: %v", logPrefix, err))
		res.AddError(MsgIdentityStoreError, result.InternalError)
		return false
	}

	for i := range accounts {
		acc := accounts[i]
		record, err := v.store.GetPermissionRecord(ctx, acc.ID, v.permissionKey, v.tenant)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - permission lookup for account %s failed: %v", logPrefix, acc.ID, err))
			res.AddError(MsgIdentityStoreError, result.InternalError)
			return false
		}

		stored, ok := record.Lookup(PermToken)
		if !ok || stored != token {
			continue
		}

		procKey := ProcKey(proc)
		_, hasProc := record.Lookup(procKey)
		_, hasAccess := record.Lookup(PermAccessTheAPI)
		if !hasProc || !hasAccess {
			slog.Warn(fmt.Sprintf("%s - permissions not set for account %s (%s)", logPrefix, acc.ID, procKey))
			res.AddError(MsgPermsNotSet, result.PermsNotSet)
			return false
		}
		if record.Denied(PermAccessTheAPI) {
			slog.Warn(fmt.Sprintf("%s - banned account %s attempted %s", logPrefix, acc.ID, proc))
			res.AddError(MsgBanned, result.PermsInsufficient)
			return false
		}
		if record.Denied(procKey) {
			slog.Warn(fmt.Sprintf("%s - account %s lacks %s", logPrefix, acc.ID, procKey))
			res.AddError(MsgInsufficientPerms, result.PermsInsufficient)
			return false
		}

		return v.bind(ctx, &acc, res, id)
	}

	res.AddError(MsgInvalidToken, result.InvalidCredentials)
	return false
}

func (v *Validator) byPassword(ctx context.Context, username, password string, res *result.Result, id *Identity) bool {
	acc, err := v.store.AuthenticateByPassword(ctx, username, password)
	if err != nil {
		var credErr *CredentialError
		if errors.As(err, &credErr) {
			for _, msg := range credErr.Messages() {
				res.AddError(msg, result.InternalError)
			}
		} else {
			slog.Error(fmt.Sprintf("%s - password check failed: %v", logPrefix, err))
			res.AddError(err.Error(), result.InternalError)
		}
		return false
	}
	if acc == nil {
		res.AddError(MsgIdentityStoreError, result.InternalError)
		return false
	}
	return v.bind(ctx, acc, res, id)
}

func (v *Validator) bind(ctx context.Context, acc *Account, res *result.Result, id *Identity) bool {
	sessionID, err := v.store.BindSession(ctx, acc.ID)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to bind session for account %s: %v", logPrefix, acc.ID, err))
		res.AddError(MsgIdentityStoreError, result.InternalError)
		return false
	}
	if err := id.Bind(acc, sessionID); err != nil {
		res.AddError(err.Error(), result.InternalError)
		return false
	}
	slog.Debug(fmt.Sprintf("%s - bound account %s", logPrefix, acc.ID))
	return true
}
