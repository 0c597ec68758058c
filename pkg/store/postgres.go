package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/morezero/json-api-router/pkg/auth"
	"github.com/morezero/json-api-router/pkg/db"
)

const pgLogPrefix = "store:postgres"

// Postgres is an IdentityStore over the accounts, account_meta and
// api_sessions tables.
type Postgres struct {
	repo *db.Repository
}

// NewPostgres creates a Postgres store.
func NewPostgres(repo *db.Repository) *Postgres {
	return &Postgres{repo: repo}
}

// FindAccountsByPermissionKey implements auth.IdentityStore.
func (p *Postgres) FindAccountsByPermissionKey(ctx context.Context, key, tenant string) ([]auth.Account, error) {
	rows, err := p.repo.ListAccountsByMetaKey(ctx, key, tenant)
	if err != nil {
		return nil, fmt.Errorf("%s - list accounts: %w", pgLogPrefix, err)
	}
	out := make([]auth.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, auth.Account{ID: r.ID, Username: r.Username, Email: r.Email})
	}
	return out, nil
}

// GetPermissionRecord implements auth.IdentityStore. The jsonb document is
// flattened to strings by NormalizeRecord.
func (p *Postgres) GetPermissionRecord(ctx context.Context, accountID, key, tenant string) (auth.PermissionRecord, error) {
	meta, err := p.repo.GetAccountMeta(ctx, accountID, key, tenant)
	if err != nil {
		return nil, fmt.Errorf("%s - permission record: %w", pgLogPrefix, err)
	}
	if meta == nil {
		return nil, nil
	}
	rec, err := NormalizeRecord(meta.Value)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - unusable permission record for account %s: %v", pgLogPrefix, accountID, err))
		return nil, nil
	}
	return rec, nil
}

// AuthenticateByPassword implements auth.IdentityStore.
func (p *Postgres) AuthenticateByPassword(ctx context.Context, username, password string) (*auth.Account, error) {
	if msgs := checkCredentialInput(username, password); len(msgs) > 0 {
		return nil, auth.NewCredentialError(msgs...)
	}
	creds, err := p.repo.GetCredentials(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s - load credentials: %w", pgLogPrefix, err)
	}
	if creds == nil {
		return nil, auth.NewCredentialError(MsgUnknownUsername)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, auth.NewCredentialError(MsgIncorrectPassword)
	}
	return &auth.Account{ID: creds.ID, Username: creds.Username, Email: creds.Email}, nil
}

// BindSession implements auth.IdentityStore.
func (p *Postgres) BindSession(ctx context.Context, accountID string) (string, error) {
	sessionID := uuid.NewString()
	if err := p.repo.InsertSession(ctx, sessionID, accountID); err != nil {
		return "", fmt.Errorf("%s - bind session: %w", pgLogPrefix, err)
	}
	return sessionID, nil
}

// EndSession implements auth.IdentityStore.
func (p *Postgres) EndSession(ctx context.Context, sessionID string) error {
	if err := p.repo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("%s - end session: %w", pgLogPrefix, err)
	}
	return nil
}

// Ping checks the database.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.repo.Ping(ctx)
}

// NormalizeRecord turns a JSON object into a PermissionRecord. Strings are kept,
// booleans become "yes" or "no", numbers keep their literal text, nulls are
// dropped and nested values are kept as compact JSON.
func NormalizeRecord(doc []byte) (auth.PermissionRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s - decode record: %w", pgLogPrefix, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s - record is not a JSON object", pgLogPrefix)
	}

	rec := make(auth.PermissionRecord, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			rec[k] = val
		case bool:
			if val {
				rec[k] = "yes"
			} else {
				rec[k] = "no"
			}
		case json.Number:
			rec[k] = val.String()
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("%s - encode %s: %w", pgLogPrefix, k, err)
			}
			rec[k] = string(b)
		}
	}
	return rec, nil
}
