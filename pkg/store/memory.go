// Package store provides IdentityStore implementations backed by Postgres or
// process memory.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/morezero/json-api-router/pkg/auth"
)

const memoryLogPrefix = "store:memory"

// Messages returned by failed password checks.
const (
	MsgUnknownUsername   = "Invalid username."
	MsgIncorrectPassword = "The password you entered is incorrect."
	MsgEmptyUsername     = "The username field is empty."
	MsgEmptyPassword     = "The password field is empty."
)

// MemoryAccount seeds one account into a Memory store.
type MemoryAccount struct {
	Account auth.Account
	// Password is hashed with bcrypt when the account is added.
	Password string
	// Tenant scopes Permissions.
	Tenant string
	// Permissions is stored under the store's permission key.
	Permissions auth.PermissionRecord
}

type recordKey struct {
	tenant string
	key    string
}

type memoryEntry struct {
	account      auth.Account
	passwordHash []byte
	records      map[recordKey]auth.PermissionRecord
}

// Memory is an in-process IdentityStore. It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	accounts   map[string]*memoryEntry
	byUsername map[string]string
	sessions   map[string]string
	bcryptCost int
}

// NewMemory creates an empty Memory store. A non-positive cost uses bcrypt.MinCost.
func NewMemory(bcryptCost int) *Memory {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.MinCost
	}
	return &Memory{
		accounts:   make(map[string]*memoryEntry),
		byUsername: make(map[string]string),
		sessions:   make(map[string]string),
		bcryptCost: bcryptCost,
	}
}

// AddAccount inserts or replaces an account and stores its permission record
// under key.
func (m *Memory) AddAccount(key string, a MemoryAccount) error {
	if a.Account.ID == "" {
		return fmt.Errorf("%s - account id is required", memoryLogPrefix)
	}
	var hash []byte
	if a.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(a.Password), m.bcryptCost)
		if err != nil {
			return fmt.Errorf("%s - hash password: %w", memoryLogPrefix, err)
		}
		hash = h
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &memoryEntry{
		account:      a.Account,
		passwordHash: hash,
		records:      map[recordKey]auth.PermissionRecord{},
	}
	if a.Permissions != nil {
		entry.records[recordKey{tenant: a.Tenant, key: key}] = copyRecord(a.Permissions)
	}
	m.accounts[a.Account.ID] = entry
	if a.Account.Username != "" {
		m.byUsername[a.Account.Username] = a.Account.ID
	}
	return nil
}

// FindAccountsByPermissionKey lists accounts with a record under key for the
// tenant, ordered by id.
func (m *Memory) FindAccountsByPermissionKey(_ context.Context, key, tenant string) ([]auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []auth.Account
	for _, e := range m.accounts {
		if _, ok := e.records[recordKey{tenant: tenant, key: key}]; ok {
			out = append(out, e.account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetPermissionRecord returns a copy of the account's record, or nil.
func (m *Memory) GetPermissionRecord(_ context.Context, accountID, key, tenant string) (auth.PermissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.accounts[accountID]
	if !ok {
		return nil, nil
	}
	rec, ok := e.records[recordKey{tenant: tenant, key: key}]
	if !ok {
		return nil, nil
	}
	return copyRecord(rec), nil
}

// AuthenticateByPassword checks a username/password pair against the stored hash.
func (m *Memory) AuthenticateByPassword(_ context.Context, username, password string) (*auth.Account, error) {
	if msgs := checkCredentialInput(username, password); len(msgs) > 0 {
		return nil, auth.NewCredentialError(msgs...)
	}

	m.mu.RLock()
	id, ok := m.byUsername[username]
	var entry *memoryEntry
	if ok {
		entry = m.accounts[id]
	}
	m.mu.RUnlock()

	if entry == nil {
		return nil, auth.NewCredentialError(MsgUnknownUsername)
	}
	if err := bcrypt.CompareHashAndPassword(entry.passwordHash, []byte(password)); err != nil {
		return nil, auth.NewCredentialError(MsgIncorrectPassword)
	}
	acc := entry.account
	return &acc, nil
}

// BindSession records a new session for the account.
func (m *Memory) BindSession(_ context.Context, accountID string) (string, error) {
	sessionID := uuid.NewString()
	m.mu.Lock()
	m.sessions[sessionID] = accountID
	m.mu.Unlock()
	slog.Debug(fmt.Sprintf("%s - session %s opened for %s", memoryLogPrefix, sessionID, accountID))
	return sessionID, nil
}

// EndSession removes a session. Unknown ids are ignored.
func (m *Memory) EndSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// OpenSessions returns the number of sessions not yet ended.
func (m *Memory) OpenSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func copyRecord(rec auth.PermissionRecord) auth.PermissionRecord {
	out := make(auth.PermissionRecord, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func checkCredentialInput(username, password string) []string {
	var msgs []string
	if username == "" {
		msgs = append(msgs, MsgEmptyUsername)
	}
	if password == "" {
		msgs = append(msgs, MsgEmptyPassword)
	}
	return msgs
}
