package store

import (
	"context"
	"errors"
	"testing"

	"github.com/morezero/json-api-router/pkg/auth"
)

const (
	memKey    = "woocommerce_json_api_settings"
	memTenant = "1"
)

func seededMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(0)
	accounts := []MemoryAccount{
		{
			Account:     auth.Account{ID: "2", Username: "bob"},
			Password:    "hunter2",
			Tenant:      memTenant,
			Permissions: auth.PermissionRecord{auth.PermToken: "bbb"},
		},
		{
			Account:     auth.Account{ID: "1", Username: "alice"},
			Password:    "s3cret",
			Tenant:      memTenant,
			Permissions: auth.PermissionRecord{auth.PermToken: "aaa"},
		},
		{
			Account:     auth.Account{ID: "3", Username: "carol"},
			Tenant:      "2",
			Permissions: auth.PermissionRecord{auth.PermToken: "ccc"},
		},
		{Account: auth.Account{ID: "4", Username: "dave"}, Password: "x"},
	}
	for _, a := range accounts {
		if err := m.AddAccount(memKey, a); err != nil {
			t.Fatalf("store:memory_test - AddAccount(%s): %v", a.Account.ID, err)
		}
	}
	return m
}

func TestMemory_FindAccountsByPermissionKey(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	got, err := m.FindAccountsByPermissionKey(ctx, memKey, memTenant)
	if err != nil {
		t.Fatalf("store:memory_test - unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("store:memory_test - accounts %+v, want ids [1 2]", got)
	}

	other, _ := m.FindAccountsByPermissionKey(ctx, memKey, "2")
	if len(other) != 1 || other[0].ID != "3" {
		t.Errorf("store:memory_test - tenant 2 accounts %+v, want [3]", other)
	}

	none, _ := m.FindAccountsByPermissionKey(ctx, "other_settings", memTenant)
	if len(none) != 0 {
		t.Errorf("store:memory_test - unexpected accounts for unknown key: %+v", none)
	}
}

func TestMemory_GetPermissionRecord(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	rec, err := m.GetPermissionRecord(ctx, "1", memKey, memTenant)
	if err != nil {
		t.Fatalf("store:memory_test - unexpected error: %v", err)
	}
	if v, _ := rec.Lookup(auth.PermToken); v != "aaa" {
		t.Errorf("store:memory_test - token %q, want aaa", v)
	}
	rec[auth.PermToken] = "mutated"
	again, _ := m.GetPermissionRecord(ctx, "1", memKey, memTenant)
	if v, _ := again.Lookup(auth.PermToken); v != "aaa" {
		t.Errorf("store:memory_test - stored record was mutated through copy")
	}

	if rec, _ := m.GetPermissionRecord(ctx, "1", memKey, "2"); rec != nil {
		t.Errorf("store:memory_test - record leaked across tenants: %v", rec)
	}
	if rec, _ := m.GetPermissionRecord(ctx, "99", memKey, memTenant); rec != nil {
		t.Errorf("store:memory_test - record for unknown account: %v", rec)
	}
}

func TestMemory_AuthenticateByPassword(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantID   string
		wantMsgs []string
	}{
		{"valid", "alice", "s3cret", "1", nil},
		{"wrong password", "alice", "nope", "", []string{MsgIncorrectPassword}},
		{"unknown user", "zed", "x", "", []string{MsgUnknownUsername}},
		{"no stored password", "carol", "x", "", []string{MsgIncorrectPassword}},
		{"empty both", "", "", "", []string{MsgEmptyUsername, MsgEmptyPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := m.AuthenticateByPassword(ctx, tt.username, tt.password)
			if tt.wantMsgs == nil {
				if err != nil {
					t.Fatalf("store:memory_test - unexpected error: %v", err)
				}
				if acc.ID != tt.wantID {
					t.Errorf("store:memory_test - account %q, want %q", acc.ID, tt.wantID)
				}
				return
			}
			var credErr *auth.CredentialError
			if !errors.As(err, &credErr) {
				t.Fatalf("store:memory_test - err = %v, want *auth.CredentialError", err)
			}
			msgs := credErr.Messages()
			if len(msgs) != len(tt.wantMsgs) {
				t.Fatalf("store:memory_test - messages %v, want %v", msgs, tt.wantMsgs)
			}
			for i := range msgs {
				if msgs[i] != tt.wantMsgs[i] {
					t.Errorf("store:memory_test - message %d = %q, want %q", i, msgs[i], tt.wantMsgs[i])
				}
			}
		})
	}
}

func TestMemory_Sessions(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	s1, err := m.BindSession(ctx, "1")
	if err != nil {
		t.Fatalf("store:memory_test - BindSession: %v", err)
	}
	s2, _ := m.BindSession(ctx, "1")
	if s1 == s2 {
		t.Errorf("store:memory_test - session ids should be unique")
	}
	if m.OpenSessions() != 2 {
		t.Errorf("store:memory_test - open sessions %d, want 2", m.OpenSessions())
	}
	if err := m.EndSession(ctx, s1); err != nil {
		t.Fatalf("store:memory_test - EndSession: %v", err)
	}
	_ = m.EndSession(ctx, "unknown")
	if m.OpenSessions() != 1 {
		t.Errorf("store:memory_test - open sessions %d, want 1", m.OpenSessions())
	}
}

func TestMemory_AddAccountRequiresID(t *testing.T) {
	m := NewMemory(0)
	if err := m.AddAccount(memKey, MemoryAccount{}); err == nil {
		t.Fatalf("store:memory_test - expected error for empty account id")
	}
}
