package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/morezero/json-api-router/pkg/arguments"
	"github.com/morezero/json-api-router/pkg/result"
)

func okHandler(_ context.Context, call Call) error {
	call.Result.SetPayload("ok")
	return nil
}

func TestHandlerSet_Register(t *testing.T) {
	tests := []struct {
		name    string
		proc    Procedure
		wantErr error
	}{
		{"valid", Procedure{Name: "getProduct", Handler: okHandler, Args: arguments.Rules{"id": "required,numeric"}}, nil},
		{"empty name", Procedure{Name: "", Handler: okHandler}, ErrInvalidProcedure},
		{"padded name", Procedure{Name: " getProduct", Handler: okHandler}, ErrInvalidProcedure},
		{"nil handler", Procedure{Name: "getOrder"}, ErrInvalidProcedure},
		{"bad rule", Procedure{Name: "getOrders", Handler: okHandler, Args: arguments.Rules{"page": "not_a_tag"}}, ErrInvalidProcedure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewHandlerSet(1)
			err := set.Register(tt.proc)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("provider:provider_test - unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("provider:provider_test - err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHandlerSet_Duplicate(t *testing.T) {
	set := NewHandlerSet(1)
	if err := set.Register(Procedure{Name: "getProduct", Handler: okHandler}); err != nil {
		t.Fatalf("provider:provider_test - first Register: %v", err)
	}
	err := set.Register(Procedure{Name: "getProduct", Handler: okHandler})
	if !errors.Is(err, ErrDuplicateProcedure) {
		t.Fatalf("provider:provider_test - err = %v, want ErrDuplicateProcedure", err)
	}
}

func TestHandlerSet_LookupAndInvoke(t *testing.T) {
	set := NewHandlerSet(1).MustRegister(
		Procedure{Name: "b", Handler: okHandler},
		Procedure{Name: "a", Handler: okHandler},
	)

	if !set.IsImplemented("a") || set.IsImplemented("c") {
		t.Errorf("provider:provider_test - IsImplemented mismatch")
	}
	names := set.Procedures()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("provider:provider_test - Procedures = %v, want [a b]", names)
	}

	res := result.New(nil)
	if err := set.Invoke(context.Background(), "a", Call{Result: res}); err != nil {
		t.Fatalf("provider:provider_test - Invoke: %v", err)
	}
	if res.Payload() != "ok" {
		t.Errorf("provider:provider_test - payload = %v, want ok", res.Payload())
	}
	if err := set.Invoke(context.Background(), "zzz", Call{Result: res}); !errors.Is(err, ErrUnknownProcedure) {
		t.Errorf("provider:provider_test - err = %v, want ErrUnknownProcedure", err)
	}
}

func TestHandlerSet_InvokeDefaultsArguments(t *testing.T) {
	var got map[string]any
	set := NewHandlerSet(1).MustRegister(Procedure{Name: "p", Handler: func(_ context.Context, call Call) error {
		got = call.Arguments
		return nil
	}})
	_ = set.Invoke(context.Background(), "p", Call{Result: result.New(nil)})
	if got == nil {
		t.Errorf("provider:provider_test - handler received nil arguments")
	}
}

func TestHandlerSet_NilLookup(t *testing.T) {
	var set *HandlerSet
	if set.IsImplemented("a") {
		t.Errorf("provider:provider_test - nil set reported a procedure")
	}
}

func TestMustRegister_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("provider:provider_test - expected panic on duplicate")
		}
	}()
	NewHandlerSet(1).MustRegister(
		Procedure{Name: "a", Handler: okHandler},
		Procedure{Name: "a", Handler: okHandler},
	)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	v1 := NewHandlerSet(1)
	v3 := NewHandlerSet(3)

	for _, set := range []*HandlerSet{v3, v1} {
		if err := r.Register(set); err != nil {
			t.Fatalf("provider:provider_test - Register(%d): %v", set.Version(), err)
		}
	}
	if err := r.Register(NewHandlerSet(1)); err == nil {
		t.Errorf("provider:provider_test - duplicate version accepted")
	}
	if err := r.Register(NewHandlerSet(0)); err == nil {
		t.Errorf("provider:provider_test - version 0 accepted")
	}
	if err := r.Register(nil); err == nil {
		t.Errorf("provider:provider_test - nil set accepted")
	}

	if got, ok := r.Resolve(1); !ok || got != v1 {
		t.Errorf("provider:provider_test - Resolve(1) = %v, %v", got, ok)
	}
	if _, ok := r.Resolve(2); ok {
		t.Errorf("provider:provider_test - Resolve(2) should miss")
	}
	if vs := r.Versions(); len(vs) != 2 || vs[0] != 1 || vs[1] != 3 {
		t.Errorf("provider:provider_test - Versions = %v, want [1 3]", vs)
	}
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry()
	set := NewHandlerSet(1)
	_ = r.Register(set)
	r.Freeze()

	if !r.Frozen() {
		t.Fatalf("provider:provider_test - Frozen = false after Freeze")
	}
	if err := r.Register(NewHandlerSet(2)); !errors.Is(err, ErrFrozen) {
		t.Errorf("provider:provider_test - Register after freeze err = %v, want ErrFrozen", err)
	}
	if err := set.Register(Procedure{Name: "late", Handler: okHandler}); !errors.Is(err, ErrFrozen) {
		t.Errorf("provider:provider_test - set Register after freeze err = %v, want ErrFrozen", err)
	}
}
