package events

import (
	"context"
	"errors"
	"testing"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	if err := pub.PublishRoute(context.Background(), &RouteEvent{Proc: "getProduct"}); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *RouteEvent
	pub := NewCallbackPublisher(func(_ context.Context, event *RouteEvent) error {
		captured = event
		return nil
	})

	event := &RouteEvent{
		CallID:     "c-1",
		Proc:       "getOrder",
		Version:    1,
		Status:     false,
		ErrorCodes: []string{"PERMSINSUFF"},
		State:      "AUTH_FAILED",
	}
	if err := pub.PublishRoute(context.Background(), event); err != nil {
		t.Fatalf("events:publisher_test - expected no error, got %v", err)
	}
	if captured == nil {
		t.Fatal("events:publisher_test - expected callback to be called")
	}
	if captured.Proc != "getOrder" || captured.State != "AUTH_FAILED" {
		t.Errorf("events:publisher_test - captured %+v", captured)
	}
}

func TestCallbackPublisher_Error(t *testing.T) {
	want := errors.New("boom")
	pub := NewCallbackPublisher(func(context.Context, *RouteEvent) error { return want })
	if err := pub.PublishRoute(context.Background(), &RouteEvent{}); !errors.Is(err, want) {
		t.Errorf("events:publisher_test - err = %v, want %v", err, want)
	}
}

func TestCallbackPublisher_NilCallback(t *testing.T) {
	pub := NewCallbackPublisher(nil)
	if err := pub.PublishRoute(context.Background(), &RouteEvent{Proc: "getOrders"}); err != nil {
		t.Errorf("events:publisher_test - nil callback returned %v", err)
	}

	called := false
	pub = NewCallbackPublisher(func(context.Context, *RouteEvent) error {
		called = true
		return nil
	})
	if err := pub.PublishRoute(context.Background(), nil); err != nil || called {
		t.Errorf("events:publisher_test - nil event: err=%v called=%v", err, called)
	}
}
