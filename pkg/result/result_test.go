package result

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/morezero/json-api-router/pkg/payload"
)

const resultTestPrefix = "result:result_test"

func TestResult_StatusFollowsErrors(t *testing.T) {
	r := New(payload.Payload{"proc": "getOrder"})
	if !r.Status() {
		t.Fatalf("%s - new envelope should report success", resultTestPrefix)
	}

	r.AddWarning("Order does not exist", OrderNotExists)
	if !r.Status() {
		t.Errorf("%s - warnings must not flip status", resultTestPrefix)
	}

	r.AddError("Missing `arguments` key", ExpectedArgument)
	if r.Status() {
		t.Errorf("%s - expected failed status after AddError", resultTestPrefix)
	}
	if !r.HasError(ExpectedArgument) {
		t.Errorf("%s - HasError(ExpectedArgument) = false, want true", resultTestPrefix)
	}
	if r.HasError(NotImplemented) {
		t.Errorf("%s - HasError(NotImplemented) = true, want false", resultTestPrefix)
	}
}

func TestResult_PreservesInsertionOrder(t *testing.T) {
	r := New(nil)
	r.AddError("first", ExpectedArgument)
	r.AddError("second", NotImplemented)
	r.AddError("third", InternalError)

	got := r.ErrorCodes()
	want := []Code{ExpectedArgument, NotImplemented, InternalError}
	if len(got) != len(want) {
		t.Fatalf("%s - ErrorCodes() length = %d, want %d", resultTestPrefix, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s - ErrorCodes()[%d] = %v, want %v", resultTestPrefix, i, got[i], want[i])
		}
	}
	if r.Errors()[1].Text != "second" {
		t.Errorf("%s - Errors()[1].Text = %q, want second", resultTestPrefix, r.Errors()[1].Text)
	}
}

func TestResult_ErrorsReturnsCopy(t *testing.T) {
	r := New(nil)
	r.AddError("boom", UnexpectedError)

	errs := r.Errors()
	errs[0].Text = "mutated"

	if r.Errors()[0].Text != "boom" {
		t.Errorf("%s - caller mutation leaked into envelope", resultTestPrefix)
	}
}

func TestResult_Map(t *testing.T) {
	r := New(payload.Payload{"proc": "getProduct", "version": 1})
	r.SetPayload(map[string]any{"id": 7})
	r.AddWarning("Product does not exist", ProductNotExists)

	m := r.Map()
	if m["proc"] != "getProduct" {
		t.Errorf("%s - proc = %v, want getProduct", resultTestPrefix, m["proc"])
	}
	if m[KeyStatus] != true {
		t.Errorf("%s - status = %v, want true", resultTestPrefix, m[KeyStatus])
	}
	errs, ok := m[KeyErrors].([]Entry)
	if !ok || len(errs) != 0 {
		t.Errorf("%s - errors = %#v, want empty slice", resultTestPrefix, m[KeyErrors])
	}
	warnings, ok := m[KeyWarnings].([]Entry)
	if !ok || len(warnings) != 1 || warnings[0].Code != ProductNotExists {
		t.Errorf("%s - warnings = %#v, want one PRODUCT_NOT_EXISTS", resultTestPrefix, m[KeyWarnings])
	}
	if m[KeyPayload] == nil {
		t.Errorf("%s - payload missing from map", resultTestPrefix)
	}
}

func TestResult_JSONRoundTrip(t *testing.T) {
	r := New(payload.Payload{"proc": "getOrder"})
	r.AddError("Expected argument was not present `proc`", ExpectedArgument)
	r.AddError("That API method has not been implemented", NotImplemented)

	data, err := r.JSON()
	if err != nil {
		t.Fatalf("%s - JSON failed: %v", resultTestPrefix, err)
	}

	var decoded struct {
		Status bool    `json:"status"`
		Errors []Entry `json:"errors"`
		Proc   string  `json:"proc"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("%s - unmarshal failed: %v", resultTestPrefix, err)
	}

	if decoded.Status != r.Status() {
		t.Errorf("%s - status = %v, want %v", resultTestPrefix, decoded.Status, r.Status())
	}
	if len(decoded.Errors) != 2 {
		t.Fatalf("%s - errors length = %d, want 2", resultTestPrefix, len(decoded.Errors))
	}
	for i, e := range r.Errors() {
		if decoded.Errors[i] != e {
			t.Errorf("%s - errors[%d] = %+v, want %+v", resultTestPrefix, i, decoded.Errors[i], e)
		}
	}
	if decoded.Proc != "getOrder" {
		t.Errorf("%s - proc = %q, want getOrder", resultTestPrefix, decoded.Proc)
	}
}

func TestCode_String(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{ExpectedArgument, "EXPECTED_ARGUMENT"},
		{PermsNotSet, "PERMSNOTSET"},
		{PermsInsufficient, "PERMSINSUFF"},
		{InternalError, "INTERNAL_ERROR"},
		{OrderNotExists, "ORDER_NOT_EXISTS"},
		{Code(-42), "CODE(-42)"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("%s - Code(%d).String() = %q, want %q", resultTestPrefix, int(tt.code), got, tt.want)
		}
	}
}

func TestCode_Ranges(t *testing.T) {
	for code := range codeNames {
		if code.IsError() == code.IsWarning() {
			t.Errorf("%s - %v must be exactly one of error or warning", resultTestPrefix, code)
		}
	}
	if !InternalError.Retryable() {
		t.Errorf("%s - INTERNAL_ERROR should be retryable", resultTestPrefix)
	}
	if PermsNotSet.Retryable() {
		t.Errorf("%s - PERMSNOTSET should not be retryable", resultTestPrefix)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"HTTP", FormatHTTP, false},
		{"array", FormatArray, false},
		{" json ", FormatJSON, false},
		{"OBJECT", FormatObject, false},
		{"XML", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Fatalf("%s - ParseFormat(%q) err = %v, want ErrUnknownFormat", resultTestPrefix, tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s - ParseFormat(%q) unexpected error: %v", resultTestPrefix, tt.in, err)
			}
			if got != tt.want {
				t.Errorf("%s - ParseFormat(%q) = %v, want %v", resultTestPrefix, tt.in, got, tt.want)
			}
		})
	}
}

func TestRender_AllFormats(t *testing.T) {
	r := New(payload.Payload{"proc": "getOrder"})
	r.SetPayload("ok")

	obj, err := r.Render(FormatObject, nil)
	if err != nil || obj.Object != r {
		t.Errorf("%s - OBJECT render = %+v, %v", resultTestPrefix, obj, err)
	}

	arr, err := r.Render(FormatArray, nil)
	if err != nil || arr.Array[KeyPayload] != "ok" {
		t.Errorf("%s - ARRAY render = %+v, %v", resultTestPrefix, arr, err)
	}

	js, err := r.Render(FormatJSON, nil)
	if err != nil || len(js.JSON) == 0 {
		t.Errorf("%s - JSON render = %+v, %v", resultTestPrefix, js, err)
	}

	rec := httptest.NewRecorder()
	out, err := r.Render(FormatHTTP, rec)
	if err != nil {
		t.Fatalf("%s - HTTP render failed: %v", resultTestPrefix, err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("%s - Content-Type = %q, want application/json", resultTestPrefix, ct)
	}
	if rec.Body.String() != string(out.JSON) {
		t.Errorf("%s - written body differs from Output.JSON", resultTestPrefix)
	}
}

func TestRender_HTTPWithoutWriter(t *testing.T) {
	_, err := New(nil).Render(FormatHTTP, nil)
	if !errors.Is(err, ErrNoResponseWriter) {
		t.Errorf("%s - err = %v, want ErrNoResponseWriter", resultTestPrefix, err)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	out, err := New(nil).Render(Format(99), nil)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("%s - err = %v, want ErrUnknownFormat", resultTestPrefix, err)
	}
	if out != nil {
		t.Errorf("%s - expected nil output for unknown format", resultTestPrefix)
	}
	if Format(99).Valid() {
		t.Errorf("%s - Format(99).Valid() = true, want false", resultTestPrefix)
	}
}
