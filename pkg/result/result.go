// Package result implements the per-request result envelope: accumulated
// errors and warnings, the success payload, and its output representations.
package result

import (
	"encoding/json"
	"fmt"

	"github.com/morezero/json-api-router/pkg/payload"
)

// Keys added to the parameter mapping when the envelope is rendered.
const (
	KeyStatus   = "status"
	KeyErrors   = "errors"
	KeyWarnings = "warnings"
	KeyPayload  = "payload"
)

// Entry is one error or warning.
type Entry struct {
	Text string `json:"text"`
	Code Code   `json:"code"`
}

// Result accumulates the outcome of one route call. It is not safe for
// concurrent use; one envelope belongs to one call.
type Result struct {
	params   payload.Payload
	errors   []Entry
	warnings []Entry
	payload  any
}

// New creates an envelope bound to the request parameters.
func New(params payload.Payload) *Result {
	return &Result{params: params}
}

// AddError records a failure.
func (r *Result) AddError(message string, code Code) {
	r.errors = append(r.errors, Entry{Text: message, Code: code})
}

// AddWarning records a non-fatal condition.
func (r *Result) AddWarning(message string, code Code) {
	r.warnings = append(r.warnings, Entry{Text: message, Code: code})
}

// Status is false once any error has been recorded.
func (r *Result) Status() bool {
	return len(r.errors) == 0
}

// SetPayload stores the success value.
func (r *Result) SetPayload(v any) { r.payload = v }

// Payload returns the success value.
func (r *Result) Payload() any { return r.payload }

// Params returns the request parameters the envelope was created with.
func (r *Result) Params() payload.Payload { return r.params }

// Errors returns the recorded errors in insertion order.
func (r *Result) Errors() []Entry {
	return append([]Entry(nil), r.errors...)
}

// Warnings returns the recorded warnings in insertion order.
func (r *Result) Warnings() []Entry {
	return append([]Entry(nil), r.warnings...)
}

// ErrorCount returns the number of recorded errors.
func (r *Result) ErrorCount() int { return len(r.errors) }

// ErrorCodes returns the codes of the recorded errors in insertion order.
func (r *Result) ErrorCodes() []Code {
	return codesOf(r.errors)
}

// WarningCodes returns the codes of the recorded warnings in insertion order.
func (r *Result) WarningCodes() []Code {
	return codesOf(r.warnings)
}

// HasError reports whether an error with the given code was recorded.
func (r *Result) HasError(code Code) bool {
	for _, e := range r.errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Map returns the raw parameter/result mapping: the request parameters plus
// status, errors, warnings and payload.
func (r *Result) Map() map[string]any {
	out := make(map[string]any, len(r.params)+4)
	for k, v := range r.params {
		out[k] = v
	}
	out[KeyStatus] = r.Status()
	out[KeyErrors] = nonNil(r.errors)
	out[KeyWarnings] = nonNil(r.warnings)
	out[KeyPayload] = r.payload
	return out
}

// JSON encodes Map.
func (r *Result) JSON() ([]byte, error) {
	data, err := json.Marshal(r.Map())
	if err != nil {
		return nil, fmt.Errorf("result:JSON - failed to encode envelope: %w", err)
	}
	return data, nil
}

func codesOf(entries []Entry) []Code {
	codes := make([]Code, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.Code)
	}
	return codes
}

func nonNil(entries []Entry) []Entry {
	if entries == nil {
		return []Entry{}
	}
	return append([]Entry(nil), entries...)
}
