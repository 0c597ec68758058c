// Package payload defines the request value threaded through every routing step.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known payload keys.
const (
	KeyProc      = "proc"
	KeyVersion   = "version"
	KeyArguments = "arguments"

	ArgToken    = "token"
	ArgUsername = "username"
	ArgPassword = "password"
)

const redacted = "[REDACTED]"

// Payload is the caller-supplied mapping for a single route call.
type Payload map[string]any

// Decode parses a JSON object into a Payload. Numbers are kept as json.Number.
func Decode(data []byte) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("payload:Decode - %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("payload:Decode - payload must be a JSON object")
	}
	return p, nil
}

// Proc returns the requested procedure name and whether it was present.
func (p Payload) Proc() (string, bool) {
	v, ok := p[KeyProc]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v), true
	}
	return s, true
}

// RawVersion returns the version field as supplied.
func (p Payload) RawVersion() any {
	return p[KeyVersion]
}

// Arguments returns the arguments sub-mapping. The boolean is false when the
// key is absent or is not a mapping.
func (p Payload) Arguments() (map[string]any, bool) {
	v, ok := p[KeyArguments]
	if !ok || v == nil {
		return nil, false
	}
	switch args := v.(type) {
	case map[string]any:
		return args, true
	case Payload:
		return args, true
	case map[string]string:
		out := make(map[string]any, len(args))
		for k, s := range args {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// Argument returns a single argument rendered as a string. Empty values count
// as absent.
func (p Payload) Argument(name string) (string, bool) {
	args, ok := p.Arguments()
	if !ok {
		return "", false
	}
	return StringArg(args, name)
}

// StringArg reads a scalar argument as a string.
func StringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// IntArg reads an integer argument, returning def when absent or not numeric.
func IntArg(args map[string]any, name string, def int) int {
	s, ok := StringArg(args, name)
	if !ok {
		return def
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return int(n)
}

// Redacted returns a shallow copy with credential arguments masked, for logging.
func (p Payload) Redacted() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	args, ok := p.Arguments()
	if !ok {
		return out
	}
	masked := make(map[string]any, len(args))
	for k, v := range args {
		switch k {
		case ArgToken, ArgPassword:
			masked[k] = redacted
		default:
			masked[k] = v
		}
	}
	out[KeyArguments] = masked
	return out
}
