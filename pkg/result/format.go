package result

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Format selects the representation produced when a call finishes.
type Format int

const (
	// FormatObject returns the envelope itself.
	FormatObject Format = iota
	// FormatArray returns the raw parameter/result mapping.
	FormatArray
	// FormatJSON returns the JSON encoding of the mapping.
	FormatJSON
	// FormatHTTP writes a JSON response to an http.ResponseWriter.
	FormatHTTP
)

// ErrUnknownFormat is returned for Format values outside the enumeration.
var ErrUnknownFormat = errors.New("result: unknown output format")

// ErrNoResponseWriter is returned when FormatHTTP is rendered without a writer.
var ErrNoResponseWriter = errors.New("result: HTTP output requires a response writer")

var formatNames = map[Format]string{
	FormatObject: "OBJECT",
	FormatArray:  "ARRAY",
	FormatJSON:   "JSON",
	FormatHTTP:   "HTTP",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FORMAT(%d)", int(f))
}

// Valid reports whether f is one of the defined formats.
func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// ParseFormat maps a case-insensitive format name to a Format.
func ParseFormat(name string) (Format, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for f, n := range formatNames {
		if n == upper {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Output is the finished representation of a call. Exactly one field matching
// Format is populated; for FormatHTTP the body has already been written and
// JSON holds a copy of it.
type Output struct {
	Format Format
	Object *Result
	Array  map[string]any
	JSON   []byte
}

// Render produces the output for the given format. w is only used by
// FormatHTTP.
func (r *Result) Render(format Format, w http.ResponseWriter) (*Output, error) {
	switch format {
	case FormatObject:
		return &Output{Format: format, Object: r}, nil
	case FormatArray:
		return &Output{Format: format, Array: r.Map()}, nil
	case FormatJSON:
		data, err := r.JSON()
		if err != nil {
			return nil, err
		}
		return &Output{Format: format, JSON: data}, nil
	case FormatHTTP:
		if w == nil {
			return nil, ErrNoResponseWriter
		}
		data, err := r.JSON()
		if err != nil {
			return nil, err
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("result:Render - failed to write response: %w", err)
		}
		return &Output{Format: format, JSON: data}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
	}
}
