// Package version coerces the caller-supplied API version into a handler-set number.
package version

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "version:Coerce"

// Default is used whenever the requested version is absent or unusable.
const Default = 1

// Coerce converts a raw version value to a positive integer. Absent,
// non-numeric and non-positive values become Default. Fractional values are
// truncated; strings such as "v2" or "2.1.0" yield their major component.
func Coerce(raw any) int {
	n, ok := toInt(raw)
	if !ok || n <= 0 {
		if raw != nil {
			slog.Debug(fmt.Sprintf("%s - unusable version %v, defaulting to %d", logPrefix, raw, Default))
		}
		return Default
	}
	return n
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return clamp(float64(v))
	case float32:
		return clamp(float64(v))
	case float64:
		return clamp(v)
	case json.Number:
		return fromString(v.String())
	case string:
		return fromString(v)
	case bool:
		if v {
			return 1, true
		}
		return 0, false
	}
	return 0, false
}

func fromString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return clamp(f)
	}
	sv, err := masterminds.NewVersion(s)
	if err != nil {
		return 0, false
	}
	return clamp(float64(sv.Major()))
}

func clamp(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
