// Package arguments checks call arguments against per-procedure validator
// rules before a handler runs.
package arguments

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/morezero/json-api-router/pkg/result"
)

const logPrefix = "arguments:validator"

// Rules maps an argument name to a go-playground/validator tag such as
// "required,numeric" or "omitempty,min=1,max=100".
type Rules map[string]string

// Names returns the rule names in sorted order.
func (r Rules) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validator applies Rules to argument maps. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Check reports whether every tag in rules is understood by the validator.
func (v *Validator) Check(rules Rules) (err error) {
	for _, name := range rules.Names() {
		tag := rules[name]
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s - rule for `%s` is invalid: %v", logPrefix, name, r)
				}
			}()
			// Var panics on unknown tags; the zero value only probes the tag.
			_ = v.validate.Var("", tag)
		}()
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks args against rules and appends one BAD_ARGUMENT entry per
// failing argument, in sorted name order. Arguments without a rule are ignored.
// It reports whether every rule passed.
func (v *Validator) Validate(args map[string]any, rules Rules, res *result.Result) bool {
	ok := true
	for _, name := range rules.Names() {
		tag := rules[name]
		value, present := args[name]
		if !present || value == nil {
			if isRequired(tag) {
				res.AddError(fmt.Sprintf("Missing required argument `%s`", name), result.BadArgument)
				ok = false
			}
			continue
		}

		// Presence is decided here, so omitempty only skips blank strings.
		// Left to the validator it would also skip a numeric zero.
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" && hasTag(tag, "omitempty") {
			continue
		}
		if err := v.check(normalize(value, hasTag(tag, "numeric")), withoutTag(tag, "omitempty")); err != nil {
			res.AddError(failureMessage(name, err), result.BadArgument)
			slog.Debug(fmt.Sprintf("%s - argument %s failed %q: %v", logPrefix, name, tag, err))
			ok = false
		}
	}
	return ok
}

// check runs one tag against value. Var panics when the value's kind does
// not fit the tag (min on a bool, for one); that is reported as an error.
func (v *Validator) check(value any, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unsupported type %T", value)
		}
	}()
	return v.validate.Var(value, tag)
}

func isRequired(tag string) bool {
	return hasTag(tag, "required")
}

func hasTag(tag, want string) bool {
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == want {
			return true
		}
	}
	return false
}

func withoutTag(tag, drop string) string {
	parts := strings.Split(tag, ",")
	kept := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != drop {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ",")
}

// normalize turns json.Number into int64 or float64 so numeric tags compare
// values instead of string lengths. With numeric set, numeric strings are
// converted the same way.
func normalize(value any, numeric bool) any {
	var n json.Number
	switch tv := value.(type) {
	case json.Number:
		n = tv
	case string:
		if !numeric {
			return value
		}
		n = json.Number(strings.TrimSpace(tv))
	default:
		return value
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return value
}

func failureMessage(name string, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		return fmt.Sprintf("Invalid argument `%s`: failed `%s`", name, rule)
	}
	return fmt.Sprintf("Invalid argument `%s`: %v", name, err)
}
