package arguments

import (
	"encoding/json"
	"testing"

	"github.com/morezero/json-api-router/pkg/result"
)

func TestValidate(t *testing.T) {
	rules := Rules{
		"id":       "required,numeric",
		"page":     "omitempty,min=1",
		"per_page": "omitempty,min=1,max=100",
	}

	tests := []struct {
		name  string
		args  map[string]any
		want  bool
		texts []string
	}{
		{"valid int", map[string]any{"id": 12}, true, nil},
		{"valid json number", map[string]any{"id": json.Number("12"), "page": json.Number("2")}, true, nil},
		{"valid numeric string", map[string]any{"id": "12"}, true, nil},
		{"credentials ignored", map[string]any{"id": 1, "token": "abc", "password": ""}, true, nil},
		{"missing required", map[string]any{}, false, []string{"Missing required argument `id`"}},
		{"nil required", map[string]any{"id": nil}, false, []string{"Missing required argument `id`"}},
		{"nil map", nil, false, []string{"Missing required argument `id`"}},
		{"not numeric", map[string]any{"id": "abc"}, false, []string{"Invalid argument `id`: failed `numeric`"}},
		{
			name:  "several failures in name order",
			args:  map[string]any{"page": json.Number("0"), "per_page": json.Number("500")},
			want:  false,
			texts: []string{"Missing required argument `id`", "Invalid argument `page`: failed `min=1`", "Invalid argument `per_page`: failed `max=100`"},
		},
		{"float page", map[string]any{"id": 1, "page": json.Number("1.5")}, true, nil},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := result.New(nil)
			got := v.Validate(tt.args, rules, res)
			if got != tt.want {
				t.Fatalf("arguments:arguments_test - Validate = %v, want %v (errors %+v)", got, tt.want, res.Errors())
			}
			errs := res.Errors()
			if len(errs) != len(tt.texts) {
				t.Fatalf("arguments:arguments_test - got %d errors %+v, want %d", len(errs), errs, len(tt.texts))
			}
			for i, text := range tt.texts {
				if errs[i].Text != text {
					t.Errorf("arguments:arguments_test - error %d = %q, want %q", i, errs[i].Text, text)
				}
				if errs[i].Code != result.BadArgument {
					t.Errorf("arguments:arguments_test - error %d code = %v, want BAD_ARGUMENT", i, errs[i].Code)
				}
			}
		})
	}
}

func TestValidate_WrongTypes(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		args map[string]any
		want string
	}{
		{"bool against min", "omitempty,min=1", map[string]any{"page": true}, "Invalid argument `page`: unsupported type bool"},
		{"bool against numeric", "omitempty,numeric,min=1", map[string]any{"page": true}, "Invalid argument `page`: failed `numeric`"},
		{"map against numeric", "omitempty,numeric,min=1", map[string]any{"page": map[string]any{"n": 1}}, "Invalid argument `page`: failed `numeric`"},
		{"word against numeric", "omitempty,numeric,min=1", map[string]any{"page": "abc"}, "Invalid argument `page`: failed `numeric`"},
		{"numeric string below min", "omitempty,numeric,min=1", map[string]any{"page": "0"}, "Invalid argument `page`: failed `min=1`"},
		{"numeric zero below min", "omitempty,numeric,min=1", map[string]any{"page": json.Number("0")}, "Invalid argument `page`: failed `min=1`"},
		{"numeric string above max", "omitempty,numeric,min=1,max=100", map[string]any{"page": "500"}, "Invalid argument `page`: failed `max=100`"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := result.New(nil)
			ok := v.Validate(tt.args, Rules{"page": tt.tag}, res)
			if ok {
				t.Fatalf("arguments:arguments_test - Validate passed for %v", tt.args)
			}
			errs := res.Errors()
			if len(errs) != 1 {
				t.Fatalf("arguments:arguments_test - got %d errors %+v, want 1", len(errs), errs)
			}
			if errs[0].Code != result.BadArgument {
				t.Errorf("arguments:arguments_test - code = %v, want BAD_ARGUMENT", errs[0].Code)
			}
			if tt.want != "" && errs[0].Text != tt.want {
				t.Errorf("arguments:arguments_test - text = %q, want %q", errs[0].Text, tt.want)
			}
		})
	}
}

func TestValidate_BlankOptional(t *testing.T) {
	res := result.New(nil)
	if !NewValidator().Validate(map[string]any{"page": " "}, Rules{"page": "omitempty,numeric,min=1"}, res) {
		t.Fatalf("arguments:arguments_test - blank optional argument rejected: %+v", res.Errors())
	}
}

func TestValidate_NoRules(t *testing.T) {
	res := result.New(nil)
	if !NewValidator().Validate(map[string]any{"anything": "goes"}, nil, res) {
		t.Fatalf("arguments:arguments_test - empty rules should pass")
	}
}

func TestCheck(t *testing.T) {
	v := NewValidator()
	if err := v.Check(Rules{"id": "required,numeric", "page": "omitempty,min=1"}); err != nil {
		t.Errorf("arguments:arguments_test - valid rules rejected: %v", err)
	}
	if err := v.Check(Rules{"id": "required,definitely_not_a_tag"}); err == nil {
		t.Errorf("arguments:arguments_test - unknown tag accepted")
	}
}

func TestRulesNames(t *testing.T) {
	names := Rules{"b": "", "a": "", "c": ""}.Names()
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Errorf("arguments:arguments_test - Names = %v", names)
	}
}
