package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned when submitted values do not fit the form.
var ErrInvalidInput = errors.New("invalid flow input")

// FieldType is the value type a form field accepts.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
)

// Field declares one form input.
type Field struct {
	Name     string      `json:"name"`
	Type     FieldType   `json:"type"`
	Required bool        `json:"required"`
	Default  interface{} `json:"default"`
}

// Form is a render request: the fields to show, their defaults and any errors.
type Form struct {
	StepID   string            `json:"step_id"`
	Fields   []Field           `json:"fields"`
	Errors   map[string]string `json:"errors"`
	LastStep bool              `json:"last_step,omitempty"`
}

// InputError reports which field failed coercion.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: field %q %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Field returns the declared field called name.
func (f *Form) Field(name string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return Field{}, false
}

// Defaults returns the field defaults as a flat mapping.
func (f *Form) Defaults() map[string]interface{} {
	out := make(map[string]interface{}, len(f.Fields))
	for _, fd := range f.Fields {
		out[fd.Name] = fd.Default
	}
	return out
}

// Coerce validates input against the form. Missing optional fields take the
// field default, values are converted to the declared type and unknown keys
// are rejected.
func (f *Form) Coerce(input map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(f.Fields))
	for k := range input {
		if _, ok := f.Field(k); !ok {
			return nil, &InputError{Field: k, Reason: "is not part of the form"}
		}
	}
	for _, fd := range f.Fields {
		raw, present := input[fd.Name]
		if !present || raw == nil {
			if fd.Required {
				return nil, &InputError{Field: fd.Name, Reason: "is required"}
			}
			if fd.Default != nil {
				out[fd.Name] = fd.Default
			}
			continue
		}
		v, err := coerceValue(fd.Type, raw)
		if err != nil {
			return nil, &InputError{Field: fd.Name, Reason: err.Error()}
		}
		out[fd.Name] = v
	}
	return out, nil
}

func coerceValue(t FieldType, raw interface{}) (interface{}, error) {
	switch t {
	case FieldString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expects a string, got %T", raw)
		}
		return s, nil
	case FieldInteger:
		return toInt(raw)
	case FieldBoolean:
		return toBool(raw)
	}
	return nil, fmt.Errorf("has unsupported type %q", t)
}

func toInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return fitInt(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expects an integer, got %v", v)
		}
		// float64(math.MaxInt64) rounds up to 2^63, hence >=.
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("integer %v out of range", v)
		}
		return fitInt(int64(v))
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("expects an integer, got %q", v)
		}
		return fitInt(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("expects an integer, got %q", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expects an integer, got %T", raw)
}

func fitInt(n int64) (int, error) {
	if int64(int(n)) != n {
		return 0, fmt.Errorf("integer %d out of range", n)
	}
	return int(n), nil
}

func toBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes", "1":
			return true, nil
		case "false", "off", "no", "0", "":
			return false, nil
		}
		return false, fmt.Errorf("expects a boolean, got %q", v)
	}
	return false, fmt.Errorf("expects a boolean, got %T", raw)
}
