package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForm() *Form {
	return &Form{
		StepID: "test",
		Fields: []Field{
			{Name: "name", Type: FieldString, Required: true, Default: "omv"},
			{Name: "interval", Type: FieldInteger, Default: 60},
			{Name: "flag", Type: FieldBoolean, Default: true},
		},
	}
}

func TestCoerceFillsDefaults(t *testing.T) {
	got, err := testForm().Coerce(map[string]interface{}{"name": "nas"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "nas", "interval": 60, "flag": true}, got)
}

func TestCoerceConvertsTypes(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
		want  map[string]interface{}
	}{
		{
			name:  "json float",
			input: map[string]interface{}{"name": "a", "interval": float64(30), "flag": false},
			want:  map[string]interface{}{"name": "a", "interval": 30, "flag": false},
		},
		{
			name:  "json number",
			input: map[string]interface{}{"name": "a", "interval": json.Number("45")},
			want:  map[string]interface{}{"name": "a", "interval": 45, "flag": true},
		},
		{
			name:  "form strings",
			input: map[string]interface{}{"name": "a", "interval": " 90 ", "flag": "off"},
			want:  map[string]interface{}{"name": "a", "interval": 90, "flag": false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testForm().Coerce(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceRejects(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
		field string
	}{
		{"missing required", map[string]interface{}{"interval": 5}, "name"},
		{"null required", map[string]interface{}{"name": nil}, "name"},
		{"unknown key", map[string]interface{}{"name": "a", "extra": 1}, "extra"},
		{"fractional int", map[string]interface{}{"name": "a", "interval": 1.5}, "interval"},
		{"bad bool", map[string]interface{}{"name": "a", "flag": "maybe"}, "flag"},
		{"non string", map[string]interface{}{"name": 7}, "name"},
		{"huge float", map[string]interface{}{"name": "a", "interval": 1e300}, "interval"},
		{"negative huge float", map[string]interface{}{"name": "a", "interval": -1e300}, "interval"},
		{"two to the 63", map[string]interface{}{"name": "a", "interval": 9223372036854775808.0}, "interval"},
		{"huge json number", map[string]interface{}{"name": "a", "interval": json.Number("1e300")}, "interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testForm().Coerce(tt.input)
			require.ErrorIs(t, err, ErrInvalidInput)
			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}
