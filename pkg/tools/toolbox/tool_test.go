package toolbox

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairArgs struct {
	A int64 `json:"a" jsonschema:"description=First operand"`
	B int64 `json:"b" jsonschema:"description=Second operand"`
}

type requiredPair struct {
	A *int64 `json:"a" validate:"required"`
	B *int64 `json:"b" validate:"required"`
}

type pointArgs struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Label     string   `json:"label,omitempty"`
}

type locationArgs struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label,omitempty"`
}

func TestSchemaFor(t *testing.T) {
	var got map[string]any
	require.NoError(t, json.Unmarshal(SchemaFor[pairArgs](), &got))

	want := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"a", "b"},
		"properties": map[string]any{
			"a": map[string]any{"type": "integer", "description": "First operand"},
			"b": map[string]any{"type": "integer", "description": "Second operand"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaFor_PropertyOrderAndOptional(t *testing.T) {
	raw := string(SchemaFor[locationArgs]())

	assert.Less(t, strings.Index(raw, `"latitude"`), strings.Index(raw, `"longitude"`))
	assert.Less(t, strings.Index(raw, `"longitude"`), strings.Index(raw, `"label"`))

	var got struct {
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, []string{"latitude", "longitude"}, got.Required)
}

func TestTyped(t *testing.T) {
	h := Typed(func(_ context.Context, in pairArgs) (string, error) {
		return strconv.FormatInt(in.A+in.B, 10), nil
	})

	got, err := h(context.Background(), json.RawMessage(`{"a":3,"b":5}`))
	require.NoError(t, err)
	assert.Equal(t, "8", got)
}

func TestTyped_EmptyInput(t *testing.T) {
	h := Typed(func(_ context.Context, in pairArgs) (string, error) {
		assert.Zero(t, in)
		return "ok", nil
	})

	got, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestTyped_InvalidJSON(t *testing.T) {
	h := Typed(func(_ context.Context, _ pairArgs) (string, error) {
		t.Fatal("handler must not run")
		return "", nil
	})

	_, err := h(context.Background(), json.RawMessage(`{"a":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode arguments")
}

func TestTyped_CoercesNumericStrings(t *testing.T) {
	sum := Typed(func(_ context.Context, in requiredPair) (string, error) {
		return strconv.FormatInt(*in.A+*in.B, 10), nil
	})
	point := Typed(func(_ context.Context, in pointArgs) (string, error) {
		return strconv.FormatFloat(*in.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(*in.Longitude, 'f', -1, 64), nil
	})

	tests := []struct {
		name  string
		h     Handler
		input string
		want  string
	}{
		{"numbers", sum, `{"a":3,"b":5}`, "8"},
		{"string operand", sum, `{"a":"3","b":5}`, "8"},
		{"both strings", sum, `{"a":"-4","b":"10"}`, "6"},
		{"integral float", sum, `{"a":3.0,"b":5}`, "8"},
		{"exponent", sum, `{"a":1e2,"b":"2E1"}`, "120"},
		{"zero is present", sum, `{"a":0,"b":0}`, "0"},
		{"float strings", point, `{"latitude":"38.89","longitude":-77.03}`, "38.89,-77.03"},
		{"optional omitted", point, `{"latitude":0,"longitude":0}`, "0,0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.h(context.Background(), json.RawMessage(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTyped_RejectsBadArguments(t *testing.T) {
	sum := Typed(func(_ context.Context, _ requiredPair) (string, error) {
		t.Fatal("handler must not run")
		return "", nil
	})
	point := Typed(func(_ context.Context, _ pointArgs) (string, error) {
		t.Fatal("handler must not run")
		return "", nil
	})

	tests := []struct {
		name  string
		h     Handler
		input string
	}{
		{"truncated object", sum, `{"a":`},
		{"unclosed object", sum, `{"a":3`},
		{"non-numeric string", sum, `{"a":"x","b":2}`},
		{"fractional integer", sum, `{"a":3.5,"b":2}`},
		{"number with trailing text", sum, `{"a":"3 apples","b":2}`},
		{"boolean operand", sum, `{"a":true,"b":2}`},
		{"missing operand", sum, `{"a":3}`},
		{"null operand", sum, `{"a":null,"b":2}`},
		{"empty input", sum, ``},
		{"not an object", sum, `[1,2]`},
		{"non-numeric latitude", point, `{"latitude":"north","longitude":1}`},
		{"label not a string", point, `{"latitude":1,"longitude":1,"label":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.h(context.Background(), json.RawMessage(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArguments), err.Error())
		})
	}
}

func TestValidate(t *testing.T) {
	valid := NewTool("add", "Add", func(_ context.Context, _ pairArgs) (string, error) { return "", nil })
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		tool Tool
		want string
	}{
		{"missing name", Tool{Handler: valid.Handler, InputSchema: valid.InputSchema}, "name is required"},
		{"missing handler", Tool{Name: "x", InputSchema: valid.InputSchema}, "handler is required"},
		{"missing schema", Tool{Name: "x", Handler: valid.Handler}, "input schema is required"},
		{"bad schema", Tool{Name: "x", Handler: valid.Handler, InputSchema: json.RawMessage(`[`)}, "input schema"},
		{"non-object schema", Tool{Name: "x", Handler: valid.Handler, InputSchema: json.RawMessage(`{"type":"string"}`)}, "must be object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tool.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTool))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
