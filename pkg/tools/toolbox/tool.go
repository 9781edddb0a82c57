package toolbox

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// ErrInvalidTool is returned when a tool fails registration checks.
var ErrInvalidTool = errors.New("toolbox: invalid tool")

// Handler executes a tool with the given JSON input and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a named operation with a JSON Schema describing its arguments and
// the handler that executes it.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// Validate checks that the tool has a name, a handler, and an object input
// schema.
func (t Tool) Validate() error {
	if t.Name == "" {
		return errors.Wrap(ErrInvalidTool, "name is required")
	}
	if t.Handler == nil {
		return errors.Wrapf(ErrInvalidTool, "%s: handler is required", t.Name)
	}
	if len(t.InputSchema) == 0 {
		return errors.Wrapf(ErrInvalidTool, "%s: input schema is required", t.Name)
	}

	var schema struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
		return errors.Wrapf(ErrInvalidTool, "%s: input schema: %v", t.Name, err)
	}
	if schema.Type != "object" {
		return errors.Wrapf(ErrInvalidTool, "%s: input schema type must be object, got %q", t.Name, schema.Type)
	}

	return nil
}

// SchemaFor reflects the JSON Schema of the argument struct In. Properties
// keep the field order of the struct. Fields without omitempty are required.
func SchemaFor[In any]() json.RawMessage {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}

	var in In
	s := r.Reflect(in)
	s.Version = ""

	data, err := json.Marshal(s)
	if err != nil {
		// Reflected schemas of plain structs always marshal.
		panic(errors.Wrap(err, "toolbox: marshal schema"))
	}

	return data
}

// ErrInvalidArguments is returned by a Typed handler when the input does not
// decode into its argument struct.
var ErrInvalidArguments = errors.New("toolbox: invalid arguments")

var validate = validator.New()

// Typed adapts fn into a Handler that decodes the JSON input into In.
//
// The input must be well-formed JSON. Numeric fields accept a number or a
// string holding one ("3" becomes 3), integer fields reject fractions, and
// string fields accept only strings. After decoding, In is checked with its
// validate tags, so a pointer field tagged required rejects a missing value.
func Typed[In any](fn func(ctx context.Context, in In) (string, error)) Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		if len(bytes.TrimSpace(input)) == 0 {
			input = json.RawMessage("{}")
		}
		if !json.Valid(input) {
			return "", errors.Wrapf(ErrInvalidArguments, "decode arguments: malformed JSON %q", input)
		}

		var in In
		input, err := normalizeFields(input, reflect.TypeOf(in))
		if err != nil {
			return "", errors.Wrapf(ErrInvalidArguments, "decode arguments: %v", err)
		}
		if err := ljson.Unmarshal(input, &in); err != nil {
			return "", errors.Wrapf(ErrInvalidArguments, "decode arguments: %v", err)
		}
		if isStruct(reflect.TypeOf(in)) {
			if err := validate.Struct(in); err != nil {
				return "", errors.Wrapf(ErrInvalidArguments, "validate arguments: %v", err)
			}
		}

		return fn(ctx, in)
	}
}

func isStruct(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}

// normalizeFields checks every field of the input object against its struct
// field and rewrites numeric strings as JSON numbers. Values the lenient
// decoder would silently coerce are rejected: a non-numeric value for a
// numeric field, a fraction for an integer field, a non-string for a string
// field.
func normalizeFields(input json.RawMessage, t reflect.Type) (json.RawMessage, error) {
	if !isStruct(t) {
		return input, nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(input, &fields); err != nil {
		return nil, errors.New("arguments must be a JSON object")
	}

	changed := false
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		raw, ok := fields[name]
		if !ok {
			continue
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		v, err := normalizeValue(raw, ft.Kind())
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		if !bytes.Equal(v, raw) {
			fields[name] = v
			changed = true
		}
	}

	if !changed {
		return input, nil
	}
	return json.Marshal(fields)
}

func normalizeValue(raw json.RawMessage, kind reflect.Kind) (json.RawMessage, error) {
	v, err := decodeNumber(raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return raw, nil
	}

	switch kind {
	case reflect.String:
		if _, ok := v.(string); !ok {
			return nil, errors.Newf("expected a string, got %s", raw)
		}
		return raw, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := numberOf(v, raw)
		if err != nil {
			return nil, err
		}
		if i, err := n.Int64(); err == nil {
			return json.RawMessage(strconv.FormatInt(i, 10)), nil
		}
		return nil, errors.Newf("expected an integer, got %s", raw)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := numberOf(v, raw)
		if err != nil {
			return nil, err
		}
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return json.RawMessage(strconv.FormatUint(u, 10)), nil
		}
		return nil, errors.Newf("expected a non-negative integer, got %s", raw)
	case reflect.Float32, reflect.Float64:
		n, err := numberOf(v, raw)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(n.String()), nil
	default:
		return raw, nil
	}
}

func decodeNumber(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.Newf("unexpected data after %s", raw)
	}
	return v, nil
}

// numberOf returns v as a JSON number. A string qualifies when its content
// is itself a JSON number literal.
func numberOf(v any, raw json.RawMessage) (json.Number, error) {
	switch x := v.(type) {
	case json.Number:
		return integral(x), nil
	case string:
		if inner, err := decodeNumber([]byte(x)); err == nil {
			if n, ok := inner.(json.Number); ok {
				return integral(n), nil
			}
		}
	}
	return "", errors.Newf("expected a number, got %s", raw)
}

// integral rewrites a whole number written with a fraction or exponent, such
// as 3.0 or 1e2, in plain integer form.
func integral(n json.Number) json.Number {
	if _, err := n.Int64(); err == nil {
		return n
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= 1<<53 {
		return n
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// NewTool builds a Tool whose schema is reflected from In and whose handler
// decodes arguments into In.
func NewTool[In any](name, description string, fn func(ctx context.Context, in In) (string, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: SchemaFor[In](),
		Handler:     Typed(fn),
	}
}
