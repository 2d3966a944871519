package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Kind is the basic JSON kind a top-level field must have.
type Kind string

const (
	KindString      Kind = "string"
	KindNumber      Kind = "number"
	KindInteger     Kind = "integer"
	KindBoolean     Kind = "boolean"
	KindObject      Kind = "object"
	KindArray       Kind = "array"
	KindStringArray Kind = "array-of-string"
)

// ParseKind converts a textual kind into a Kind. Besides the canonical names
// it accepts a few spellings that show up in hand-written field lists, such as
// "bool", "[]string" and "string[]".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str", "text":
		return KindString, nil
	case "number", "float", "float64":
		return KindNumber, nil
	case "integer", "int":
		return KindInteger, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "object", "map":
		return KindObject, nil
	case "array", "list":
		return KindArray, nil
	case "array-of-string", "[]string", "string[]", "strings":
		return KindStringArray, nil
	default:
		return "", fmt.Errorf("unknown field kind %q", s)
	}
}

func (k Kind) schema() (map[string]any, error) {
	switch k {
	case KindString, KindNumber, KindInteger, KindBoolean, KindObject, KindArray:
		return map[string]any{"type": string(k)}, nil
	case KindStringArray:
		return map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}, nil
	default:
		return nil, fmt.Errorf("unknown field kind %q", k)
	}
}

// Field declares one top-level key of a Shape.
type Field struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// Optional fields may be absent. When present they must still match Kind.
	Optional bool `json:"optional,omitempty"`
}

// Required declares a field that must be present with the given kind.
func Required(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind}
}

// Optional declares a field that is kind-checked only when present.
func Optional(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind, Optional: true}
}

// ParseField parses "name:kind" and "name:kind?" (optional) declarations.
// A bare name is a required string.
func ParseField(spec string) (Field, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Field{}, errors.New("empty field declaration")
	}

	name, kindText, hasKind := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Field{}, fmt.Errorf("field declaration %q has no name", spec)
	}
	if !hasKind {
		return Required(name, KindString), nil
	}

	kindText = strings.TrimSpace(kindText)
	optional := strings.HasSuffix(kindText, "?")
	kind, err := ParseKind(strings.TrimSuffix(kindText, "?"))
	if err != nil {
		return Field{}, fmt.Errorf("field %q: %w", name, err)
	}

	return Field{Name: name, Kind: kind, Optional: optional}, nil
}

// Shape is the structural contract an extracted object must satisfy to count
// as parsed. It is compiled into a JSON Schema once, at construction, and is
// immutable afterwards, so a single Shape can be shared by concurrent callers.
type Shape struct {
	fields   []Field
	document []byte
	schema   *jsonschema.Schema
}

// NewShape builds a Shape from field declarations. Field names must be
// non-empty and unique. A Shape with no fields accepts any JSON object.
func NewShape(fields ...Field) (*Shape, error) {
	seen := make(map[string]bool, len(fields))
	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))

	for _, field := range fields {
		if field.Name == "" {
			return nil, errors.New("shape field with empty name")
		}
		if seen[field.Name] {
			return nil, fmt.Errorf("duplicate shape field %q", field.Name)
		}
		seen[field.Name] = true

		property, err := field.Kind.schema()
		if err != nil {
			return nil, fmt.Errorf("shape field %q: %w", field.Name, err)
		}
		properties[field.Name] = property

		if !field.Optional {
			required = append(required, field.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	document, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling shape schema: %w", err)
	}

	compiled, err := compileSchema(document)
	if err != nil {
		return nil, err
	}

	return &Shape{
		fields:   append([]Field(nil), fields...),
		document: document,
		schema:   compiled,
	}, nil
}

// MustShape is like NewShape but panics on an invalid declaration. It is meant
// for package-level shape variables.
func MustShape(fields ...Field) *Shape {
	shape, err := NewShape(fields...)
	if err != nil {
		panic(fmt.Sprintf("extract: %v", err))
	}
	return shape
}

// compileSchema compiles a schema document. The compiler wants a decoded JSON
// value rather than Go-typed maps, so the document is round-tripped first.
func compileSchema(document []byte) (*jsonschema.Schema, error) {
	var value any
	if err := json.Unmarshal(document, &value); err != nil {
		return nil, fmt.Errorf("unmarshaling shape schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("shape.json", value); err != nil {
		return nil, fmt.Errorf("adding shape schema resource: %w", err)
	}

	compiled, err := compiler.Compile("shape.json")
	if err != nil {
		return nil, fmt.Errorf("compiling shape schema: %w", err)
	}
	return compiled, nil
}

// Fields returns a copy of the field declarations.
func (s *Shape) Fields() []Field {
	if s == nil {
		return nil
	}
	return append([]Field(nil), s.fields...)
}

// Required returns the names of the required fields, in declaration order.
func (s *Shape) Required() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.fields))
	for _, field := range s.fields {
		if !field.Optional {
			names = append(names, field.Name)
		}
	}
	return names
}

// Schema returns a fresh copy of the JSON Schema document for the shape. It is
// suitable for embedding in prompts or provider response-format hints.
func (s *Shape) Schema() map[string]any {
	if s == nil {
		return map[string]any{"type": "object"}
	}
	var doc map[string]any
	if err := json.Unmarshal(s.document, &doc); err != nil {
		return map[string]any{"type": "object"}
	}
	return doc
}

// SchemaJSON returns the JSON Schema document as compact JSON text.
func (s *Shape) SchemaJSON() string {
	if s == nil {
		return `{"type":"object"}`
	}
	return string(s.document)
}

// Validate checks a decoded JSON value against the shape. The value must come
// from encoding/json decoding into any (maps, slices, float64, ...). A nil
// Shape only requires the value to be an object.
func (s *Shape) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return fmt.Errorf("expected a JSON object, got %s", describe(value))
	}
	if s == nil || s.schema == nil {
		return nil
	}
	return s.schema.Validate(value)
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
