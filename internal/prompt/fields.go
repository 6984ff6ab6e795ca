package prompt

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"compass/internal/util/jsonutil"
)

// Field describes a single output field of a reply schema.
type Field struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// Schema is the machine-readable description of an expected reply, appended
// to every prompt that asks for it.
type Schema struct {
	Fields []Field
	Format string
}

// NewSchema describes v's struct tags and renders example as the required
// JSON shape. Build it once per reply type and reuse it.
func NewSchema(v any, example any) (Schema, error) {
	fields, err := FieldsFromStruct(v)
	if err != nil {
		return Schema{}, err
	}
	b, err := jsonutil.MarshalNoEscapeIndent(example, "  ")
	if err != nil {
		return Schema{}, fmt.Errorf("prompt: encode example: %w", err)
	}
	format := "Reply with a single JSON object and nothing else. No markdown, no commentary.\n" +
		"Use exactly these keys, with no extra keys:\n" + string(b)
	return Schema{Fields: fields, Format: format}, nil
}

// MustSchema panics on error; useful for package-level schema values.
func MustSchema(v any, example any) Schema {
	s, err := NewSchema(v, example)
	if err != nil {
		panic(err)
	}
	return s
}

// FieldsFromStruct builds prompt fields from a Go struct using tags:
//   - json:        field name ("-" skips)
//   - prompt_desc: description
//   - prompt_type: overrides the derived type, e.g. an enum listing
//   - prompt_len:  exact slice length, rendered into the type
//   - prompt:      "optional" or "-"
//
// Nested structs, and slices of structs, are flattened with dotted names
// ("analysis.points", "classifications[].category").
func FieldsFromStruct(v any) ([]Field, error) {
	if v == nil {
		return nil, fmt.Errorf("prompt: struct is nil")
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("prompt: expected struct, got %s", t.Kind())
	}
	var out []Field
	collect(t, "", &out)
	return out, nil
}

func collect(t reflect.Type, prefix string, out *[]Field) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		opt, skip := promptTag(f)
		if skip {
			continue
		}
		name := fieldName(f)
		if name == "" {
			continue
		}
		full := prefix + name
		*out = append(*out, Field{
			Name:        full,
			Type:        fieldType(f),
			Required:    !opt,
			Description: strings.TrimSpace(f.Tag.Get("prompt_desc")),
		})

		ft := deref(f.Type)
		switch {
		case ft.Kind() == reflect.Struct:
			collect(ft, full+".", out)
		case ft.Kind() == reflect.Slice && deref(ft.Elem()).Kind() == reflect.Struct:
			collect(deref(ft.Elem()), full+"[].", out)
		}
	}
}

func promptTag(f reflect.StructField) (optional, skip bool) {
	tag := strings.TrimSpace(f.Tag.Get("prompt"))
	for _, part := range strings.Split(tag, ",") {
		switch strings.TrimSpace(part) {
		case "-", "omit":
			skip = true
		case "optional":
			optional = true
		}
	}
	return optional, skip
}

func fieldName(f reflect.StructField) string {
	tag := strings.TrimSpace(f.Tag.Get("json"))
	if tag != "" {
		name := strings.Split(tag, ",")[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func fieldType(f reflect.StructField) string {
	typ := strings.TrimSpace(f.Tag.Get("prompt_type"))
	if typ == "" {
		typ = typeString(f.Type)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(f.Tag.Get("prompt_len"))); err == nil && n > 0 {
		typ = fmt.Sprintf("%s, exactly %d items", typ, n)
	}
	return typ
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeString(t reflect.Type) string {
	t = deref(t)
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array of " + typeString(t.Elem())
	case reflect.Map:
		return "object"
	case reflect.Struct:
		return "object"
	case reflect.Interface:
		return "any"
	default:
		return t.Kind().String()
	}
}
