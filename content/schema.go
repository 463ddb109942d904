// Package content declares the site's content collections: which files belong
// to a collection and what shape their frontmatter must take.
//
// Declarations are plain values built once at startup. The package does no
// I/O; walking directories, splitting frontmatter and rendering markdown are
// the job of the host engine (see package contentlayer).
package content

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind is the value type a Field accepts.
type Kind int

const (
	KindString Kind = iota
	KindDate
	KindStringSlice
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindStringSlice:
		return "string[]"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Validation error codes attached to field errors.
const (
	CodeRequired    = "content.required"
	CodeInvalidType = "content.invalid_type"
	CodeInvalidDate = "content.invalid_date"
)

// Field describes one frontmatter key.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
	Default  any
}

// String declares a required string field.
func String(name string) Field { return Field{Name: name, Kind: KindString} }

// Date declares a required date field. Strings and Unix millisecond numbers
// are coerced to time.Time.
func Date(name string) Field { return Field{Name: name, Kind: KindDate} }

// StringSlice declares a required list of strings.
func StringSlice(name string) Field { return Field{Name: name, Kind: KindStringSlice} }

// WithDefault makes the field optional; absent keys take def.
func (f Field) WithDefault(def any) Field {
	f.Optional = true
	f.Default = def
	return f
}

// Record is a validated frontmatter map. It only carries declared fields,
// with values already coerced to their Go types.
type Record map[string]any

// Schema is an ordered set of fields. It is never mutated after Object
// returns it, so one value can be shared by every goroutine.
type Schema struct {
	fields []Field
}

// Object builds a schema from fields, in declaration order.
func Object(fields ...Field) *Schema {
	return &Schema{fields: append([]Field(nil), fields...)}
}

// Fields returns a copy of the declared fields.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks up a declared field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Parse validates raw frontmatter and returns the coerced record. Keys that
// are not declared are dropped. On failure the error is a validation.Errors
// keyed by field path, listing every field that failed.
func (s *Schema) Parse(raw map[string]any) (Record, error) {
	out := make(Record, len(s.fields))
	errs := validation.Errors{}

	for _, f := range s.fields {
		value, present := raw[f.Name]
		if !present {
			if f.Optional {
				out[f.Name] = cloneDefault(f.Default)
				continue
			}
			errs[f.Name] = validation.NewError(CodeRequired, fmt.Sprintf("%s is required", f.Name))
			continue
		}

		switch f.Kind {
		case KindString:
			str, ok := value.(string)
			if !ok {
				errs[f.Name] = invalidType("string", value)
				continue
			}
			out[f.Name] = str
		case KindDate:
			t, err := CoerceDate(value)
			if err != nil {
				errs[f.Name] = err
				continue
			}
			out[f.Name] = t
		case KindStringSlice:
			list, elemErrs, err := coerceStrings(f.Name, value)
			if err != nil {
				errs[f.Name] = err
				continue
			}
			if len(elemErrs) > 0 {
				for k, v := range elemErrs {
					errs[k] = v
				}
				continue
			}
			out[f.Name] = list
		default:
			errs[f.Name] = validation.NewError(CodeInvalidType, "unsupported field kind "+f.Kind.String())
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoerceDate converts a frontmatter value to a time. Zone-less strings are
// read as UTC; numbers are Unix milliseconds. Null and booleans are rejected
// rather than read as the epoch, so a blank date is never silently accepted.
func CoerceDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		s := strings.TrimSpace(v)
		if s != "" {
			for _, layout := range dateLayouts {
				if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
					return t, nil
				}
			}
		}
	case int:
		return time.UnixMilli(int64(v)).UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case uint64:
		if v <= math.MaxInt64 {
			return time.UnixMilli(int64(v)).UTC(), nil
		}
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return time.UnixMilli(int64(v)).UTC(), nil
		}
	}
	return time.Time{}, validation.NewError(CodeInvalidDate, fmt.Sprintf("invalid date %s", describe(value)))
}

func coerceStrings(name string, value any) ([]string, validation.Errors, error) {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...), nil, nil
	case []any:
		out := make([]string, 0, len(v))
		errs := validation.Errors{}
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				errs[name+"."+strconv.Itoa(i)] = invalidType("string", item)
				continue
			}
			out = append(out, s)
		}
		if len(errs) > 0 {
			return nil, errs, nil
		}
		return out, nil, nil
	default:
		return nil, nil, invalidType("array", value)
	}
}

func invalidType(expected string, value any) validation.Error {
	return validation.NewError(CodeInvalidType, fmt.Sprintf("expected %s, received %s", expected, typeName(value)))
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	case time.Time, *time.Time:
		return "date"
	case []any, []string:
		return "array"
	case map[string]any, map[any]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func describe(value any) string {
	if s, ok := value.(string); ok {
		return strconv.Quote(s)
	}
	return typeName(value)
}

func cloneDefault(def any) any {
	switch v := def.(type) {
	case []string:
		return append([]string{}, v...)
	case nil:
		return nil
	default:
		return v
	}
}
