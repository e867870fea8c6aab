/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/suparena/typedmodels/errors"
)

// FieldType is the abstract storage type of a field.
type FieldType int

const (
	TypeString FieldType = iota
	TypeText
	TypeInt
	TypeFloat
	TypeBool
	TypeDateTime
	TypeUUID

	// Relations
	TypeForeignKey
	TypeOneToOne
	TypeManyToMany
	TypeGenericRelation
	TypeReverseRelation
)

// String returns the string representation of the field type
func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeDateTime:
		return "datetime"
	case TypeUUID:
		return "uuid"
	case TypeForeignKey:
		return "foreign_key"
	case TypeOneToOne:
		return "one_to_one"
	case TypeManyToMany:
		return "many_to_many"
	case TypeGenericRelation:
		return "generic_relation"
	case TypeReverseRelation:
		return "reverse_relation"
	default:
		return "unknown"
	}
}

// ParseFieldType converts a string to a FieldType
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(s) {
	case "string", "char":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int", "integer":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "datetime", "timestamp":
		return TypeDateTime, nil
	case "uuid":
		return TypeUUID, nil
	case "foreign_key", "fk":
		return TypeForeignKey, nil
	case "one_to_one":
		return TypeOneToOne, nil
	case "many_to_many", "m2m":
		return TypeManyToMany, nil
	case "generic_relation":
		return TypeGenericRelation, nil
	default:
		return 0, fmt.Errorf("unknown field type: %s", s)
	}
}

// Choice is one allowed value of a field, with its human-readable label.
type Choice struct {
	Value string
	Label string
}

// Field describes a single column (or relation) of a typed hierarchy.
type Field struct {
	Name      string
	Type      FieldType
	Null      bool
	Default   any
	MaxLength int
	Index     bool
	Unique    bool
	Primary   bool

	// Private fields are bookkeeping fields hidden from ordinary field lists.
	Private bool

	Choices []Choice

	// Relations
	Related        string   // target model; "self" for the declaring class
	RelatedName    string   // accessor on the target side; derived from Owner when empty
	LimitChoicesTo []string // advisory: discriminators the relation may point at

	// Owner is the class that declared the field.
	Owner string
}

// IsRelation reports whether the field points at another model.
func (f *Field) IsRelation() bool {
	switch f.Type {
	case TypeForeignKey, TypeOneToOne, TypeManyToMany, TypeGenericRelation, TypeReverseRelation:
		return true
	}
	return false
}

// IsMultiValued reports whether the field holds a set of related keys.
func (f *Field) IsMultiValued() bool {
	return f.Type == TypeManyToMany || f.Type == TypeGenericRelation || f.Type == TypeReverseRelation
}

// IsConcrete reports whether the field is a plain column of the table.
func (f *Field) IsConcrete() bool {
	return !f.IsMultiValued()
}

// AcceptsAbsent reports whether rows of sibling classes can leave the field empty.
func (f *Field) AcceptsAbsent() bool {
	return f.Null || f.Default != nil || f.IsMultiValued()
}

// AccessorName returns the name under which the relation is reachable from its target.
func (f *Field) AccessorName() string {
	if f.RelatedName != "" {
		return f.RelatedName
	}
	if f.Type == TypeOneToOne {
		return strings.ToLower(f.Owner)
	}
	return strings.ToLower(f.Owner) + "_set"
}

// Equivalent reports whether f and o are the same definition, ignoring name and owner.
func (f *Field) Equivalent(o *Field) bool {
	a, b := *f, *o
	a.Name, b.Name = "", ""
	a.Owner, b.Owner = "", ""
	for _, x := range []*Field{&a, &b} {
		if len(x.Choices) == 0 {
			x.Choices = nil
		}
		if len(x.LimitChoicesTo) == 0 {
			x.LimitChoicesTo = nil
		}
	}
	if !sameDefault(a.Default, b.Default) {
		return false
	}
	a.Default, b.Default = nil, nil
	return reflect.DeepEqual(a, b)
}

// sameDefault compares defaults; func defaults are equal when they are the same function.
func sameDefault(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Func || vb.Kind() == reflect.Func {
		return va.Kind() == vb.Kind() && va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
	}
	return reflect.DeepEqual(a, b)
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	c := *f
	c.Choices = append([]Choice(nil), f.Choices...)
	c.LimitChoicesTo = append([]string(nil), f.LimitChoicesTo...)
	return &c
}

// DefaultValue returns the value a new record starts with.
func (f *Field) DefaultValue() any {
	if f.IsMultiValued() {
		return []string{}
	}
	if fn, ok := f.Default.(func() any); ok {
		return fn()
	}
	return f.Default
}

// Coerce converts v into the canonical Go value for the field.
func (f *Field) Coerce(v any) (any, error) {
	if v == nil {
		if f.IsMultiValued() {
			return []string{}, nil
		}
		return nil, nil
	}

	switch f.Type {
	case TypeString, TypeText:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, f.invalid(err)
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
			return nil, errors.NewValidationError(f.Name, fmt.Sprintf("longer than %d characters", f.MaxLength))
		}
		return s, nil
	case TypeInt:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, f.invalid(err)
		}
		return n, nil
	case TypeFloat:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, f.invalid(err)
		}
		return n, nil
	case TypeBool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, f.invalid(err)
		}
		return b, nil
	case TypeDateTime:
		return f.coerceDateTime(v)
	case TypeUUID:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, f.invalid(err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, f.invalid(err)
		}
		return id.String(), nil
	case TypeForeignKey, TypeOneToOne:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, f.invalid(err)
		}
		if s == "" {
			return nil, nil
		}
		return s, nil
	case TypeManyToMany, TypeGenericRelation, TypeReverseRelation:
		return f.coerceKeys(v)
	}
	return v, nil
}

// Storable converts a canonical value into a value every backend can persist.
func (f *Field) Storable(v any) any {
	switch t := v.(type) {
	case strfmt.DateTime:
		return t.String()
	case []string:
		return append([]string(nil), t...)
	}
	return v
}

func (f *Field) coerceDateTime(v any) (any, error) {
	switch t := v.(type) {
	case strfmt.DateTime:
		return t, nil
	case *strfmt.DateTime:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case time.Time:
		return strfmt.DateTime(t), nil
	case string:
		if t == "" {
			return nil, nil
		}
		dt, err := strfmt.ParseDateTime(t)
		if err != nil {
			return nil, f.invalid(err)
		}
		return dt, nil
	}
	return nil, errors.NewValidationError(f.Name, fmt.Sprintf("unsupported datetime value %T", v))
}

func (f *Field) coerceKeys(v any) (any, error) {
	var raw []byte
	switch t := v.(type) {
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	default:
		keys, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil, f.invalid(err)
		}
		return keys, nil
	}
	if len(raw) == 0 {
		return []string{}, nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, f.invalid(err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func (f *Field) invalid(err error) error {
	return errors.NewValidationError(f.Name, err.Error())
}
