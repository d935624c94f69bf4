package model

import (
	"fmt"
	"strings"
)

// FieldKind is the primitive type tag a collection schema declares for a field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldNumber   FieldKind = "number"
	FieldBool     FieldKind = "bool"
	FieldRelation FieldKind = "relation"
	FieldFile     FieldKind = "file"
)

// CollectionKind distinguishes auth collections (users and the like) from plain ones.
type CollectionKind string

const (
	CollectionBase CollectionKind = "base"
	CollectionAuth CollectionKind = "auth"
)

// Valid reports whether k is a collection kind the generator understands.
func (k CollectionKind) Valid() bool {
	return k == CollectionBase || k == CollectionAuth
}

type Field struct {
	Name     string    `json:"name" yaml:"name"`
	Kind     FieldKind `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
}

type Collection struct {
	Name   string         `json:"name" yaml:"name"`
	Kind   CollectionKind `json:"type" yaml:"type"`
	Fields []*Field       `json:"fields" yaml:"fields"`
}

func (c *Collection) String() string {
	if c == nil {
		return "<nil>"
	}
	names := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		names = append(names, fmt.Sprintf("%s:%s", f.Name, f.Kind))
	}
	return fmt.Sprintf("%s(%s)[%s]", c.Name, c.Kind, strings.Join(names, ","))
}

// SystemField describes a backend-managed member present on every record.
type SystemField struct {
	Name string
	Kind FieldKind
}

var (
	BaseSystemFields = []SystemField{
		{Name: "id", Kind: FieldText},
		{Name: "created", Kind: FieldText},
		{Name: "updated", Kind: FieldText},
	}
	// AuthSystemFields extends BaseSystemFields for auth collections.
	AuthSystemFields = []SystemField{
		{Name: "email", Kind: FieldText},
		{Name: "emailVisibility", Kind: FieldBool},
		{Name: "username", Kind: FieldText},
		{Name: "verified", Kind: FieldBool},
	}
)

// SystemFieldsFor returns the ordered system fields for a collection kind.
func SystemFieldsFor(kind CollectionKind) []SystemField {
	out := make([]SystemField, 0, len(BaseSystemFields)+len(AuthSystemFields))
	out = append(out, BaseSystemFields...)
	if kind == CollectionAuth {
		out = append(out, AuthSystemFields...)
	}
	return out
}
