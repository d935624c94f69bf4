package parser

import (
	"fmt"

	"github.com/cmmoran/pbmodelgen/internal/model"
)

// TypeMapper maps schema field kinds to Go types. It holds no state.
type TypeMapper struct{}

// NewTypeMapper creates a new TypeMapper
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{}
}

// MapType converts a field kind to its Go type. relation and file map to
// string: a foreign record id and a stored filename, never the resolved
// record or the file contents.
func (tm *TypeMapper) MapType(kind model.FieldKind) (*model.TypeRef, error) {
	switch kind {
	case model.FieldText, model.FieldRelation, model.FieldFile:
		return &model.TypeRef{Name: "string"}, nil
	case model.FieldNumber:
		// JSON numbers carry both integers and floats.
		return &model.TypeRef{Name: "float64"}, nil
	case model.FieldBool:
		return &model.TypeRef{Name: "bool"}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnmappedKind, string(kind))
	}
}

// MapOptionality applies the nullability rule of a shape to a member.
//
//	record – optional iff the descriptor is not required; system members are required
//	create – always optional
//	update – always optional and tri-state (absent / null / value)
func (tm *TypeMapper) MapOptionality(shape model.ShapeKind, required bool) (optional, nullable bool) {
	switch shape {
	case model.ShapeRecord:
		return !required, false
	case model.ShapeCreate:
		return true, false
	default:
		return true, true
	}
}
