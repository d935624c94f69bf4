package parser

import (
	"fmt"

	"github.com/cmmoran/pbmodelgen/internal/model"
	"github.com/cmmoran/pbmodelgen/pkg/parser"
)

// Builder turns collection descriptors into the Record/Create/Update IR.
type Builder struct {
	opts        *parser.Options
	mapper      *TypeMapper
	collections []*model.Collection

	// typeNames tracks every top-level identifier emitted into the file.
	typeNames map[string]string
}

// NewBuilder initializes a Builder with options and the ordered descriptors.
func NewBuilder(opts *parser.Options, collections []*model.Collection) *Builder {
	return &Builder{
		opts:        opts,
		mapper:      NewTypeMapper(),
		collections: collections,
		typeNames:   make(map[string]string),
	}
}

// BuildAll is the main entrypoint:
//  1. Reject duplicate collection names across all descriptors.
//  2. Skip excluded collections.
//  3. Build one TypeTriple per remaining collection, in input order.
//
// Any error aborts the whole build; no partial result is returned.
func (b *Builder) BuildAll() ([]*model.TypeTriple, error) {
	seen := make(map[string]bool, len(b.collections))
	for _, c := range b.collections {
		if c == nil {
			continue
		}
		if seen[c.Name] {
			return nil, &GenerationError{Collection: c.Name, Err: ErrDuplicateCollection}
		}
		seen[c.Name] = true
	}

	b.typeNames = make(map[string]string)
	for _, name := range []string{b.opts.EnumName, "All" + b.opts.EnumName} {
		if err := b.reserve(name, "enumeration"); err != nil {
			return nil, err
		}
	}

	out := make([]*model.TypeTriple, 0, len(b.collections))
	for _, c := range b.collections {
		if c == nil || parser.ShouldOmitCollection(c.Name, b.opts) {
			continue
		}
		t, err := b.buildTriple(c)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (b *Builder) buildTriple(c *model.Collection) (*model.TypeTriple, error) {
	if !c.Kind.Valid() {
		return nil, &GenerationError{Collection: c.Name, Err: fmt.Errorf("%w: %q", ErrUnknownCollectionKind, string(c.Kind))}
	}

	base := typeName(c.Name, b.opts.Singularize)
	t := &model.TypeTriple{
		Collection: c,
		Enum:       &model.EnumEntry{GoName: b.opts.EnumPrefix + goName(c.Name), Value: c.Name},
		Record: &model.Shape{
			Name:    base,
			Kind:    model.ShapeRecord,
			Comment: fmt.Sprintf("%s is a record of the %q collection.", base, c.Name),
		},
		Create: &model.Shape{
			Name:    base + b.opts.CreateSuffix,
			Kind:    model.ShapeCreate,
			Comment: fmt.Sprintf("%s is the input for creating a %q record.", base+b.opts.CreateSuffix, c.Name),
		},
		Update: &model.Shape{
			Name:    base + b.opts.UpdateSuffix,
			Kind:    model.ShapeUpdate,
			Comment: fmt.Sprintf("%s is a sparse patch of a %q record; nil members are not sent.", base+b.opts.UpdateSuffix, c.Name),
		},
	}

	for _, name := range []string{t.Enum.GoName, t.Record.Name, t.Create.Name, t.Update.Name} {
		if err := b.reserve(name, c.Name); err != nil {
			return nil, err
		}
	}

	members, err := b.resolveMembers(c)
	if err != nil {
		return nil, err
	}
	for _, shape := range t.Shapes() {
		shape.Members = b.shapeMembers(shape.Kind, members)
	}
	return t, nil
}

// resolvedMember is a member before per-shape optionality is applied.
type resolvedMember struct {
	goName   string
	jsonName string
	system   bool
	required bool
	typ      *model.TypeRef
}

// resolveMembers maps system fields followed by user fields, checking for
// unmapped kinds and Go identifier collisions.
func (b *Builder) resolveMembers(c *model.Collection) ([]resolvedMember, error) {
	var (
		out     []resolvedMember
		goNames = make(map[string]string)
		jsNames = make(map[string]bool)
	)

	add := func(rm resolvedMember) error {
		if jsNames[rm.jsonName] {
			return &GenerationError{Collection: c.Name, Field: rm.jsonName, Err: fmt.Errorf("%w: field %q declared twice", ErrNameCollision, rm.jsonName)}
		}
		if prev, ok := goNames[rm.goName]; ok {
			return &GenerationError{Collection: c.Name, Field: rm.jsonName, Err: fmt.Errorf("%w: %q and %q both map to %s", ErrNameCollision, prev, rm.jsonName, rm.goName)}
		}
		jsNames[rm.jsonName] = true
		goNames[rm.goName] = rm.jsonName
		out = append(out, rm)
		return nil
	}

	for _, sf := range model.SystemFieldsFor(c.Kind) {
		typ, err := b.mapper.MapType(sf.Kind)
		if err != nil {
			return nil, &GenerationError{Collection: c.Name, Field: sf.Name, Err: err}
		}
		if err = add(resolvedMember{goName: goName(sf.Name), jsonName: sf.Name, system: true, required: true, typ: typ}); err != nil {
			return nil, err
		}
	}

	for _, f := range c.Fields {
		if f == nil {
			continue
		}
		// Exclusion runs before mapping so an unmappable field can be skipped explicitly.
		if parser.ShouldOmitField(c.Name, f.Name, b.opts) {
			continue
		}
		typ, err := b.mapper.MapType(f.Kind)
		if err != nil {
			return nil, &GenerationError{Collection: c.Name, Field: f.Name, Err: err}
		}
		if err = add(resolvedMember{goName: goName(f.Name), jsonName: f.Name, required: f.Required, typ: typ}); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (b *Builder) shapeMembers(kind model.ShapeKind, resolved []resolvedMember) []*model.Member {
	out := make([]*model.Member, 0, len(resolved))
	for _, rm := range resolved {
		optional, nullable := b.mapper.MapOptionality(kind, rm.required)
		out = append(out, &model.Member{
			GoName:   rm.goName,
			JSONName: rm.jsonName,
			System:   rm.system,
			Type:     rm.typ,
			Optional: optional,
			Nullable: nullable,
		})
	}
	return out
}

// reserve records a top-level identifier, failing when another collection
// already produced it.
func (b *Builder) reserve(name, owner string) error {
	if prev, ok := b.typeNames[name]; ok {
		return &GenerationError{Collection: owner, Err: fmt.Errorf("%w: %s is already generated for %s", ErrNameCollision, name, prev)}
	}
	b.typeNames[name] = owner
	return nil
}
