package parser

import (
	"path/filepath"
	"strings"
)

// FieldFilter excludes a field when Collection (or "*") and Field match.
type FieldFilter struct {
	Collection string
	Field      string
}

// Options control generation and rendering.
//
// Package            – package clause of the generated file (default: base of OutDir).
// OutDir             – output directory.
// OutFile            – output filename.
// CreateSuffix       – appended to the record type name for creation inputs.
// UpdateSuffix       – appended to the record type name for partial-update inputs.
// EnumName           – name of the collection enumeration type.
// EnumPrefix         – prefix of each enumeration constant.
// Singularize        – singular record type names (books -> Book).
// ExcludeSystem      – skip collections whose name starts with "_".
// ExcludeCollections – names of collections to skip (case‑insensitive).
// ExcludeFields      – collection.field pairs to skip, "*" matches any collection.
// Goimports          – run goimports over the rendered file.
type Options struct {
	Package            string        `json:"package,omitempty" yaml:"package,omitempty" toml:"package,omitempty" mapstructure:"package,omitempty"`
	OutDir             string        `json:"out_dir,omitempty" yaml:"out_dir,omitempty" toml:"out_dir,omitempty" mapstructure:"out_dir,omitempty"`
	OutFile            string        `json:"out_file,omitempty" yaml:"out_file,omitempty" toml:"out_file,omitempty" mapstructure:"out_file,omitempty"`
	CreateSuffix       string        `json:"create_suffix,omitempty" yaml:"create_suffix,omitempty" toml:"create_suffix,omitempty" mapstructure:"create_suffix,omitempty"`
	UpdateSuffix       string        `json:"update_suffix,omitempty" yaml:"update_suffix,omitempty" toml:"update_suffix,omitempty" mapstructure:"update_suffix,omitempty"`
	EnumName           string        `json:"enum_name,omitempty" yaml:"enum_name,omitempty" toml:"enum_name,omitempty" mapstructure:"enum_name,omitempty"`
	EnumPrefix         string        `json:"enum_prefix,omitempty" yaml:"enum_prefix,omitempty" toml:"enum_prefix,omitempty" mapstructure:"enum_prefix,omitempty"`
	Singularize        bool          `json:"singularize,omitempty" yaml:"singularize,omitempty" toml:"singularize,omitempty" mapstructure:"singularize,omitempty"`
	ExcludeSystem      bool          `json:"exclude_system,omitempty" yaml:"exclude_system,omitempty" toml:"exclude_system,omitempty" mapstructure:"exclude_system,omitempty"`
	ExcludeCollections []string      `json:"exclude_collections,omitempty" yaml:"exclude_collections,omitempty" toml:"exclude_collections,omitempty" mapstructure:"exclude_collections,omitempty"`
	ExcludeFields      []FieldFilter `json:"exclude_fields,omitempty" yaml:"exclude_fields,omitempty" toml:"exclude_fields,omitempty" mapstructure:"exclude_fields,omitempty"`
	Goimports          bool          `json:"goimports,omitempty" yaml:"goimports,omitempty" toml:"goimports,omitempty" mapstructure:"goimports,omitempty"`
}

func NewOptions() *Options {
	return &Options{
		OutDir:       "pb",
		OutFile:      "pb_gen.go",
		CreateSuffix: "Create",
		UpdateSuffix: "Update",
		EnumName:     "Collections",
		EnumPrefix:   "Collection",
	}
}

// Normalize fills defaults. excludeFieldStrings are "collection.field" pairs
// as given on the command line.
func (o *Options) Normalize(excludeFieldStrings ...string) {
	for _, s := range excludeFieldStrings {
		if ff, ok := ParseFieldFilter(s); ok {
			o.ExcludeFields = append(o.ExcludeFields, ff)
		}
	}
	if len(o.OutDir) == 0 {
		o.OutDir = "pb"
	}
	if strings.Contains(o.OutDir, ".") {
		o.OutDir, _ = filepath.Abs(o.OutDir)
	}
	if len(o.OutFile) == 0 {
		o.OutFile = "pb_gen.go"
	}
	if o.Package == "" {
		o.Package = packageNameFromDir(o.OutDir)
	}

	// Suffixes must differ or Create and Update collide.
	if o.CreateSuffix == "" {
		o.CreateSuffix = "Create"
	}
	if o.UpdateSuffix == "" || o.UpdateSuffix == o.CreateSuffix {
		o.UpdateSuffix = "Update"
	}
	if o.EnumName == "" {
		o.EnumName = "Collections"
	}
	if o.EnumPrefix == "" {
		o.EnumPrefix = "Collection"
	}
	for i, c := range o.ExcludeCollections {
		o.ExcludeCollections[i] = strings.TrimSpace(c)
	}
}

// ParseFieldFilter parses "collection.field"; a bare "field" applies to every collection.
func ParseFieldFilter(s string) (FieldFilter, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FieldFilter{}, false
	}
	collection, field, found := strings.Cut(s, ".")
	if !found {
		return FieldFilter{Collection: "*", Field: collection}, true
	}
	if collection == "" || field == "" {
		return FieldFilter{}, false
	}
	return FieldFilter{Collection: collection, Field: field}, true
}

func packageNameFromDir(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		}
	}
	if b.Len() == 0 {
		return "pb"
	}
	return b.String()
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithPackage(p string) Option      { return func(o *Options) { o.Package = p } }
func WithOutDir(d string) Option       { return func(o *Options) { o.OutDir = d } }
func WithOutFile(f string) Option      { return func(o *Options) { o.OutFile = f } }
func WithCreateSuffix(s string) Option { return func(o *Options) { o.CreateSuffix = s } }
func WithUpdateSuffix(s string) Option { return func(o *Options) { o.UpdateSuffix = s } }
func WithEnumName(n string) Option     { return func(o *Options) { o.EnumName = n } }
func WithEnumPrefix(p string) Option   { return func(o *Options) { o.EnumPrefix = p } }
func WithSingularize() Option          { return func(o *Options) { o.Singularize = true } }
func WithExcludeSystem() Option        { return func(o *Options) { o.ExcludeSystem = true } }
func WithGoimports() Option            { return func(o *Options) { o.Goimports = true } }
func WithExcludeCollections(names ...string) Option {
	return func(o *Options) {
		for _, n := range names {
			o.ExcludeCollections = append(o.ExcludeCollections, strings.TrimSpace(n))
		}
	}
}
func WithExcludeField(collection, field string) Option {
	return func(o *Options) { o.ExcludeFields = append(o.ExcludeFields, FieldFilter{collection, field}) }
}

// Apply builds normalized Options from defaults plus opts.
func Apply(opts ...Option) *Options {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}
	o.Normalize()
	return o
}
