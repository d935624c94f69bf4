package parser

import (
	"strings"
)

// ShouldOmitCollection determines whether a collection is skipped entirely
// based on ExcludeSystem and ExcludeCollections.
func ShouldOmitCollection(name string, opts *Options) bool {
	if opts == nil {
		return false
	}
	if opts.ExcludeSystem && strings.HasPrefix(name, "_") {
		return true
	}
	for _, ex := range opts.ExcludeCollections {
		if strings.EqualFold(ex, name) {
			return true
		}
	}
	return false
}

// ShouldOmitField determines whether a user field of a collection is skipped.
// System fields are never omitted.
func ShouldOmitField(collection, field string, opts *Options) bool {
	if opts == nil || len(opts.ExcludeFields) == 0 {
		return false
	}
	for _, f := range opts.ExcludeFields {
		if f.Field != field {
			continue
		}
		if f.Collection == "*" || strings.EqualFold(f.Collection, collection) {
			return true
		}
	}
	return false
}
