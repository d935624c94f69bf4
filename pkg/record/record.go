// Package record holds the small runtime the generated collection types rely on.
package record

// Collection is satisfied by the generated collection enumeration. Untyped
// string literals do not infer; callers without generated types use Name.
type Collection interface {
	~string
	Valid() bool
}

// Name is a collection named at run time, e.g. from a command line. Any
// non-empty name is valid.
type Name string

func (n Name) String() string { return string(n) }

func (n Name) Valid() bool { return n != "" }

// Raw is an untyped record as decoded from JSON.
type Raw = map[string]any
