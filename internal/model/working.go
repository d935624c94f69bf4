package model

type ShapeKind int

const (
	ShapeRecord ShapeKind = iota
	ShapeCreate
	ShapeUpdate
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRecord:
		return "record"
	case ShapeCreate:
		return "create"
	case ShapeUpdate:
		return "update"
	}
	return "unknown"
}

// TypeRef is the resolved Go type of a member.
type TypeRef struct {
	PkgPath string // "" for builtins
	Name    string // "string", "float64", "bool"
}

type Member struct {
	// Identity -------------------------------------------------------------
	GoName   string // exported Go identifier
	JSONName string // name on the wire, the descriptor name verbatim
	System   bool

	// Type -----------------------------------------------------------------
	Type *TypeRef

	// Optionality ----------------------------------------------------------
	Optional bool // absent-or-null allowed; rendered as a pointer
	Nullable bool // tri-state (absent / null / value); rendered as *record.Nullable[T]
}

type Shape struct {
	Name    string // Go type name, "Books", "BooksCreate"
	Kind    ShapeKind
	Comment string
	Members []*Member
}

// MemberNames returns the JSON member names in declaration order.
func (s *Shape) MemberNames() []string {
	out := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		out = append(out, m.JSONName)
	}
	return out
}

// Member returns the member with the given JSON name, or nil.
func (s *Shape) Member(jsonName string) *Member {
	for _, m := range s.Members {
		if m.JSONName == jsonName {
			return m
		}
	}
	return nil
}

// EnumEntry is one constant of the collection enumeration.
type EnumEntry struct {
	GoName string // "CollectionBooks"
	Value  string // "books"
}

// TypeTriple is the Record/Create/Update set generated for one collection.
type TypeTriple struct {
	Collection *Collection
	Enum       *EnumEntry
	Record     *Shape
	Create     *Shape
	Update     *Shape
}

// Shapes returns Record, Create, Update in render order.
func (t *TypeTriple) Shapes() []*Shape {
	return []*Shape{t.Record, t.Create, t.Update}
}
