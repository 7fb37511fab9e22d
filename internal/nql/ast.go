// Package nql compiles the tree-shaped item filter ("NQL") into a
// parameterized SQL query restricted to one project, the way
// internal/query's lexer/parser/evaluator turns a flat query string into
// an AST and then a decision procedure — except here the AST is
// constructed directly (callers build the tree; there is no surface
// syntax to lex) and compilation targets SQL text plus bound arguments
// instead of in-memory evaluation.
package nql

import "fmt"

// Node is any node of an NQL filter tree.
type Node interface {
	node()
	String() string
}

// Comp is a scalar comparison operator for FieldFilter.
type Comp string

const (
	CompEq      Comp = "="
	CompNeq     Comp = "!="
	CompLt      Comp = "<"
	CompLte     Comp = "<="
	CompGt      Comp = ">"
	CompGte     Comp = ">="
	CompLike    Comp = "LIKE"
	CompSimilar Comp = "SIMILAR"
)

// And is a conjunction of 1 or more filters. Compile rejects an And
// with no filters as InvalidNQL.
type And struct{ Filters []Node }

func (*And) node() {}
func (a *And) String() string { return fmt.Sprintf("and_%v", a.Filters) }

// Or is a disjunction of 0 or more filters; same empty-list rule as And.
type Or struct{ Filters []Node }

func (*Or) node() {}
func (o *Or) String() string { return fmt.Sprintf("or_%v", o.Filters) }

// Not negates a single filter.
type Not struct{ Filter Node }

func (*Not) node() {}
func (n *Not) String() string { return fmt.Sprintf("not_%v", n.Filter) }

// FieldFilter is a scalar comparison on one item-table column. Title and
// Abstract force an ILIKE '%v%' comparison regardless of Op (spec §4.3).
type FieldFilter struct {
	Field string
	Op    Comp
	Value any
}

func (*FieldFilter) node() {}
func (f *FieldFilter) String() string { return fmt.Sprintf("%s%s%v", f.Field, f.Op, f.Value) }

// FieldFilters is a column IN (...) predicate.
type FieldFilters struct {
	Field  string
	Values []any
}

func (*FieldFilters) node() {}
func (f *FieldFilters) String() string { return fmt.Sprintf("%s IN %v", f.Field, f.Values) }

// MetaKind selects the JSON type coercion used when addressing a
// subfield of the item's `meta` column.
type MetaKind string

const (
	MetaBool MetaKind = "bool"
	MetaInt  MetaKind = "int"
	MetaStr  MetaKind = "str"
)

// MetaFilter is a predicate on a JSON-addressable subfield of meta.
type MetaFilter struct {
	Kind  MetaKind
	Field string
	Op    Comp
	Value any
}

func (*MetaFilter) node() {}
func (m *MetaFilter) String() string { return fmt.Sprintf("meta.%s%s%v", m.Field, m.Op, m.Value) }

// AbstractFilter compares the length of the text field, or checks
// emptiness.
type AbstractFilter struct {
	Op    Comp
	Size  *int
	Empty bool
}

func (*AbstractFilter) node() {}
func (a *AbstractFilter) String() string {
	if a.Empty {
		return "abstract IS EMPTY"
	}
	return fmt.Sprintf("len(abstract)%s%v", a.Op, a.Size)
}

// ImportFilter restricts to items that are members of any Included
// import and not members of any Excluded one.
type ImportFilter struct {
	Included []string
	Excluded []string
}

func (*ImportFilter) node() {}
func (i *ImportFilter) String() string {
	return fmt.Sprintf("import(in=%v,out=%v)", i.Included, i.Excluded)
}

// AssignmentMode selects one of the 7 AssignmentFilter predicates.
type AssignmentMode int

const (
	AssignmentAny AssignmentMode = iota
	AssignmentInScopes
	AssignmentNotInScopes
	AssignmentNone
	AssignmentNoneInScopes
	AssignmentUnderScheme
	AssignmentNotUnderScheme
)

// AssignmentFilter predicates on whether/where an item has assignments.
type AssignmentFilter struct {
	Mode     AssignmentMode
	Scopes   []string
	SchemeID *string
}

func (*AssignmentFilter) node() {}
func (a *AssignmentFilter) String() string {
	return fmt.Sprintf("assignment(mode=%d,scopes=%v,scheme=%v)", a.Mode, a.Scopes, a.SchemeID)
}

// AnnotationFilter predicates on the presence (or, if Include is false,
// absence) of a user annotation matching Scheme/Scopes.
type AnnotationFilter struct {
	SchemeID *string
	Scopes   []string
	Include  bool
}

func (*AnnotationFilter) node() {}
func (a *AnnotationFilter) String() string {
	return fmt.Sprintf("annotation(scheme=%v,scopes=%v,incl=%v)", a.SchemeID, a.Scopes, a.Include)
}

// LabelFilterType selects whose annotations a LabelFilter inspects.
type LabelFilterType string

const (
	LabelTypeUser     LabelFilterType = "user"
	LabelTypeBot      LabelFilterType = "bot"
	LabelTypeResolved LabelFilterType = "resolved"
)

// UsersMode selects how multiple Users are combined in a LabelFilter.
type UsersMode string

const (
	UsersAny UsersMode = "ANY"
	UsersAll UsersMode = "ALL"
)

// SetComp is the comparator used when LabelFilter's Value is a set
// (kind=multi).
type SetComp string

const (
	SetEq         SetComp = "=="
	SetSuperset   SetComp = "⊇"
	SetNotSuperset SetComp = "!⊇"
	SetIntersects SetComp = "∩"
)

// LabelFilterKind selects the value-field comparison LabelFilter applies.
type LabelFilterKind string

const (
	LabelFilterBool  LabelFilterKind = "bool"
	LabelFilterInt   LabelFilterKind = "int"
	LabelFilterMulti LabelFilterKind = "multi"
)

// LabelFilter is an annotation-level predicate: it restricts to items
// that have a (user|bot|resolved) annotation at Key matching Value,
// optionally scoped to specific Users/Scopes/Scheme and Repeats.
type LabelFilter struct {
	Type     LabelFilterType
	Kind     LabelFilterKind
	Key      string
	Value    any
	SetOp    SetComp
	Users    []string
	UsersAgg UsersMode
	Scopes   []string
	SchemeID *string
	Repeats  []int
}

func (*LabelFilter) node() {}
func (l *LabelFilter) String() string {
	return fmt.Sprintf("label(type=%s,key=%s,value=%v)", l.Type, l.Key, l.Value)
}
