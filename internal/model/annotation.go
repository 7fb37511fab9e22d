package model

import (
	"time"

	"github.com/google/uuid"
)

// LabelKind is the answer type of an AnnotationSchemeLabel.
type LabelKind string

const (
	LabelBool    LabelKind = "bool"
	LabelInt     LabelKind = "int"
	LabelFloat   LabelKind = "float"
	LabelStr     LabelKind = "str"
	LabelSingle  LabelKind = "single"
	LabelMulti   LabelKind = "multi"
	LabelInText  LabelKind = "intext"
)

// LabelChoice is one option of a single/multi label; it may itself carry
// a nested sub-tree of labels, shown only when this choice is selected.
type LabelChoice struct {
	Name     string  `json:"name"`
	Hint     *string `json:"hint,omitempty"`
	Value    int     `json:"value"`
	Children []Label `json:"children,omitempty"`
}

// Label is one node of an AnnotationScheme's label tree. Sibling Keys
// within the same parent must be unique (spec §3 invariant).
type Label struct {
	Name       string        `json:"name"`
	Key        string        `json:"key"`
	Hint       *string       `json:"hint,omitempty"`
	MaxRepeat  int           `json:"max_repeat"`
	Required   bool          `json:"required"`
	Kind       LabelKind     `json:"kind"`
	Choices    []LabelChoice `json:"choices,omitempty"`
}

// AnnotationScheme is a per-project tree of Labels — the questionnaire
// annotators answer.
type AnnotationScheme struct {
	AnnotationSchemeID uuid.UUID `db:"annotation_scheme_id" json:"annotation_scheme_id"`
	ProjectID          uuid.UUID `db:"project_id" json:"project_id"`
	Name               string    `db:"name" json:"name"`
	Description        *string   `db:"description" json:"description,omitempty"`
	Labels             []Label   `db:"labels" json:"labels"`
}

// AssignmentScope logically groups Assignments under one AnnotationScheme.
type AssignmentScope struct {
	AssignmentScopeID  uuid.UUID `db:"assignment_scope_id" json:"assignment_scope_id"`
	AnnotationSchemeID uuid.UUID `db:"annotation_scheme_id" json:"annotation_scheme_id"`
	Name               string    `db:"name" json:"name"`
	Description        *string   `db:"description" json:"description,omitempty"`
	TimeCreated        time.Time `db:"time_created" json:"time_created"`
}

// AssignmentStatus tracks how much of an Assignment has been answered.
type AssignmentStatus string

const (
	AssignmentOpen    AssignmentStatus = "OPEN"
	AssignmentPartial AssignmentStatus = "PARTIAL"
	AssignmentFull    AssignmentStatus = "FULL"
	AssignmentInvalid AssignmentStatus = "INVALID"
)

// Assignment is a task unit: user U should label item I under scheme S,
// within AssignmentScope. Order is monotone within the scope.
type Assignment struct {
	AssignmentID       uuid.UUID        `db:"assignment_id" json:"assignment_id"`
	AssignmentScopeID  uuid.UUID        `db:"assignment_scope_id" json:"assignment_scope_id"`
	UserID             uuid.UUID        `db:"user_id" json:"user_id"`
	ItemID             uuid.UUID        `db:"item_id" json:"item_id"`
	AnnotationSchemeID uuid.UUID        `db:"annotation_scheme_id" json:"annotation_scheme_id"`
	Status             AssignmentStatus `db:"status" json:"status"`
	Order              int              `db:"order" json:"order"`
}

// AnnotationValue holds the typed payload of an Annotation or
// BotAnnotation. Exactly one field is populated, selected by the owning
// Label's Kind (spec §8 invariant 1). MultiInt is used by kind=multi.
type AnnotationValue struct {
	ValueBool  *bool    `db:"value_bool" json:"value_bool,omitempty"`
	ValueInt   *int     `db:"value_int" json:"value_int,omitempty"`
	ValueFloat *float64 `db:"value_float" json:"value_float,omitempty"`
	ValueStr   *string  `db:"value_str" json:"value_str,omitempty"`
	MultiInt   []int    `db:"multi_int" json:"multi_int,omitempty"`
}

// Populated reports whether exactly one of the value fields is set, per
// spec invariant 1. An empty AnnotationValue (no field set) is invalid;
// more than one set field is invalid.
func (v AnnotationValue) Populated() bool {
	n := 0
	if v.ValueBool != nil {
		n++
	}
	if v.ValueInt != nil {
		n++
	}
	if v.ValueFloat != nil {
		n++
	}
	if v.ValueStr != nil {
		n++
	}
	if v.MultiInt != nil {
		n++
	}
	return n == 1
}

// Equal reports whether two AnnotationValues hold the same value, used to
// compare a current annotation against a frozen snapshot fingerprint
// (spec §4.4 step 6).
func (v AnnotationValue) Equal(o AnnotationValue) bool {
	eqBool := func(a, b *bool) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	eqInt := func(a, b *int) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	eqFloat := func(a, b *float64) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	eqStr := func(a, b *string) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	if !eqBool(v.ValueBool, o.ValueBool) || !eqInt(v.ValueInt, o.ValueInt) ||
		!eqFloat(v.ValueFloat, o.ValueFloat) || !eqStr(v.ValueStr, o.ValueStr) {
		return false
	}
	if len(v.MultiInt) != len(o.MultiInt) {
		return false
	}
	seen := make(map[int]int, len(v.MultiInt))
	for _, x := range v.MultiInt {
		seen[x]++
	}
	for _, x := range o.MultiInt {
		seen[x]--
	}
	for _, c := range seen {
		if c != 0 {
			return false
		}
	}
	return true
}

// Annotation is a user's judgment responding to an Assignment.
// Uniqueness: (AssignmentID, Key, Parent, Repeat).
type Annotation struct {
	AnnotationID       uuid.UUID  `db:"annotation_id" json:"annotation_id"`
	AssignmentID       uuid.UUID  `db:"assignment_id" json:"assignment_id"`
	UserID             uuid.UUID  `db:"user_id" json:"user_id"`
	ItemID             uuid.UUID  `db:"item_id" json:"item_id"`
	AnnotationSchemeID uuid.UUID  `db:"annotation_scheme_id" json:"annotation_scheme_id"`

	Key    string     `db:"key" json:"key"`
	Repeat int        `db:"repeat" json:"repeat"`
	Parent *uuid.UUID `db:"parent" json:"parent,omitempty"`

	AnnotationValue `db:",inline"`

	TextOffsetStart *int `db:"text_offset_start" json:"text_offset_start,omitempty"`
	TextOffsetStop  *int `db:"text_offset_stop" json:"text_offset_stop,omitempty"`

	TimeCreated time.Time `db:"time_created" json:"time_created"`
	TimeUpdated time.Time `db:"time_updated" json:"time_updated"`
}
