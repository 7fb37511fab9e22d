package model

import "github.com/google/uuid"

// EntryStatus marks how a user's entry in a resolution Cell compares to
// the prior snapshot it is merged against (spec §4.4 step 6).
//
// Deliberate deviation: the status is UNCHANGED when the current value
// equals the snapshot's value for that (item, label_path, user), and
// CHANGED otherwise — the direction spec.md states explicitly. A NEW
// entry has no counterpart in the prior snapshot at all.
type EntryStatus string

const (
	EntryNew       EntryStatus = "NEW"
	EntryChanged   EntryStatus = "CHANGED"
	EntryUnchanged EntryStatus = "UNCHANGED"
)

// UserEntry is one user's raw annotation value contributing to a Cell,
// tagged with its status relative to the prior resolution snapshot.
type UserEntry struct {
	UserID uuid.UUID       `json:"user_id"`
	Value  AnnotationValue `json:"value"`
	Status EntryStatus     `json:"status"`
}

// Cell is the per-(item, label_path) unit of the ResolutionMatrix: every
// user who annotated that item at that path, plus the resolved value once
// a strategy has run.
type Cell struct {
	Labels     map[uuid.UUID][]UserEntry `json:"labels"`
	Resolution *BotAnnotation            `json:"resolution,omitempty"`
}

// LabelPathKey addresses one node in a flattened scheme tree: the label's
// own key, joined with its ancestor choice values so that repeated
// sibling keys under different parents do not collide (spec §4.4 step 1).
type LabelPathKey string

// ResolutionMatrix is keyed first by item, then by flattened label path.
// It is built fresh for each resolution run (spec §4.4 step 3) and
// populated from user Annotations (step 4) before a strategy resolves it.
type ResolutionMatrix map[uuid.UUID]map[LabelPathKey]*Cell

// FlatLabel is one entry of a scheme flattened for resolution purposes:
// the label itself plus the path of ancestor choice values required to
// reach it. The IgnoreHierarchy option (set on the resolution request,
// not per-label) controls whether the ancestor path is part of the Cell
// key; IgnoreRepeat only clamps MaxRepeat to 1. Repeat is never part of
// the Cell key.
type FlatLabel struct {
	Path  LabelPathKey
	Label Label
}

// OrderingEntry fixes the traversal order resolution uses when visiting
// AssignmentScopes that feed a single resolution run (spec §4.4 step 2):
// scopes are visited in this order, and within a scope, assignments in
// their own Order.
type OrderingEntry struct {
	AssignmentScopeID uuid.UUID
	Order             int
}

// SnapshotCell is one (item, label_path)'s frozen prior state: every
// user's fingerprinted annotation value at the time of the prior commit,
// plus the BotAnnotation that was resolved for the cell as a whole —
// spec.md's ResolutionSnapshot is explicitly "a list of per-user
// per-cell annotation fingerprints" (spec.md:58), and step 6's first
// bullet needs the prior bot annotation itself to "attach each as the
// cell's resolution" before any per-user diffing happens.
type SnapshotCell struct {
	Entries         map[uuid.UUID]AnnotationValue
	BotAnnotationID uuid.UUID
	Value           AnnotationValue
}

// ResolutionSnapshot is a frozen prior result of a resolution run, used
// both to re-attach the previously resolved value to a cell and to
// classify each user's current entry as CHANGED/UNCHANGED/NEW against it
// (spec §4.4 step 6).
type ResolutionSnapshot struct {
	BotAnnotationMetadataID uuid.UUID
	Values                  map[uuid.UUID]map[LabelPathKey]SnapshotCell
}

// ResolutionProposal is the output of a resolution strategy before it is
// persisted as BotAnnotation rows: one resolved value per (item, path),
// plus the re-linked Parent that mirrors the source scheme's hierarchy
// (spec §4.4 step 7).
type ResolutionProposal struct {
	ItemID uuid.UUID
	Path   LabelPathKey
	Value  AnnotationValue
	Parent *LabelPathKey
}
