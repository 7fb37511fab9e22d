package model

import (
	"time"

	"github.com/google/uuid"
)

// BotKind distinguishes the source that produced a BotAnnotation.
type BotKind string

const (
	BotClassification BotKind = "CLASSIFICATION"
	BotRules          BotKind = "RULES"
	BotTopics         BotKind = "TOPICS"
	BotResolve        BotKind = "RESOLVE"
	BotScript         BotKind = "SCRIPT"
)

// BotAnnotationMetadata describes one run of an automated or resolution
// process that produced BotAnnotation rows. A run tied to the resolution
// engine (Kind == BotResolve) carries the AssignmentScope it resolved over.
type BotAnnotationMetadata struct {
	BotAnnotationMetadataID uuid.UUID  `db:"bot_annotation_metadata_id" json:"bot_annotation_metadata_id"`
	ProjectID               uuid.UUID  `db:"project_id" json:"project_id"`
	AnnotationSchemeID      uuid.UUID  `db:"annotation_scheme_id" json:"annotation_scheme_id"`
	AssignmentScopeID       *uuid.UUID `db:"assignment_scope_id" json:"assignment_scope_id,omitempty"`

	Name string  `db:"name" json:"name"`
	Kind BotKind `db:"kind" json:"kind"`

	// Config is the kind-specific run configuration (classifier model id,
	// rule set, resolution strategy parameters); opaque at this layer.
	Config map[string]any `db:"config" json:"config,omitempty"`

	TimeCreated time.Time `db:"time_created" json:"time_created"`
}

// BotAnnotation is the machine/resolution-produced counterpart of
// Annotation: same key/parent/repeat addressing, but owned by a
// BotAnnotationMetadata run rather than a user's Assignment.
type BotAnnotation struct {
	BotAnnotationID         uuid.UUID `db:"bot_annotation_id" json:"bot_annotation_id"`
	BotAnnotationMetadataID uuid.UUID `db:"bot_annotation_metadata_id" json:"bot_annotation_metadata_id"`
	ItemID                  uuid.UUID `db:"item_id" json:"item_id"`

	Key    string     `db:"key" json:"key"`
	Repeat int        `db:"repeat" json:"repeat"`
	Parent *uuid.UUID `db:"parent" json:"parent,omitempty"`

	AnnotationValue `db:",inline"`

	TimeCreated time.Time `db:"time_created" json:"time_created"`
}
