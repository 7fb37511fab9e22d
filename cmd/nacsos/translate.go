package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nacsos-data/nacsos-core/internal/model"
	"github.com/nacsos-data/nacsos-core/internal/nql"
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "compile an NQL filter tree into parameterized SQL",
	Long: `translate reads a JSON-encoded NQL filter (--query or --query-file),
builds the nql.Node tree it describes, and compiles it against --target (a
project id) and --kind (the item discriminator), printing the resulting
SQL and bound arguments.`,
	RunE: runTranslate,
}

func runTranslate(cmd *cobra.Command, args []string) error {
	if targetFlag == "" {
		return fmt.Errorf("translate: --target (project id) is required")
	}
	projectID, err := uuid.Parse(targetFlag)
	if err != nil {
		return fmt.Errorf("translate: --target must be a UUID: %w", err)
	}

	discriminator := model.ItemType(kindFlag)
	if !discriminator.Valid() {
		return fmt.Errorf("translate: unsupported --kind %q", kindFlag)
	}

	payload, err := readQueryPayload()
	if err != nil {
		return err
	}

	var env nodeEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return fmt.Errorf("translate: decode query: %w", err)
	}
	node, err := env.toNode()
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}

	query, err := nql.Compile(projectID, discriminator, node)
	if err != nil {
		return fmt.Errorf("translate: compile: %w", err)
	}

	fmt.Println(query.SQL)
	for i, a := range query.Args {
		fmt.Printf("  $%d = %v\n", i+1, a)
	}
	return nil
}

// nodeEnvelope is the JSON shape translate accepts for an nql.Node.
// nql.Node's concrete types are unexported-method-gated (callers build
// the tree directly in Go; spec.md gives NQL no surface syntax), so this
// envelope is the CLI's own decoding concern, not something internal/nql
// needs to know about.
type nodeEnvelope struct {
	Type    string           `json:"type"`
	Field   string           `json:"field,omitempty"`
	Op      string           `json:"op,omitempty"`
	Value   any              `json:"value,omitempty"`
	Values  []any            `json:"values,omitempty"`
	Filters []nodeEnvelope   `json:"filters,omitempty"`
	Filter  *nodeEnvelope    `json:"filter,omitempty"`
	Kind    string           `json:"kind,omitempty"`
	Size    *int             `json:"size,omitempty"`
	Empty   bool             `json:"empty,omitempty"`
	Included []string        `json:"included,omitempty"`
	Excluded []string        `json:"excluded,omitempty"`
}

func (n nodeEnvelope) toNode() (nql.Node, error) {
	switch n.Type {
	case "and":
		filters, err := n.children()
		if err != nil {
			return nil, err
		}
		return &nql.And{Filters: filters}, nil
	case "or":
		filters, err := n.children()
		if err != nil {
			return nil, err
		}
		return &nql.Or{Filters: filters}, nil
	case "not":
		if n.Filter == nil {
			return nil, fmt.Errorf("not: missing filter")
		}
		inner, err := n.Filter.toNode()
		if err != nil {
			return nil, err
		}
		return &nql.Not{Filter: inner}, nil
	case "field":
		return &nql.FieldFilter{Field: n.Field, Op: nql.Comp(n.Op), Value: n.Value}, nil
	case "fields":
		return &nql.FieldFilters{Field: n.Field, Values: n.Values}, nil
	case "meta":
		return &nql.MetaFilter{Kind: nql.MetaKind(n.Kind), Field: n.Field, Op: nql.Comp(n.Op), Value: n.Value}, nil
	case "abstract":
		return &nql.AbstractFilter{Op: nql.Comp(n.Op), Size: n.Size, Empty: n.Empty}, nil
	case "import":
		return &nql.ImportFilter{Included: n.Included, Excluded: n.Excluded}, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", n.Type)
	}
}

func (n nodeEnvelope) children() ([]nql.Node, error) {
	out := make([]nql.Node, 0, len(n.Filters))
	for _, f := range n.Filters {
		node, err := f.toNode()
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}
