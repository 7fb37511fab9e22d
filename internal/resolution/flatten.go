package resolution

import (
	"strconv"
	"strings"

	"github.com/nacsos-data/nacsos-core/internal/model"
)

// Flatten depth-first walks a scheme's label tree into the ordered list
// of FlatLabels a resolution run addresses cells by (spec §4.4 step 1).
// A path segment is "key=value" for a label reached through a chosen
// LabelChoice, joined by "/"; ignoreHierarchy collapses every label to a
// root-level path (its own key), which is how two labels with the same
// key under different parents are deliberately allowed to collide when
// the caller asked for that.
func Flatten(scheme *model.AnnotationScheme, ignoreHierarchy, ignoreRepeat bool) []model.FlatLabel {
	var out []model.FlatLabel
	var walk func(labels []model.Label, prefix string)
	walk = func(labels []model.Label, prefix string) {
		for _, l := range labels {
			label := l
			if ignoreRepeat {
				label.MaxRepeat = 1
			}

			var path model.LabelPathKey
			if ignoreHierarchy || prefix == "" {
				path = model.LabelPathKey(label.Key)
			} else {
				path = model.LabelPathKey(prefix + "/" + label.Key)
			}
			out = append(out, model.FlatLabel{Path: path, Label: label})

			for _, choice := range l.Choices {
				childPrefix := ""
				if !ignoreHierarchy {
					childPrefix = string(path) + "=" + strconv.Itoa(choice.Value)
				}
				walk(choice.Children, childPrefix)
			}
		}
	}
	walk(scheme.Labels, "")
	return out
}

// parentPath returns the path one level up the tree (the part before
// the last "/", with its trailing "=choice" removed), used for parent
// re-linking after resolution (spec §4.4 step 8). The empty second
// value means path is already root-level.
func parentPath(path model.LabelPathKey) (model.LabelPathKey, bool) {
	s := string(path)
	i := strings.LastIndex(s, "/")
	if i < 0 {
		return "", false
	}
	parent := s[:i]
	if j := strings.LastIndex(parent, "="); j >= 0 {
		parent = parent[:j]
	}
	return model.LabelPathKey(parent), true
}

// AnnotationPath computes the LabelPathKey a live Annotation occupies,
// given its chain of ancestor Annotations from immediate parent to root
// (spec §4.4 step 3: "traversing parent links"; represented as an
// explicit arena lookup rather than live pointer chasing per spec §9's
// note on cyclic data). ignoreHierarchy drops the ancestor chain
// entirely, matching Flatten's treatment of the static scheme.
func AnnotationPath(key string, ancestors []model.Annotation, ignoreHierarchy bool) model.LabelPathKey {
	if ignoreHierarchy || len(ancestors) == 0 {
		return model.LabelPathKey(key)
	}
	segs := make([]string, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		choice := ""
		if a.ValueInt != nil {
			choice = strconv.Itoa(*a.ValueInt)
		}
		segs = append(segs, a.Key+"="+choice)
	}
	segs = append(segs, key)
	return model.LabelPathKey(strings.Join(segs, "/"))
}
