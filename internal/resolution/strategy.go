package resolution

import (
	"cmp"
	"sort"

	"github.com/nacsos-data/nacsos-core/internal/apperr"
	"github.com/nacsos-data/nacsos-core/internal/model"
)

// Strategy names a resolution algorithm. Only StrategyMajority is
// implemented; anything else raises apperr.KindOperational per spec
// §4.4 step 7 ("others raise unimplemented").
type Strategy string

const StrategyMajority Strategy = "majority"

// Apply resolves a single cell's user entries into one AnnotationValue
// using strategy. Ties are broken deterministically by ascending value
// (spec §4.4 step 7).
func Apply(strategy Strategy, kind model.LabelKind, entries []model.UserEntry) (model.AnnotationValue, error) {
	if strategy != StrategyMajority {
		return model.AnnotationValue{}, apperr.New("resolution.Apply", apperr.KindOperational,
			unimplementedStrategyError(strategy))
	}
	if len(entries) == 0 {
		return model.AnnotationValue{}, apperr.New("resolution.Apply", apperr.KindEmptyAnnotations, nil)
	}
	if kind == model.LabelMulti {
		return majorityMulti(entries), nil
	}
	return majorityScalar(kind, entries)
}

func unimplementedStrategyError(s Strategy) error {
	return &unimplementedStrategy{strategy: s}
}

type unimplementedStrategy struct{ strategy Strategy }

func (e *unimplementedStrategy) Error() string {
	return "resolution strategy not implemented: " + string(e.strategy)
}

func majorityScalar(kind model.LabelKind, entries []model.UserEntry) (model.AnnotationValue, error) {
	switch kind {
	case model.LabelBool:
		counts := map[bool]int{}
		for _, e := range entries {
			if e.Value.ValueBool != nil {
				counts[*e.Value.ValueBool]++
			}
		}
		v := pickMajority(counts)
		return model.AnnotationValue{ValueBool: &v}, nil
	case model.LabelInt, model.LabelSingle:
		counts := map[int]int{}
		for _, e := range entries {
			if e.Value.ValueInt != nil {
				counts[*e.Value.ValueInt]++
			}
		}
		v := pickMajority(counts)
		return model.AnnotationValue{ValueInt: &v}, nil
	case model.LabelFloat:
		counts := map[float64]int{}
		for _, e := range entries {
			if e.Value.ValueFloat != nil {
				counts[*e.Value.ValueFloat]++
			}
		}
		v := pickMajority(counts)
		return model.AnnotationValue{ValueFloat: &v}, nil
	case model.LabelStr, model.LabelInText:
		counts := map[string]int{}
		for _, e := range entries {
			if e.Value.ValueStr != nil {
				counts[*e.Value.ValueStr]++
			}
		}
		v := pickMajority(counts)
		return model.AnnotationValue{ValueStr: &v}, nil
	default:
		return model.AnnotationValue{}, apperr.New("resolution.majorityScalar", apperr.KindInvalidResolution, nil)
	}
}

// majorityMulti takes the symmetric majority per choice value: a value
// is included in the resolved set iff it appears in more than half of
// the user entries (spec §4.4 step 7: "For multi, take the symmetric
// majority per choice").
func majorityMulti(entries []model.UserEntry) model.AnnotationValue {
	counts := map[int]int{}
	for _, e := range entries {
		for _, v := range e.Value.MultiInt {
			counts[v]++
		}
	}
	threshold := len(entries)
	var out []int
	for v, c := range counts {
		if c*2 > threshold {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return model.AnnotationValue{MultiInt: out}
}

// pickMajority returns the key with the highest count, tie-broken by
// ascending value for determinism regardless of map iteration order.
func pickMajority[T cmp.Ordered](counts map[T]int) T {
	type pair struct {
		v T
		n int
	}
	pairs := make([]pair, 0, len(counts))
	for v, n := range counts {
		pairs = append(pairs, pair{v, n})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].n != pairs[j].n {
			return pairs[i].n > pairs[j].n
		}
		return pairs[i].v < pairs[j].v
	})
	var zero T
	if len(pairs) == 0 {
		return zero
	}
	return pairs[0].v
}
