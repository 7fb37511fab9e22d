package dedupe

// Vector is a sparse term-count row: token → count.
type Vector map[string]int

// Vectorizer builds a bounded vocabulary from a corpus and turns
// tokenized documents into sparse term-count vectors, the Go analogue of
// sklearn's CountVectorizer used by the reference implementation.
type Vectorizer struct {
	MaxFeatures int
	vocabulary  map[string]bool
	fitted      bool
}

// NewVectorizer returns a Vectorizer with no vocabulary yet; call Fit
// once before Transform, or rely on Index's fit-on-first-batch behavior.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Fitted reports whether Fit has been called.
func (v *Vectorizer) Fitted() bool { return v.fitted }

// Fit builds the vocabulary from tokenized documents: every token
// appearing in more than one document (frequency > 1, per spec §4.1),
// capped at MaxFeatures by descending document frequency.
func (v *Vectorizer) Fit(docs [][]string) {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, tok := range doc {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	candidates := make([]tf, 0, len(df))
	for tok, n := range df {
		if n > 1 {
			candidates = append(candidates, tf{tok, n})
		}
	}
	// Stable selection by descending frequency, tie-broken lexically for
	// determinism across runs with identical input.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && less(candidates[j], candidates[j-1]); j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	max := v.MaxFeatures
	if max <= 0 || max > len(candidates) {
		max = len(candidates)
	}
	vocab := make(map[string]bool, max)
	for i := 0; i < max; i++ {
		vocab[candidates[i].tok] = true
	}
	v.vocabulary = vocab
	v.fitted = true
}

type tf struct {
	tok string
	df  int
}

func less(a, b tf) bool {
	if a.df != b.df {
		return a.df > b.df
	}
	return a.tok < b.tok
}

// Transform turns a tokenized document into a sparse term-count Vector,
// restricted to the fitted vocabulary. If no vocabulary was fitted yet,
// every token counts (used only transiently before the first Fit).
func (v *Vectorizer) Transform(doc []string) Vector {
	vec := make(Vector)
	for _, tok := range doc {
		if v.vocabulary != nil && !v.vocabulary[tok] {
			continue
		}
		vec[tok]++
	}
	return vec
}
