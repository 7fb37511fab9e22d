package dedupe

import "fmt"

// ItemEntry is one document fed into the index: an opaque id and its
// text. IDs from the existing-items stream and the new-items stream
// share the same id space in the caller's domain (item_id) but are kept
// in separate lookup tables internally (spec §4.1).
type ItemEntry struct {
	ItemID string
	Text   string
}

// DefaultMaxSlop is the default maximum Jaccard distance accepted as a
// match (spec §4.1).
const DefaultMaxSlop = 0.02

// DefaultK is the default number of ANN candidates considered per query.
const DefaultK = 5

// Index answers "does this candidate duplicate something already
// indexed?" for one import run. It owns a single fit of the vectorizer
// and ANN structure and is not safe for concurrent use (spec §5: "owned
// by one run and not shared").
type Index struct {
	vectorizer *Vectorizer
	maxSlop    float64
	k          int

	ann *jaccardANN

	existingIDs    map[string]int // item_id -> vector index, for items already in storage
	existingIDsInv map[int]string
	newIDs         map[string]int // item_id -> vector index, for candidates in this run
	newIDsInv      map[int]string

	// saved chains a new item's id to where it was ultimately stored:
	// to itself if canonical, or to the canonical id it was merged into.
	saved map[string]string
}

// New builds an uninitialized Index; call Init before Test.
func New(vectorizer *Vectorizer, maxSlop float64, k int) *Index {
	if maxSlop <= 0 {
		maxSlop = DefaultMaxSlop
	}
	if k <= 0 {
		k = DefaultK
	}
	return &Index{
		vectorizer: vectorizer,
		maxSlop:    maxSlop,
		k:          k,
		saved:      make(map[string]string),
	}
}

// Init folds both streams into sparse vectors (fitting the vectorizer on
// the combined corpus if it wasn't fitted already) and builds the ANN
// structure over their union. existing is the project's stored items;
// newItems is the candidate set for this run.
func (idx *Index) Init(existing, newItems []ItemEntry) {
	existingDocs := make([][]string, len(existing))
	for i, e := range existing {
		existingDocs[i] = Tokenize(e.Text)
	}
	newDocs := make([][]string, len(newItems))
	for i, e := range newItems {
		newDocs[i] = Tokenize(e.Text)
	}

	if !idx.vectorizer.Fitted() {
		idx.vectorizer.Fit(append(append([][]string{}, existingDocs...), newDocs...))
	}

	idx.existingIDs = make(map[string]int, len(existing))
	idx.existingIDsInv = make(map[int]string, len(existing))
	idx.newIDs = make(map[string]int, len(newItems))
	idx.newIDsInv = make(map[int]string, len(newItems))

	vectors := make([]Vector, 0, len(existing)+len(newItems))
	for i, e := range existing {
		idx.existingIDs[e.ItemID] = i
		idx.existingIDsInv[i] = e.ItemID
		vectors = append(vectors, idx.vectorizer.Transform(existingDocs[i]))
	}
	offset := len(existing)
	for i, e := range newItems {
		idx.newIDs[e.ItemID] = offset + i
		idx.newIDsInv[offset+i] = e.ItemID
		vectors = append(vectors, idx.vectorizer.Transform(newDocs[i]))
	}

	idx.ann = buildJaccardANN(vectors)
}

// Test returns the id of a near-duplicate already indexed, or "" if none.
// It panics if called before Init — spec §4.1 calls this a programmer
// error that must fail loudly, not a recoverable condition.
func (idx *Index) Test(item ItemEntry) string {
	if idx.ann == nil {
		panic("dedupe: Test called before Init")
	}
	if len(item.Text) < MinTextLen {
		return ""
	}

	doc := Tokenize(item.Text)
	vec := idx.vectorizer.Transform(doc)
	if len(vec) == 0 {
		// Text containing only stop tokens (outside the vocabulary) must
		// not raise; no votes means no duplicate.
		return ""
	}

	for _, c := range idx.ann.query(vec, idx.k) {
		if c.distance > idx.maxSlop {
			return "" // candidates are sorted ascending; stop at first miss
		}
		existingID, inExisting := idx.existingIDsInv[c.index]
		newID, inNew := idx.newIDsInv[c.index]

		if (inExisting && existingID == item.ItemID) || (inNew && newID == item.ItemID) {
			continue // looking at itself
		}
		if inExisting {
			return existingID
		}
		if inNew {
			if canonical, ok := idx.saved[newID]; ok {
				return idx.resolve(canonical)
			}
			// seen but not yet registered: false positive for now
			continue
		}
	}
	return ""
}

// RegisterStored records that newID was stored fresh (existingID == "",
// canonical) or merged into existingID. Later Test calls for newID
// resolve through the chain to the ultimate canonical id.
func (idx *Index) RegisterStored(newID, existingID string) {
	if existingID == "" {
		idx.saved[newID] = newID
		return
	}
	idx.saved[newID] = idx.resolve(existingID)
}

// resolve follows the union-find-style chain of merges until it reaches
// an id with no further redirection.
func (idx *Index) resolve(id string) string {
	seen := make(map[string]bool)
	for {
		if seen[id] {
			panic(fmt.Sprintf("dedupe: cycle detected resolving %q", id))
		}
		seen[id] = true
		next, ok := idx.saved[id]
		if !ok || next == id {
			return id
		}
		id = next
	}
}
