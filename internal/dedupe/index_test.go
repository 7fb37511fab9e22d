package dedupe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeLowercasesAndDropsShortTokens(t *testing.T) {
	toks := Tokenize("The Quick, Brown fox! a 1 ab")
	require.Equal(t, []string{"the", "quick", "brown", "fox", "ab"}, toks)
}

func TestTokenizeTruncatesToMaxTokens(t *testing.T) {
	words := make([]string, MaxTokens+20)
	for i := range words {
		words[i] = "word"
	}
	toks := Tokenize(strings.Join(words, " "))
	require.Len(t, toks, MaxTokens)
}

func TestNearDuplicateTextMatches(t *testing.T) {
	abstract := strings.Repeat("climate policy adaptation mitigation emissions reduction ", 10)
	idx := New(NewVectorizer(2000), 0.02, 5)
	idx.Init(
		[]ItemEntry{{ItemID: "existing-1", Text: abstract}},
		[]ItemEntry{{ItemID: "new-1", Text: abstract}},
	)

	got := idx.Test(ItemEntry{ItemID: "new-1", Text: abstract})
	require.Equal(t, "existing-1", got)
}

func TestUnderThresholdTextNeverMatches(t *testing.T) {
	idx := New(NewVectorizer(2000), 0.02, 5)
	idx.Init(
		[]ItemEntry{{ItemID: "existing-1", Text: "short ab"}},
		[]ItemEntry{{ItemID: "new-1", Text: "short ab"}},
	)

	got := idx.Test(ItemEntry{ItemID: "new-1", Text: "short ab"})
	require.Equal(t, "", got, "text under MIN_TEXT_LEN must never match")
}

func TestRegisterStoredChainResolves(t *testing.T) {
	idx := New(NewVectorizer(2000), 0.02, 5)
	idx.Init(nil, nil)

	idx.RegisterStored("a", "")     // a is canonical
	idx.RegisterStored("b", "a")    // b merges into a
	idx.RegisterStored("c", "b")    // c merges into b, which resolves to a

	require.Equal(t, "a", idx.resolve("c"))
}

func TestTestPanicsBeforeInit(t *testing.T) {
	idx := New(NewVectorizer(2000), 0.02, 5)
	require.Panics(t, func() { idx.Test(ItemEntry{ItemID: "x", Text: "hello world this is long enough"}) })
}

func TestStopTokenOnlyTextDoesNotPanic(t *testing.T) {
	idx := New(NewVectorizer(2000), 0.02, 5)
	idx.vectorizer.Fit([][]string{Tokenize("climate policy adaptation")})
	idx.Init(nil, nil)

	got := idx.Test(ItemEntry{ItemID: "x", Text: "zzzzzzzzzz yyyyyyyyyy"})
	require.Equal(t, "", got)
}
