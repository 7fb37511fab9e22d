// Package dedupe implements the duplicate index (C1): given a project's
// existing items and a streaming population of candidates, answer
// whether a candidate duplicates something already indexed.
//
// Grounded on original_source's DuplicateIndex (pynndescent NNDescent
// over a CountVectorizer's sparse rows, Jaccard metric): this package
// keeps the same two-pass fit/query shape and chain-resolution semantics
// but substitutes a brute-force inverted-index ANN (ann.go) for
// pynndescent, since nothing in the example corpus ships a Go
// approximate-nearest-neighbor library over Jaccard distance — see
// DESIGN.md for why this is implemented directly rather than imported.
package dedupe

import "strings"

// MaxTokens bounds how many leading tokens of a document are vectorized;
// abstracts are long but most informative near the top (spec §4.1).
const MaxTokens = 80

// MinTextLen is the minimum text length eligible for ANN matching; below
// this, Index.Test returns no match unconditionally (spec §4.1).
const MinTextLen = 10

// Tokenize splits text into lowercase Unicode word tokens of length ≥ 2,
// truncated to MaxTokens.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
		if len(out) == MaxTokens {
			break
		}
	}
	return out
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 128: // treat any non-ASCII rune as a word character (Unicode letters)
		return true
	default:
		return false
	}
}
