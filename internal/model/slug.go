package model

import "strings"

// TitleSlug canonicalizes a title into a cheap equality key for
// near-duplicate detection: lowercase, then strip everything that is not
// an ASCII letter. It is idempotent — TitleSlug(TitleSlug(s)) == TitleSlug(s)
// — because the second pass sees only lowercase letters and leaves them
// untouched (spec §8.6).
func TitleSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
