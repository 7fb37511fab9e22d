// Package idgen centralizes id generation for every primary key this
// module mints, plus a hash-derived base36 file-name helper, the way the teacher keeps its own
// id minting behind internal/idgen rather than scattering uuid.New()
// calls across every package that needs a fresh id.
package idgen

import (
	"crypto/sha256"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// New mints a fresh random id for any row this module persists. Kept as
// a thin indirection (rather than calling uuid.New directly at each call
// site) so every id-minting call in the module goes through one seam.
func New() uuid.UUID {
	return uuid.New()
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// EncodeBase36 renders data as a base36 string at least length chars
// long (left-padded with '0'), the same encoding the teacher uses for
// its own short content-derived ids. BufferFileName uses it to derive a
// file name from a hash of a run's identity rather than a random or
// sequential name.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}
	for i, j := 0, len(chars)-1; i < j; i, j = i+1, j-1 {
		chars[i], chars[j] = chars[j], chars[i]
	}

	str := string(chars)
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	return str
}

// BufferFileName derives a scoped, collision-resistant temp file name
// for a run's dedupe buffer from the run's identity (e.g. "<import
// id>:<revision>"), so concurrent runs across different projects never
// collide on the same path. Nothing in this module calls it: the
// importer keeps its spill candidates in memory.
func BufferFileName(runKey string) string {
	sum := sha256.Sum256([]byte(runKey))
	return "nacsos-dedupe-" + EncodeBase36(sum[:], 16) + ".buf"
}
