package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	slugDrop  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSpace = regexp.MustCompile(`\s+`)
)

// Slug makes a URL-safe identifier from a product name: lower-cased,
// punctuation dropped, whitespace runs turned into "-", leading and
// trailing "-" trimmed, and accents folded to plain ASCII.
//
// Folding happens last, so a letter with no ASCII form disappears without
// leaving a separator behind.
func Slug(name string) string {
	s := strings.ToLower(name)
	s = slugDrop.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return toASCII(norm.NFKD.String(s))
}

func toASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < 0x80 {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ProductSlug is Slug, except that a name with nothing left after folding
// (all CJK, say) gets "product-" plus a short hash of the name, so the row
// still has a stable key.
func ProductSlug(name string) string {
	if s := Slug(name); s != "" {
		return s
	}
	sum := sha256.Sum256([]byte(name))
	return "product-" + hex.EncodeToString(sum[:6])
}
