// Package simhash computes 64-bit locality-sensitive fingerprints. Two
// documents that differ a little get fingerprints a few bits apart.
package simhash

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Hash is a 64-bit SimHash.
type Hash uint64

// String renders the hash as 16 hex digits.
func (h Hash) String() string { return fmt.Sprintf("%016x", uint64(h)) }

// Parse reads a hash written by String.
func Parse(s string) (Hash, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("simhash: parse %q: %w", s, err)
	}
	return Hash(v), nil
}

// Distance is the number of differing bits.
func Distance(a, b Hash) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Near reports whether a and b are at most k bits apart.
func Near(a, b Hash, k int) bool {
	return Distance(a, b) <= k
}

// Text fingerprints the words of text, case-insensitively. Repeated words
// weigh more. Text without words hashes to 0.
func Text(text string) Hash {
	return sum(strings.Fields(strings.ToLower(text)))
}

// Markup fingerprints the element structure of an HTML document: the
// sequence of opening tag names, taken three at a time. Text and attributes
// are ignored, so a page keeps its fingerprint when only its content
// changes but not when its template does.
func Markup(doc string) Hash {
	tags := tagNames(doc)
	if len(tags) < shingleSize {
		return sum(tags)
	}
	shingles := make([]string, 0, len(tags)-shingleSize+1)
	for i := 0; i+shingleSize <= len(tags); i++ {
		shingles = append(shingles, strings.Join(tags[i:i+shingleSize], "/"))
	}
	return sum(shingles)
}

const shingleSize = 3

func tagNames(doc string) []string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var tags []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tags = append(tags, string(name))
		}
	}
}

func sum(features []string) Hash {
	if len(features) == 0 {
		return 0
	}
	var v [64]int
	h := fnv.New64a()
	for _, f := range features {
		h.Reset()
		h.Write([]byte(f))
		x := h.Sum64()
		for i := range v {
			if x&(1<<uint(i)) != 0 {
				v[i]++
			} else {
				v[i]--
			}
		}
	}
	var out Hash
	for i, n := range v {
		if n > 0 {
			out |= 1 << uint(i)
		}
	}
	return out
}
