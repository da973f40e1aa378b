package docsift

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugNoise matches URL path segments that carry no identity: locale
// prefixes, listing scaffolding, pagination numbers and bare years.
var slugNoise = regexp.MustCompile(`^(?i:uk|en|blog|category|tag|page|\d{1,2}|\d{4})$`)

var bareYear = regexp.MustCompile(`^\d{4}$`)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// asciiFold decomposes to NFKD and drops everything outside ASCII, matching
// the usual "normalize then encode ascii, ignoring errors" folding.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
})))

// Slugify converts arbitrary text to a URL-safe slug: ASCII-folded,
// non-alphanumeric runs collapsed to single hyphens, lower-cased.
func Slugify(text string) string {
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = text
	}
	s := nonAlnum.ReplaceAllString(folded, "-")
	return strings.ToLower(strings.Trim(s, "-"))
}

// shortHash returns the first 8 hex characters of the SHA-1 of s.
func shortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// DeriveSlug derives a slug candidate from a canonical URL, falling back to
// the page title and finally to a hash-based slug. Noise path segments are
// dropped before the last segment is considered.
func DeriveSlug(canonicalURL, title string) string {
	path := ""
	if u, err := url.Parse(canonicalURL); err == nil {
		path = u.Path
	}

	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !slugNoise.MatchString(seg) {
			segments = append(segments, seg)
		}
	}
	if len(segments) > 0 {
		candidate := strings.ToLower(segments[len(segments)-1])
		if !bareYear.MatchString(candidate) {
			return candidate
		}
	}

	if title != "" {
		if candidate := Slugify(title); candidate != "" {
			return candidate
		}
	}

	seed := canonicalURL
	if seed == "" {
		seed = title
	}
	if seed == "" {
		seed = "x"
	}
	return "post-" + shortHash(seed)
}

// SlugAllocator issues process-wide unique slugs for one extraction run.
// It is the sole authority on slug uniqueness and is safe for concurrent
// use; all allocations serialize on one mutex.
type SlugAllocator struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	collisions int
}

// NewSlugAllocator returns an empty allocator.
func NewSlugAllocator() *SlugAllocator {
	return &SlugAllocator{seen: make(map[string]struct{})}
}

// Allocate issues the candidate slug if it has not been issued before.
// On collision it appends the first 8 hex characters of the SHA-1 of the
// disambiguator (the entity's canonical URL, or its source path when no
// canonical URL exists) and issues that instead.
//
// One suffix attempt is final: the suffixed slug is recorded without being
// re-checked. Since the disambiguator is unique per logical page, a
// second-level collision requires a SHA-1 prefix collision between two
// URLs; we accept that residual risk rather than looping.
func (a *SlugAllocator) Allocate(candidate, disambiguator string) (slug string, collided bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.seen[candidate]; !ok {
		a.seen[candidate] = struct{}{}
		return candidate, false
	}

	suffixed := candidate + "-" + shortHash(disambiguator)
	a.seen[suffixed] = struct{}{}
	a.collisions++
	return suffixed, true
}

// Collisions returns the number of collisions resolved so far.
func (a *SlugAllocator) Collisions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.collisions
}
