// Package dedup implements the deduplication engine for servermap. Given a
// batch of candidate server records collected from multiple registries, it
// detects records describing the same real-world server, merges their
// metadata into one canonical record, and returns the canonical list.
//
// Matching runs in two passes. Pass one streams over the batch using four
// in-memory indices (repository URL, name+author, content hash, fuzzy name
// buckets) and folds duplicates into the first-seen representative. Pass two
// scans the remaining records pairwise for near-duplicates the indices
// missed, which are almost always cross-registry variants of one server.
package dedup

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonNameRunes  = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	namePrefix    = regexp.MustCompile(`^(mcp[-_\s]*)?`)
	nameSuffix    = regexp.MustCompile(`[-_\s]*(server|mcp)$`)
)

// asciiFold decomposes accented characters and drops the combining marks, so
// "Café" folds to "Cafe" instead of losing the rune entirely.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeRepositoryURL canonicalizes a repository URL into a comparison
// key: lowercase, trailing slashes and a ".git" suffix stripped, reduced to
// host+path with scheme, query and fragment discarded. It is total; empty or
// unparsable input yields an empty key, which callers must not index.
func NormalizeRepositoryURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ToLower(raw)
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")

	u, err := url.Parse(s)
	if err != nil {
		// Treat the whole string as a path; still comparable.
		return s
	}
	return u.Host + u.Path
}

// NormalizeName canonicalizes a free-text server or author name into a
// comparison key: accent folding, lowercase, everything outside [a-z0-9\s]
// stripped, whitespace collapsed, and the corpus stopwords removed (a
// leading "mcp" token, a trailing "server" or "mcp" token). Empty input
// yields an empty key.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(asciiFold, name); err == nil {
		name = folded
	}

	s := strings.ToLower(name)
	s = nonNameRunes.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))

	s = namePrefix.ReplaceAllString(s, "")
	s = nameSuffix.ReplaceAllString(s, "")

	return s
}
