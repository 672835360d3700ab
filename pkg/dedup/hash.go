package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/servermap/servermap/pkg/catalogs"
)

// ContentHash computes a content fingerprint from a record's identifying
// features: normalized name and author, the first 200 characters of the
// description, and the sorted category and operation sets. Records whose
// fingerprints collide are treated as the same server by the content-hash
// index.
func ContentHash(s *catalogs.Server) string {
	cats := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		cats[i] = c.String()
	}
	sort.Strings(cats)

	ops := make([]string, len(s.Operations))
	for i, o := range s.Operations {
		ops[i] = o.String()
	}
	sort.Strings(ops)

	parts := []string{
		NormalizeName(s.Name),
		NormalizeName(s.Author),
		truncate(strings.ToLower(s.Description), 200),
		strings.Join(cats, ","),
		strings.Join(ops, ","),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
