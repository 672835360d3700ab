// Package identity generates stable, human-traceable global identifiers for
// MCP servers. Registry-local IDs (GitHub node IDs, catalog slugs, market
// listing numbers) are useless across registries; a global ID is derived
// from the server's own descriptive fields so the same server gets the same
// ID no matter which registry reported it.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/servermap/servermap/pkg/catalogs"
)

// Generator issues global IDs, tracking everything issued so far to
// guarantee uniqueness within one batch. Construct one per batch; there is
// no cross-run persistence of issued IDs.
type Generator struct {
	used map[string]struct{}
}

// NewGenerator creates a Generator with an empty issued set.
func NewGenerator() *Generator {
	return &Generator{used: make(map[string]struct{})}
}

// codeHosts are the hosting families whose URLs yield owner/repo IDs.
var codeHosts = []string{"github.com", "gitlab.com", "bitbucket.org", "codeberg.org"}

var (
	schemePrefix  = regexp.MustCompile(`^https?://`)
	wwwPrefix     = regexp.MustCompile(`^www\.`)
	idSeparators  = regexp.MustCompile(`[_\s]+`)
	nonIDRunes    = regexp.MustCompile(`[^a-z0-9\-/]`)
	hyphenRun     = regexp.MustCompile(`-+`)
	gitSuffix     = regexp.MustCompile(`\.git$`)
	maxIDLength   = 100
	truncCore     = 80
	truncHashSize = 8
)

// Generate derives a global ID for the record and marks it as issued.
// Strategies in priority order, first applicable wins:
//
//  1. Repository owner/repo, for known code-hosting families.
//  2. author/name.
//  3. name alone.
//  4. "server-" plus a content-hash prefix.
//
// Whatever strategy produced the candidate, a numeric suffix resolves
// collisions with IDs already issued in this batch; lower-priority
// strategies are never retried.
func (g *Generator) Generate(s *catalogs.Server) string {
	candidate := ""

	if s.Repository != "" {
		if repoID := repositoryID(s.Repository); repoID != "" {
			candidate = normalizeID(repoID)
		}
	}
	if candidate == "" && s.Name != "" && s.Author != "" {
		candidate = normalizeID(s.Author + "/" + s.Name)
	}
	if candidate == "" && s.Name != "" {
		candidate = normalizeID(s.Name)
	}
	if candidate == "" {
		candidate = "server-" + contentHash(s)[:12]
	}

	id := g.uniquify(candidate)
	g.used[id] = struct{}{}
	return id
}

// Issued returns how many IDs this generator has handed out.
func (g *Generator) Issued() int {
	return len(g.used)
}

// uniquify appends -1, -2, ... until the candidate is free.
func (g *Generator) uniquify(candidate string) string {
	if _, taken := g.used[candidate]; !taken {
		return candidate
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s-%d", candidate, i)
		if _, taken := g.used[id]; !taken {
			return id
		}
	}
}

// repositoryID extracts "owner/repo" from a repository URL on a known
// code-hosting family, or returns an empty string.
func repositoryID(repository string) string {
	u := strings.ToLower(repository)
	u = schemePrefix.ReplaceAllString(u, "")
	u = wwwPrefix.ReplaceAllString(u, "")

	for _, host := range codeHosts {
		if !strings.Contains(u, host) {
			continue
		}
		parts := strings.Split(u, "/")
		if len(parts) < 3 {
			return ""
		}
		owner := parts[1]
		repo := gitSuffix.ReplaceAllString(parts[2], "")
		if owner == "" || repo == "" {
			return ""
		}
		return owner + "/" + repo
	}
	return ""
}

// normalizeID makes an ID URL-safe and consistent: lowercase, separators to
// hyphens, anything outside [a-z0-9-/] dropped, hyphen runs collapsed. IDs
// longer than 100 characters are cut to 80 plus an 8-character hash of the
// remainder to bound storage.
func normalizeID(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(raw)
	s = idSeparators.ReplaceAllString(s, "-")
	s = nonIDRunes.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxIDLength {
		sum := sha256.Sum256([]byte(s[truncCore:]))
		s = s[:truncCore] + "-" + hex.EncodeToString(sum[:])[:truncHashSize]
	}

	return s
}

// contentHash fingerprints a record from its identifying fields: lowercase
// name, author, the first 100 characters of the description, the repository
// URL, and the sorted tool names, pipe-separated.
func contentHash(s *catalogs.Server) string {
	parts := []string{
		strings.ToLower(s.Name),
		strings.ToLower(s.Author),
		firstRunes(strings.ToLower(s.Description), 100),
		strings.ToLower(s.Repository),
	}

	if len(s.Tools) > 0 {
		names := make([]string, len(s.Tools))
		for i, t := range s.Tools {
			names[i] = t.Name
		}
		sort.Strings(names)
		parts = append(parts, strings.Join(names, "|"))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
