package dedup

import (
	"net/url"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/servermap/servermap/pkg/catalogs"
)

// Similarity thresholds. fuzzyNameThreshold gates which fuzzy-name buckets
// are even considered; similarThreshold decides the weighted signal sum; the
// stricter highSimilarityThreshold gates cross-registry merging in pass two.
const (
	fuzzyNameThreshold      = 0.85
	similarThreshold        = 0.7
	highSimilarityThreshold = 0.9
)

// Ratio returns the character-sequence similarity of two strings in [0, 1]:
// twice the number of matching characters over the combined length
// (Ratcliff/Obershelp, as implemented by difflib's SequenceMatcher).
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Similar reports whether two records likely describe the same server, using
// a weighted sum of secondary signals: author similarity (0.3), description
// prefix similarity (0.2), category overlap (0.2), matching implementation
// language (0.1), and same code-hosting organization (0.2). A missing field
// on either side contributes nothing, so sparse records score low.
func Similar(a, b *catalogs.Server) bool {
	score := 0.0

	if a.Author != "" && b.Author != "" {
		score += Ratio(NormalizeName(a.Author), NormalizeName(b.Author)) * 0.3
	}

	if a.Description != "" && b.Description != "" {
		score += Ratio(
			truncate(strings.ToLower(a.Description), 100),
			truncate(strings.ToLower(b.Description), 100),
		) * 0.2
	}

	if len(a.Categories) > 0 && len(b.Categories) > 0 {
		common := categoryIntersection(a.Categories, b.Categories)
		score += float64(common) / float64(max(len(a.Categories), len(b.Categories))) * 0.2
	}

	if a.ImplementationLanguage != "" && a.ImplementationLanguage == b.ImplementationLanguage {
		score += 0.1
	}

	if sameOrganization(a.Repository, b.Repository) {
		score += 0.2
	}

	return score > similarThreshold
}

// Score computes the detailed similarity score used by the pass-two merge:
// name similarity (0.4), author similarity (0.2), identical repository host
// (0.2), full description similarity (0.1), and category Jaccard overlap
// (0.1).
func Score(a, b *catalogs.Server) float64 {
	score := 0.0

	if a.Name != "" && b.Name != "" {
		score += Ratio(NormalizeName(a.Name), NormalizeName(b.Name)) * 0.4
	}

	if a.Author != "" && b.Author != "" {
		score += Ratio(NormalizeName(a.Author), NormalizeName(b.Author)) * 0.2
	}

	if a.Repository != "" && b.Repository != "" {
		if repositoryHost(a.Repository) == repositoryHost(b.Repository) {
			score += 0.2
		}
	}

	if a.Description != "" && b.Description != "" {
		score += Ratio(strings.ToLower(a.Description), strings.ToLower(b.Description)) * 0.1
	}

	if len(a.Categories) > 0 && len(b.Categories) > 0 {
		common := categoryIntersection(a.Categories, b.Categories)
		union := len(a.Categories) + len(b.Categories) - common
		if union > 0 {
			score += float64(common) / float64(union) * 0.1
		}
	}

	return score
}

// HighlySimilar reports whether two canonical records should be merged by
// the pass-two similarity merge. Records from the same registry are never
// merged here; pass one already deduplicated within each registry.
func HighlySimilar(a, b *catalogs.Server) bool {
	if a.RegistrySource == b.RegistrySource {
		return false
	}
	return Similar(a, b) && Score(a, b) > highSimilarityThreshold
}

// CompletenessScore ranks how much metadata a record carries. The pass-two
// merge keeps the most complete member of a group as the survivor.
func CompletenessScore(s *catalogs.Server) int {
	score := 0
	if s.Description != "" {
		score += 2
	}
	if s.Author != "" {
		score++
	}
	if s.Repository != "" {
		score += 2
	}
	if s.Version != "" {
		score++
	}
	if s.License != "" {
		score++
	}
	if s.Homepage != "" {
		score++
	}
	score += len(s.Tools)
	score += len(s.Resources)
	score += len(s.Categories)
	if s.PopularityScore != nil {
		score++
	}
	return score
}

func categoryIntersection(a, b []catalogs.Category) int {
	set := make(map[catalogs.Category]struct{}, len(a))
	for _, c := range a {
		set[c] = struct{}{}
	}
	n := 0
	seen := make(map[catalogs.Category]struct{}, len(b))
	for _, c := range b {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := set[c]; ok {
			n++
		}
	}
	return n
}

// sameOrganization reports whether two repository URLs point at the same
// code-hosting organization, judged by the first path segment of URLs shaped
// like "https://host/org/...".
func sameOrganization(repoA, repoB string) bool {
	if repoA == "" || repoB == "" {
		return false
	}
	partsA := strings.Split(repoA, "/")
	partsB := strings.Split(repoB, "/")
	if len(partsA) < 4 || len(partsB) < 4 {
		return false
	}
	return strings.EqualFold(partsA[3], partsB[3])
}

func repositoryHost(repo string) string {
	u, err := url.Parse(strings.ToLower(repo))
	if err != nil {
		return ""
	}
	return u.Host
}
