package dedup

import "github.com/servermap/servermap/pkg/catalogs"

// MergeInto folds source's metadata into target. Scalar fields fill gaps
// only, set fields union, tools union by name, popularity metrics take the
// maximum, and last_updated takes the later timestamp. target's identity
// fields (ID, name, registry source) and raw metadata are left alone;
// provenance tagging happens during global-ID conversion.
func MergeInto(target, source *catalogs.Server) {
	if target.Description == "" {
		target.Description = source.Description
	}
	if target.Version == "" {
		target.Version = source.Version
	}
	if target.License == "" {
		target.License = source.License
	}
	if target.Homepage == "" {
		target.Homepage = source.Homepage
	}
	if target.ImplementationLanguage == "" {
		target.ImplementationLanguage = source.ImplementationLanguage
	}

	target.Categories = unionSlices(target.Categories, source.Categories)
	target.Operations = unionSlices(target.Operations, source.Operations)
	target.DataTypes = unionSlices(target.DataTypes, source.DataTypes)

	if len(source.Tools) > 0 {
		existing := make(map[string]struct{}, len(target.Tools))
		for _, t := range target.Tools {
			existing[t.Name] = struct{}{}
		}
		for _, t := range source.Tools {
			if _, ok := existing[t.Name]; !ok {
				target.Tools = append(target.Tools, t)
				existing[t.Name] = struct{}{}
			}
		}
	}

	target.PopularityScore = maxInt(target.PopularityScore, source.PopularityScore)
	target.DownloadCount = maxInt(target.DownloadCount, source.DownloadCount)

	if source.LastUpdated != nil {
		if target.LastUpdated == nil || source.LastUpdated.After(*target.LastUpdated) {
			t := *source.LastUpdated
			target.LastUpdated = &t
		}
	}
}

// unionSlices merges two slices keeping target order first, deduplicated.
func unionSlices[T comparable](target, source []T) []T {
	if len(source) == 0 {
		return target
	}
	seen := make(map[T]struct{}, len(target)+len(source))
	out := make([]T, 0, len(target)+len(source))
	for _, v := range target {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range source {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// maxInt returns a pointer to the larger of two optional counts, or the one
// that is present.
func maxInt(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}
