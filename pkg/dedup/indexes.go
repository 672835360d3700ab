package dedup

import "github.com/servermap/servermap/pkg/catalogs"

// MatchKind identifies which strategy matched an incoming record to an
// already-registered canonical record.
type MatchKind int

// Match strategies, in the order they are checked.
const (
	MatchNone MatchKind = iota
	MatchRepository
	MatchNameAuthor
	MatchContentHash
	MatchFuzzyName
)

// String returns the string representation of a MatchKind.
func (k MatchKind) String() string {
	switch k {
	case MatchRepository:
		return "repository"
	case MatchNameAuthor:
		return "name_author"
	case MatchContentHash:
		return "content_hash"
	case MatchFuzzyName:
		return "fuzzy_name"
	default:
		return "none"
	}
}

// indexes holds the four matching indices for one deduplication run. It is
// not safe for concurrent mutation; duplicate detection and registration
// must stay atomic with respect to each other.
type indexes struct {
	repository  map[string]*catalogs.Server
	nameAuthor  map[string]*catalogs.Server
	contentHash map[string]*catalogs.Server
	fuzzyName   map[string][]*catalogs.Server
	fuzzyKeys   []string // bucket keys in insertion order, for deterministic scans
}

func newIndexes() *indexes {
	return &indexes{
		repository:  make(map[string]*catalogs.Server),
		nameAuthor:  make(map[string]*catalogs.Server),
		contentHash: make(map[string]*catalogs.Server),
		fuzzyName:   make(map[string][]*catalogs.Server),
	}
}

// nameAuthorKey builds the combined name+author key. An empty return means
// the record does not qualify for this index.
func nameAuthorKey(s *catalogs.Server) string {
	if s.Name == "" || s.Author == "" {
		return ""
	}
	name := NormalizeName(s.Name)
	author := NormalizeName(s.Author)
	if name == "" && author == "" {
		return ""
	}
	return name + "|" + author
}

// match looks the record up in each index in order and returns the first
// registered record it collides with, along with the matching strategy.
func (ix *indexes) match(s *catalogs.Server) (*catalogs.Server, MatchKind) {
	if s.Repository != "" {
		if key := NormalizeRepositoryURL(s.Repository); key != "" {
			if existing, ok := ix.repository[key]; ok {
				return existing, MatchRepository
			}
		}
	}

	if key := nameAuthorKey(s); key != "" {
		if existing, ok := ix.nameAuthor[key]; ok {
			return existing, MatchNameAuthor
		}
	}

	if existing, ok := ix.contentHash[ContentHash(s)]; ok {
		return existing, MatchContentHash
	}

	if existing := ix.fuzzyMatch(s); existing != nil {
		return existing, MatchFuzzyName
	}

	return nil, MatchNone
}

// fuzzyMatch scans every bucket except the record's own exact key. A bucket
// whose key is close enough to the record's normalized name is confirmed by
// the weighted secondary signals before it counts as a match.
func (ix *indexes) fuzzyMatch(s *catalogs.Server) *catalogs.Server {
	name := NormalizeName(s.Name)
	if name == "" {
		return nil
	}

	for _, key := range ix.fuzzyKeys {
		if key == name {
			continue
		}
		if Ratio(name, key) <= fuzzyNameThreshold {
			continue
		}
		for _, existing := range ix.fuzzyName[key] {
			if Similar(s, existing) {
				return existing
			}
		}
	}
	return nil
}

// add registers a record under every key derivable from its populated
// fields. Empty keys are never indexed.
func (ix *indexes) add(s *catalogs.Server) {
	if s.Repository != "" {
		if key := NormalizeRepositoryURL(s.Repository); key != "" {
			ix.repository[key] = s
		}
	}

	if key := nameAuthorKey(s); key != "" {
		ix.nameAuthor[key] = s
	}

	ix.contentHash[ContentHash(s)] = s

	if name := NormalizeName(s.Name); name != "" {
		if _, ok := ix.fuzzyName[name]; !ok {
			ix.fuzzyKeys = append(ix.fuzzyKeys, name)
		}
		ix.fuzzyName[name] = append(ix.fuzzyName[name], s)
	}
}
