package identity

import (
	"strings"

	"github.com/servermap/servermap/pkg/catalogs"
)

// Patterns counts which strategy produced the IDs of a converted batch.
type Patterns struct {
	RepositoryBased int
	AuthorName      int
	NameOnly        int
	HashBased       int
	Total           int

	// Examples holds up to three sample IDs per pattern, keyed by
	// "repository_based", "author_name", "name_only", "hash_based".
	Examples map[string][]string
}

const maxExamples = 3

// Analyze classifies the global IDs of a converted batch by the strategy
// that shaped them. Useful for sanity-checking a run: a healthy corpus is
// dominated by repository-based IDs.
func Analyze(servers []catalogs.Server) Patterns {
	p := Patterns{
		Total:    len(servers),
		Examples: make(map[string][]string),
	}

	for i := range servers {
		s := &servers[i]
		switch {
		case strings.HasPrefix(s.ID, "server-"):
			p.HashBased++
			p.example("hash_based", s.ID)
		case strings.Contains(s.ID, "/"):
			if repositoryID(s.Repository) != "" {
				p.RepositoryBased++
				p.example("repository_based", s.ID)
			} else {
				p.AuthorName++
				p.example("author_name", s.ID)
			}
		default:
			p.NameOnly++
			p.example("name_only", s.ID)
		}
	}

	return p
}

func (p *Patterns) example(kind, id string) {
	if len(p.Examples[kind]) < maxExamples {
		p.Examples[kind] = append(p.Examples[kind], id)
	}
}
