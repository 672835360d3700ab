package graph

import (
	"fmt"
	"sort"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/dedup"
)

// RelationshipType classifies an edge between two servers.
type RelationshipType string

// Inferred relationship types.
const (
	RelationshipSameAuthor           RelationshipType = "same_author"
	RelationshipSameCategory         RelationshipType = "same_category"
	RelationshipSimilarFunctionality RelationshipType = "similar_functionality"
)

// Relationship is an inferred edge between two canonical servers.
type Relationship struct {
	ID         string           `json:"id" yaml:"id"`
	SourceID   string           `json:"source_server_id" yaml:"source_server_id"`
	TargetID   string           `json:"target_server_id" yaml:"target_server_id"`
	Type       RelationshipType `json:"relationship_type" yaml:"relationship_type"`
	Confidence float64          `json:"confidence_score" yaml:"confidence_score"`
	Evidence   string           `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	CreatedAt  utc.Time         `json:"created_at" yaml:"created_at"`
}

const (
	// maxGroupEdges caps how many pairwise edges one author or category
	// group contributes, keeping prolific authors and broad categories
	// from flooding the graph.
	maxGroupEdges = 50

	// similarityFloor is the minimum detailed similarity score for a
	// similar_functionality edge.
	similarityFloor = 0.5
)

// InferRelationships derives same_author, same_category and
// similar_functionality edges from a canonical server set. Edges are
// undirected; each pair appears once, source before target in input order.
func InferRelationships(servers []catalogs.Server) []Relationship {
	var out []Relationship
	out = append(out, sameAuthorEdges(servers)...)
	out = append(out, sameCategoryEdges(servers)...)
	out = append(out, similarityEdges(servers)...)
	return out
}

func newRelationship(source, target *catalogs.Server, t RelationshipType, confidence float64, evidence string) Relationship {
	return Relationship{
		ID:         uuid.NewString(),
		SourceID:   source.ID,
		TargetID:   target.ID,
		Type:       t,
		Confidence: confidence,
		Evidence:   evidence,
		CreatedAt:  utc.Now(),
	}
}

func sameAuthorEdges(servers []catalogs.Server) []Relationship {
	groups := make(map[string][]int)
	var keys []string
	for i := range servers {
		author := dedup.NormalizeName(servers[i].Author)
		if author == "" {
			continue
		}
		if _, seen := groups[author]; !seen {
			keys = append(keys, author)
		}
		groups[author] = append(groups[author], i)
	}
	sort.Strings(keys)

	var out []Relationship
	for _, author := range keys {
		members := groups[author]
		edges := 0
		for i := 0; i < len(members) && edges < maxGroupEdges; i++ {
			for j := i + 1; j < len(members) && edges < maxGroupEdges; j++ {
				a, b := &servers[members[i]], &servers[members[j]]
				out = append(out, newRelationship(a, b, RelationshipSameAuthor, 0.9,
					fmt.Sprintf("both published by %s", author)))
				edges++
			}
		}
	}
	return out
}

func sameCategoryEdges(servers []catalogs.Server) []Relationship {
	groups := make(map[catalogs.Category][]int)
	for i := range servers {
		for _, c := range servers[i].Categories {
			groups[c] = append(groups[c], i)
		}
	}

	seen := make(map[[2]int]struct{})
	var out []Relationship
	for _, category := range catalogs.Categories() {
		members := groups[category]
		edges := 0
		for i := 0; i < len(members) && edges < maxGroupEdges; i++ {
			for j := i + 1; j < len(members) && edges < maxGroupEdges; j++ {
				pair := [2]int{members[i], members[j]}
				if _, dup := seen[pair]; dup {
					continue
				}
				seen[pair] = struct{}{}
				a, b := &servers[members[i]], &servers[members[j]]
				out = append(out, newRelationship(a, b, RelationshipSameCategory, 0.6,
					fmt.Sprintf("both categorized as %s", category)))
				edges++
			}
		}
	}
	return out
}

func similarityEdges(servers []catalogs.Server) []Relationship {
	var out []Relationship
	for i := range servers {
		for j := i + 1; j < len(servers); j++ {
			a, b := &servers[i], &servers[j]
			score := dedup.Score(a, b)
			if score < similarityFloor {
				continue
			}
			out = append(out, newRelationship(a, b, RelationshipSimilarFunctionality, score,
				"weighted field similarity"))
		}
	}
	return out
}
