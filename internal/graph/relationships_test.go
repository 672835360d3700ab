package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servermap/servermap/pkg/catalogs"
)

func relationshipFixture() []catalogs.Server {
	return []catalogs.Server{
		{
			ID:         "acme/weather",
			Name:       "weather",
			Author:     "acme",
			Categories: []catalogs.Category{catalogs.CategoryAPIIntegration},
		},
		{
			ID:         "acme/files",
			Name:       "files",
			Author:     "Acme", // same author, different casing
			Categories: []catalogs.Category{catalogs.CategoryFileSystem},
		},
		{
			ID:         "globex/metrics",
			Name:       "metrics",
			Author:     "globex",
			Categories: []catalogs.Category{catalogs.CategoryAPIIntegration},
		},
	}
}

func edgesOfType(rels []Relationship, t RelationshipType) []Relationship {
	var out []Relationship
	for _, r := range rels {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

func TestInferSameAuthor(t *testing.T) {
	rels := InferRelationships(relationshipFixture())

	same := edgesOfType(rels, RelationshipSameAuthor)
	require.Len(t, same, 1, "author matching is case-insensitive")
	assert.Equal(t, "acme/weather", same[0].SourceID)
	assert.Equal(t, "acme/files", same[0].TargetID)
	assert.Equal(t, 0.9, same[0].Confidence)
	assert.NotEmpty(t, same[0].ID)
}

func TestInferSameCategory(t *testing.T) {
	rels := InferRelationships(relationshipFixture())

	same := edgesOfType(rels, RelationshipSameCategory)
	require.Len(t, same, 1)
	assert.Equal(t, "acme/weather", same[0].SourceID)
	assert.Equal(t, "globex/metrics", same[0].TargetID)
}

func TestInferSimilarityFloor(t *testing.T) {
	servers := []catalogs.Server{
		{ID: "a", Name: "alpha tool", Author: "acme", Description: "Manages widget inventory"},
		{ID: "b", Name: "alpha tool", Author: "acme", Description: "Manages widget inventory"},
		{ID: "c", Name: "zzz", Author: "unrelated-author-x"},
	}

	rels := edgesOfType(InferRelationships(servers), RelationshipSimilarFunctionality)
	require.Len(t, rels, 1, "only the near-identical pair clears the floor")
	assert.Equal(t, "a", rels[0].SourceID)
	assert.Equal(t, "b", rels[0].TargetID)
	assert.GreaterOrEqual(t, rels[0].Confidence, 0.5)
}

func TestInferGroupEdgeCap(t *testing.T) {
	var servers []catalogs.Server
	for i := 0; i < 30; i++ {
		servers = append(servers, catalogs.Server{
			ID:     string(rune('a' + i%26)),
			Author: "prolific",
		})
	}

	same := edgesOfType(InferRelationships(servers), RelationshipSameAuthor)
	assert.LessOrEqual(t, len(same), maxGroupEdges)
}
