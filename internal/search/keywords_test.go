package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		text       string
		categories []string
		operations []string
	}{
		{
			name:       "stopwords removed",
			query:      "find the best weather servers",
			text:       "weather",
			operations: []string{"query"},
		},
		{
			name:       "category and operation hints",
			query:      "query postgres database",
			text:       "postgres database",
			categories: []string{"database"},
			operations: []string{"query"},
		},
		{
			name:  "all stopwords falls back to full query",
			query: "show me the best",
			text:  "show me the best",
		},
		{
			name:       "multiple categories",
			query:      "upload file to cloud",
			text:       "upload file to cloud",
			categories: []string{"cloud_services", "file_system"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTerms(tt.query)
			assert.Equal(t, tt.text, got.text)
			assert.Equal(t, tt.categories, got.categories)
			assert.Equal(t, tt.operations, got.operations)
		})
	}
}

func TestBuildKeywordQuery(t *testing.T) {
	q := BuildKeywordQuery("find weather servers", 10, 0.5)

	assert.Equal(t, "keyword", q.Source)
	assert.Equal(t, "find weather servers", q.Original)
	assert.Contains(t, q.Cypher, "MATCH (s:Server)")
	assert.Contains(t, q.Cypher, "ORDER BY total_score DESC")

	assert.Equal(t, "weather", q.Parameters["query"])
	assert.Equal(t, 10, q.Parameters["limit"])
	assert.Equal(t, 0.5, q.Parameters["min_score"])
}

func TestCleanCypher(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "cypher fence",
			in:   "```cypher\nMATCH (s:Server) RETURN s\n```",
			want: "MATCH (s:Server) RETURN s",
		},
		{
			name: "bare fence",
			in:   "```\nMATCH (s:Server) RETURN s\n```",
			want: "MATCH (s:Server) RETURN s",
		},
		{
			name: "no fence",
			in:   "  MATCH (s:Server) RETURN s  ",
			want: "MATCH (s:Server) RETURN s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanCypher(tt.in))
		})
	}
}

func TestValidCypher(t *testing.T) {
	assert.True(t, validCypher("MATCH (s:Server) RETURN s ORDER BY s.name LIMIT $limit"))

	assert.False(t, validCypher(""))
	assert.False(t, validCypher("RETURN 1"))
	assert.False(t, validCypher("MATCH (n) DETACH DELETE n RETURN count(n)"))
	assert.False(t, validCypher("MATCH (s:Server) SET s.name = 'x' RETURN s"))
}

func TestKeywordQueryDeterministicHints(t *testing.T) {
	first := extractTerms("search the database logs for auth errors")
	for i := 0; i < 5; i++ {
		require.Equal(t, first, extractTerms("search the database logs for auth errors"))
	}
}
