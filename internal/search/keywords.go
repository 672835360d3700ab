// Package search answers natural-language questions against the loaded
// graph. Queries are translated to Cypher by a language model when one is
// configured, with a keyword-scored Cypher template as the fallback, and a
// small LRU cache in front of the translator so repeated questions don't
// burn API quota.
package search

import (
	"sort"
	"strings"
)

// Query is a ready-to-run Cypher statement with its parameters.
type Query struct {
	Cypher     string
	Parameters map[string]any
	Original   string
	Source     string // "llm" or "keyword"
}

// stopwords are dropped from search text before matching.
var stopwords = map[string]struct{}{
	"find": {}, "show": {}, "me": {}, "the": {}, "best": {}, "popular": {},
	"servers": {}, "server": {}, "tools": {}, "for": {}, "that": {}, "can": {},
	"and": {}, "or": {}, "with": {}, "are": {}, "what": {}, "how": {},
	"when": {}, "where": {}, "why": {}, "a": {}, "an": {},
}

// categoryHints maps query keywords to graph category IDs.
var categoryHints = map[string][]string{
	"database":          {"database", "db", "sql", "nosql", "store"},
	"file_system":       {"file", "filesystem", "fs", "storage"},
	"api_integration":   {"api", "rest", "graphql", "http", "webhook"},
	"development_tools": {"dev", "development", "tool", "utility"},
	"data_processing":   {"process", "transform", "analyze", "etl"},
	"cloud_services":    {"cloud", "aws", "azure", "gcp", "s3"},
	"communication":     {"chat", "message", "email", "notification"},
	"authentication":    {"auth", "login", "oauth", "jwt", "security"},
	"monitoring":        {"monitor", "log", "metric", "alert"},
	"search":            {"search", "index", "elasticsearch", "lucene"},
	"ai_ml":             {"ai", "ml", "machine learning", "model", "prediction"},
}

// operationHints maps query keywords to graph operation IDs.
var operationHints = map[string][]string{
	"read":      {"read", "get", "fetch", "retrieve"},
	"write":     {"write", "save", "store", "create", "update"},
	"execute":   {"execute", "run", "call", "invoke"},
	"query":     {"query", "search", "find", "filter"},
	"transform": {"transform", "convert", "process"},
}

// terms holds what was extracted from a natural-language query.
type terms struct {
	text       string
	categories []string
	operations []string
}

// extractTerms pulls search text, category hints and operation hints out of
// a query. Stopwords are removed from the text; if nothing survives, the
// full query is the search text.
func extractTerms(query string) terms {
	lower := strings.ToLower(query)

	var keywords []string
	for _, word := range strings.Fields(lower) {
		if _, stop := stopwords[word]; !stop {
			keywords = append(keywords, word)
		}
	}
	text := strings.Join(keywords, " ")
	if text == "" {
		text = query
	}

	var categories []string
	for _, category := range sortedKeys(categoryHints) {
		for _, hint := range categoryHints[category] {
			if strings.Contains(lower, hint) {
				categories = append(categories, category)
				break
			}
		}
	}

	var operations []string
	for _, operation := range sortedKeys(operationHints) {
		for _, hint := range operationHints[operation] {
			if strings.Contains(lower, hint) {
				operations = append(operations, operation)
				break
			}
		}
	}

	return terms{text: text, categories: categories, operations: operations}
}

// keywordCypher scores servers by name and description containment, with a
// tiny popularity bonus for tie-breaking.
const keywordCypher = `
MATCH (s:Server)
WITH s,
     CASE
         WHEN toLower(s.name) CONTAINS toLower($query) THEN 10.0
         WHEN toLower(s.description) CONTAINS toLower($query) THEN 8.0
         ELSE 0.0
     END AS text_score,
     coalesce(s.popularity_score, 0) * 0.001 AS popularity_bonus
WITH s, (text_score + popularity_bonus) AS total_score, text_score
WHERE text_score > 0 AND total_score >= $min_score
RETURN s, total_score
ORDER BY total_score DESC
LIMIT $limit`

// BuildKeywordQuery builds the fallback keyword-scored query.
func BuildKeywordQuery(query string, limit int, minScore float64) *Query {
	t := extractTerms(query)
	return &Query{
		Cypher: keywordCypher,
		Parameters: map[string]any{
			"query":      t.text,
			"categories": t.categories,
			"operations": t.operations,
			"min_score":  minScore,
			"limit":      limit,
		},
		Original: query,
		Source:   "keyword",
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
