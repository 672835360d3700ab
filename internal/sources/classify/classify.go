// Package classify assigns categories and operations to crawled records from
// keyword heuristics. Registries rarely publish structured taxonomy data, so
// the crawlers lean on names, descriptions and tool names instead.
package classify

import (
	"strings"

	"github.com/servermap/servermap/pkg/catalogs"
)

// categoryKeywords maps each category to the keywords that suggest it.
var categoryKeywords = map[catalogs.Category][]string{
	catalogs.CategoryDatabase:         {"database", "sql", "postgres", "mysql", "mongodb", "redis"},
	catalogs.CategoryFileSystem:       {"file", "filesystem", "directory", "folder", "storage"},
	catalogs.CategoryAPIIntegration:   {"api", "rest", "graphql", "webhook", "http"},
	catalogs.CategoryDevelopmentTools: {"git", "github", "code", "development", "build"},
	catalogs.CategoryDataProcessing:   {"data", "etl", "transform", "process", "analytics"},
	catalogs.CategoryCloudServices:    {"aws", "azure", "gcp", "cloud", "kubernetes"},
	catalogs.CategoryCommunication:    {"slack", "discord", "email", "notification", "message"},
	catalogs.CategoryAuthentication:   {"auth", "oauth", "login", "security", "jwt"},
	catalogs.CategoryMonitoring:       {"monitor", "metrics", "logging", "observability"},
	catalogs.CategorySearch:           {"search", "index", "elasticsearch", "solr"},
	catalogs.CategoryAIML:             {"ai", "ml", "machine learning", "neural", "model"},
}

// operationKeywords maps tool-name fragments to the operation they imply.
// Checked in order; the first group with a hit wins for that tool.
var operationKeywords = []struct {
	op       catalogs.Operation
	keywords []string
}{
	{catalogs.OperationRead, []string{"get", "read", "fetch", "list"}},
	{catalogs.OperationWrite, []string{"create", "write", "update", "delete"}},
	{catalogs.OperationQuery, []string{"query", "search", "find"}},
	{catalogs.OperationExecute, []string{"execute", "run", "call"}},
}

// Categorize derives categories from a record's name and description.
// Records matching nothing get CategoryOther so every record has at least one.
func Categorize(name, description string) []catalogs.Category {
	text := strings.ToLower(description + " " + name)

	var out []catalogs.Category
	for _, category := range catalogs.Categories() {
		keywords, ok := categoryKeywords[category]
		if !ok {
			continue
		}
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				out = append(out, category)
				break
			}
		}
	}

	if len(out) == 0 {
		out = []catalogs.Category{catalogs.CategoryOther}
	}
	return out
}

// Operations derives operations from tool names. Records with no
// recognizable tools default to OperationRead.
func Operations(tools []catalogs.Tool) []catalogs.Operation {
	seen := make(map[catalogs.Operation]struct{})
	var out []catalogs.Operation

	for _, tool := range tools {
		name := strings.ToLower(tool.Name)
		for _, group := range operationKeywords {
			matched := false
			for _, keyword := range group.keywords {
				if strings.Contains(name, keyword) {
					matched = true
					break
				}
			}
			if matched {
				if _, dup := seen[group.op]; !dup {
					seen[group.op] = struct{}{}
					out = append(out, group.op)
				}
				break
			}
		}
	}

	if len(out) == 0 {
		out = []catalogs.Operation{catalogs.OperationRead}
	}
	return out
}
