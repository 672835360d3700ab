// Package graph loads the canonical server set into Neo4j. Servers and
// ontology categories become nodes, category membership and inferred
// relationships become edges. Loading is MERGE-based and idempotent: running
// the loader twice over the same data does not duplicate nodes.
package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/errors"
	"github.com/servermap/servermap/pkg/logging"
)

// DefaultBatchSize is how many servers one UNWIND statement carries.
const DefaultBatchSize = 500

// Config holds Neo4j connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string // empty means the server default
}

// Loader writes the knowledge graph to Neo4j.
type Loader struct {
	driver    neo4j.DriverWithContext
	database  string
	batchSize int
}

// NewLoader connects to Neo4j and verifies connectivity.
func NewLoader(ctx context.Context, cfg Config) (*Loader, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.WrapResource("connect", "neo4j", cfg.URI, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, errors.WrapResource("verify", "neo4j", cfg.URI, err)
	}
	return &Loader{driver: driver, database: cfg.Database, batchSize: DefaultBatchSize}, nil
}

// Close releases the underlying driver.
func (l *Loader) Close(ctx context.Context) error {
	return l.driver.Close(ctx)
}

// SetBatchSize overrides the UNWIND batch size.
func (l *Loader) SetBatchSize(n int) {
	if n > 0 {
		l.batchSize = n
	}
}

func (l *Loader) session(ctx context.Context) neo4j.SessionWithContext {
	return l.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.database})
}

// Clear removes every node and edge. Used before a full reload.
func (l *Loader) Clear(ctx context.Context) error {
	session := l.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	_, err := session.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	return errors.WrapResource("clear", "graph", "", err)
}

// LoadServers MERGEs the canonical servers as Server nodes in batches.
func (l *Loader) LoadServers(ctx context.Context, servers []catalogs.Server) error {
	logger := logging.FromContext(ctx)
	session := l.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	const query = `
UNWIND $batch AS row
MERGE (s:Server {id: row.id})
SET s.name = row.name,
    s.description = row.description,
    s.author = row.author,
    s.version = row.version,
    s.license = row.license,
    s.repository = row.repository,
    s.homepage = row.homepage,
    s.implementation_language = row.implementation_language,
    s.categories = row.categories,
    s.operations = row.operations,
    s.registry_source = row.registry_source,
    s.popularity_score = row.popularity_score,
    s.tool_count = row.tool_count`

	for start := 0; start < len(servers); start += l.batchSize {
		end := min(start+l.batchSize, len(servers))

		batch := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, serverRow(&servers[i]))
		}

		if _, err := session.Run(ctx, query, map[string]any{"batch": batch}); err != nil {
			return errors.WrapResource("load", "server batch", "", err)
		}
		logger.Debug().Int("loaded", end).Int("total", len(servers)).Msg("Server batch loaded")
	}

	logger.Info().Int("servers", len(servers)).Msg("Servers loaded to graph")
	return nil
}

// serverRow flattens a record into Neo4j-storable properties. Nested
// structures become counts or string lists; Neo4j properties cannot hold
// maps.
func serverRow(s *catalogs.Server) map[string]any {
	categories := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		categories[i] = c.String()
	}
	operations := make([]string, len(s.Operations))
	for i, o := range s.Operations {
		operations[i] = o.String()
	}

	row := map[string]any{
		"id":                      s.ID,
		"name":                    s.Name,
		"description":             s.Description,
		"author":                  s.Author,
		"version":                 s.Version,
		"license":                 s.License,
		"repository":              s.Repository,
		"homepage":                s.Homepage,
		"implementation_language": s.ImplementationLanguage,
		"categories":              categories,
		"operations":              operations,
		"registry_source":         s.RegistrySource.String(),
		"tool_count":              len(s.Tools),
	}
	if s.PopularityScore != nil {
		row["popularity_score"] = *s.PopularityScore
	} else {
		row["popularity_score"] = nil
	}
	return row
}

// categoryDescriptions is the ontology: one Category node per known
// category.
var categoryDescriptions = map[catalogs.Category]string{
	catalogs.CategoryDatabase:         "Servers that interact with databases and data storage",
	catalogs.CategoryFileSystem:       "Servers that work with files and directories",
	catalogs.CategoryAPIIntegration:   "Servers that integrate with external APIs",
	catalogs.CategoryDevelopmentTools: "Servers that support software development",
	catalogs.CategoryDataProcessing:   "Servers that process and transform data",
	catalogs.CategoryCloudServices:    "Servers that integrate with cloud platforms",
	catalogs.CategoryCommunication:    "Servers that handle messaging and notifications",
	catalogs.CategoryAuthentication:   "Servers that handle authentication and security",
	catalogs.CategoryMonitoring:       "Servers that monitor systems and applications",
	catalogs.CategorySearch:           "Servers that provide search capabilities",
	catalogs.CategoryAIML:             "Servers that provide AI and machine learning capabilities",
	catalogs.CategoryOther:            "Servers that don't fit into other categories",
}

// LoadCategories MERGEs the ontology categories and links every server to
// its categories with BELONGS_TO edges.
func (l *Loader) LoadCategories(ctx context.Context) error {
	session := l.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	batch := make([]map[string]any, 0, len(categoryDescriptions))
	for _, category := range catalogs.Categories() {
		batch = append(batch, map[string]any{
			"id":          category.String(),
			"description": categoryDescriptions[category],
		})
	}

	const categoryQuery = `
UNWIND $batch AS row
MERGE (c:Category {id: row.id})
SET c.description = row.description`

	if _, err := session.Run(ctx, categoryQuery, map[string]any{"batch": batch}); err != nil {
		return errors.WrapResource("load", "categories", "", err)
	}

	const membershipQuery = `
MATCH (s:Server)
UNWIND s.categories AS categoryID
MATCH (c:Category {id: categoryID})
MERGE (s)-[:BELONGS_TO]->(c)`

	if _, err := session.Run(ctx, membershipQuery, nil); err != nil {
		return errors.WrapResource("load", "category membership", "", err)
	}
	return nil
}

// LoadRelationships MERGEs inferred server relationships as RELATED_TO
// edges carrying type and confidence.
func (l *Loader) LoadRelationships(ctx context.Context, relationships []Relationship) error {
	logger := logging.FromContext(ctx)
	session := l.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	const query = `
UNWIND $batch AS row
MATCH (a:Server {id: row.source})
MATCH (b:Server {id: row.target})
MERGE (a)-[r:RELATED_TO {type: row.type}]->(b)
SET r.id = row.id,
    r.confidence = row.confidence,
    r.evidence = row.evidence`

	for start := 0; start < len(relationships); start += l.batchSize {
		end := min(start+l.batchSize, len(relationships))

		batch := make([]map[string]any, 0, end-start)
		for _, rel := range relationships[start:end] {
			batch = append(batch, map[string]any{
				"id":         rel.ID,
				"source":     rel.SourceID,
				"target":     rel.TargetID,
				"type":       string(rel.Type),
				"confidence": rel.Confidence,
				"evidence":   rel.Evidence,
			})
		}

		if _, err := session.Run(ctx, query, map[string]any{"batch": batch}); err != nil {
			return errors.WrapResource("load", "relationship batch", "", err)
		}
	}

	logger.Info().Int("relationships", len(relationships)).Msg("Relationships loaded to graph")
	return nil
}

// Counts summarizes what the graph holds after a load.
type Counts struct {
	Servers       int64
	Categories    int64
	Relationships int64
}

// VerifyCounts queries node and edge counts for post-load verification.
func (l *Loader) VerifyCounts(ctx context.Context) (Counts, error) {
	session := l.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	var counts Counts
	queries := []struct {
		query string
		dst   *int64
	}{
		{"MATCH (s:Server) RETURN count(s)", &counts.Servers},
		{"MATCH (c:Category) RETURN count(c)", &counts.Categories},
		{"MATCH ()-[r:RELATED_TO]->() RETURN count(r)", &counts.Relationships},
	}

	for _, q := range queries {
		result, err := session.Run(ctx, q.query, nil)
		if err != nil {
			return counts, errors.WrapResource("verify", "graph", q.query, err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			return counts, errors.WrapResource("verify", "graph", q.query, err)
		}
		if n, ok := record.Values[0].(int64); ok {
			*q.dst = n
		}
	}
	return counts, nil
}
