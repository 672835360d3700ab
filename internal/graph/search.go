package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/servermap/servermap/internal/search"
	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/errors"
)

// Result is one search hit: the server plus the score the query assigned it.
type Result struct {
	Server catalogs.Server
	Score  float64
}

// Search runs a read query against the graph. The query is expected to
// return a Server node first and a numeric score second; rows that don't
// match that shape are skipped.
func (l *Loader) Search(ctx context.Context, q *search.Query) ([]Result, error) {
	session := l.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, q.Cypher, q.Parameters)
	if err != nil {
		return nil, errors.WrapResource("search", "graph", q.Original, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, errors.WrapResource("search", "graph", q.Original, err)
	}

	out := make([]Result, 0, len(records))
	for _, record := range records {
		node, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}
		hit := Result{Server: serverFromNode(node)}
		if len(record.Values) > 1 {
			if score, ok := record.Values[1].(float64); ok {
				hit.Score = score
			}
		}
		out = append(out, hit)
	}
	return out, nil
}

// serverFromNode rebuilds a record from flattened node properties. This is
// the inverse of serverRow minus what flattening discarded (tools become a
// bare count in the graph and stay lost here).
func serverFromNode(node neo4j.Node) catalogs.Server {
	props := node.Props

	server := catalogs.Server{
		ID:                     stringProp(props, "id"),
		Name:                   stringProp(props, "name"),
		Description:            stringProp(props, "description"),
		Author:                 stringProp(props, "author"),
		Version:                stringProp(props, "version"),
		License:                stringProp(props, "license"),
		Repository:             stringProp(props, "repository"),
		Homepage:               stringProp(props, "homepage"),
		ImplementationLanguage: stringProp(props, "implementation_language"),
		RegistrySource:         catalogs.Registry(stringProp(props, "registry_source")),
	}

	for _, c := range stringListProp(props, "categories") {
		server.Categories = append(server.Categories, catalogs.Category(c))
	}
	for _, o := range stringListProp(props, "operations") {
		server.Operations = append(server.Operations, catalogs.Operation(o))
	}
	if score, ok := props["popularity_score"].(int64); ok {
		n := int(score)
		server.PopularityScore = &n
	}
	return server
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func stringListProp(props map[string]any, key string) []string {
	list, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
