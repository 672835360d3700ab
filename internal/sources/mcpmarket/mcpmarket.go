// Package mcpmarket crawls mcpmarket.com. The site fronts its listings with
// aggressive bot protection and has changed its API shape more than once, so
// the crawler probes a list of known endpoints and accepts several response
// layouts. An empty snapshot is a valid outcome here, not an error.
package mcpmarket

import (
	"context"
	"strings"

	"github.com/servermap/servermap/internal/sources/classify"
	"github.com/servermap/servermap/internal/transport"
	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/logging"
)

const (
	defaultBaseURL = "https://mcpmarket.com"
	registryID     = "mcpmarket.com"
)

// apiPaths are the listing endpoints probed in order; the first one that
// yields servers wins.
var apiPaths = []string{
	"/api/servers",
	"/api/v1/servers",
	"/servers.json",
}

// listKeys are the envelope keys under which the listing may appear.
var listKeys = []string{"servers", "data", "items", "results"}

// Source crawls mcpmarket.com.
type Source struct {
	client  *transport.Client
	baseURL string
}

// Option configures a Source.
type Option func(*Source)

// WithBaseURL overrides the site base URL.
func WithBaseURL(u string) Option {
	return func(s *Source) { s.baseURL = strings.TrimRight(u, "/") }
}

// New creates an mcpmarket.com source.
func New(opts ...Option) *Source {
	s := &Source{
		client:  transport.New(&transport.NoAuth{}, ""),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry implements sources.Source.
func (s *Source) Registry() catalogs.Registry {
	return catalogs.RegistryMCPMarket
}

// Fetch implements sources.Source.
func (s *Source) Fetch(ctx context.Context) (*catalogs.Snapshot, error) {
	logger := logging.FromContext(ctx)

	var servers []catalogs.Server
	for _, path := range apiPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var payload any
		if err := s.client.GetJSON(ctx, registryID, s.baseURL+path, &payload); err != nil {
			logger.Debug().Str("endpoint", path).Err(err).Msg("Listing endpoint unavailable")
			continue
		}

		servers = parsePayload(payload, s.baseURL)
		if len(servers) > 0 {
			logger.Info().Str("endpoint", path).Int("servers", len(servers)).Msg("mcpmarket.com crawl complete")
			break
		}
	}

	if len(servers) == 0 {
		logger.Warn().Msg("mcpmarket.com yielded no servers, possibly blocked")
	}

	snap := catalogs.NewSnapshot(catalogs.RegistryMCPMarket, servers)
	snap.URL = s.baseURL
	return snap, nil
}

// parsePayload extracts records from a decoded listing response. The payload
// may be a bare array or an object wrapping the array under a known key.
func parsePayload(payload any, baseURL string) []catalogs.Server {
	var list []any

	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, key := range listKeys {
			if nested, ok := v[key].([]any); ok {
				list = nested
				break
			}
		}
	}

	var out []catalogs.Server
	seen := make(map[string]struct{})
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		server := parseEntry(entry, baseURL)
		if server == nil {
			continue
		}
		if _, dup := seen[server.Name]; dup {
			continue
		}
		seen[server.Name] = struct{}{}
		out = append(out, *server)
	}
	return out
}

// parseEntry maps one listing object onto a record, tolerating the field
// aliases the site has used over time.
func parseEntry(entry map[string]any, baseURL string) *catalogs.Server {
	name := stringField(entry, "name", "title")
	if name == "" {
		return nil
	}

	description := stringField(entry, "description")
	repository := stringField(entry, "repository", "repo_url")
	author := stringField(entry, "author", "owner")

	// Listings often omit the author but link the repository.
	if author == "" && strings.Contains(repository, "github.com") {
		parts := strings.Split(repository, "/")
		if len(parts) >= 5 {
			author = parts[3]
		}
	}

	slug := strings.NewReplacer(" ", "-", "_", "-").Replace(strings.ToLower(name))
	sourceURL := stringField(entry, "url")
	if sourceURL == "" {
		sourceURL = baseURL + "/server/" + slug
	}

	return &catalogs.Server{
		ID:             "mcpmarket_" + slug,
		Name:           name,
		Description:    description,
		Author:         author,
		Repository:     repository,
		Categories:     classify.Categorize(name, description),
		Operations:     classify.Operations(nil),
		RegistrySource: catalogs.RegistryMCPMarket,
		SourceURL:      sourceURL,
		RawMetadata:    entry,
	}
}

// stringField returns the first non-empty string among the given keys.
func stringField(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := entry[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
