// Package glama crawls the Glama server directory through its JSON API,
// following cursor pagination until the directory is exhausted.
package glama

import (
	"context"
	"net/url"
	"strings"

	"github.com/servermap/servermap/internal/sources/classify"
	"github.com/servermap/servermap/internal/transport"
	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/logging"
)

const (
	defaultAPIURL = "https://glama.ai/api/mcp/servers"
	registryID    = "glama"

	// maxPages bounds pagination in case the API ever returns a cursor
	// cycle.
	maxPages = 1000
)

// Source crawls the Glama API.
type Source struct {
	client *transport.Client
	apiURL string
}

// Option configures a Source.
type Option func(*Source)

// WithAPIURL overrides the API endpoint.
func WithAPIURL(u string) Option {
	return func(s *Source) { s.apiURL = u }
}

// New creates a Glama source.
func New(opts ...Option) *Source {
	s := &Source{
		client: transport.New(&transport.NoAuth{}, ""),
		apiURL: defaultAPIURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry implements sources.Source.
func (s *Source) Registry() catalogs.Registry {
	return catalogs.RegistryGlama
}

// page is the shape of one API response.
type page struct {
	Servers []apiServer `json:"servers"`
	Cursor  string      `json:"cursor"`
	HasNext bool        `json:"has_next"`
}

// apiServer is one directory entry as the API reports it.
type apiServer struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Version     string    `json:"version"`
	Repository  string    `json:"repository"`
	Language    string    `json:"language"`
	Tools       []apiTool `json:"tools"`
}

type apiTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Fetch implements sources.Source.
func (s *Source) Fetch(ctx context.Context) (*catalogs.Snapshot, error) {
	logger := logging.FromContext(ctx)

	var servers []catalogs.Server
	endpoint := s.apiURL

	for pages := 0; pages < maxPages; pages++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var p page
		if err := s.client.GetJSON(ctx, registryID, endpoint, &p); err != nil {
			return nil, err
		}

		for i := range p.Servers {
			if p.Servers[i].Name == "" {
				continue
			}
			servers = append(servers, convert(&p.Servers[i]))
		}

		if !p.HasNext || p.Cursor == "" {
			break
		}
		endpoint = s.apiURL + "?after=" + url.QueryEscape(p.Cursor)
	}

	logger.Info().Int("servers", len(servers)).Msg("Glama crawl complete")

	snap := catalogs.NewSnapshot(catalogs.RegistryGlama, servers)
	snap.URL = s.apiURL
	return snap, nil
}

// convert maps one API entry onto a catalog record.
func convert(in *apiServer) catalogs.Server {
	tools := make([]catalogs.Tool, 0, len(in.Tools))
	for _, t := range in.Tools {
		tools = append(tools, catalogs.Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	slug := strings.NewReplacer(" ", "-", "_", "-").Replace(strings.ToLower(in.Name))

	return catalogs.Server{
		ID:                     "glama_" + strings.ReplaceAll(slug, "-", "_"),
		Name:                   in.Name,
		Description:            in.Description,
		Author:                 in.Author,
		Version:                in.Version,
		Repository:             in.Repository,
		ImplementationLanguage: in.Language,
		Tools:                  tools,
		Categories:             classify.Categorize(in.Name, in.Description),
		Operations:             classify.Operations(tools),
		RegistrySource:         catalogs.RegistryGlama,
		SourceURL:              "https://glama.ai/mcp/servers/" + slug,
	}
}
