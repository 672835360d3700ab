// Package github crawls GitHub's repository search API for MCP servers.
// Discovery is query-driven: a battery of search expressions covering README
// phrases, topics and marker files, paginated and deduplicated by repository
// URL. Candidate repositories are confirmed by README inspection before they
// become records.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/servermap/servermap/internal/transport"
	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/errors"
	"github.com/servermap/servermap/pkg/logging"
)

const (
	apiBase    = "https://api.github.com"
	perPage    = 100
	maxPages   = 5
	registryID = "github"
)

// defaultQueries is the search battery used to discover MCP servers.
var defaultQueries = []string{
	`mcp server in:readme`,
	`model context protocol in:readme`,
	`mcp-server in:name,description`,
	`topic:mcp`,
	`topic:model-context-protocol`,
	`topic:mcp-server`,
	`filename:glama.json`,
	`filename:mcp.json`,
	`claude desktop mcp in:readme`,
}

// readmeIndicators confirm that a candidate repository is an MCP server.
var readmeIndicators = []string{
	"mcp server",
	"model context protocol",
	"mcp-server",
	"claude desktop",
	"mcp.json",
	"model-context-protocol",
}

// Source crawls GitHub.
type Source struct {
	client  *transport.Client
	queries []string
}

// Option configures a Source.
type Option func(*Source)

// WithQueries replaces the default search battery.
func WithQueries(queries []string) Option {
	return func(s *Source) { s.queries = queries }
}

// New creates a GitHub source. The token is required; unauthenticated search
// quota is too small for a full crawl.
func New(token string, opts ...Option) (*Source, error) {
	if token == "" {
		return nil, &errors.ValidationError{Field: "token", Message: "GitHub token is required"}
	}
	s := &Source{
		client:  transport.New(&transport.TokenAuth{}, token),
		queries: defaultQueries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Registry implements sources.Source.
func (s *Source) Registry() catalogs.Registry {
	return catalogs.RegistryGitHub
}

// searchResult is the shape of GET /search/repositories responses.
type searchResult struct {
	TotalCount int          `json:"total_count"`
	Items      []repository `json:"items"`
}

// repository is the subset of GitHub's repository object the crawler uses.
type repository struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Homepage    string   `json:"homepage"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	Stargazers  int      `json:"stargazers_count"`
	UpdatedAt   string   `json:"updated_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// readmeResponse is the shape of GET /repos/{owner}/{repo}/readme responses.
type readmeResponse struct {
	Content string `json:"content"`
}

// Fetch implements sources.Source. Rate limiting ends the current query but
// not the crawl; whatever was discovered before the limit is still returned.
func (s *Source) Fetch(ctx context.Context) (*catalogs.Snapshot, error) {
	logger := logging.FromContext(ctx)

	seen := make(map[string]struct{})
	var servers []catalogs.Server

	for _, query := range s.queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := s.searchQuery(ctx, query, seen)
		if err != nil {
			if errors.IsRateLimited(err) {
				logger.Warn().Str("query", query).Msg("GitHub rate limit hit, skipping remaining pages")
				continue
			}
			return nil, err
		}
		servers = append(servers, found...)

		logger.Debug().
			Str("query", query).
			Int("total", len(servers)).
			Msg("Search query complete")
	}

	logger.Info().Int("servers", len(servers)).Msg("GitHub crawl complete")

	snap := catalogs.NewSnapshot(catalogs.RegistryGitHub, servers)
	snap.URL = apiBase
	return snap, nil
}

// searchQuery pages through one search expression, converting unseen
// repositories that pass the MCP check.
func (s *Source) searchQuery(ctx context.Context, query string, seen map[string]struct{}) ([]catalogs.Server, error) {
	var out []catalogs.Server

	for page := 1; page <= maxPages; page++ {
		endpoint := fmt.Sprintf("%s/search/repositories?q=%s&sort=stars&order=desc&page=%d&per_page=%d",
			apiBase, url.QueryEscape(query), page, perPage)

		var result searchResult
		if err := s.client.GetJSON(ctx, registryID, endpoint, &result); err != nil {
			return out, err
		}
		if len(result.Items) == 0 {
			break
		}

		for i := range result.Items {
			repo := &result.Items[i]
			if _, dup := seen[repo.HTMLURL]; dup {
				continue
			}
			seen[repo.HTMLURL] = struct{}{}

			if !s.isMCPServer(ctx, repo) {
				continue
			}
			out = append(out, convert(repo))
		}
	}

	return out, nil
}

// isMCPServer confirms a candidate by README content, falling back to topics
// and description when the README is unavailable.
func (s *Source) isMCPServer(ctx context.Context, repo *repository) bool {
	endpoint := fmt.Sprintf("%s/repos/%s/readme", apiBase, repo.FullName)

	var readme readmeResponse
	if err := s.client.GetJSON(ctx, registryID, endpoint, &readme); err == nil {
		if decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(readme.Content, "\n", "")); err == nil {
			text := strings.ToLower(string(decoded))
			for _, indicator := range readmeIndicators {
				if strings.Contains(text, indicator) {
					return true
				}
			}
			return false
		}
	}

	return matchesFallback(repo)
}

// matchesFallback checks topics and description for MCP markers.
func matchesFallback(repo *repository) bool {
	for _, topic := range repo.Topics {
		if topic == "mcp" || topic == "model-context-protocol" || topic == "mcp-server" {
			return true
		}
	}
	desc := strings.ToLower(repo.Description)
	return strings.Contains(desc, "mcp") || strings.Contains(desc, "model context protocol")
}
