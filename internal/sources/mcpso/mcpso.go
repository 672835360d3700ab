// Package mcpso crawls the mcp.so catalog website. Discovery goes through
// the site's project sitemaps, which enumerate every server detail page;
// each page is then fetched and scraped for metadata.
package mcpso

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/servermap/servermap/internal/sources/classify"
	"github.com/servermap/servermap/internal/transport"
	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/logging"
)

const (
	defaultBaseURL = "https://mcp.so"
	registryID     = "mcp.so"

	// sitemapCount is how many sitemap_projects_N.xml files the site
	// publishes. Missing trailing sitemaps are not an error.
	sitemapCount = 4
)

var (
	locPattern      = regexp.MustCompile(`<loc>(https://mcp\.so/server/[^<]+)</loc>`)
	h1Pattern       = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	titlePattern    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescPattern = regexp.MustCompile(`(?i)<meta\s+name="description"\s+content="([^"]*)"`)
	repoPattern     = regexp.MustCompile(`href="(https://github\.com/[^"/]+/[^"/?#]+)`)
	tagPattern      = regexp.MustCompile(`(?i)<[^>]*class="[^"]*(?:tag|label|badge)[^"]*"[^>]*>([^<]{1,20})<`)
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// Source crawls mcp.so.
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

// New creates an mcp.so source. The site is public; no credentials needed.
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
	return catalogs.RegistryMCPSo
}

// Fetch implements sources.Source. Detail pages that fail to fetch or parse
// are skipped, not fatal; the registry serves thousands of pages and a few
// always 404.
func (s *Source) Fetch(ctx context.Context) (*catalogs.Snapshot, error) {
	logger := logging.FromContext(ctx)

	urls, err := s.discoverServerURLs(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("urls", len(urls)).Msg("Discovered server pages from sitemaps")

	var servers []catalogs.Server
	for _, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		server, err := s.fetchServerPage(ctx, pageURL)
		if err != nil {
			logger.Debug().Str("url", pageURL).Err(err).Msg("Skipping server page")
			continue
		}
		if server != nil {
			servers = append(servers, *server)
		}
	}

	logger.Info().Int("servers", len(servers)).Msg("mcp.so crawl complete")

	snap := catalogs.NewSnapshot(catalogs.RegistryMCPSo, servers)
	snap.URL = s.baseURL
	return snap, nil
}

// discoverServerURLs reads the project sitemaps and collects detail-page URLs.
func (s *Source) discoverServerURLs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var urls []string

	for i := 1; i <= sitemapCount; i++ {
		sitemapURL := fmt.Sprintf("%s/sitemap_projects_%d.xml", s.baseURL, i)

		body, err := s.client.GetBody(ctx, registryID, sitemapURL)
		if err != nil {
			if i == 1 {
				return nil, err
			}
			break
		}

		for _, m := range locPattern.FindAllStringSubmatch(body, -1) {
			if _, dup := seen[m[1]]; !dup {
				seen[m[1]] = struct{}{}
				urls = append(urls, m[1])
			}
		}
	}

	return urls, nil
}

// fetchServerPage scrapes one detail page into a record. A page without a
// recognizable name yields (nil, nil).
func (s *Source) fetchServerPage(ctx context.Context, pageURL string) (*catalogs.Server, error) {
	body, err := s.client.GetBody(ctx, registryID, pageURL)
	if err != nil {
		return nil, err
	}
	return parseServerPage(pageURL, body), nil
}

// parseServerPage extracts a record from detail-page HTML. Pages title
// servers as "<name> by <author>"; the URL path carries both as a fallback.
func parseServerPage(pageURL, body string) *catalogs.Server {
	name, author := parseTitle(body)

	var description string
	if m := metaDescPattern.FindStringSubmatch(body); m != nil {
		description = strings.TrimSpace(m[1])
	}

	var repository string
	if m := repoPattern.FindStringSubmatch(body); m != nil {
		repository = m[1]
	}

	var tags []string
	for _, m := range tagPattern.FindAllStringSubmatch(body, -1) {
		tag := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m[1]), "#"))
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	// URL shape: https://mcp.so/server/<name>/<author>
	if name == "" || author == "" {
		parts := strings.Split(strings.TrimRight(pageURL, "/"), "/")
		if len(parts) >= 6 {
			if name == "" {
				name = parts[len(parts)-2]
			}
			if author == "" {
				author = parts[len(parts)-1]
			}
		}
	}
	if name == "" {
		return nil
	}

	id := "mcp_so_" + strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(name))

	return &catalogs.Server{
		ID:             id,
		Name:           name,
		Description:    description,
		Author:         author,
		Repository:     repository,
		Categories:     classify.Categorize(name, description),
		Operations:     classify.Operations(nil),
		DataTypes:      tags,
		RegistrySource: catalogs.RegistryMCPSo,
		SourceURL:      pageURL,
	}
}

// parseTitle pulls name and author from the page's h1, falling back to the
// title element. Titles carry a " | MCP.so" suffix that gets stripped.
func parseTitle(body string) (name, author string) {
	var text string
	if m := h1Pattern.FindStringSubmatch(body); m != nil {
		text = m[1]
	} else if m := titlePattern.FindStringSubmatch(body); m != nil {
		text, _, _ = strings.Cut(m[1], "|")
	}
	text = strings.TrimSpace(htmlTagPattern.ReplaceAllString(text, ""))
	if text == "" {
		return "", ""
	}

	if before, after, found := strings.Cut(text, " by "); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return text, ""
}
