package dedup

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/logging"
)

func testContext() context.Context {
	return logging.WithLogger(context.Background(), &logging.Nop)
}

func TestDeduplicateRepositoryMatch(t *testing.T) {
	pop := 4200
	records := []catalogs.Server{
		{
			ID:             "gh-1",
			Name:           "Playwright Mcp",
			Author:         "microsoft",
			Repository:     "https://github.com/microsoft/playwright-mcp",
			Description:    "Browser automation over the MCP protocol",
			RegistrySource: catalogs.RegistryGitHub,
		},
		{
			ID:              "mcpso-77",
			Name:            "playwright",
			Author:          "Microsoft",
			Repository:      "github.com/Microsoft/playwright-mcp.git/",
			Version:         "0.4.1",
			License:         "Apache-2.0",
			PopularityScore: &pop,
			RegistrySource:  catalogs.RegistryMCPSo,
		},
	}

	d := New()
	out := d.Deduplicate(testContext(), records)

	require.Len(t, out, 1, "URL variants of one repository must collapse")
	got := out[0]
	assert.Equal(t, "gh-1", got.ID, "first-seen record is canonical")
	assert.Equal(t, "Playwright Mcp", got.Name)
	assert.Equal(t, "0.4.1", got.Version, "gap filled from the duplicate")
	assert.Equal(t, "Apache-2.0", got.License)
	assert.Equal(t, 4200, *got.PopularityScore)

	stats := d.Stats()
	assert.Equal(t, 2, stats.Input)
	assert.Equal(t, 1, stats.IndexDuplicates)
	assert.Equal(t, 1, stats.Output)
}

func TestDeduplicateNameAuthorMatch(t *testing.T) {
	records := []catalogs.Server{
		{
			Name:           "MCP Weather Server",
			Author:         "acme",
			RegistrySource: catalogs.RegistryGitHub,
		},
		{
			Name:           "weather",
			Author:         "Acme",
			Description:    "Forecasts and alerts",
			RegistrySource: catalogs.RegistryGlama,
		},
	}

	out := New().Deduplicate(testContext(), records)

	require.Len(t, out, 1, "normalized name+author must collapse across registries")
	assert.Equal(t, "Forecasts and alerts", out[0].Description)
}

func TestDeduplicateContentHashMatch(t *testing.T) {
	// No repository, different raw names that normalize apart, but the same
	// fingerprint fields.
	records := []catalogs.Server{
		{
			Name:           "filesystem",
			Description:    "Read and write local files",
			Categories:     []catalogs.Category{catalogs.CategoryFileSystem},
			Operations:     []catalogs.Operation{catalogs.OperationRead, catalogs.OperationWrite},
			RegistrySource: catalogs.RegistryGitHub,
		},
		{
			Name:           "FILESYSTEM",
			Description:    "Read and write local files",
			Categories:     []catalogs.Category{catalogs.CategoryFileSystem},
			Operations:     []catalogs.Operation{catalogs.OperationWrite, catalogs.OperationRead},
			RegistrySource: catalogs.RegistryMCPMarket,
		},
	}

	out := New().Deduplicate(testContext(), records)
	assert.Len(t, out, 1, "content hash is order-insensitive over set fields")
}

func TestDeduplicateFuzzyNameMatch(t *testing.T) {
	base := catalogs.Server{
		Author:                 "acme",
		Description:            "Queries the production metrics warehouse",
		ImplementationLanguage: "python",
		Categories:             []catalogs.Category{catalogs.CategoryMonitoring},
		RegistrySource:         catalogs.RegistryGitHub,
	}

	a := base
	a.Name = "metrics warehouse"
	a.Repository = "https://github.com/acme/warehouse"
	b := base
	b.Name = "metrics warehuse" // typo variant, above the fuzzy threshold
	b.Author = "acme-labs"      // defeats the name+author index
	b.Repository = "https://github.com/acme/warehouse-py"
	b.RegistrySource = catalogs.RegistryGlama

	out := New().Deduplicate(testContext(), []catalogs.Server{a, b})
	assert.Len(t, out, 1, "near-identical names confirmed by secondary signals must collapse")
}

func TestDeduplicateNameOnlyOverlapKept(t *testing.T) {
	records := []catalogs.Server{
		{
			Name:           "search",
			Author:         "acme",
			Description:    "Full-text search over a document store",
			Categories:     []catalogs.Category{catalogs.CategorySearch},
			RegistrySource: catalogs.RegistryGitHub,
		},
		{
			Name:           "search",
			Author:         "globex",
			Description:    "Web search via a hosted crawler API",
			Categories:     []catalogs.Category{catalogs.CategoryAPIIntegration},
			RegistrySource: catalogs.RegistryMCPSo,
		},
	}

	out := New().Deduplicate(testContext(), records)
	assert.Len(t, out, 2, "a shared name alone is not evidence of identity")
}

// similarityFixture builds two records that survive the index pass (distinct
// repositories, names too far apart for the fuzzy index) yet score above the
// similarity-pass threshold.
func similarityFixture(reg1, reg2 catalogs.Registry) []catalogs.Server {
	base := catalogs.Server{
		Author:                 "acme",
		Description:            "Manages cloud storage buckets and object lifecycles",
		ImplementationLanguage: "go",
		Categories:             []catalogs.Category{catalogs.CategoryCloudServices},
	}

	a := base
	a.Name = "abcdefghij"
	a.Repository = "https://github.com/acme/tool-one"
	a.RegistrySource = reg1

	b := base
	b.Name = "abcdefghxy"
	b.Repository = "https://github.com/acme/tool-two"
	b.RegistrySource = reg2
	b.Version = "1.2.0"

	return []catalogs.Server{a, b}
}

func TestDeduplicateSimilarityPass(t *testing.T) {
	t.Run("cross registry merges", func(t *testing.T) {
		d := New()
		out := d.Deduplicate(testContext(), similarityFixture(catalogs.RegistryGitHub, catalogs.RegistryGlama))
		require.Len(t, out, 1)
		assert.Equal(t, 1, d.Stats().SimilarityMerges)
		assert.Equal(t, "abcdefghxy", out[0].Name, "the more complete member survives")
	})

	t.Run("same registry never merges", func(t *testing.T) {
		d := New()
		out := d.Deduplicate(testContext(), similarityFixture(catalogs.RegistryGitHub, catalogs.RegistryGitHub))
		assert.Len(t, out, 2)
		assert.Equal(t, 0, d.Stats().SimilarityMerges)
	})
}

func TestDeduplicateIdempotent(t *testing.T) {
	records := similarityFixture(catalogs.RegistryGitHub, catalogs.RegistryMCPSo)
	records = append(records,
		catalogs.Server{
			Name:           "standalone",
			Author:         "solo",
			Description:    "Nothing like the others",
			RegistrySource: catalogs.RegistryGitHub,
		},
	)

	first := New().Deduplicate(testContext(), records)
	second := New().Deduplicate(testContext(), first)

	assert.Equal(t, len(first), len(second), "a deduplicated batch must pass through unchanged")
}

func TestDeduplicateEmptyBatch(t *testing.T) {
	out := New().Deduplicate(testContext(), nil)
	assert.Empty(t, out)
}

func TestDeduplicateInputNotMutated(t *testing.T) {
	records := similarityFixture(catalogs.RegistryGitHub, catalogs.RegistryGlama)
	name0, name1 := records[0].Name, records[1].Name

	New().Deduplicate(testContext(), records)

	assert.Equal(t, name0, records[0].Name)
	assert.Equal(t, name1, records[1].Name)
	assert.Empty(t, records[0].Version, "merges must land on copies, not input records")
}

func TestDeduplicateParallelMatchesSequential(t *testing.T) {
	var records []catalogs.Server
	records = append(records, similarityFixture(catalogs.RegistryGitHub, catalogs.RegistryGlama)...)
	records = append(records, similarityFixture(catalogs.RegistryMCPSo, catalogs.RegistryMCPMarket)...)
	for i := range records[2:] {
		records[2+i].Author = "globex"
		records[2+i].Repository = "https://gitlab.com/globex/thing-" + string(rune('a'+i))
	}
	records = append(records, catalogs.Server{
		Name:           "unrelated",
		Author:         "solo",
		RegistrySource: catalogs.RegistryGitHub,
	})

	sequential := New().Deduplicate(testContext(), records)
	parallel := New(WithSimilarityWorkers(4)).Deduplicate(testContext(), records)

	require.Equal(t, len(sequential), len(parallel))

	seqIDs := namesOf(sequential)
	parIDs := namesOf(parallel)
	assert.Equal(t, seqIDs, parIDs, "parallel pair evaluation must not change grouping")
}

func namesOf(servers []catalogs.Server) []string {
	out := make([]string, len(servers))
	for i, s := range servers {
		out[i] = s.Name
	}
	sort.Strings(out)
	return out
}
