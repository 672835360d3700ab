package dedup

import (
	"testing"

	"github.com/servermap/servermap/pkg/catalogs"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "weather", b: "weather", want: 1.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); got != tt.want {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	// Near-identical strings score high but below 1.
	got := Ratio("playwright", "playwrite")
	if got <= 0.8 || got >= 1.0 {
		t.Errorf("Ratio(playwright, playwrite) = %v, want in (0.8, 1.0)", got)
	}
}

func TestSimilar(t *testing.T) {
	base := func() *catalogs.Server {
		return &catalogs.Server{
			Name:                   "browser automation",
			Author:                 "acme",
			Description:            "Automates a headless browser over the wire protocol",
			ImplementationLanguage: "typescript",
			Repository:             "https://github.com/acme/browser-automation",
			Categories:             []catalogs.Category{catalogs.CategoryDevelopmentTools, catalogs.CategoryAPIIntegration},
			RegistrySource:         catalogs.RegistryGitHub,
		}
	}

	t.Run("matching records are similar", func(t *testing.T) {
		a := base()
		b := base()
		b.Repository = "https://github.com/acme/browser-tools"
		b.RegistrySource = catalogs.RegistryGlama
		if !Similar(a, b) {
			t.Error("expected records sharing author, description, categories, language and org to be similar")
		}
	})

	t.Run("missing fields count against similarity", func(t *testing.T) {
		a := base()
		b := &catalogs.Server{
			Name:           "browser automation",
			RegistrySource: catalogs.RegistryGlama,
		}
		if Similar(a, b) {
			t.Error("expected a sparse record to not be similar despite the shared name")
		}
	})

	t.Run("different authors and categories are dissimilar", func(t *testing.T) {
		a := base()
		b := base()
		b.Author = "globex"
		b.Description = "Queries a time-series metrics warehouse"
		b.Categories = []catalogs.Category{catalogs.CategoryMonitoring}
		b.ImplementationLanguage = "rust"
		b.Repository = "https://github.com/globex/metrics"
		if Similar(a, b) {
			t.Error("expected records differing in every secondary signal to be dissimilar")
		}
	})
}

func TestHighlySimilarSameRegistry(t *testing.T) {
	a := &catalogs.Server{
		Name:                   "vector store",
		Author:                 "acme",
		Description:            "Vector database access",
		ImplementationLanguage: "rust",
		Repository:             "https://github.com/acme/vector-store",
		Categories:             []catalogs.Category{catalogs.CategoryDatabase},
		RegistrySource:         catalogs.RegistryGitHub,
	}
	b := a.Copy()

	if HighlySimilar(a, b) {
		t.Error("records from the same registry must never be merged by the similarity pass")
	}

	b.RegistrySource = catalogs.RegistryMCPSo
	if !HighlySimilar(a, b) {
		t.Error("identical cross-registry records should be highly similar")
	}
}

func TestCompletenessScore(t *testing.T) {
	empty := &catalogs.Server{Name: "x", RegistrySource: catalogs.RegistryGitHub}
	if got := CompletenessScore(empty); got != 0 {
		t.Errorf("CompletenessScore(empty) = %d, want 0", got)
	}

	pop := 10
	full := &catalogs.Server{
		Name:            "x",
		Description:     "d",
		Author:          "a",
		Repository:      "https://github.com/a/x",
		Version:         "1.0.0",
		License:         "MIT",
		Homepage:        "https://example.com",
		Tools:           []catalogs.Tool{{Name: "t1"}, {Name: "t2"}},
		Resources:       []catalogs.Resource{{URI: "file:///tmp"}},
		Categories:      []catalogs.Category{catalogs.CategoryDatabase},
		PopularityScore: &pop,
		RegistrySource:  catalogs.RegistryGitHub,
	}
	// 2+1+2+1+1+1 scalars, 2 tools, 1 resource, 1 category, 1 popularity.
	if got := CompletenessScore(full); got != 13 {
		t.Errorf("CompletenessScore(full) = %d, want 13", got)
	}
}

func TestScoreRepositoryHost(t *testing.T) {
	a := &catalogs.Server{
		Name:           "alpha",
		Repository:     "https://github.com/acme/alpha",
		RegistrySource: catalogs.RegistryGitHub,
	}
	b := a.Copy()
	b.Repository = "https://gitlab.com/acme/alpha"
	b.RegistrySource = catalogs.RegistryGlama

	sameHost := Score(a, a.Copy())
	crossHost := Score(a, b)
	if sameHost-crossHost < 0.19 || sameHost-crossHost > 0.21 {
		t.Errorf("host mismatch should cost 0.2, got delta %v", sameHost-crossHost)
	}
}
