package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servermap/servermap/pkg/catalogs"
)

func TestConvert(t *testing.T) {
	repo := &repository{
		Name:        "playwright-mcp",
		FullName:    "microsoft/playwright-mcp",
		HTMLURL:     "https://github.com/microsoft/playwright-mcp",
		Description: "Browser automation MCP server using Playwright",
		Language:    "TypeScript",
		Topics:      []string{"mcp", "playwright"},
		Stargazers:  8200,
		UpdatedAt:   "2026-08-15T10:30:00Z",
	}
	repo.Owner.Login = "microsoft"

	got := convert(repo)

	assert.Equal(t, "github_microsoft_playwright-mcp", got.ID)
	assert.Equal(t, "playwright-mcp", got.Name)
	assert.Equal(t, "microsoft", got.Author)
	assert.Equal(t, "https://github.com/microsoft/playwright-mcp", got.Repository)
	assert.Equal(t, "TypeScript", got.ImplementationLanguage)
	assert.Equal(t, catalogs.RegistryGitHub, got.RegistrySource)

	require.NotNil(t, got.PopularityScore)
	assert.Equal(t, 8200, *got.PopularityScore)

	require.NotNil(t, got.LastUpdated)
	assert.Equal(t, 2026, got.LastUpdated.Year())

	assert.NotEmpty(t, got.Categories)
	assert.Equal(t, []catalogs.Operation{catalogs.OperationRead}, got.Operations)
	assert.Equal(t, "microsoft/playwright-mcp", got.RawMetadata["full_name"])
}

func TestMatchesFallback(t *testing.T) {
	tests := []struct {
		name string
		repo repository
		want bool
	}{
		{
			name: "mcp topic",
			repo: repository{Topics: []string{"cli", "mcp"}},
			want: true,
		},
		{
			name: "description mention",
			repo: repository{Description: "An MCP server for weather data"},
			want: true,
		},
		{
			name: "unrelated repository",
			repo: repository{Description: "A terminal emulator", Topics: []string{"terminal"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesFallback(&tt.repo))
		})
	}
}
