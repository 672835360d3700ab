package github

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/servermap/servermap/internal/sources/classify"
	"github.com/servermap/servermap/pkg/catalogs"
)

// convert maps a GitHub repository object onto a catalog record. The
// registry-local ID encodes owner and name; global IDs are assigned later.
func convert(repo *repository) catalogs.Server {
	s := catalogs.Server{
		ID:                     fmt.Sprintf("github_%s_%s", repo.Owner.Login, repo.Name),
		Name:                   repo.Name,
		Description:            repo.Description,
		Author:                 repo.Owner.Login,
		Homepage:               repo.Homepage,
		Repository:             repo.HTMLURL,
		ImplementationLanguage: repo.Language,
		Categories:             classify.Categorize(repo.Name, repo.Description),
		Operations:             classify.Operations(nil),
		RegistrySource:         catalogs.RegistryGitHub,
		SourceURL:              repo.HTMLURL,
		RawMetadata: map[string]any{
			"full_name": repo.FullName,
			"topics":    repo.Topics,
			"stars":     repo.Stargazers,
		},
	}

	stars := repo.Stargazers
	s.PopularityScore = &stars

	if repo.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, repo.UpdatedAt); err == nil {
			updated := utc.Time{Time: t.UTC()}
			s.LastUpdated = &updated
		}
	}

	return s
}
