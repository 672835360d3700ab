package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/servermap/servermap/internal/graph"
	"github.com/servermap/servermap/internal/search"
	"github.com/servermap/servermap/internal/storage"
	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/dedup"
	"github.com/servermap/servermap/pkg/errors"
	"github.com/servermap/servermap/pkg/identity"
)

// NewCrawlCommand creates the crawl command.
func (a *App) NewCrawlCommand() *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:     "crawl",
		GroupID: "pipeline",
		Short:   "Crawl registries and save snapshots",
		Long: `Crawl fetches server listings from the configured registries and writes
one timestamped snapshot per registry under the data directory.

A failing registry is logged and skipped; the crawl only fails when every
registry fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := a.loggerContext(cmd.Context())

			store, err := a.Storage()
			if err != nil {
				return err
			}

			set := a.Sources()
			crawled, failed := 0, 0
			for _, src := range set.List() {
				registry := src.Registry()
				if len(only) > 0 && !slices.Contains(only, string(registry)) {
					continue
				}

				snap, err := src.Fetch(ctx)
				if err != nil {
					a.logger.Warn().Err(err).Str("registry", string(registry)).Msg("Crawl failed")
					failed++
					continue
				}

				path, err := store.SaveSnapshot(snap)
				if err != nil {
					return err
				}
				a.logger.Info().
					Str("registry", string(registry)).
					Int("servers", snap.ServersCount).
					Str("path", path).
					Msg("Snapshot saved")
				crawled++
			}

			if crawled == 0 && failed > 0 {
				return &errors.ResourceError{Operation: "crawl", Resource: "registries", Err: errors.ErrRegistryUnavailable}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&only, "registry", nil, "crawl only the named registries (github, mcp.so, glama, mcpmarket)")
	return cmd
}

// NewDedupeCommand creates the dedupe command.
func (a *App) NewDedupeCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:     "dedupe",
		GroupID: "pipeline",
		Short:   "Deduplicate snapshots into the master server list",
		Long: `Dedupe merges the latest snapshot of every registry into a single
canonical server list with stable global identities, and saves it as the
master data file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := a.loggerContext(cmd.Context())

			store, err := a.Storage()
			if err != nil {
				return err
			}

			var records []catalogs.Server
			for _, registry := range catalogs.Registries() {
				snap, err := store.LatestSnapshot(registry)
				if err != nil {
					if errors.Is(err, errors.ErrNoSnapshot) {
						a.logger.Warn().Str("registry", string(registry)).Msg("No snapshot, run crawl first")
						continue
					}
					return err
				}
				records = append(records, snap.Servers...)
			}
			if len(records) == 0 {
				return &errors.ResourceError{Operation: "dedupe", Resource: "snapshots", Err: errors.ErrNoSnapshot}
			}

			deduplicator := dedup.New(dedup.WithSimilarityWorkers(workers))
			canonical := deduplicator.Deduplicate(ctx, records)
			canonical = identity.ConvertAll(ctx, canonical)

			path, err := store.SaveMaster(canonical, len(records))
			if err != nil {
				return err
			}

			stats := deduplicator.Stats()
			patterns := identity.Analyze(canonical)
			a.logger.Info().
				Int("input", stats.Input).
				Int("index_duplicates", stats.IndexDuplicates).
				Int("similarity_merges", stats.SimilarityMerges).
				Int("output", stats.Output).
				Int("repository_ids", patterns.RepositoryBased).
				Str("path", path).
				Msg("Master data saved")
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "parallel similarity workers (values below 2 run sequentially)")
	return cmd
}

// NewLoadCommand creates the load command.
func (a *App) NewLoadCommand() *cobra.Command {
	var (
		reset     bool
		force     bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:     "load",
		GroupID: "pipeline",
		Short:   "Load the master server list into Neo4j",
		Long: `Load writes the master data into Neo4j as Server and Category nodes
plus inferred RELATED_TO edges, then verifies node and edge counts.

By default the master data must be newer than every registry snapshot;
use --force to load stale data anyway.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := a.loggerContext(cmd.Context())

			store, err := a.Storage()
			if err != nil {
				return err
			}

			master, err := a.loadMaster(store, force)
			if err != nil {
				return err
			}

			loader, err := graph.NewLoader(ctx, a.graphConfig())
			if err != nil {
				return err
			}
			defer func() { _ = loader.Close(ctx) }()
			loader.SetBatchSize(batchSize)

			if reset {
				if err := loader.Clear(ctx); err != nil {
					return err
				}
			}

			if err := loader.LoadServers(ctx, master.Servers); err != nil {
				return err
			}
			if err := loader.LoadCategories(ctx); err != nil {
				return err
			}

			relationships := graph.InferRelationships(master.Servers)
			if err := loader.LoadRelationships(ctx, relationships); err != nil {
				return err
			}

			counts, err := loader.VerifyCounts(ctx)
			if err != nil {
				return err
			}
			a.logger.Info().
				Int64("servers", counts.Servers).
				Int64("categories", counts.Categories).
				Int64("relationships", counts.Relationships).
				Msg("Graph load verified")
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "clear the graph before loading")
	cmd.Flags().BoolVar(&force, "force", false, "load even when the master data is stale")
	cmd.Flags().IntVar(&batchSize, "batch-size", graph.DefaultBatchSize, "servers per write batch")
	return cmd
}

func (a *App) loadMaster(store *storage.Storage, force bool) (*storage.MasterData, error) {
	if force {
		return store.LoadMaster()
	}
	return store.RequireCurrentMaster()
}

func (a *App) graphConfig() graph.Config {
	return graph.Config{
		URI:      a.config.Neo4jURI,
		Username: a.config.Neo4jUsername,
		Password: a.config.Neo4jPassword,
		Database: a.config.Neo4jDatabase,
	}
}

// NewSearchCommand creates the search command.
func (a *App) NewSearchCommand() *cobra.Command {
	var (
		limit    int
		minScore float64
		keyword  bool
	)

	cmd := &cobra.Command{
		Use:     "search <question>",
		GroupID: "query",
		Short:   "Search the graph in natural language",
		Long: `Search answers a natural-language question against the loaded graph.

With GEMINI_API_KEY set the question is translated to Cypher by Gemini;
otherwise (or with --keyword) a keyword-scored query is used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.loggerContext(cmd.Context())
			question := strings.Join(args, " ")

			query := search.BuildKeywordQuery(question, limit, minScore)
			if !keyword && a.config.GeminiAPIKey != "" {
				translator, err := search.NewTranslator(ctx, a.config.GeminiAPIKey, search.WithModel(a.config.SearchModel))
				if err != nil {
					return err
				}
				query = translator.Translate(ctx, question, limit, minScore)
			}

			loader, err := graph.NewLoader(ctx, a.graphConfig())
			if err != nil {
				return err
			}
			defer func() { _ = loader.Close(ctx) }()

			results, err := loader.Search(ctx, query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No servers matched.")
				return nil
			}
			for i, hit := range results {
				fmt.Fprintf(out, "%2d. %-40s %6.2f  %s\n", i+1, hit.Server.ID, hit.Score, truncate(hit.Server.Description, 60))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum result score")
	cmd.Flags().BoolVar(&keyword, "keyword", false, "skip LLM translation and use keyword search")
	return cmd
}

// NewStatsCommand creates the stats command.
func (a *App) NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stats",
		GroupID: "query",
		Short:   "Summarize the master server list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.Storage()
			if err != nil {
				return err
			}

			master, err := store.LoadMaster()
			if err != nil {
				return err
			}

			registries := make(map[catalogs.Registry]int)
			categories := make(map[catalogs.Category]int)
			for i := range master.Servers {
				registries[master.Servers[i].RegistrySource]++
				for _, c := range master.Servers[i].Categories {
					categories[c]++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Servers:        %d (from %d crawled records)\n", master.Metadata.TotalServers, master.Metadata.InputRecords)
			fmt.Fprintf(out, "Created:        %s\n\n", master.Metadata.CreatedAt.Format("2006-01-02 15:04:05 MST"))

			fmt.Fprintln(out, "By registry:")
			for _, registry := range catalogs.Registries() {
				if n := registries[registry]; n > 0 {
					fmt.Fprintf(out, "  %-16s %d\n", registry, n)
				}
			}

			fmt.Fprintln(out, "\nBy category:")
			for _, category := range catalogs.Categories() {
				if n := categories[category]; n > 0 {
					fmt.Fprintf(out, "  %-20s %d\n", category, n)
				}
			}

			patterns := identity.Analyze(master.Servers)
			fmt.Fprintln(out, "\nIdentity patterns:")
			fmt.Fprintf(out, "  repository-based   %d\n", patterns.RepositoryBased)
			fmt.Fprintf(out, "  author/name        %d\n", patterns.AuthorName)
			fmt.Fprintf(out, "  name-only          %d\n", patterns.NameOnly)
			fmt.Fprintf(out, "  hash-based         %d\n", patterns.HashBased)
			return nil
		},
	}
	return cmd
}

// NewCleanupCommand creates the cleanup command.
func (a *App) NewCleanupCommand() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old snapshots and master data files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.Storage()
			if err != nil {
				return err
			}

			removed, err := store.Cleanup(keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old data files\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 3, "files to keep per registry and for master data")
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "servermap %s\n", a.version)
			fmt.Fprintf(out, "  commit: %s\n", a.commit)
			fmt.Fprintf(out, "  built:  %s\n", a.date)
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
