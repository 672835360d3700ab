// Package sources defines the interface that registry crawlers implement and
// a thread-safe container for managing them. A source fetches the current
// contents of one MCP server registry and returns it as a snapshot; everything
// downstream (deduplication, identity, storage, graph) works on snapshots and
// never talks to a registry directly.
//
// Example usage:
//
//	srcs := sources.New()
//	srcs.Set(githubSource)
//	srcs.Set(glamaSource)
//
//	for _, src := range srcs.List() {
//	    snapshot, err := src.Fetch(ctx)
//	    ...
//	}
package sources

import (
	"context"
	"sync"

	"github.com/servermap/servermap/pkg/catalogs"
)

// Source fetches the contents of one registry.
type Source interface {
	// Registry identifies which registry this source crawls.
	Registry() catalogs.Registry

	// Fetch crawls the registry and returns a snapshot of every MCP server
	// record it could discover. Fetch respects ctx cancellation; a partial
	// crawl interrupted by ctx returns the error, not a partial snapshot.
	Fetch(ctx context.Context) (*catalogs.Snapshot, error)
}

// Sources is a thread-safe container keyed by registry.
type Sources struct {
	mu      sync.RWMutex
	sources map[catalogs.Registry]Source
	order   []catalogs.Registry
}

// New creates an empty Sources container.
func New() *Sources {
	return &Sources{sources: make(map[catalogs.Registry]Source)}
}

// Get returns the source for a registry.
func (s *Sources) Get(registry catalogs.Registry) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, found := s.sources[registry]
	return src, found
}

// Set registers a source under its registry, replacing any previous one.
func (s *Sources) Set(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	registry := src.Registry()
	if _, exists := s.sources[registry]; !exists {
		s.order = append(s.order, registry)
	}
	s.sources[registry] = src
}

// Delete removes the source for a registry.
func (s *Sources) Delete(registry catalogs.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[registry]; !exists {
		return
	}
	delete(s.sources, registry)
	for i, r := range s.order {
		if r == registry {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// List returns all sources in registration order.
func (s *Sources) List() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Source, 0, len(s.order))
	for _, registry := range s.order {
		out = append(out, s.sources[registry])
	}
	return out
}
