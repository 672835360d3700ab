package catalogs

import (
	"sync"

	"github.com/servermap/servermap/pkg/errors"
)

// Catalog is a thread-safe in-memory container of server records keyed by ID.
// It holds either candidate records (registry-local IDs) or canonical records
// (global IDs); the two must not be mixed in one catalog.
type Catalog struct {
	mu      sync.RWMutex
	servers map[string]*Server
	order   []string // insertion order, for deterministic listing
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		servers: make(map[string]*Server),
	}
}

// Add inserts a server record. Adding an ID that already exists returns
// ErrAlreadyExists; use Set to replace.
func (c *Catalog) Add(s *Server) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.servers[s.ID]; exists {
		return errors.ErrAlreadyExists
	}
	c.servers[s.ID] = s
	c.order = append(c.order, s.ID)
	return nil
}

// Set inserts or replaces a server record.
func (c *Catalog) Set(s *Server) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.servers[s.ID]; !exists {
		c.order = append(c.order, s.ID)
	}
	c.servers[s.ID] = s
	return nil
}

// Server returns the record with the given ID.
func (c *Catalog) Server(id string) (*Server, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.servers[id]
	if !ok {
		return nil, errors.NewNotFoundError("server", id)
	}
	return s, nil
}

// List returns all records in insertion order.
func (c *Catalog) List() []*Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Server, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.servers[id])
	}
	return out
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.servers)
}

// ByCategory returns all records carrying the given category.
func (c *Catalog) ByCategory(cat Category) []*Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Server
	for _, id := range c.order {
		s := c.servers[id]
		for _, sc := range s.Categories {
			if sc == cat {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
