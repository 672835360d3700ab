package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/agentstation/utc"
)

// Snapshot captures one registry's listings at a point in time. Crawlers
// produce snapshots; storage persists them and the pipeline feeds their
// servers to the deduplication engine.
type Snapshot struct {
	RegistrySource Registry       `json:"registry_source" yaml:"registry_source"`
	SnapshotDate   utc.Time       `json:"snapshot_date" yaml:"snapshot_date"`
	URL            string         `json:"url,omitempty" yaml:"url,omitempty"`
	ServersCount   int            `json:"servers_count" yaml:"servers_count"`
	Servers        []Server       `json:"servers" yaml:"servers"`
	Metadata       map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Checksum       string         `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// NewSnapshot creates a snapshot for the given registry with the count and
// checksum filled in.
func NewSnapshot(registry Registry, servers []Server) *Snapshot {
	snap := &Snapshot{
		RegistrySource: registry,
		SnapshotDate:   utc.Now(),
		ServersCount:   len(servers),
		Servers:        servers,
	}
	snap.Checksum = snap.checksum()
	return snap
}

// checksum returns a hex SHA-256 over the JSON encoding of the server list.
func (s *Snapshot) checksum() string {
	data, err := json.Marshal(s.Servers)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the stored checksum matches the server list.
// Snapshots without a checksum verify trivially.
func (s *Snapshot) Verify() bool {
	if s.Checksum == "" {
		return true
	}
	return s.Checksum == s.checksum()
}
