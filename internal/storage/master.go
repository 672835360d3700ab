package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/errors"
)

const masterPrefix = "servers_"

// MasterData is the persisted form of a deduplicated canonical server set.
type MasterData struct {
	Metadata MasterMetadata    `json:"metadata" yaml:"metadata"`
	Servers  []catalogs.Server `json:"servers" yaml:"servers"`
}

// MasterMetadata describes when and from what a master file was built.
type MasterMetadata struct {
	CreatedAt    utc.Time `json:"created_at" yaml:"created_at"`
	TotalServers int      `json:"total_servers" yaml:"total_servers"`
	InputRecords int      `json:"input_records" yaml:"input_records"`
	Version      string   `json:"version" yaml:"version"`
}

// SaveMaster writes a new master data file and returns its path. Older
// master files are kept; Cleanup prunes them.
func (s *Storage) SaveMaster(servers []catalogs.Server, inputRecords int) (string, error) {
	master := MasterData{
		Metadata: MasterMetadata{
			CreatedAt:    utc.Now(),
			TotalServers: len(servers),
			InputRecords: inputRecords,
			Version:      "1.0",
		},
		Servers: servers,
	}

	stamp := master.Metadata.CreatedAt.Format(timeLayout)
	path := filepath.Join(s.masterDir(), masterPrefix+stamp+".yaml")
	// Repeated saves within one second must not overwrite each other.
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(s.masterDir(), fmt.Sprintf("%s%s_%d.yaml", masterPrefix, stamp, i))
	}

	data, err := yaml.Marshal(&master)
	if err != nil {
		return "", errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return "", errors.WrapIO("write", path, err)
	}
	return path, nil
}

// LoadMaster loads the most recent master data file. Returns ErrNotFound
// when no master data has been saved.
func (s *Storage) LoadMaster() (*MasterData, error) {
	path, _, err := s.latestFile(s.masterDir(), masterPrefix)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.NewNotFoundError("master data", s.masterDir())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var master MasterData
	if err := yaml.Unmarshal(data, &master); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &master, nil
}

// MasterCurrent reports whether the latest master file is newer than every
// registry snapshot. No master data or no snapshots both count as stale.
func (s *Storage) MasterCurrent() (bool, error) {
	masterPath, masterTime, err := s.latestFile(s.masterDir(), masterPrefix)
	if err != nil {
		return false, err
	}
	if masterPath == "" {
		return false, nil
	}

	registries, err := s.registryTimestamps()
	if err != nil {
		return false, err
	}
	if len(registries) == 0 {
		return false, nil
	}

	for _, t := range registries {
		if !masterTime.After(t) {
			return false, nil
		}
	}
	return true, nil
}

// RequireCurrentMaster loads master data only if it is newer than every
// registry snapshot, returning ErrStaleData otherwise.
func (s *Storage) RequireCurrentMaster() (*MasterData, error) {
	current, err := s.MasterCurrent()
	if err != nil {
		return nil, err
	}
	if !current {
		return nil, errors.ErrStaleData
	}
	return s.LoadMaster()
}

// Cleanup removes all but the newest keep master data files.
func (s *Storage) Cleanup(keep int) (removed int, err error) {
	files, err := s.listFiles(s.masterDir(), masterPrefix)
	if err != nil {
		return 0, err
	}
	if len(files) <= keep {
		return 0, nil
	}

	for _, path := range files[keep:] {
		if err := os.Remove(path); err != nil {
			return removed, errors.WrapIO("delete", path, err)
		}
		removed++
	}
	return removed, nil
}
