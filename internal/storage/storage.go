// Package storage persists registry snapshots and deduplicated master data
// as YAML files under a data directory:
//
//	data/
//	  registries/<registry>/snapshot_<timestamp>.yaml
//	  master/servers_<timestamp>.yaml
//
// Snapshots are the raw crawl output, one file per crawl per registry.
// Master data is the deduplicated canonical set; it is current only while it
// is newer than every registry snapshot it was built from.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/errors"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644

	snapshotPrefix = "snapshot_"
	timeLayout     = "20060102_150405"
)

// Storage reads and writes the data directory.
type Storage struct {
	baseDir string
}

// New creates a Storage rooted at baseDir, creating the directory layout if
// needed.
func New(baseDir string) (*Storage, error) {
	s := &Storage{baseDir: baseDir}
	for _, dir := range []string{s.registriesDir(), s.masterDir()} {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}
	return s, nil
}

func (s *Storage) registriesDir() string {
	return filepath.Join(s.baseDir, "registries")
}

func (s *Storage) masterDir() string {
	return filepath.Join(s.baseDir, "master")
}

func (s *Storage) registryDir(registry catalogs.Registry) string {
	return filepath.Join(s.registriesDir(), registry.String())
}

// SaveSnapshot writes a snapshot to its registry's directory and returns the
// file path.
func (s *Storage) SaveSnapshot(snap *catalogs.Snapshot) (string, error) {
	dir := s.registryDir(snap.RegistrySource)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", errors.WrapIO("create", dir, err)
	}

	name := snapshotPrefix + snap.SnapshotDate.Format(timeLayout) + ".yaml"
	path := filepath.Join(dir, name)

	data, err := yaml.Marshal(snap)
	if err != nil {
		return "", errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return "", errors.WrapIO("write", path, err)
	}
	return path, nil
}

// LatestSnapshot loads the most recent snapshot for a registry. Returns
// ErrNoSnapshot when the registry has never been crawled.
func (s *Storage) LatestSnapshot(registry catalogs.Registry) (*catalogs.Snapshot, error) {
	path, _, err := s.latestFile(s.registryDir(registry), snapshotPrefix)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.ErrNoSnapshot
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var snap catalogs.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if !snap.Verify() {
		return nil, &errors.ResourceError{
			Operation: "load",
			Resource:  "snapshot",
			ID:        path,
			Err:       errors.New("checksum mismatch"),
		}
	}
	return &snap, nil
}

// SnapshotAge returns how old the latest snapshot for a registry is.
// Returns ErrNoSnapshot when none exists.
func (s *Storage) SnapshotAge(registry catalogs.Registry) (time.Duration, error) {
	path, modTime, err := s.latestFile(s.registryDir(registry), snapshotPrefix)
	if err != nil {
		return 0, err
	}
	if path == "" {
		return 0, errors.ErrNoSnapshot
	}
	return time.Since(modTime), nil
}

// latestFile returns the newest file in dir with the given prefix, by
// modification time. A missing directory or no matching files yields
// ("", zero, nil).
func (s *Storage) latestFile(dir, prefix string) (string, time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, nil
		}
		return "", time.Time{}, errors.WrapIO("read", dir, err)
	}

	var (
		latestPath string
		latestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !matchesPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latestPath == "" || info.ModTime().After(latestTime) {
			latestPath = filepath.Join(dir, entry.Name())
			latestTime = info.ModTime()
		}
	}
	return latestPath, latestTime, nil
}

// listFiles returns all files in dir with the given prefix sorted newest
// first by modification time.
func (s *Storage) listFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", dir, err)
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo
	for _, entry := range entries {
		if entry.IsDir() || !matchesPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

func matchesPrefix(name, prefix string) bool {
	return len(name) > len(prefix) && name[:len(prefix)] == prefix &&
		filepath.Ext(name) == ".yaml"
}

// registryTimestamps returns the latest snapshot modification time per
// registry that has any snapshots.
func (s *Storage) registryTimestamps() (map[catalogs.Registry]time.Time, error) {
	out := make(map[catalogs.Registry]time.Time)
	for _, registry := range catalogs.Registries() {
		path, modTime, err := s.latestFile(s.registryDir(registry), snapshotPrefix)
		if err != nil {
			return nil, err
		}
		if path != "" {
			out[registry] = modTime
		}
	}
	return out, nil
}

// String describes the storage root, for log fields.
func (s *Storage) String() string {
	return fmt.Sprintf("storage(%s)", s.baseDir)
}
