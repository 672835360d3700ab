package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/errors"
)

func testServers() []catalogs.Server {
	return []catalogs.Server{
		{
			ID:             "github_acme_weather",
			Name:           "weather",
			Author:         "acme",
			Repository:     "https://github.com/acme/weather",
			Categories:     []catalogs.Category{catalogs.CategoryAPIIntegration},
			Operations:     []catalogs.Operation{catalogs.OperationRead},
			RegistrySource: catalogs.RegistryGitHub,
		},
		{
			ID:             "github_acme_files",
			Name:           "files",
			Author:         "acme",
			RegistrySource: catalogs.RegistryGitHub,
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	snap := catalogs.NewSnapshot(catalogs.RegistryGitHub, testServers())
	path, err := s.SaveSnapshot(snap)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := s.LatestSnapshot(catalogs.RegistryGitHub)
	require.NoError(t, err)

	assert.Equal(t, catalogs.RegistryGitHub, loaded.RegistrySource)
	assert.Equal(t, 2, loaded.ServersCount)
	require.Len(t, loaded.Servers, 2)
	assert.Equal(t, "weather", loaded.Servers[0].Name)
	assert.Equal(t, snap.Checksum, loaded.Checksum)
	assert.True(t, loaded.Verify())
}

func TestLatestSnapshotMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.LatestSnapshot(catalogs.RegistryGlama)
	assert.ErrorIs(t, err, errors.ErrNoSnapshot)

	_, err = s.SnapshotAge(catalogs.RegistryGlama)
	assert.ErrorIs(t, err, errors.ErrNoSnapshot)
}

func TestLatestSnapshotPicksNewest(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	old := catalogs.NewSnapshot(catalogs.RegistryGitHub, testServers()[:1])
	oldPath, err := s.SaveSnapshot(old)
	require.NoError(t, err)

	fresh := catalogs.NewSnapshot(catalogs.RegistryGitHub, testServers())
	fresh.SnapshotDate = old.SnapshotDate.Add(time.Hour)
	freshPath, err := s.SaveSnapshot(fresh)
	require.NoError(t, err)
	require.NotEqual(t, oldPath, freshPath)

	// Push the older file's mtime into the past so ordering is unambiguous.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	loaded, err := s.LatestSnapshot(catalogs.RegistryGitHub)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.ServersCount)
}

func TestMasterRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := s.SaveMaster(testServers(), 5)
	require.NoError(t, err)
	assert.FileExists(t, path)

	master, err := s.LoadMaster()
	require.NoError(t, err)

	assert.Equal(t, 2, master.Metadata.TotalServers)
	assert.Equal(t, 5, master.Metadata.InputRecords)
	assert.Equal(t, "1.0", master.Metadata.Version)
	require.Len(t, master.Servers, 2)
	assert.Equal(t, "github_acme_weather", master.Servers[0].ID)
}

func TestLoadMasterMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.LoadMaster()
	assert.True(t, errors.IsNotFound(err))
}

func TestMasterCurrent(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	// No master, no snapshots.
	current, err := s.MasterCurrent()
	require.NoError(t, err)
	assert.False(t, current)

	snapPath, err := s.SaveSnapshot(catalogs.NewSnapshot(catalogs.RegistryGitHub, testServers()))
	require.NoError(t, err)

	_, err = s.SaveMaster(testServers(), 2)
	require.NoError(t, err)

	// Master written after the snapshot.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(snapPath, past, past))

	current, err = s.MasterCurrent()
	require.NoError(t, err)
	assert.True(t, current)

	// A fresh crawl makes the master stale again.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(snapPath, future, future))

	current, err = s.MasterCurrent()
	require.NoError(t, err)
	assert.False(t, current)

	_, err = s.RequireCurrentMaster()
	assert.ErrorIs(t, err, errors.ErrStaleData)
}

func TestCleanup(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	var newest string
	for i := 0; i < 4; i++ {
		path, err := s.SaveMaster(testServers(), 2)
		require.NoError(t, err)
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, ts, ts))
		newest = path
	}

	removed, err := s.Cleanup(1)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	remaining, err := s.listFiles(s.masterDir(), masterPrefix)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, newest, remaining[0])
}
