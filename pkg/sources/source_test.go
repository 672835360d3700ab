package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servermap/servermap/pkg/catalogs"
)

type fakeSource struct {
	registry catalogs.Registry
}

func (f *fakeSource) Registry() catalogs.Registry {
	return f.registry
}

func (f *fakeSource) Fetch(_ context.Context) (*catalogs.Snapshot, error) {
	return catalogs.NewSnapshot(f.registry, nil), nil
}

func TestSourcesSetGet(t *testing.T) {
	set := New()

	set.Set(&fakeSource{registry: catalogs.RegistryGitHub})
	set.Set(&fakeSource{registry: catalogs.RegistryGlama})
	assert.Equal(t, 2, set.Len())

	src, ok := set.Get(catalogs.RegistryGitHub)
	require.True(t, ok)
	assert.Equal(t, catalogs.RegistryGitHub, src.Registry())

	_, ok = set.Get(catalogs.RegistryMCPSo)
	assert.False(t, ok)
}

func TestSourcesListOrder(t *testing.T) {
	set := New()
	set.Set(&fakeSource{registry: catalogs.RegistryGlama})
	set.Set(&fakeSource{registry: catalogs.RegistryGitHub})

	// Replacing keeps the original position.
	set.Set(&fakeSource{registry: catalogs.RegistryGlama})

	var order []catalogs.Registry
	for _, src := range set.List() {
		order = append(order, src.Registry())
	}
	assert.Equal(t, []catalogs.Registry{catalogs.RegistryGlama, catalogs.RegistryGitHub}, order)
}

func TestSourcesDelete(t *testing.T) {
	set := New()
	set.Set(&fakeSource{registry: catalogs.RegistryGitHub})

	set.Delete(catalogs.RegistryGitHub)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.List())
}
