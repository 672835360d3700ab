package identity

import (
	"context"

	"github.com/servermap/servermap/pkg/catalogs"
	"github.com/servermap/servermap/pkg/logging"
)

// Convert returns a copy of the record carrying a freshly generated global
// ID. The original registry-local ID is preserved in raw metadata under
// "<registry>_id" so provenance survives the rewrite.
func (g *Generator) Convert(s *catalogs.Server) *catalogs.Server {
	out := s.Copy()
	out.ID = g.Generate(s)

	if out.RawMetadata == nil {
		out.RawMetadata = make(map[string]any)
	}
	out.RawMetadata[s.RegistrySource.String()+"_id"] = s.ID

	return out
}

// ConvertAll rewrites a batch of records to global IDs using one fresh
// generator, so uniqueness holds across the whole batch.
func ConvertAll(ctx context.Context, servers []catalogs.Server) []catalogs.Server {
	logger := logging.FromContext(ctx)
	g := NewGenerator()

	out := make([]catalogs.Server, len(servers))
	for i := range servers {
		out[i] = *g.Convert(&servers[i])
	}

	logger.Info().
		Int("servers", len(servers)).
		Int("ids_issued", g.Issued()).
		Msg("Global ID conversion complete")

	return out
}
