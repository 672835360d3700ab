package catalogs

import "slices"

// Registry identifies an external source of MCP server listings.
type Registry string

// String returns the string representation of a Registry.
func (r Registry) String() string {
	return string(r)
}

// Known registries.
const (
	// RegistryGitHub is the GitHub repository search API.
	RegistryGitHub Registry = "github"
	// RegistryMCPSo is the mcp.so catalog website.
	RegistryMCPSo Registry = "mcp.so"
	// RegistryGlama is the Glama server directory API.
	RegistryGlama Registry = "glama"
	// RegistryMCPMarket is the mcpmarket.com market site.
	RegistryMCPMarket Registry = "mcpmarket.com"
)

// Registries returns all known registries.
func Registries() []Registry {
	return []Registry{
		RegistryGitHub,
		RegistryMCPSo,
		RegistryGlama,
		RegistryMCPMarket,
	}
}

// IsValid returns true if the registry is one of the known constants.
func (r Registry) IsValid() bool {
	return slices.Contains(Registries(), r)
}
