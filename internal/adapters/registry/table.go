package registry

import (
	"maps"

	"github.com/thebadge/badgectl/internal/config"
	"github.com/thebadge/badgectl/internal/domain"
	domainconfig "github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// Table is the read-only address registry: the built-in table of
// published TheBadge addresses overlaid with the project's registry.toml
type Table struct {
	table domain.AddressTable
}

// NewTable wraps an address table
func NewTable(table domain.AddressTable) *Table {
	if table == nil {
		table = domain.AddressTable{}
	}
	return &Table{table: table}
}

// NewTableFromConfig merges the built-in addresses with the configured
// registry file. File entries override built-in ones, and an empty string
// in the file clears a built-in address.
func NewTableFromConfig(cfg *domainconfig.RuntimeConfig) (*Table, error) {
	merged := domain.BuiltinAddresses()

	overrides, err := config.LoadRegistryFile(cfg.RegistryFile)
	if err != nil {
		return nil, err
	}
	for id, entries := range overrides {
		if merged[id] == nil {
			merged[id] = make(map[string]string, len(entries))
		}
		maps.Copy(merged[id], entries)
	}

	return NewTable(merged), nil
}

// KnownAddress implements usecase.AddressRegistry. Empty entries are unknown.
func (t *Table) KnownAddress(network domain.NetworkID, contract string) (string, bool) {
	return t.table.Lookup(network, contract)
}

// Addresses implements usecase.AddressRegistry
func (t *Table) Addresses(network domain.NetworkID) map[string]string {
	return maps.Clone(t.table[network])
}

var _ usecase.AddressRegistry = (*Table)(nil)
