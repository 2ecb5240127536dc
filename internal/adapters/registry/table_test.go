package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebadge/badgectl/internal/adapters/registry"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
)

func TestNewTableFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[sepolia]
TheBadge = "0x00000000000000000000000000000000000000a1"
TheBadgeStore = ""

[100]
KlerosArbitror = "0x00000000000000000000000000000000000000a2"
`), 0644))

	table, err := registry.NewTableFromConfig(&config.RuntimeConfig{RegistryFile: path})
	require.NoError(t, err)

	t.Run("file overrides builtin", func(t *testing.T) {
		addr, ok := table.KnownAddress(domain.Sepolia, domain.ContractTheBadge)
		require.True(t, ok)
		assert.Equal(t, "0x00000000000000000000000000000000000000a1", addr)
	})

	t.Run("empty entry clears builtin", func(t *testing.T) {
		_, ok := table.KnownAddress(domain.Sepolia, domain.ContractTheBadgeStore)
		assert.False(t, ok)
	})

	t.Run("builtin entries survive", func(t *testing.T) {
		_, ok := table.KnownAddress(domain.Sepolia, domain.ContractTheBadgeUsers)
		assert.True(t, ok)
	})

	t.Run("sections by chain id", func(t *testing.T) {
		addr, ok := table.KnownAddress(domain.Gnosis, domain.ContractKlerosArbitror)
		require.True(t, ok)
		assert.Equal(t, "0x00000000000000000000000000000000000000a2", addr)
	})

	t.Run("addresses are a copy", func(t *testing.T) {
		addrs := table.Addresses(domain.Sepolia)
		addrs[domain.ContractTheBadge] = "changed"
		addr, _ := table.KnownAddress(domain.Sepolia, domain.ContractTheBadge)
		assert.Equal(t, "0x00000000000000000000000000000000000000a1", addr)
	})
}

func TestNewTableFromConfigWithoutFile(t *testing.T) {
	table, err := registry.NewTableFromConfig(&config.RuntimeConfig{})
	require.NoError(t, err)

	_, ok := table.KnownAddress(domain.Localhost, domain.ContractTheBadge)
	assert.False(t, ok)
	assert.NotNil(t, table.Addresses(domain.Localhost))
}
