package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/thebadge/badgectl/internal/domain"
)

// LoadRegistryFile reads registry.toml and returns its address table.
// The file is optional; a missing file yields an empty table.
//
//	[sepolia]
//	TheBadge = "0x4e14816A80D7c4FeEeb56C225e821c6374F4AB56"
func LoadRegistryFile(path string) (domain.AddressTable, error) {
	table := domain.AddressTable{}
	if path == "" {
		return table, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return table, nil
	}

	var raw map[string]map[string]string
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for networkName, entries := range raw {
		n, err := domain.LookupNetwork(networkName)
		if err != nil {
			return nil, &domain.MissingConfigurationError{
				Keys: []string{fmt.Sprintf("%s: [%s] is not a supported network", path, networkName)},
			}
		}
		if table[n.ID] == nil {
			table[n.ID] = make(map[string]string, len(entries))
		}
		for contract, addr := range entries {
			if addr != "" && !common.IsHexAddress(addr) {
				return nil, fmt.Errorf("%s: [%s] %s has invalid address %q", path, networkName, contract, addr)
			}
			table[n.ID][contract] = addr
		}
	}

	return table, nil
}

// EncodeRegistry renders one network of an address table in registry.toml format
func EncodeRegistry(network domain.Network, addresses map[string]string) ([]byte, error) {
	// the encoder writes map keys in sorted order
	doc := map[string]map[string]string{network.Name: addresses}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
