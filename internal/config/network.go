package config

import (
	"os"

	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
)

// ResolveNetwork looks up a supported network by name or chain id and merges
// its badgectl.toml section with environment fallbacks.
// Unsupported networks fail here, before anything touches a chain.
func ResolveNetwork(cfg *config.RuntimeConfig, idOrName string) (*config.Network, error) {
	n, err := domain.LookupNetwork(idOrName)
	if err != nil {
		return nil, err
	}

	nc := cfg.Networks[n.Name]
	if nc.RPCURL == "" {
		nc.RPCURL = os.Getenv(config.RPCEnvVarName(n.Name))
	}
	if nc.RPCURL == "" && n.IsLocal() {
		nc.RPCURL = "http://127.0.0.1:8545"
	}
	if nc.PrivateKey == "" {
		nc.PrivateKey = os.Getenv(config.PrivateKeyEnvVar)
	}
	if nc.ExplorerAPIKey == "" {
		nc.ExplorerAPIKey = os.Getenv(config.ExplorerKeyEnvVar)
	}
	if nc.ExplorerAPIURL == "" {
		nc.ExplorerAPIURL = n.ExplorerAPIURL
	}
	if nc.Confirmations == 0 {
		nc.Confirmations = 1
	}

	return &config.Network{Network: n, NetworkConfig: nc}, nil
}
