package config

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/thebadge/badgectl/internal/domain"
)

const (
	// PrivateKeyEnvVar is the signer key shared by every network
	PrivateKeyEnvVar = "WALLET_PRIVATE_KEY"
	// ExplorerKeyEnvVar is the Etherscan key shared by every network
	ExplorerKeyEnvVar = "ETHERSCAN_API_KEY"
)

// RPCEnvVarName returns the conventional RPC URL variable for a network.
// Examples: sepolia -> SEPOLIA_URL, goerli -> GOERLI_URL
func RPCEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_URL"
}

// RequireSigner checks that the network can sign and send transactions.
// All missing keys are reported at once.
func (n *Network) RequireSigner() error {
	if n == nil {
		return &domain.MissingConfigurationError{Keys: []string{"network"}}
	}

	var missing []string
	if n.RPCURL == "" {
		missing = append(missing, "rpc_url ("+RPCEnvVarName(n.Name)+")")
	}
	if n.PrivateKey == "" {
		missing = append(missing, "private_key ("+PrivateKeyEnvVar+")")
	}
	if len(missing) > 0 {
		return &domain.MissingConfigurationError{Network: n.Name, Keys: missing}
	}
	return nil
}

// SignerKey parses the configured private key, with or without 0x
func (n *Network) SignerKey() (*ecdsa.PrivateKey, error) {
	if err := n.RequireSigner(); err != nil {
		return nil, err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(n.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key for %s: %w", n.Name, err)
	}
	return key, nil
}

// SignerAddress returns the account the configured key signs for
func (n *Network) SignerAddress() (common.Address, error) {
	key, err := n.SignerKey()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// RequireRPC checks that the network can be queried
func (n *Network) RequireRPC() error {
	if n == nil {
		return &domain.MissingConfigurationError{Keys: []string{"network"}}
	}
	if n.RPCURL == "" {
		return &domain.MissingConfigurationError{
			Network: n.Name,
			Keys:    []string{"rpc_url (" + RPCEnvVarName(n.Name) + ")"},
		}
	}
	return nil
}

// HasExplorerKey reports whether an Etherscan-compatible key is configured
func (n *Network) HasExplorerKey() bool {
	return n != nil && n.ExplorerAPIKey != ""
}
