package config

import (
	"time"

	"github.com/thebadge/badgectl/internal/domain"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	DataDir      string
	ArtifactsDir string
	PlanFile     string
	RegistryFile string

	// Network selected with --network; nil if not specified
	Network *Network

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Per-network settings from badgectl.toml and the environment
	Networks map[string]NetworkConfig

	Verify   VerifyConfig
	Tenderly TenderlyConfig
}

// Network is a supported network together with its resolved settings
type Network struct {
	domain.Network
	NetworkConfig
}

// NetworkConfig holds the settings of a network
type NetworkConfig struct {
	RPCURL        string `toml:"rpc_url"`
	PrivateKey    string `toml:"private_key"`
	Confirmations uint64 `toml:"confirmations"`
	GasPriceGwei  uint64 `toml:"gas_price_gwei"`

	// Etherscan-compatible explorer; APIURL defaults to the network's explorer
	ExplorerAPIURL string `toml:"explorer_api_url"`
	ExplorerAPIKey string `toml:"explorer_api_key"`
}

// VerifyConfig controls the verification coordinator
type VerifyConfig struct {
	Concurrency  int           `toml:"concurrency"`
	PollInterval time.Duration `toml:"poll_interval"`
	Timeout      time.Duration `toml:"timeout"`
}

// TenderlyConfig holds the Tenderly project settings
type TenderlyConfig struct {
	Account   string `toml:"account"`
	Project   string `toml:"project"`
	AccessKey string `toml:"access_key"`
	APIURL    string `toml:"api_url"`
}

// Enabled reports whether Tenderly verification is configured
func (t TenderlyConfig) Enabled() bool {
	return t.Account != "" && t.Project != "" && t.AccessKey != ""
}
