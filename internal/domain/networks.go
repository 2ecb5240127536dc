package domain

import (
	"sort"
	"strconv"
	"strings"
)

// NetworkID is an EVM chain id from the supported set
type NetworkID uint64

const (
	Goerli    NetworkID = 5
	Sepolia   NetworkID = 11155111
	Gnosis    NetworkID = 100
	Polygon   NetworkID = 137
	Mumbai    NetworkID = 80001
	Avax      NetworkID = 43114
	Localhost NetworkID = 31337
)

// Network describes a supported chain
type Network struct {
	ID          NetworkID `json:"chainId"`
	Name        string    `json:"name"`
	Testnet     bool      `json:"testnet"`
	ExplorerURL string    `json:"explorerUrl,omitempty"`
	// ExplorerAPIURL is the Etherscan-compatible endpoint used for verification
	ExplorerAPIURL string `json:"explorerApiUrl,omitempty"`
}

// String returns the network name
func (n Network) String() string {
	return n.Name
}

// IsLocal reports whether the network is a local development node
func (n Network) IsLocal() bool {
	return n.ID == Localhost
}

var supportedNetworks = map[NetworkID]Network{
	Goerli: {
		ID: Goerli, Name: "goerli", Testnet: true,
		ExplorerURL:    "https://goerli.etherscan.io",
		ExplorerAPIURL: "https://api-goerli.etherscan.io/api",
	},
	Sepolia: {
		ID: Sepolia, Name: "sepolia", Testnet: true,
		ExplorerURL:    "https://sepolia.etherscan.io",
		ExplorerAPIURL: "https://api-sepolia.etherscan.io/api",
	},
	Gnosis: {
		ID: Gnosis, Name: "gnosis",
		ExplorerURL:    "https://gnosisscan.io",
		ExplorerAPIURL: "https://api.gnosisscan.io/api",
	},
	Polygon: {
		ID: Polygon, Name: "polygon",
		ExplorerURL:    "https://polygonscan.com",
		ExplorerAPIURL: "https://api.polygonscan.com/api",
	},
	Mumbai: {
		ID: Mumbai, Name: "mumbai", Testnet: true,
		ExplorerURL:    "https://mumbai.polygonscan.com",
		ExplorerAPIURL: "https://api-testnet.polygonscan.com/api",
	},
	Avax: {
		ID: Avax, Name: "avax",
		ExplorerURL:    "https://snowtrace.io",
		ExplorerAPIURL: "https://api.snowtrace.io/api",
	},
	Localhost: {
		ID: Localhost, Name: "localhost", Testnet: true,
	},
}

// LookupNetwork resolves a chain id or a network name to a supported network
func LookupNetwork(idOrName string) (Network, error) {
	key := strings.ToLower(strings.TrimSpace(idOrName))
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		return NetworkByID(NetworkID(id))
	}
	for _, n := range supportedNetworks {
		if n.Name == key {
			return n, nil
		}
	}
	return Network{}, &UnsupportedNetworkError{Network: idOrName}
}

// NetworkByID returns the network for a chain id
func NetworkByID(id NetworkID) (Network, error) {
	n, ok := supportedNetworks[id]
	if !ok {
		return Network{}, &UnsupportedNetworkError{Network: strconv.FormatUint(uint64(id), 10)}
	}
	return n, nil
}

// IsSupported reports whether id belongs to the supported set
func IsSupported(id NetworkID) bool {
	_, ok := supportedNetworks[id]
	return ok
}

// SupportedNetworks returns all supported networks ordered by chain id
func SupportedNetworks() []Network {
	networks := make([]Network, 0, len(supportedNetworks))
	for _, n := range supportedNetworks {
		networks = append(networks, n)
	}
	sort.Slice(networks, func(i, j int) bool {
		return networks[i].ID < networks[j].ID
	})
	return networks
}

// SupportedNetworkNames returns the names of all supported networks ordered by chain id
func SupportedNetworkNames() []string {
	var names []string
	for _, n := range SupportedNetworks() {
		names = append(names, n.Name)
	}
	return names
}
