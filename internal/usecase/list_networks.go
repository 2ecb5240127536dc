package usecase

import (
	"context"

	"github.com/thebadge/badgectl/internal/config"
	"github.com/thebadge/badgectl/internal/domain"
	domainconfig "github.com/thebadge/badgectl/internal/domain/config"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct {
	// Currently no parameters, but we keep the struct for future extensibility
}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Network     domain.Network
	Known       int
	HasRPC      bool
	HasSigner   bool
	HasExplorer bool
}

// ListNetworks is a use case for listing supported networks and their readiness
type ListNetworks struct {
	registry AddressRegistry
	cfg      *domainconfig.RuntimeConfig
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(registry AddressRegistry, cfg *domainconfig.RuntimeConfig) *ListNetworks {
	return &ListNetworks{
		registry: registry,
		cfg:      cfg,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	supported := domain.SupportedNetworks()
	networks := make([]NetworkStatus, 0, len(supported))

	for _, n := range supported {
		status := NetworkStatus{Network: n}
		for _, addr := range uc.registry.Addresses(n.ID) {
			if addr != "" {
				status.Known++
			}
		}

		resolved, err := config.ResolveNetwork(uc.cfg, n.Name)
		if err == nil {
			status.HasRPC = resolved.RequireRPC() == nil
			status.HasSigner = resolved.RequireSigner() == nil
			status.HasExplorer = resolved.HasExplorerKey()
		}

		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}
