package app

import (
	"github.com/thebadge/badgectl/internal/adapters/blockchain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Selector usecase.NetworkSelector
	Registry usecase.AddressRegistry

	// Use cases
	ResolveAddress   *usecase.ResolveAddress
	PlanDeployment   *usecase.PlanDeployment
	DeployContracts  *usecase.DeployContracts
	UpgradeContracts *usecase.UpgradeContracts
	VerifyContracts  *usecase.VerifyContracts
	ListNetworks     *usecase.ListNetworks

	inspector *blockchain.Inspector
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	selector usecase.NetworkSelector,
	registry usecase.AddressRegistry,
	resolveAddress *usecase.ResolveAddress,
	planDeployment *usecase.PlanDeployment,
	deployContracts *usecase.DeployContracts,
	upgradeContracts *usecase.UpgradeContracts,
	verifyContracts *usecase.VerifyContracts,
	listNetworks *usecase.ListNetworks,
	inspector *blockchain.Inspector,
) (*App, error) {
	return &App{
		Config:           cfg,
		Selector:         selector,
		Registry:         registry,
		ResolveAddress:   resolveAddress,
		PlanDeployment:   planDeployment,
		DeployContracts:  deployContracts,
		UpgradeContracts: upgradeContracts,
		VerifyContracts:  verifyContracts,
		ListNetworks:     listNetworks,
		inspector:        inspector,
	}, nil
}

// Close releases the RPC connections opened for read-only queries
func (a *App) Close() {
	if a.inspector != nil {
		a.inspector.Close()
	}
}
