//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/thebadge/badgectl/internal/adapters"
	"github.com/thebadge/badgectl/internal/config"
	"github.com/thebadge/badgectl/internal/logging"
	"github.com/thebadge/badgectl/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewResolveAddress,
		usecase.NewPlanDeployment,
		usecase.NewVerifyContracts,
		usecase.NewDeployContracts,
		usecase.NewUpgradeContracts,
		usecase.NewListNetworks,

		// App
		NewApp,
	)
	return nil, nil
}
