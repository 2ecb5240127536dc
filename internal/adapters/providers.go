package adapters

import (
	"github.com/google/wire"
	"github.com/thebadge/badgectl/internal/adapters/abi"
	"github.com/thebadge/badgectl/internal/adapters/blockchain"
	"github.com/thebadge/badgectl/internal/adapters/fs"
	"github.com/thebadge/badgectl/internal/adapters/interactive"
	"github.com/thebadge/badgectl/internal/adapters/plan"
	"github.com/thebadge/badgectl/internal/adapters/registry"
	"github.com/thebadge/badgectl/internal/adapters/repository/contracts"
	"github.com/thebadge/badgectl/internal/adapters/repository/deployments"
	"github.com/thebadge/badgectl/internal/adapters/verification"
	"github.com/thebadge/badgectl/internal/usecase"
)

// StorageSet provides the ledger, the registry table and the manifest loader
var StorageSet = wire.NewSet(
	deployments.NewFileRepositoryFromConfig,
	wire.Bind(new(usecase.AddressLedger), new(*deployments.FileRepository)),

	registry.NewTableFromConfig,
	wire.Bind(new(usecase.AddressRegistry), new(*registry.Table)),

	plan.NewLoader,
	wire.Bind(new(usecase.PlanLoader), new(*plan.Loader)),

	contracts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*contracts.Repository)),
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewAccountLocker,
	wire.Bind(new(usecase.AccountLocker), new(*fs.AccountLocker)),
)

// BlockchainSet provides chain access
var BlockchainSet = wire.NewSet(
	abi.NewParser,

	blockchain.NewConnector,
	wire.Bind(new(usecase.ChainConnector), new(*blockchain.Connector)),

	blockchain.NewInspector,
	wire.Bind(new(usecase.ProxyInspector), new(*blockchain.Inspector)),
)

// VerificationSet provides the explorer verifiers
var VerificationSet = wire.NewSet(
	verification.NewVerifiers,
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.NetworkSelector), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	StorageSet,
	FSSet,
	BlockchainSet,
	VerificationSet,
	InteractiveSet,
)
