package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
)

// UpgradeContractsParams contains parameters for upgrading proxies
type UpgradeContractsParams struct {
	Network  *config.Network
	PlanFile string
	// Contracts to upgrade; empty means every proxied contract of the plan
	Contracts []string
}

// UpgradeResult is the outcome of upgrading one proxy
type UpgradeResult struct {
	Contract               string
	Proxy                  string
	PreviousImplementation string
	NewImplementation      string
	TxHash                 string
	Record                 *models.DeploymentRecord
	Err                    error
}

// UpgradeContractsResult reports the upgrades performed, the failed one last
type UpgradeContractsResult struct {
	Network    domain.Network
	Account    string
	Operations []models.UpgradeOp
	Upgrades   []UpgradeResult
	FailedStep string
	Duration   time.Duration
}

// UpgradeContracts points existing proxies at freshly deployed implementations
type UpgradeContracts struct {
	loader    PlanLoader
	resolver  *ResolveAddress
	artifacts ArtifactRepository
	ledger    AddressLedger
	connector ChainConnector
	locker    AccountLocker
	progress  ProgressSink
	log       *slog.Logger
}

// NewUpgradeContracts creates a new UpgradeContracts use case
func NewUpgradeContracts(
	loader PlanLoader,
	resolver *ResolveAddress,
	artifacts ArtifactRepository,
	ledger AddressLedger,
	connector ChainConnector,
	locker AccountLocker,
	progress ProgressSink,
	log *slog.Logger,
) *UpgradeContracts {
	if progress == nil {
		progress = NopProgress{}
	}
	return &UpgradeContracts{
		loader:    loader,
		resolver:  resolver,
		artifacts: artifacts,
		ledger:    ledger,
		connector: connector,
		locker:    locker,
		progress:  progress,
		log:       log.With("component", "upgrader"),
	}
}

// Run executes the use case. Every target is resolved before the first
// transaction; a target without a recorded address fails the whole run
// with domain.ErrUpgradeTargetMissing and nothing is sent.
func (uc *UpgradeContracts) Run(ctx context.Context, params UpgradeContractsParams) (*UpgradeContractsResult, error) {
	start := time.Now()

	if params.Network == nil {
		return nil, &domain.MissingConfigurationError{Keys: []string{"network"}}
	}
	network, err := domain.NetworkByID(params.Network.ID)
	if err != nil {
		return nil, err
	}
	if err := params.Network.RequireSigner(); err != nil {
		return nil, err
	}

	plan, err := uc.loader.LoadPlan(ctx, params.PlanFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	steps, err := upgradeTargets(plan, params.Contracts)
	if err != nil {
		return nil, err
	}

	ops := make([]models.UpgradeOp, 0, len(steps))
	for _, step := range steps {
		resolved, err := uc.resolver.Resolve(ctx, network.ID, step.Contract)
		if errors.Is(err, domain.ErrNotDeployed) {
			return nil, &domain.UpgradeTargetMissingError{Network: network.Name, Contract: step.Contract}
		}
		if err != nil {
			return nil, err
		}
		ops = append(ops, models.UpgradeOp{Step: step, Proxy: resolved.Address, Current: resolved.Record})
	}

	artifacts := make(map[string]*models.Artifact, len(ops))
	for _, op := range ops {
		artifact, err := uc.artifacts.GetArtifact(ctx, op.Step.Artifact)
		if err != nil {
			return nil, fmt.Errorf("failed to load artifact %s: %w", op.Step.Artifact, err)
		}
		artifacts[op.Step.Artifact] = artifact
	}

	result := &UpgradeContractsResult{Network: network, Operations: ops}

	// Lock the signing account before touching the chain
	account, err := params.Network.SignerAddress()
	if err != nil {
		return nil, err
	}
	unlock, err := uc.locker.Lock(ctx, network.ID, account)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			uc.log.Warn("failed to release account lock", "error", err)
		}
	}()

	session, err := uc.connector.Connect(ctx, params.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", network.Name, err)
	}
	defer session.Close()
	result.Account = session.Account().Hex()

	for i, op := range ops {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageStepStarting, Current: i + 1, Total: len(ops), Message: op.Step.Contract, Spinner: true, Metadata: op})

		ur := uc.upgradeOne(ctx, session, network, op, artifacts[op.Step.Artifact])
		result.Upgrades = append(result.Upgrades, ur)
		if ur.Err != nil {
			result.FailedStep = op.Step.Contract
			result.Duration = time.Since(start)
			uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageStepFailed, Current: i + 1, Total: len(ops), Message: op.Step.Contract, Metadata: ur})
			return result, ur.Err
		}
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageStepCompleted, Current: i + 1, Total: len(ops), Message: op.Step.Contract, Metadata: ur})
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (uc *UpgradeContracts) upgradeOne(ctx context.Context, session ChainSession, network domain.Network, op models.UpgradeOp, artifact *models.Artifact) UpgradeResult {
	ur := UpgradeResult{Contract: op.Step.Contract, Proxy: op.Proxy}
	proxy := common.HexToAddress(op.Proxy)

	if prev, err := session.ImplementationAddress(ctx, proxy); err == nil {
		ur.PreviousImplementation = prev.Hex()
	} else {
		uc.log.Debug("could not read current implementation", "contract", op.Step.Contract, "error", err)
	}

	impl, err := session.Deploy(ctx, op.Step.Contract, artifact, nil)
	if err != nil {
		ur.Err = txFailed(op.Step.Contract, "deploy implementation of", impl, err)
		return ur
	}
	ur.NewImplementation = impl.ContractAddress.Hex()

	out, err := session.UpgradeProxy(ctx, proxy, impl.ContractAddress)
	if err != nil {
		ur.Err = txFailed(op.Step.Contract, "upgrade", out, err)
		return ur
	}
	ur.TxHash = out.TxHash

	info := &models.ProxyInfo{Type: "ERC1967", Implementation: impl.ContractAddress.Hex()}
	if admin, err := session.AdminAddress(ctx, proxy); err == nil && admin != (common.Address{}) {
		info.Admin = admin.Hex()
		info.Type = "Transparent"
	}

	record := &models.DeploymentRecord{
		ChainID:      uint64(network.ID),
		ContractName: op.Step.Contract,
		Action:       models.RecordActionUpgrade,
		Address:      op.Proxy,
		Type:         models.ProxyDeployment,
		Artifact:     op.Step.Artifact,
		ProxyInfo:    info,
		TxHash:       out.TxHash,
		BlockNumber:  out.BlockNumber,
		Deployer:     session.Account().Hex(),
		Verification: models.VerificationInfo{Status: models.VerificationStatusUnverified},
	}
	saved, err := uc.ledger.Append(ctx, record)
	if err != nil {
		ur.Err = fmt.Errorf("%s upgraded to %s but could not be recorded: %w", op.Step.Contract, ur.NewImplementation, err)
		return ur
	}
	ur.Record = saved
	return ur
}

// upgradeTargets returns the plan steps to upgrade in plan order. Named
// contracts that are not in the plan are upgraded with an artifact of the same name.
func upgradeTargets(plan *models.DeploymentPlan, contracts []string) ([]models.PlanStep, error) {
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}
	ordered, err := NewDependencyGraph(plan).TopologicalSort()
	if err != nil {
		return nil, err
	}

	if len(contracts) == 0 {
		var steps []models.PlanStep
		for _, step := range ordered {
			if step.Proxy {
				steps = append(steps, step)
			}
		}
		if len(steps) == 0 {
			return nil, fmt.Errorf("plan has no proxied contracts to upgrade")
		}
		return steps, nil
	}

	requested := make(map[string]bool, len(contracts))
	for _, c := range contracts {
		requested[c] = true
	}

	var steps []models.PlanStep
	for _, step := range ordered {
		if !requested[step.Contract] {
			continue
		}
		if !step.Proxy {
			return nil, fmt.Errorf("%s is not deployed behind a proxy and cannot be upgraded", step.Contract)
		}
		steps = append(steps, step)
		delete(requested, step.Contract)
	}
	for _, c := range contracts {
		if requested[c] {
			steps = append(steps, models.PlanStep{Contract: c, Artifact: c, Proxy: true})
		}
	}
	return steps, nil
}
