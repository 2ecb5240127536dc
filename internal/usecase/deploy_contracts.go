package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
)

// Progress stages reported by the orchestrator
const (
	StagePlanCreated    = "plan_created"
	StageStepStarting   = "step_starting"
	StageStepCompleted  = "step_completed"
	StageStepFailed     = "step_failed"
	StageGrantStarting  = "grant_starting"
	StageGrantCompleted = "grant_completed"
	StageGrantFailed    = "grant_failed"
	StageDeployFinished = "deploy_completed"
)

// DeployContractsParams contains parameters for deploying a plan
type DeployContractsParams struct {
	Network  *config.Network
	PlanFile string
	// Verify submits freshly deployed contracts once the plan completes
	Verify bool
}

// StepResult is the outcome of one plan step
type StepResult struct {
	Contract       string
	Operation      models.OperationKind
	Address        string
	Implementation string
	Source         string
	TxHash         string
	Record         *models.DeploymentRecord
	Err            error
}

// GrantResult is the outcome of one permission grant
type GrantResult struct {
	Grant   models.PermissionGrant
	Grantor string
	Grantee string
	TxHash  string
	// AlreadyGranted is set when the grant was recorded or the role was held,
	// and no transaction was sent
	AlreadyGranted bool
	Err            error
}

// DeployContractsResult reports what a plan run did. On failure it holds
// every step attempted so far, the failed one last.
type DeployContractsResult struct {
	Network      domain.Network
	Account      string
	Plan         *ExecutionPlan
	Steps        []StepResult
	Deployed     []*models.DeploymentRecord
	Grants       []GrantResult
	FailedStep   string
	Verification *VerifyContractsResult
	Duration     time.Duration
}

// Attached returns the steps that reused a known address
func (r *DeployContractsResult) Attached() []StepResult {
	return lo.Filter(r.Steps, func(s StepResult, _ int) bool {
		return s.Operation == models.OperationAttach
	})
}

// DeployContracts runs a deployment plan step by step against one network
type DeployContracts struct {
	planner   *PlanDeployment
	artifacts ArtifactRepository
	ledger    AddressLedger
	connector ChainConnector
	locker    AccountLocker
	verifier  *VerifyContracts
	progress  ProgressSink
	log       *slog.Logger
}

// NewDeployContracts creates a new DeployContracts use case
func NewDeployContracts(
	planner *PlanDeployment,
	artifacts ArtifactRepository,
	ledger AddressLedger,
	connector ChainConnector,
	locker AccountLocker,
	verifier *VerifyContracts,
	progress ProgressSink,
	log *slog.Logger,
) *DeployContracts {
	if progress == nil {
		progress = NopProgress{}
	}
	return &DeployContracts{
		planner:   planner,
		artifacts: artifacts,
		ledger:    ledger,
		connector: connector,
		locker:    locker,
		verifier:  verifier,
		progress:  progress,
		log:       log.With("component", "orchestrator"),
	}
}

// Run executes the plan. Steps run strictly in order; a failed transaction
// stops the run and the partial result is returned with the error.
// Nothing is rolled back.
func (uc *DeployContracts) Run(ctx context.Context, params DeployContractsParams) (*DeployContractsResult, error) {
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

	exec, err := uc.planner.Run(ctx, PlanDeploymentParams{Network: network.ID, PlanFile: params.PlanFile})
	if err != nil {
		return nil, err
	}

	// Load every artifact up front so a missing one fails before any transaction
	artifacts, err := uc.loadArtifacts(ctx, exec)
	if err != nil {
		return nil, err
	}

	result := &DeployContractsResult{Network: network, Plan: exec}
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanCreated,
		Total:    len(exec.Operations),
		Message:  fmt.Sprintf("%d to deploy, %d to attach", exec.Count(models.OperationDeploy), exec.Count(models.OperationAttach)),
		Metadata: exec,
	})

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

	addresses := make(map[string]string, len(exec.Operations)+len(exec.External))
	for name, ext := range exec.External {
		addresses[name] = ext.Address
	}

	total := len(exec.Operations)
	for i, op := range exec.Operations {
		step := op.Target()
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageStepStarting,
			Current:  i + 1,
			Total:    total,
			Message:  step.Contract,
			Spinner:  op.Kind() == models.OperationDeploy,
			Metadata: op,
		})

		var sr StepResult
		switch o := op.(type) {
		case models.AttachOp:
			sr = StepResult{Contract: step.Contract, Operation: models.OperationAttach, Address: o.Address, Source: o.Source}
		case models.DeployOp:
			sr = uc.deployStep(ctx, session, network, step, artifacts, addresses)
		default:
			sr = StepResult{Contract: step.Contract, Operation: op.Kind(), Err: fmt.Errorf("operation %s is not valid in a deployment", op.Kind())}
		}

		result.Steps = append(result.Steps, sr)
		if sr.Err != nil {
			result.FailedStep = step.Contract
			result.Duration = time.Since(start)
			uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageStepFailed, Current: i + 1, Total: total, Message: step.Contract, Metadata: sr})
			return result, sr.Err
		}

		addresses[step.Contract] = sr.Address
		if sr.Record != nil {
			result.Deployed = append(result.Deployed, sr.Record)
		}
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageStepCompleted, Current: i + 1, Total: total, Message: step.Contract, Metadata: sr})
	}

	for i, grant := range exec.Plan.Grants {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageGrantStarting, Current: i + 1, Total: len(exec.Plan.Grants), Message: grant.String(), Spinner: true})

		gr := uc.applyGrant(ctx, session, network.ID, exec.Plan, grant, artifacts, addresses)
		result.Grants = append(result.Grants, gr)
		if gr.Err != nil {
			result.FailedStep = grant.String()
			result.Duration = time.Since(start)
			uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageGrantFailed, Current: i + 1, Total: len(exec.Plan.Grants), Message: grant.String(), Metadata: gr})
			return result, gr.Err
		}
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageGrantCompleted, Current: i + 1, Total: len(exec.Plan.Grants), Message: grant.String(), Metadata: gr})
	}

	if params.Verify && len(result.Deployed) > 0 && uc.verifier != nil {
		names := lo.Map(result.Deployed, func(r *models.DeploymentRecord, _ int) string { return r.ContractName })
		vr, err := uc.verifier.Run(ctx, VerifyContractsParams{Network: params.Network, Contracts: names})
		if err != nil {
			uc.log.Warn("verification did not run", "error", err)
		} else if verr := vr.Err(); verr != nil {
			uc.log.Warn("some contracts failed verification", "error", verr)
		}
		result.Verification = vr
	}

	result.Duration = time.Since(start)
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageDeployFinished, Total: total, Metadata: result})
	return result, nil
}

// deployStep sends the creation transaction(s) of one step and records it
func (uc *DeployContracts) deployStep(
	ctx context.Context,
	session ChainSession,
	network domain.Network,
	step models.PlanStep,
	artifacts map[string]*models.Artifact,
	addresses map[string]string,
) StepResult {
	sr := StepResult{Contract: step.Contract, Operation: models.OperationDeploy}

	args, err := resolveArgs(step.Args, addresses, session.Account())
	if err != nil {
		sr.Err = err
		return sr
	}

	artifact := artifacts[step.Artifact]
	record := &models.DeploymentRecord{
		ChainID:      uint64(network.ID),
		ContractName: step.Contract,
		Action:       models.RecordActionDeploy,
		Artifact:     step.Artifact,
		Deployer:     session.Account().Hex(),
	}

	if step.Proxy {
		impl, err := session.Deploy(ctx, step.Contract, artifact, nil)
		if err != nil {
			sr.Err = txFailed(step.Contract, "deploy implementation of", impl, err)
			return sr
		}
		uc.log.Debug("implementation deployed", "contract", step.Contract, "address", impl.ContractAddress.Hex())

		initData, err := session.EncodeCall(artifact, step.InitializerName(), args)
		if err != nil {
			sr.Err = fmt.Errorf("failed to encode %s.%s: %w", step.Contract, step.InitializerName(), err)
			return sr
		}

		proxy, err := session.Deploy(ctx, step.Contract, artifacts[step.ProxyArtifactName()], []string{impl.ContractAddress.Hex(), hexutil.Encode(initData)})
		if err != nil {
			sr.Err = txFailed(step.Contract, "deploy proxy of", proxy, err)
			return sr
		}

		record.Address = proxy.ContractAddress.Hex()
		record.Type = models.ProxyDeployment
		record.ProxyInfo = &models.ProxyInfo{Type: "ERC1967", Implementation: impl.ContractAddress.Hex()}
		record.TxHash = proxy.TxHash
		record.BlockNumber = proxy.BlockNumber
		record.ConstructorArgs = hexutil.Encode(initData)
		sr.Implementation = impl.ContractAddress.Hex()
	} else {
		out, err := session.Deploy(ctx, step.Contract, artifact, args)
		if err != nil {
			sr.Err = txFailed(step.Contract, "deploy", out, err)
			return sr
		}
		record.Address = out.ContractAddress.Hex()
		record.Type = models.SingletonDeployment
		record.TxHash = out.TxHash
		record.BlockNumber = out.BlockNumber
		record.ConstructorArgs = out.EncodedArgs
	}
	record.Verification = models.VerificationInfo{Status: models.VerificationStatusUnverified}

	saved, err := uc.ledger.Append(ctx, record)
	if err != nil {
		// the contract exists on chain; surface the address so it can be recorded by hand
		sr.Address = record.Address
		sr.TxHash = record.TxHash
		sr.Err = fmt.Errorf("%s deployed at %s but could not be recorded: %w", step.Contract, record.Address, err)
		return sr
	}

	sr.Address = saved.Address
	sr.TxHash = saved.TxHash
	sr.Record = saved
	return sr
}

// applyGrant sends one permission grant. Grants recorded in the ledger and
// roles already held are skipped.
func (uc *DeployContracts) applyGrant(
	ctx context.Context,
	session ChainSession,
	chainID domain.NetworkID,
	plan *models.DeploymentPlan,
	grant models.PermissionGrant,
	artifacts map[string]*models.Artifact,
	addresses map[string]string,
) GrantResult {
	gr := GrantResult{Grant: grant, Grantor: addresses[grant.Contract]}

	grantee, err := resolveArgs([]string{grant.Grantee}, addresses, session.Account())
	if err != nil {
		gr.Err = fmt.Errorf("grant %s: %w", grant, err)
		return gr
	}
	gr.Grantee = grantee[0]

	key := models.GrantKey(gr.Grantor, grant.MethodName(), grant.Role, gr.Grantee)
	applied, err := uc.ledger.GrantApplied(ctx, uint64(chainID), key)
	if err != nil {
		gr.Err = fmt.Errorf("grant %s: %w", grant, err)
		return gr
	}
	if applied {
		gr.AlreadyGranted = true
		return gr
	}

	step, _ := plan.Step(grant.Contract)
	call := ContractCall{
		Contract: grant.Contract,
		Address:  common.HexToAddress(gr.Grantor),
		Artifact: artifacts[step.Artifact],
		Method:   grant.MethodName(),
	}

	if grant.Kind == models.GrantKindRole {
		call.Args = []string{RoleID(grant.Role), gr.Grantee}

		check := call
		check.Method = models.RoleCheckMethodName
		out, err := session.Call(ctx, check)
		if err != nil {
			uc.log.Debug("role check unavailable, granting anyway", "grant", grant.String(), "error", err)
		} else if len(out) == 1 {
			if held, ok := out[0].(bool); ok && held {
				gr.AlreadyGranted = true
				return gr
			}
		}
	} else {
		call.Args = []string{grant.Role, gr.Grantee}
	}

	out, err := session.Transact(ctx, call)
	if err != nil {
		gr.Err = txFailed(grant.Contract, fmt.Sprintf("%s(%s) on", grant.MethodName(), grant.Role), out, err)
		if out != nil {
			gr.TxHash = out.TxHash
		}
		return gr
	}
	gr.TxHash = out.TxHash

	err = uc.ledger.RecordGrant(ctx, &models.GrantRecord{
		ChainID:  uint64(chainID),
		Key:      key,
		Contract: grant.Contract,
		Method:   grant.MethodName(),
		Role:     grant.Role,
		Grantor:  gr.Grantor,
		Grantee:  gr.Grantee,
		TxHash:   out.TxHash,
	})
	if err != nil {
		gr.Err = fmt.Errorf("%s sent in %s but could not be recorded: %w", grant, out.TxHash, err)
	}
	return gr
}

// loadArtifacts loads the artifacts needed by deploy operations and grants
func (uc *DeployContracts) loadArtifacts(ctx context.Context, exec *ExecutionPlan) (map[string]*models.Artifact, error) {
	needed := make(map[string]bool)
	for _, op := range exec.Operations {
		if op.Kind() != models.OperationDeploy {
			continue
		}
		step := op.Target()
		needed[step.Artifact] = true
		if step.Proxy {
			needed[step.ProxyArtifactName()] = true
		}
	}
	for _, grant := range exec.Plan.Grants {
		if step, ok := exec.Plan.Step(grant.Contract); ok {
			needed[step.Artifact] = true
		}
	}

	artifacts := make(map[string]*models.Artifact, len(needed))
	for _, name := range lo.Keys(needed) {
		artifact, err := uc.artifacts.GetArtifact(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load artifact %s: %w", name, err)
		}
		artifacts[name] = artifact
	}
	return artifacts, nil
}

func txFailed(contract, action string, out *TxOutcome, err error) error {
	e := &domain.TransactionFailedError{Contract: contract, Action: action, Err: err}
	if out != nil {
		e.TxHash = out.TxHash
	}
	return e
}
