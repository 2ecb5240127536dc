package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

// Progress stages reported by the verification coordinator
const (
	StageVerifyStarting  = "verify_starting"
	StageVerifyCompleted = "verify_completed"
)

// Verifier status values
const (
	VerifierStatusVerified = "verified"
	VerifierStatusFailed   = "failed"
	VerifierStatusSkipped  = "skipped"
)

// VerifyContractsParams contains parameters for verification
type VerifyContractsParams struct {
	Network *config.Network
	// Contracts to verify; empty means every contract recorded on the network
	Contracts []string
	// Force re-verifies contracts already marked verified
	Force bool
}

// VerifierResult is the outcome of one verifier for one contract
type VerifierResult struct {
	Verifier string
	Status   string
	URL      string
	Reason   string
}

// ContractVerification is the outcome for one contract
type ContractVerification struct {
	Contract       string
	Address        string
	Implementation string
	Status         models.VerificationStatus
	Verifiers      []VerifierResult
	Skipped        bool
	SkipReason     string
	Err            error
}

// SkippedVerifier names a verifier that was not used and why
type SkippedVerifier struct {
	Verifier string
	Reason   string
}

// VerifyContractsResult contains the result of verification
type VerifyContractsResult struct {
	Network          domain.Network
	Results          []*ContractVerification
	SkippedVerifiers []SkippedVerifier
	// SkipReason is set when nothing was submitted at all
	SkipReason   string
	SuccessCount int
	FailureCount int
}

// Err joins the per-contract failures, or returns nil when none failed
func (r *VerifyContractsResult) Err() error {
	var result *multierror.Error
	for _, cv := range r.Results {
		if cv.Err != nil {
			result = multierror.Append(result, cv.Err)
		}
	}
	return result.ErrorOrNil()
}

// VerifyContracts submits deployed contracts to block explorers. Contracts
// are verified independently: one failure never blocks another.
type VerifyContracts struct {
	resolver  *ResolveAddress
	ledger    AddressLedger
	artifacts ArtifactRepository
	inspector ProxyInspector
	verifiers []ContractVerifier
	cfg       *config.RuntimeConfig
	progress  ProgressSink
	log       *slog.Logger
}

// NewVerifyContracts creates a new VerifyContracts use case
func NewVerifyContracts(
	resolver *ResolveAddress,
	ledger AddressLedger,
	artifacts ArtifactRepository,
	inspector ProxyInspector,
	verifiers []ContractVerifier,
	cfg *config.RuntimeConfig,
	progress ProgressSink,
	log *slog.Logger,
) *VerifyContracts {
	if progress == nil {
		progress = NopProgress{}
	}
	return &VerifyContracts{
		resolver:  resolver,
		ledger:    ledger,
		artifacts: artifacts,
		inspector: inspector,
		verifiers: verifiers,
		cfg:       cfg,
		progress:  progress,
		log:       log.With("component", "verifier"),
	}
}

// Run executes the use case. The returned error covers only problems that
// prevent verification from starting; per-contract failures are in the result.
func (uc *VerifyContracts) Run(ctx context.Context, params VerifyContractsParams) (*VerifyContractsResult, error) {
	if params.Network == nil {
		return nil, &domain.MissingConfigurationError{Keys: []string{"network"}}
	}
	network, err := domain.NetworkByID(params.Network.ID)
	if err != nil {
		return nil, err
	}

	result := &VerifyContractsResult{Network: network}

	if network.IsLocal() {
		result.SkipReason = "local chain"
		return result, nil
	}

	var active []ContractVerifier
	for _, v := range uc.verifiers {
		if ok, reason := v.Available(params.Network); !ok {
			uc.log.Warn("skipping verifier", "verifier", v.Name(), "network", network.Name, "reason", reason)
			result.SkippedVerifiers = append(result.SkippedVerifiers, SkippedVerifier{Verifier: v.Name(), Reason: reason})
			continue
		}
		active = append(active, v)
	}
	if len(active) == 0 {
		result.SkipReason = "no verifier is configured"
		return result, nil
	}

	targets := params.Contracts
	if len(targets) == 0 {
		records, err := uc.ledger.ListLatest(ctx, uint64(network.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		for _, r := range records {
			targets = append(targets, r.ContractName)
		}
	}

	result.Results = make([]*ContractVerification, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency())
	for i, contract := range targets {
		g.Go(func() error {
			uc.progress.OnProgress(gctx, ProgressEvent{Stage: StageVerifyStarting, Current: i + 1, Total: len(targets), Message: contract, Spinner: true})
			cv := uc.verifyOne(gctx, params, active, contract)
			result.Results[i] = cv
			uc.progress.OnProgress(gctx, ProgressEvent{Stage: StageVerifyCompleted, Current: i + 1, Total: len(targets), Message: contract, Metadata: cv})
			return nil
		})
	}
	_ = g.Wait()

	for _, cv := range result.Results {
		switch {
		case cv.Err != nil:
			result.FailureCount++
			uc.log.Warn("verification failed", "contract", cv.Contract, "error", cv.Err)
		case !cv.Skipped:
			result.SuccessCount++
		}
	}

	return result, nil
}

func (uc *VerifyContracts) concurrency() int {
	if uc.cfg != nil && uc.cfg.Verify.Concurrency > 0 {
		return uc.cfg.Verify.Concurrency
	}
	return 4
}

// verifyOne resolves, loads and submits a single contract to every active verifier
func (uc *VerifyContracts) verifyOne(ctx context.Context, params VerifyContractsParams, verifiers []ContractVerifier, contract string) *ContractVerification {
	cv := &ContractVerification{Contract: contract, Status: models.VerificationStatusUnverified}
	fail := func(err error) *ContractVerification {
		cv.Status = models.VerificationStatusFailed
		cv.Err = &domain.VerificationFailedError{Contract: contract, Err: err}
		return cv
	}

	resolved, err := uc.resolver.Resolve(ctx, params.Network.ID, contract)
	if err != nil {
		return fail(err)
	}
	cv.Address = resolved.Address
	record := resolved.Record

	if record != nil && record.Verification.Status == models.VerificationStatusVerified && !params.Force {
		cv.Status = models.VerificationStatusVerified
		cv.Skipped = true
		cv.SkipReason = "already verified"
		return cv
	}

	artifactName := contract
	if record != nil && record.Artifact != "" {
		artifactName = record.Artifact
	}
	artifact, err := uc.artifacts.GetArtifact(ctx, artifactName)
	if err != nil {
		return fail(err)
	}
	buildInfo, err := uc.artifacts.GetBuildInfo(ctx, artifact)
	if err != nil {
		return fail(err)
	}

	req := VerificationRequest{
		Network:   params.Network,
		Contract:  contract,
		Address:   common.HexToAddress(resolved.Address),
		Artifact:  artifact,
		BuildInfo: buildInfo,
	}

	impl, err := uc.implementationOf(ctx, params.Network, resolved)
	if err != nil {
		return fail(fmt.Errorf("failed to resolve implementation: %w", err))
	}
	if impl != (common.Address{}) {
		proxy := req.Address
		req.Proxy = &proxy
		req.Address = impl
		cv.Implementation = impl.Hex()
	} else if record != nil {
		req.ConstructorArgs = strings.TrimPrefix(record.ConstructorArgs, "0x")
	}

	var failures *multierror.Error
	verified := 0
	for _, v := range verifiers {
		out, err := v.Verify(ctx, req)
		if err != nil {
			failures = multierror.Append(failures, &domain.VerificationFailedError{Contract: contract, Verifier: v.Name(), Err: err})
			cv.Verifiers = append(cv.Verifiers, VerifierResult{Verifier: v.Name(), Status: VerifierStatusFailed, Reason: err.Error()})
			continue
		}
		verified++
		cv.Verifiers = append(cv.Verifiers, VerifierResult{Verifier: v.Name(), Status: VerifierStatusVerified, URL: out.URL})
	}

	switch {
	case verified == len(verifiers):
		cv.Status = models.VerificationStatusVerified
	case verified > 0:
		cv.Status = models.VerificationStatusPartial
	default:
		cv.Status = models.VerificationStatusFailed
	}
	if err := failures.ErrorOrNil(); err != nil {
		cv.Err = err
	}

	if record != nil {
		if err := uc.ledger.UpdateVerification(ctx, record.ID, verificationInfo(cv)); err != nil {
			uc.log.Warn("failed to record verification status", "contract", contract, "error", err)
		}
	}

	return cv
}

// implementationOf returns the implementation behind a proxy, or the zero
// address for plain contracts. The chain is authoritative when reachable.
// Without a ledger record only the chain can tell, so a missing RPC URL
// is an error.
func (uc *VerifyContracts) implementationOf(ctx context.Context, network *config.Network, resolved *ResolvedAddress) (common.Address, error) {
	var recorded common.Address
	if resolved.Record != nil && resolved.Record.IsProxy() {
		recorded = common.HexToAddress(resolved.Record.ProxyInfo.Implementation)
	}

	if err := network.RequireRPC(); err != nil {
		if resolved.Record == nil {
			return common.Address{}, fmt.Errorf("implementation unknown without rpc_url: %w", err)
		}
		return recorded, nil
	}
	if uc.inspector == nil {
		return recorded, nil
	}

	impl, err := uc.inspector.ImplementationAddress(ctx, network, common.HexToAddress(resolved.Address))
	if err != nil {
		if recorded != (common.Address{}) {
			uc.log.Warn("using recorded implementation", "contract", resolved.Contract, "error", err)
			return recorded, nil
		}
		return common.Address{}, err
	}
	return impl, nil
}

func verificationInfo(cv *ContractVerification) models.VerificationInfo {
	info := models.VerificationInfo{
		Status:    cv.Status,
		Verifiers: make(map[string]models.VerifierStatus, len(cv.Verifiers)),
	}
	for _, vr := range cv.Verifiers {
		info.Verifiers[vr.Verifier] = models.VerifierStatus{Status: vr.Status, URL: vr.URL, Reason: vr.Reason}
		if vr.Verifier == "etherscan" && vr.URL != "" {
			info.EtherscanURL = vr.URL
		}
	}
	if cv.Status == models.VerificationStatusVerified {
		now := time.Now()
		info.VerifiedAt = &now
	}
	return info
}

// IsVerificationFailure reports whether err only carries verification failures
func IsVerificationFailure(err error) bool {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			if !errors.Is(e, domain.ErrVerificationFailed) {
				return false
			}
		}
		return len(merr.Errors) > 0
	}
	return errors.Is(err, domain.ErrVerificationFailed)
}
