package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
)

// AddressLedger is the append-only store of deployment records
type AddressLedger interface {
	// Append assigns the next epoch for (chain, contract) and persists the record
	Append(ctx context.Context, record *models.DeploymentRecord) (*models.DeploymentRecord, error)
	// Latest returns the current record or domain.ErrNotFound
	Latest(ctx context.Context, chainID uint64, contract string) (*models.DeploymentRecord, error)
	History(ctx context.Context, chainID uint64, contract string) ([]*models.DeploymentRecord, error)
	// ListLatest returns the current record of every contract on a chain, sorted by name
	ListLatest(ctx context.Context, chainID uint64) ([]*models.DeploymentRecord, error)
	UpdateVerification(ctx context.Context, id string, info models.VerificationInfo) error
	// GrantApplied reports whether a grant with key was recorded on the chain
	GrantApplied(ctx context.Context, chainID uint64, key string) (bool, error)
	RecordGrant(ctx context.Context, grant *models.GrantRecord) error
}

// AddressRegistry is the read-only table of known addresses per network
type AddressRegistry interface {
	KnownAddress(network domain.NetworkID, contract string) (string, bool)
	Addresses(network domain.NetworkID) map[string]string
}

// PlanLoader reads a deployment manifest
type PlanLoader interface {
	LoadPlan(ctx context.Context, path string) (*models.DeploymentPlan, error)
}

// ArtifactRepository provides compiled contract artifacts
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
	GetBuildInfo(ctx context.Context, artifact *models.Artifact) (*models.BuildInfo, error)
}

// ChainConnector opens a signing session against a network
type ChainConnector interface {
	Connect(ctx context.Context, network *config.Network) (ChainSession, error)
}

// ContractCall targets a method of a deployed contract
type ContractCall struct {
	Contract string
	Address  common.Address
	Artifact *models.Artifact
	Method   string
	Args     []string
}

// TxOutcome describes a mined transaction
type TxOutcome struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	// ContractAddress is set for creation transactions
	ContractAddress common.Address
	// EncodedArgs holds the ABI encoded constructor arguments of a creation
	EncodedArgs string
}

// ChainSession sends transactions from a single account and waits for
// their confirmation before returning. A reverted transaction returns its
// outcome together with the error.
type ChainSession interface {
	Account() common.Address
	Deploy(ctx context.Context, contract string, artifact *models.Artifact, args []string) (*TxOutcome, error)
	Transact(ctx context.Context, call ContractCall) (*TxOutcome, error)
	Call(ctx context.Context, call ContractCall) ([]any, error)
	EncodeCall(artifact *models.Artifact, method string, args []string) ([]byte, error)
	ImplementationAddress(ctx context.Context, proxy common.Address) (common.Address, error)
	AdminAddress(ctx context.Context, proxy common.Address) (common.Address, error)
	// UpgradeProxy points proxy at impl through its admin or, for UUPS proxies, directly
	UpgradeProxy(ctx context.Context, proxy, impl common.Address) (*TxOutcome, error)
	Close()
}

// ProxyInspector reads proxy storage without a signer
type ProxyInspector interface {
	ImplementationAddress(ctx context.Context, network *config.Network, proxy common.Address) (common.Address, error)
}

// AccountLocker serializes plans that share an account on a network
type AccountLocker interface {
	Lock(ctx context.Context, network domain.NetworkID, account common.Address) (unlock func() error, err error)
}

// VerificationRequest is a single contract submission
type VerificationRequest struct {
	Network  *config.Network
	Contract string
	// Address is the code holder: the implementation for proxies
	Address   common.Address
	Proxy     *common.Address
	Artifact  *models.Artifact
	BuildInfo *models.BuildInfo
	// ConstructorArgs is hex encoded without 0x
	ConstructorArgs string
}

// VerifierOutcome reports a successful submission
type VerifierOutcome struct {
	URL             string
	AlreadyVerified bool
}

// ContractVerifier submits sources to one explorer
type ContractVerifier interface {
	Name() string
	// Available reports whether the verifier is configured for the network; reason explains why not
	Available(network *config.Network) (ok bool, reason string)
	Verify(ctx context.Context, req VerificationRequest) (*VerifierOutcome, error)
}

// NetworkSelector picks a network interactively
type NetworkSelector interface {
	SelectNetwork(ctx context.Context, networks []domain.Network) (domain.Network, error)
}

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
