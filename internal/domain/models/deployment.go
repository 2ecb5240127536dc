package models

import (
	"fmt"
	"strings"
	"time"
)

// DeploymentType represents the type of deployment
type DeploymentType string

const (
	SingletonDeployment DeploymentType = "SINGLETON"
	ProxyDeployment     DeploymentType = "PROXY"
)

// RecordAction is the operation that produced a ledger record
type RecordAction string

const (
	RecordActionDeploy  RecordAction = "DEPLOY"
	RecordActionUpgrade RecordAction = "UPGRADE"
)

// VerificationStatus represents the verification status
type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "UNVERIFIED"
	VerificationStatusVerified   VerificationStatus = "VERIFIED"
	VerificationStatusFailed     VerificationStatus = "FAILED"
	VerificationStatusPartial    VerificationStatus = "PARTIAL"
)

// DeploymentRecord is one entry of the append-only address ledger.
// The current address of a contract is the record with the highest Epoch
// for its (ChainID, ContractName) pair.
type DeploymentRecord struct {
	ID           string         `json:"id"` // e.g., "11155111/TheBadgeStore#2"
	ChainID      uint64         `json:"chainId"`
	ContractName string         `json:"contractName"`
	Epoch        uint64         `json:"epoch"`
	Action       RecordAction   `json:"action"`
	Address      string         `json:"address"`
	Type         DeploymentType `json:"type"`
	Artifact     string         `json:"artifact"`

	// Proxy information (null for non-proxy deployments)
	ProxyInfo *ProxyInfo `json:"proxyInfo,omitempty"`

	TxHash      string `json:"txHash,omitempty"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	Deployer    string `json:"deployer,omitempty"`

	// Constructor or initializer arguments, hex encoded
	ConstructorArgs string `json:"constructorArgs,omitempty"`

	Verification VerificationInfo `json:"verification"`

	CreatedAt time.Time `json:"createdAt"`
}

// ProxyInfo contains proxy-specific information
type ProxyInfo struct {
	Type           string `json:"type"` // "UUPS" or "Transparent"
	Implementation string `json:"implementation"`
	Admin          string `json:"admin,omitempty"`
}

// VerifierStatus represents the status of a verifier
type VerifierStatus struct {
	Status string `json:"status"` // verified/skipped/failed
	URL    string `json:"url,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// VerificationInfo contains verification details
type VerificationInfo struct {
	Status       VerificationStatus        `json:"status"`
	EtherscanURL string                    `json:"etherscanUrl,omitempty"`
	VerifiedAt   *time.Time                `json:"verifiedAt,omitempty"`
	Verifiers    map[string]VerifierStatus `json:"verifiers,omitempty"`
}

// RecordID builds the ledger id for a (chain, contract, epoch) triple
func RecordID(chainID uint64, contract string, epoch uint64) string {
	return fmt.Sprintf("%d/%s#%d", chainID, contract, epoch)
}

// GrantRecord is a permission grant the ledger saw confirmed. Reruns skip
// grants whose key is already recorded for the chain.
type GrantRecord struct {
	ChainID   uint64    `json:"chainId"`
	Key       string    `json:"key"`
	Contract  string    `json:"contract"`
	Method    string    `json:"method"`
	Role      string    `json:"role"`
	Grantor   string    `json:"grantor"`
	Grantee   string    `json:"grantee"`
	TxHash    string    `json:"txHash,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GrantKey identifies a grant by the addresses it touches, so a redeployed
// grantor or grantee yields a new key.
// e.g. "0xabc...:addPermittedContract(TheBadge,0xdef...)"
func GrantKey(grantor, method, role, grantee string) string {
	return fmt.Sprintf("%s:%s(%s,%s)", strings.ToLower(grantor), method, role, strings.ToLower(grantee))
}

// GrantRecordID builds the ledger id of a grant
func GrantRecordID(chainID uint64, key string) string {
	return fmt.Sprintf("%d/%s", chainID, key)
}

// IsProxy reports whether the record points at a proxy
func (r *DeploymentRecord) IsProxy() bool {
	return r.Type == ProxyDeployment && r.ProxyInfo != nil
}

// TargetAddress returns the address holding the contract code: the
// implementation for proxies, the record address otherwise.
func (r *DeploymentRecord) TargetAddress() string {
	if r.IsProxy() && r.ProxyInfo.Implementation != "" {
		return r.ProxyInfo.Implementation
	}
	return r.Address
}
