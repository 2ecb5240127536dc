package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrUnsupportedNetwork is returned for network ids outside the supported set
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrMissingConfiguration is returned when required settings are absent
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrUpgradeTargetMissing is returned when an upgrade has no recorded proxy to target
	ErrUpgradeTargetMissing = errors.New("upgrade target missing")

	// ErrTransactionFailed is returned when a transaction reverts or cannot be sent
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrVerificationFailed is returned when a verifier rejects a contract
	ErrVerificationFailed = errors.New("verification failed")

	// ErrNotDeployed is returned by the resolver when no address is known
	ErrNotDeployed = errors.New("not deployed")

	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")
)

// UnsupportedNetworkError names the network that could not be resolved
type UnsupportedNetworkError struct {
	Network string
}

func (e *UnsupportedNetworkError) Error() string {
	return fmt.Sprintf("unsupported network %q (supported: %s)", e.Network, strings.Join(SupportedNetworkNames(), ", "))
}

func (e *UnsupportedNetworkError) Is(target error) bool {
	return target == ErrUnsupportedNetwork
}

// MissingConfigurationError lists the configuration keys that must be set
type MissingConfigurationError struct {
	Network string
	Keys    []string
}

func (e *MissingConfigurationError) Error() string {
	if e.Network == "" {
		return fmt.Sprintf("missing configuration: %s", strings.Join(e.Keys, ", "))
	}
	return fmt.Sprintf("missing configuration for network %s: %s", e.Network, strings.Join(e.Keys, ", "))
}

func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

// UpgradeTargetMissingError is raised before any transaction is sent
type UpgradeTargetMissingError struct {
	Network  string
	Contract string
}

func (e *UpgradeTargetMissingError) Error() string {
	return fmt.Sprintf("cannot upgrade %s on %s: no deployed proxy on record", e.Contract, e.Network)
}

func (e *UpgradeTargetMissingError) Is(target error) bool {
	return target == ErrUpgradeTargetMissing
}

// TransactionFailedError wraps a failed deployment, grant or upgrade transaction
type TransactionFailedError struct {
	Contract string
	Action   string
	TxHash   string
	Err      error
}

func (e *TransactionFailedError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Action, e.Contract)
	if e.TxHash != "" {
		msg += fmt.Sprintf(" (tx %s)", e.TxHash)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransactionFailedError) Is(target error) bool {
	return target == ErrTransactionFailed
}

func (e *TransactionFailedError) Unwrap() error {
	return e.Err
}

// VerificationFailedError is non-fatal; it is reported per contract and verifier
type VerificationFailedError struct {
	Contract string
	Verifier string
	Err      error
}

func (e *VerificationFailedError) Error() string {
	if e.Verifier == "" {
		return fmt.Sprintf("verification of %s failed: %v", e.Contract, e.Err)
	}
	return fmt.Sprintf("%s verification of %s failed: %v", e.Verifier, e.Contract, e.Err)
}

func (e *VerificationFailedError) Is(target error) bool {
	return target == ErrVerificationFailed
}

func (e *VerificationFailedError) Unwrap() error {
	return e.Err
}

// CycleError is returned when plan dependencies loop back on themselves
type CycleError struct {
	Contracts []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected among: %s", strings.Join(e.Contracts, ", "))
}
