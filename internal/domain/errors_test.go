package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("execution reverted")

	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "unsupported network",
			err:      &UnsupportedNetworkError{Network: "1"},
			sentinel: ErrUnsupportedNetwork,
			message:  `unsupported network "1"`,
		},
		{
			name:     "missing configuration",
			err:      &MissingConfigurationError{Network: "sepolia", Keys: []string{"rpc_url", "private_key"}},
			sentinel: ErrMissingConfiguration,
			message:  "missing configuration for network sepolia: rpc_url, private_key",
		},
		{
			name:     "upgrade target missing",
			err:      &UpgradeTargetMissingError{Network: "gnosis", Contract: "TheBadge"},
			sentinel: ErrUpgradeTargetMissing,
			message:  "cannot upgrade TheBadge on gnosis: no deployed proxy on record",
		},
		{
			name:     "transaction failed",
			err:      &TransactionFailedError{Contract: "TheBadgeUsers", Action: "deploy", TxHash: "0xabc", Err: cause},
			sentinel: ErrTransactionFailed,
			message:  "deploy TheBadgeUsers failed (tx 0xabc): execution reverted",
		},
		{
			name:     "verification failed",
			err:      &VerificationFailedError{Contract: "TheBadge", Verifier: "etherscan", Err: cause},
			sentinel: ErrVerificationFailed,
			message:  "etherscan verification of TheBadge failed: execution reverted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("command failed: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Contains(t, tt.err.Error(), tt.message)
		})
	}
}

func TestTransactionFailedUnwrapsCause(t *testing.T) {
	cause := errors.New("nonce too low")
	err := &TransactionFailedError{Contract: "TheBadgeStore", Action: "deploy", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrVerificationFailed)
}
