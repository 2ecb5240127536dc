package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/models"
)

// AddressSource tells where a resolved address came from
type AddressSource string

const (
	SourceLedger   AddressSource = "ledger"
	SourceRegistry AddressSource = "registry"
)

// ResolvedAddress is the current address of a contract on a network
type ResolvedAddress struct {
	Network  domain.Network
	Contract string
	Address  string
	Source   AddressSource
	// Epoch and Record are set for ledger addresses
	Epoch  uint64
	Record *models.DeploymentRecord
}

// ResolveAddress answers "where is contract X on network N". It never
// touches a chain: the ledger is consulted first, then the registry table.
type ResolveAddress struct {
	ledger   AddressLedger
	registry AddressRegistry
	log      *slog.Logger
}

// NewResolveAddress creates a new ResolveAddress use case
func NewResolveAddress(ledger AddressLedger, registry AddressRegistry, log *slog.Logger) *ResolveAddress {
	return &ResolveAddress{
		ledger:   ledger,
		registry: registry,
		log:      log.With("component", "resolver"),
	}
}

// Resolve returns the current address of contract on network, or an error
// wrapping domain.ErrNotDeployed. Unknown networks fail with
// domain.ErrUnsupportedNetwork before any lookup.
func (uc *ResolveAddress) Resolve(ctx context.Context, network domain.NetworkID, contract string) (*ResolvedAddress, error) {
	n, err := domain.NetworkByID(network)
	if err != nil {
		return nil, err
	}

	record, err := uc.ledger.Latest(ctx, uint64(network), contract)
	switch {
	case err == nil:
		uc.log.Debug("resolved from ledger", "network", n.Name, "contract", contract, "epoch", record.Epoch)
		return &ResolvedAddress{
			Network:  n,
			Contract: contract,
			Address:  record.Address,
			Source:   SourceLedger,
			Epoch:    record.Epoch,
			Record:   record,
		}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	if addr, ok := uc.registry.KnownAddress(network, contract); ok {
		uc.log.Debug("resolved from registry", "network", n.Name, "contract", contract)
		return &ResolvedAddress{
			Network:  n,
			Contract: contract,
			Address:  addr,
			Source:   SourceRegistry,
		}, nil
	}

	return nil, fmt.Errorf("%s on %s: %w", contract, n.Name, domain.ErrNotDeployed)
}

// ResolveAll lists every contract with a known address on network, sorted by name
func (uc *ResolveAddress) ResolveAll(ctx context.Context, network domain.NetworkID) ([]*ResolvedAddress, error) {
	n, err := domain.NetworkByID(network)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*ResolvedAddress)
	for contract, addr := range uc.registry.Addresses(network) {
		if addr == "" {
			continue
		}
		byName[contract] = &ResolvedAddress{Network: n, Contract: contract, Address: addr, Source: SourceRegistry}
	}

	records, err := uc.ledger.ListLatest(ctx, uint64(network))
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	for _, r := range records {
		byName[r.ContractName] = &ResolvedAddress{
			Network:  n,
			Contract: r.ContractName,
			Address:  r.Address,
			Source:   SourceLedger,
			Epoch:    r.Epoch,
			Record:   r,
		}
	}

	resolved := make([]*ResolvedAddress, 0, len(byName))
	for _, r := range byName {
		resolved = append(resolved, r)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Contract < resolved[j].Contract
	})
	return resolved, nil
}
