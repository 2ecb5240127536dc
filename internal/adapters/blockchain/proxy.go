package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/thebadge/badgectl/internal/usecase"
)

var (
	// ImplementationSlot is bytes32(uint256(keccak256("eip1967.proxy.implementation")) - 1)
	ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	// AdminSlot is bytes32(uint256(keccak256("eip1967.proxy.admin")) - 1)
	AdminSlot = common.HexToHash("0xb53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103")
)

// ProxyAdmin of OpenZeppelin 4.x (upgrade) and 5.x (upgradeAndCall only)
var proxyAdminABI = mustParseABI(`[
	{"type":"function","name":"upgrade","stateMutability":"nonpayable","inputs":[{"name":"proxy","type":"address"},{"name":"implementation","type":"address"}],"outputs":[]},
	{"type":"function","name":"upgradeAndCall","stateMutability":"payable","inputs":[{"name":"proxy","type":"address"},{"name":"implementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[]}
]`)

// UUPS proxies, and transparent proxies when called by their admin
var upgradeableABI = mustParseABI(`[
	{"type":"function","name":"upgradeTo","stateMutability":"nonpayable","inputs":[{"name":"newImplementation","type":"address"}],"outputs":[]},
	{"type":"function","name":"upgradeToAndCall","stateMutability":"payable","inputs":[{"name":"newImplementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[]}
]`)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// slotAddress reads an address stored right aligned in a storage word
func slotAddress(raw []byte) common.Address {
	return common.BytesToAddress(raw)
}

type storageReader interface {
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

func readSlot(ctx context.Context, client storageReader, proxy common.Address, slot common.Hash) (common.Address, error) {
	raw, err := client.StorageAt(ctx, proxy, slot, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read storage of %s: %w", proxy.Hex(), err)
	}
	return slotAddress(raw), nil
}

// ImplementationAddress implements usecase.ChainSession
func (s *Session) ImplementationAddress(ctx context.Context, proxy common.Address) (common.Address, error) {
	return readSlot(ctx, s.client, proxy, ImplementationSlot)
}

// AdminAddress implements usecase.ChainSession
func (s *Session) AdminAddress(ctx context.Context, proxy common.Address) (common.Address, error) {
	return readSlot(ctx, s.client, proxy, AdminSlot)
}

// UpgradeProxy implements usecase.ChainSession.
//
// With an admin contract the upgrade goes through ProxyAdmin; an admin
// that is our own account calls the proxy directly; no admin means UUPS.
func (s *Session) UpgradeProxy(ctx context.Context, proxy, impl common.Address) (*usecase.TxOutcome, error) {
	admin, err := s.AdminAddress(ctx, proxy)
	if err != nil {
		return nil, err
	}

	var outcome *usecase.TxOutcome
	switch {
	case admin == (common.Address{}), admin == s.account:
		outcome, err = s.upgradeDirect(ctx, proxy, impl)
	default:
		code, codeErr := s.client.CodeAt(ctx, admin, nil)
		if codeErr != nil {
			return nil, fmt.Errorf("failed to read proxy admin %s: %w", admin.Hex(), codeErr)
		}
		if len(code) == 0 {
			return nil, fmt.Errorf("proxy %s is administered by %s, not by the signer %s", proxy.Hex(), admin.Hex(), s.account.Hex())
		}
		outcome, err = s.upgradeViaAdmin(ctx, admin, proxy, impl)
	}
	if err != nil {
		return outcome, err
	}

	current, err := s.ImplementationAddress(ctx, proxy)
	if err != nil {
		return outcome, err
	}
	if current != impl {
		return outcome, fmt.Errorf("proxy %s still points at %s after upgrade", proxy.Hex(), current.Hex())
	}
	return outcome, nil
}

func (s *Session) upgradeViaAdmin(ctx context.Context, admin, proxy, impl common.Address) (*usecase.TxOutcome, error) {
	s.log.Debug("upgrading through proxy admin", "admin", admin.Hex(), "proxy", proxy.Hex(), "implementation", impl.Hex())
	bound := bind.NewBoundContract(admin, proxyAdminABI, s.client, s.client, s.client)

	tx, err := bound.Transact(s.transactOpts(ctx), "upgrade", proxy, impl)
	if err != nil {
		// 5.x admins only know upgradeAndCall; the legacy call fails estimation
		tx, err = bound.Transact(s.transactOpts(ctx), "upgradeAndCall", proxy, impl, []byte{})
	}
	if err != nil {
		return nil, fmt.Errorf("ProxyAdmin upgrade: %w", err)
	}
	return s.wait(ctx, tx)
}

func (s *Session) upgradeDirect(ctx context.Context, proxy, impl common.Address) (*usecase.TxOutcome, error) {
	s.log.Debug("upgrading proxy", "proxy", proxy.Hex(), "implementation", impl.Hex())
	bound := bind.NewBoundContract(proxy, upgradeableABI, s.client, s.client, s.client)

	tx, err := bound.Transact(s.transactOpts(ctx), "upgradeTo", impl)
	if err != nil {
		tx, err = bound.Transact(s.transactOpts(ctx), "upgradeToAndCall", impl, []byte{})
	}
	if err != nil {
		return nil, fmt.Errorf("proxy upgrade: %w", err)
	}
	return s.wait(ctx, tx)
}
