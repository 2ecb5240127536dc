package usecase_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

func TestUpgradeContracts(t *testing.T) {
	ctx := context.Background()

	deployed := func(t *testing.T) *harness {
		h := newHarness(badgePlan())
		_, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)
		h.session.deploys = nil
		return h
	}

	t.Run("upgrades a recorded proxy", func(t *testing.T) {
		h := deployed(t)
		before, err := h.ledger.Latest(ctx, uint64(domain.Sepolia), "Users")
		require.NoError(t, err)

		result, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: sepolia(), Contracts: []string{"Users"}})
		require.NoError(t, err)
		require.Len(t, result.Upgrades, 1)

		ur := result.Upgrades[0]
		assert.Equal(t, before.Address, ur.Proxy)
		assert.Equal(t, before.ProxyInfo.Implementation, ur.PreviousImplementation)
		assert.NotEqual(t, ur.PreviousImplementation, ur.NewImplementation)

		require.Len(t, h.session.upgrades, 1)
		assert.Equal(t, common.HexToAddress(before.Address), h.session.upgrades[0][0])
		assert.Equal(t, common.HexToAddress(ur.NewImplementation), h.session.upgrades[0][1])

		after, err := h.ledger.Latest(ctx, uint64(domain.Sepolia), "Users")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), after.Epoch)
		assert.Equal(t, models.RecordActionUpgrade, after.Action)
		assert.Equal(t, before.Address, after.Address)
		assert.Equal(t, ur.NewImplementation, after.ProxyInfo.Implementation)
	})

	t.Run("upgrades every proxy in plan order by default", func(t *testing.T) {
		h := deployed(t)

		result, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: sepolia()})
		require.NoError(t, err)

		var names []string
		for _, ur := range result.Upgrades {
			names = append(names, ur.Contract)
		}
		assert.Equal(t, []string{"Store", "Users", "Models"}, names)
	})

	t.Run("account lock is taken before connecting", func(t *testing.T) {
		h := deployed(t)
		locker := &busyLocker{}
		h.locker = locker

		_, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: sepolia(), Contracts: []string{"Users"}})
		require.ErrorContains(t, err, "locked by another run")

		signer, err := sepolia().SignerAddress()
		require.NoError(t, err)
		assert.Equal(t, signer, locker.account)
		h.connector.AssertNumberOfCalls(t, "Connect", 1)
		assert.Empty(t, h.session.deploys)
		assert.Empty(t, h.session.upgrades)
	})

	t.Run("missing target sends no transaction", func(t *testing.T) {
		h := newHarness(badgePlan())

		result, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: sepolia(), Contracts: []string{"Models"}})
		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrUpgradeTargetMissing)

		var target *domain.UpgradeTargetMissingError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "Models", target.Contract)
		h.connector.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
		assert.Empty(t, h.session.deploys)
	})

	t.Run("one missing target blocks the others", func(t *testing.T) {
		h := newHarness(badgePlan())
		h.registry[domain.Sepolia] = map[string]string{"Store": "0x00000000000000000000000000000000000005e0"}

		_, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: sepolia(), Contracts: []string{"Store", "Users"}})
		assert.ErrorIs(t, err, domain.ErrUpgradeTargetMissing)
		assert.Empty(t, h.session.upgrades)
	})

	t.Run("registry proxies get a first ledger record", func(t *testing.T) {
		h := newHarness(badgePlan())
		h.registry[domain.Sepolia] = map[string]string{"Store": "0x00000000000000000000000000000000000005e0"}

		_, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: sepolia(), Contracts: []string{"Store"}})
		require.NoError(t, err)

		rec, err := h.ledger.Latest(ctx, uint64(domain.Sepolia), "Store")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), rec.Epoch)
		assert.Equal(t, "0x00000000000000000000000000000000000005e0", rec.Address)
	})

	t.Run("non proxy contracts cannot be upgraded", func(t *testing.T) {
		h := deployed(t)

		_, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: sepolia(), Contracts: []string{"Facade"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not deployed behind a proxy")
		assert.Empty(t, h.session.upgrades)
	})

	t.Run("unsupported network fails first", func(t *testing.T) {
		h := newHarness(badgePlan())
		network := sepolia()
		network.ID = 8

		_, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: network})
		assert.ErrorIs(t, err, domain.ErrUnsupportedNetwork)
		h.connector.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
	})

	t.Run("failed implementation deploy stops the run", func(t *testing.T) {
		h := deployed(t)
		h.session.failDeploy["Users"] = true

		result, err := h.upgrade().Run(ctx, usecase.UpgradeContractsParams{Network: sepolia()})
		assert.ErrorIs(t, err, domain.ErrTransactionFailed)
		require.NotNil(t, result)
		assert.Equal(t, "Users", result.FailedStep)
		assert.Len(t, result.Upgrades, 2)
		assert.Len(t, h.session.upgrades, 1, "Models must not be attempted")
	})
}
