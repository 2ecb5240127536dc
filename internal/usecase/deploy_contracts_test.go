package usecase_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

func TestDeployContracts(t *testing.T) {
	ctx := context.Background()

	t.Run("deploys in dependency order and grants permissions", func(t *testing.T) {
		h := newHarness(badgePlan())

		result, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		assert.Equal(t, []string{"Store", "Users", "Models", "Facade"}, h.session.deployedContracts())
		require.Len(t, result.Deployed, 4)

		addresses := map[string]string{}
		for _, r := range result.Deployed {
			assert.NotEmpty(t, r.Address)
			assert.Equal(t, uint64(domain.Sepolia), r.ChainID)
			assert.Equal(t, uint64(1), r.Epoch)
			addresses[r.ContractName] = r.Address
		}
		assert.Len(t, lo.Uniq(lo.Values(addresses)), 4, "addresses must be distinct")

		require.Len(t, result.Grants, 4)
		var referenced []string
		for _, gr := range result.Grants {
			require.NoError(t, gr.Err)
			referenced = append(referenced, gr.Grantor, gr.Grantee)
		}
		for name, addr := range addresses {
			assert.Contains(t, referenced, addr, "grants should reference %s", name)
		}

		require.Len(t, h.session.txs, 4)
		assert.Equal(t, models.DefaultNamedMethod, h.session.txs[0].Method)
		assert.Equal(t, []string{"Users", addresses["Users"]}, h.session.txs[0].Args)
		assert.Equal(t, models.DefaultRoleMethod, h.session.txs[3].Method)
		assert.Equal(t, []string{usecase.RoleID("USER_MANAGER_ROLE"), addresses["Models"]}, h.session.txs[3].Args)

		assert.Equal(t, common.HexToAddress(testDeployer).Hex(), result.Account)
		assert.Empty(t, result.FailedStep)
		assert.True(t, h.session.closed)
	})

	t.Run("proxy steps deploy implementation then proxy", func(t *testing.T) {
		h := newHarness(badgePlan())

		result, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		impl := h.session.deploys[0]
		proxy := h.session.deploys[1]
		assert.Equal(t, "Store", impl.Artifact)
		assert.Empty(t, impl.Args)
		assert.Equal(t, models.DefaultProxyArtifact, proxy.Artifact)
		assert.Equal(t, impl.Address.Hex(), proxy.Args[0])

		store := result.Steps[0]
		assert.Equal(t, proxy.Address.Hex(), store.Address)
		assert.Equal(t, impl.Address.Hex(), store.Implementation)
		require.NotNil(t, store.Record.ProxyInfo)
		assert.Equal(t, impl.Address.Hex(), store.Record.ProxyInfo.Implementation)
	})

	t.Run("references resolve to earlier deployments", func(t *testing.T) {
		h := newHarness(badgePlan())

		result, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		facade := h.session.deploys[len(h.session.deploys)-1]
		assert.Equal(t, "Facade", facade.Contract)
		assert.Equal(t, []string{result.Steps[0].Address, result.Steps[1].Address}, facade.Args)
	})

	t.Run("rerun performs no deployments", func(t *testing.T) {
		h := newHarness(badgePlan())
		uc := h.deploy()

		_, err := uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)
		first := len(h.session.deploys)
		assert.Equal(t, 4, h.ledger.grantCount())
		h.session.txs = nil

		result, err := uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		assert.Len(t, h.session.deploys, first)
		assert.Empty(t, result.Deployed)
		assert.Len(t, result.Attached(), 4)
		assert.Equal(t, 4, h.ledger.count())

		assert.Empty(t, h.session.txs, "recorded grants must not be sent again")
		require.Len(t, result.Grants, 4)
		for _, gr := range result.Grants {
			assert.True(t, gr.AlreadyGranted, gr.Grant.String())
		}
	})

	t.Run("resuming after a failed grant sends only the rest", func(t *testing.T) {
		h := newHarness(badgePlan())
		h.session.failTx["Models"] = true
		uc := h.deploy()

		result, err := uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransactionFailed)
		assert.Equal(t, "Store.addPermittedContract(Models, @Models)", result.FailedStep)
		assert.Equal(t, 1, h.ledger.grantCount())

		delete(h.session.failTx, "Models")
		h.session.txs = nil
		result, err = uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		assert.True(t, result.Grants[0].AlreadyGranted)
		require.Len(t, h.session.txs, 3)
		assert.Equal(t, "Models", h.session.txs[0].Args[0])
		assert.Equal(t, 4, h.ledger.grantCount())
	})

	t.Run("a redeployed grantee is granted again", func(t *testing.T) {
		h := newHarness(badgePlan())
		uc := h.deploy()

		_, err := uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		// a newer Facade record changes the grantee address of the third grant
		_, err = h.ledger.Append(ctx, &models.DeploymentRecord{
			ChainID:      uint64(domain.Sepolia),
			ContractName: "Facade",
			Address:      "0x0000000000000000000000000000000000000fac",
			Type:         models.SingletonDeployment,
		})
		require.NoError(t, err)
		h.session.txs = nil

		_, err = uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)
		require.Len(t, h.session.txs, 1)
		assert.Equal(t, "Facade", h.session.txs[0].Args[0])
		assert.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000fac"), common.HexToAddress(h.session.txs[0].Args[1]))
	})

	t.Run("account lock is taken before connecting", func(t *testing.T) {
		h := newHarness(badgePlan())
		locker := &busyLocker{}
		h.locker = locker

		_, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.ErrorContains(t, err, "locked by another run")

		signer, err := sepolia().SignerAddress()
		require.NoError(t, err)
		assert.Equal(t, signer, locker.account)
		h.connector.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
		assert.Zero(t, h.ledger.count())
	})

	t.Run("registry addresses are attached", func(t *testing.T) {
		h := newHarness(badgePlan())
		h.registry[domain.Sepolia] = map[string]string{"Store": "0x00000000000000000000000000000000000005e0"}

		result, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		assert.Equal(t, []string{"Users", "Models", "Facade"}, h.session.deployedContracts())
		assert.Equal(t, models.OperationAttach, result.Steps[0].Operation)
		assert.Equal(t, string(usecase.SourceRegistry), result.Steps[0].Source)
		assert.Equal(t, "0x00000000000000000000000000000000000005e0", result.Steps[0].Address)

		facade := h.session.deploys[len(h.session.deploys)-1]
		assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000005e0").Hex(), common.HexToAddress(facade.Args[0]).Hex())
	})

	t.Run("failure at step k leaves k-1 records", func(t *testing.T) {
		h := newHarness(badgePlan())
		h.session.failDeploy["Models"] = true

		result, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransactionFailed)

		var txErr *domain.TransactionFailedError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, "Models", txErr.Contract)

		assert.Equal(t, 2, h.ledger.count())
		assert.Equal(t, []string{"Store", "Users"}, h.session.deployedContracts())
		assert.Empty(t, h.session.txs, "no grant may run after a failed step")

		require.NotNil(t, result)
		assert.Equal(t, "Models", result.FailedStep)
		require.Len(t, result.Steps, 3)
		assert.Error(t, result.Steps[2].Err)
		assert.Len(t, result.Deployed, 2)
	})

	t.Run("resuming after a failure deploys only the rest", func(t *testing.T) {
		h := newHarness(badgePlan())
		h.session.failDeploy["Models"] = true
		uc := h.deploy()

		_, err := uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.Error(t, err)

		delete(h.session.failDeploy, "Models")
		h.session.deploys = nil
		result, err := uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		assert.Equal(t, []string{"Models", "Facade"}, h.session.deployedContracts())
		assert.Len(t, result.Attached(), 2)
		assert.Equal(t, 4, h.ledger.count())
	})

	t.Run("unsupported network fails before any chain call", func(t *testing.T) {
		h := newHarness(badgePlan())
		network := sepolia()
		network.ID = 424242

		result, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: network})
		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrUnsupportedNetwork)
		h.connector.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
		assert.Zero(t, h.ledger.count())
	})

	t.Run("missing signer fails before any chain call", func(t *testing.T) {
		h := newHarness(badgePlan())
		network := sepolia()
		network.PrivateKey = ""

		_, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: network})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMissingConfiguration)

		var cfgErr *domain.MissingConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Keys, "private_key ("+config.PrivateKeyEnvVar+")")
		h.connector.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
	})

	t.Run("missing artifact fails before any transaction", func(t *testing.T) {
		h := newHarness(badgePlan())
		h.artifacts.missing["Facade"] = true

		_, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		h.connector.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
	})

	t.Run("held roles are not granted again", func(t *testing.T) {
		h := newHarness(badgePlan())
		uc := h.deploy()

		_, err := uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		// grants applied outside badgectl: the ledger knows nothing, the chain does
		h.ledger.grants = nil
		rec, _ := h.ledger.Latest(ctx, uint64(domain.Sepolia), "Models")
		h.session.heldRoles[usecase.RoleID("USER_MANAGER_ROLE")+"/"+rec.Address] = true
		h.session.txs = nil

		result, err := uc.Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)
		assert.True(t, result.Grants[3].AlreadyGranted)
		assert.Len(t, h.session.txs, 3)
	})

	t.Run("verification failures do not fail the deployment", func(t *testing.T) {
		h := newHarness(badgePlan())
		h.verifier.fail["Users"] = true

		result, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia(), Verify: true})
		require.NoError(t, err)
		require.NotNil(t, result.Verification)
		assert.Equal(t, 3, result.Verification.SuccessCount)
		assert.Equal(t, 1, result.Verification.FailureCount)
	})

	t.Run("reports progress per step", func(t *testing.T) {
		h := newHarness(badgePlan())

		_, err := h.deploy().Run(ctx, usecase.DeployContractsParams{Network: sepolia()})
		require.NoError(t, err)

		assert.Equal(t, usecase.StagePlanCreated, h.progress.stages[0])
		assert.Equal(t, usecase.StageDeployFinished, h.progress.stages[len(h.progress.stages)-1])
		assert.Equal(t, 4, lo.Count(h.progress.stages, usecase.StageStepCompleted))
		assert.Equal(t, 4, lo.Count(h.progress.stages, usecase.StageGrantCompleted))
	})
}
