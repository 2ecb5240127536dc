package cli

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/thebadge/badgectl/internal/app"
	"github.com/thebadge/badgectl/internal/cli/render"
	domainconfig "github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var (
		force       bool
		selectFlag  bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "verify [contracts...]",
		Short: "Verify contracts on block explorers",
		Long: `Verify submits the sources of deployed contracts to Etherscan and
Tenderly. Proxies are verified through their current implementation.
Each contract is verified independently; the command fails if any of them
could not be verified.

Examples:
  badgectl verify --network sepolia              # every contract on record
  badgectl verify TheBadge TheBadgeStore -n 100
  badgectl verify --select -n sepolia            # pick contracts interactively
  badgectl verify --force -n sepolia             # resubmit verified contracts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			network, err := requireNetwork(cmd, a)
			if err != nil {
				return err
			}

			contracts := args
			if selectFlag && len(contracts) == 0 {
				if a.Config.NonInteractive {
					return fmt.Errorf("--select needs an interactive terminal; name the contracts instead")
				}
				contracts, err = selectContracts(cmd, a, network)
				if err != nil {
					return err
				}
			}

			result, err := a.VerifyContracts.Run(cmd.Context(), usecase.VerifyContractsParams{
				Network:   network,
				Contracts: contracts,
				Force:     force,
			})
			if err != nil {
				return err
			}

			renderer := render.NewVerifyRenderer(cmd.OutOrStdout())
			if a.Config.JSON {
				err = renderer.RenderVerifyJSON(result)
			} else {
				err = renderer.RenderVerifyResult(result)
			}
			if err != nil {
				return err
			}

			if result.Err() != nil {
				return fmt.Errorf("%d of %d contracts failed verification", result.FailureCount, len(result.Results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-verify contracts already marked verified")
	cmd.Flags().BoolVar(&selectFlag, "select", false, "Choose the contracts to verify interactively")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Contracts verified in parallel (default from badgectl.toml, else 4)")

	return cmd
}

// selectContracts offers the contracts recorded in the ledger
func selectContracts(cmd *cobra.Command, a *app.App, network *domainconfig.Network) ([]string, error) {
	resolved, err := a.ResolveAddress.ResolveAll(cmd.Context(), network.ID)
	if err != nil {
		return nil, err
	}
	recorded := lo.Filter(resolved, func(r *usecase.ResolvedAddress, _ int) bool {
		return r.Source == usecase.SourceLedger
	})
	if len(recorded) == 0 {
		return nil, fmt.Errorf("no contracts deployed by badgectl on %s", network.Name)
	}

	items := lo.Map(recorded, func(r *usecase.ResolvedAddress, _ int) selectItem {
		detail := r.Address
		if r.Record != nil && r.Record.Verification.Status != "" {
			detail += "  " + string(r.Record.Verification.Status)
		}
		return selectItem{label: r.Contract, detail: detail}
	})

	chosen, err := selectMany(items, fmt.Sprintf("Contracts to verify on %s", network.Name))
	if err != nil {
		return nil, err
	}
	return lo.Map(chosen, func(i int, _ int) string { return recorded[i].Contract }), nil
}
