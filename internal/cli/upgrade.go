package cli

import (
	"github.com/spf13/cobra"
	"github.com/thebadge/badgectl/internal/cli/render"
	"github.com/thebadge/badgectl/internal/usecase"
)

// NewUpgradeCmd creates the upgrade command
func NewUpgradeCmd() *cobra.Command {
	var planFile string

	cmd := &cobra.Command{
		Use:   "upgrade [contracts...]",
		Short: "Upgrade proxies to new implementations",
		Long: `Upgrade deploys a fresh implementation for each named contract and
points its existing proxy at it. Without arguments every proxied contract
of the plan is upgraded. Every target must already have a proxy on record;
otherwise nothing is sent.

Examples:
  badgectl upgrade TheBadge --network sepolia
  badgectl upgrade -n gnosis`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			network, err := requireNetwork(cmd, app)
			if err != nil {
				return err
			}

			result, runErr := app.UpgradeContracts.Run(cmd.Context(), usecase.UpgradeContractsParams{
				Network:   network,
				PlanFile:  planFile,
				Contracts: args,
			})

			renderer := render.NewUpgradeRenderer(cmd.OutOrStdout())
			if app.Config.JSON {
				err = renderer.RenderUpgradeJSON(result)
			} else {
				err = renderer.RenderUpgradeResult(result)
			}
			if runErr != nil {
				return runErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&planFile, "plan", "", "Deployment plan (defaults to deploy/plan.yaml)")

	return cmd
}
