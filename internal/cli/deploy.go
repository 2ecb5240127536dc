package cli

import (
	"github.com/spf13/cobra"
	"github.com/thebadge/badgectl/internal/cli/render"
	"github.com/thebadge/badgectl/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		planFile string
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the contract suite from a plan",
		Long: `Deploy runs the deployment plan against one network. Contracts that
already have an address on the network are attached instead of redeployed,
so an interrupted run can simply be started again.

Examples:
  badgectl deploy --network sepolia
  badgectl deploy -n 100 --plan deploy/gnosis.yaml --verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			network, err := requireNetwork(cmd, app)
			if err != nil {
				return err
			}

			result, runErr := app.DeployContracts.Run(cmd.Context(), usecase.DeployContractsParams{
				Network:  network,
				PlanFile: planFile,
				Verify:   verify,
			})

			renderer := render.NewDeployRenderer(cmd.OutOrStdout())
			if app.Config.JSON {
				err = renderer.RenderDeployJSON(result)
			} else {
				err = renderer.RenderDeployResult(result)
			}
			if runErr != nil {
				return runErr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&planFile, "plan", "", "Deployment plan (defaults to deploy/plan.yaml)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Verify deployed contracts when the plan completes")

	return cmd
}
