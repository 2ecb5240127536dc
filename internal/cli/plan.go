package cli

import (
	"github.com/spf13/cobra"
	"github.com/thebadge/badgectl/internal/cli/render"
	"github.com/thebadge/badgectl/internal/usecase"
)

// NewPlanCmd creates the plan command
func NewPlanCmd() *cobra.Command {
	var planFile string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what deploy would do, without sending anything",
		Long: `Plan orders the deployment plan and resolves every contract against
the ledger and the address registry of the network, printing whether each
step would be deployed or attached. No RPC endpoint or key is needed.`,
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

			exec, err := app.PlanDeployment.Run(cmd.Context(), usecase.PlanDeploymentParams{
				Network:  network.ID,
				PlanFile: planFile,
			})
			if err != nil {
				return err
			}

			renderer := render.NewPlanRenderer(cmd.OutOrStdout())
			if app.Config.JSON {
				return renderer.RenderPlanJSON(exec)
			}
			return renderer.RenderPlan(exec)
		},
	}

	cmd.Flags().StringVar(&planFile, "plan", "", "Deployment plan (defaults to deploy/plan.yaml)")

	return cmd
}
