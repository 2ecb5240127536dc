package cli

import (
	"github.com/spf13/cobra"
	"github.com/thebadge/badgectl/internal/cli/render"
	"github.com/thebadge/badgectl/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List supported networks and their configuration",
		Long: `List every network badgectl can deploy to, how many TheBadge
addresses are known there, and whether an RPC endpoint, a signing key and
an explorer API key are configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListNetworks.Run(cmd.Context(), usecase.ListNetworksParams{})
			if err != nil {
				return err
			}

			renderer := render.NewNetworksRenderer(cmd.OutOrStdout())
			if app.Config.JSON {
				return renderer.RenderNetworksJSON(result)
			}
			return renderer.RenderNetworksList(result)
		},
	}

	return cmd
}
