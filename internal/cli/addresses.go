package cli

import (
	"github.com/spf13/cobra"
	"github.com/thebadge/badgectl/internal/cli/render"
)

// NewAddressesCmd creates the addresses command
func NewAddressesCmd() *cobra.Command {
	var export bool

	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "List the known contract addresses of a network",
		Long: `Addresses lists every contract with a known address on the network,
merging the registry with the ledger. With --export the list is printed in
registry.toml format.`,
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

			resolved, err := app.ResolveAddress.ResolveAll(cmd.Context(), network.ID)
			if err != nil {
				return err
			}

			renderer := render.NewAddressesRenderer(cmd.OutOrStdout())
			switch {
			case export:
				return renderer.RenderExport(network.Network, resolved)
			case app.Config.JSON:
				return renderer.RenderAddressesJSON(network.Network, resolved)
			}
			return renderer.RenderAddresses(network.Network, resolved)
		},
	}

	cmd.Flags().BoolVar(&export, "export", false, "Print addresses in registry.toml format")

	return cmd
}
