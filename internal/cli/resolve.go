package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thebadge/badgectl/internal/cli/render"
	"github.com/thebadge/badgectl/internal/domain"
)

// NewResolveCmd creates the resolve command
func NewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <contract>",
		Short: "Print the current address of a contract",
		Long: `Resolve prints the address a contract has on the network: the latest
ledger record if badgectl deployed it, otherwise the registry entry.
It exits non-zero when the contract is not deployed there.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			network, err := requireNetwork(cmd, app)
			if err != nil {
				return err
			}

			resolved, err := app.ResolveAddress.Resolve(cmd.Context(), network.ID, args[0])
			if err != nil {
				if errors.Is(err, domain.ErrNotDeployed) {
					return fmt.Errorf("%s is not deployed on %s", args[0], network.Name)
				}
				return err
			}

			if app.Config.JSON {
				return render.WriteJSON(cmd.OutOrStdout(), map[string]any{
					"network":  network.Name,
					"chainId":  uint64(network.ID),
					"contract": resolved.Contract,
					"address":  resolved.Address,
					"source":   resolved.Source,
					"epoch":    resolved.Epoch,
				})
			}
			return render.NewAddressesRenderer(cmd.OutOrStdout()).RenderResolved(resolved)
		},
	}

	return cmd
}
