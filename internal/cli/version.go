package cli

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thebadge/badgectl/internal/adapters/repository/deployments"
	"github.com/thebadge/badgectl/internal/domain"
)

// Version is set during build time
var Version = "dev"

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the badgectl version, ledger location and supported networks",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "badgectl version %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "ledger: %s\n", filepath.Join(deployments.DataDir, deployments.DeploymentsFile))

			var names []string
			for _, n := range domain.SupportedNetworks() {
				names = append(names, fmt.Sprintf("%s(%d)", n.Name, uint64(n.ID)))
			}
			fmt.Fprintf(out, "networks: %s\n", strings.Join(names, ", "))
		},
	}
}
