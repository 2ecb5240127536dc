package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thebadge/badgectl/internal/adapters/progress"
	"github.com/thebadge/badgectl/internal/app"
	"github.com/thebadge/badgectl/internal/cli/render"
	"github.com/thebadge/badgectl/internal/config"
	"github.com/thebadge/badgectl/internal/domain"
	domainconfig "github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// initApp builds the application for a command; replaced in tests
var initApp = app.InitApp

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var cancel context.CancelFunc

	rootCmd := &cobra.Command{
		Use:   "badgectl",
		Short: "Deploy, upgrade and verify TheBadge contracts across networks",
		Long: `badgectl deploys the TheBadge contract suite from a declarative plan,
reusing contracts already deployed on the target network, upgrades proxies
in place and submits sources to block explorers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsApp(cmd) {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)
			bindGlobalFlags(v, cmd)

			appInstance, err := initApp(v, newProgressSink(cmd, v))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			if appInstance.Config.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}
			cmd.SetContext(ctx)

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cancel != nil {
				cancel()
			}
			if a, err := getApp(cmd); err == nil {
				a.Close()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Print machine readable output")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network name or chain id (e.g. sepolia, 100)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort the command after this long (e.g. 45m)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, c := range []*cobra.Command{NewDeployCmd(), NewUpgradeCmd(), NewVerifyCmd(), NewPlanCmd()} {
		c.GroupID = "main"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{NewResolveCmd(), NewAddressesCmd(), NewNetworksCmd()} {
		c.GroupID = "management"
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, render.FormatError(err))
		return 1
	}
	return 0
}

func skipsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "__complete":
		return true
	}
	return false
}

// bindGlobalFlags copies changed global flags into viper so they beat
// BADGECTL_* environment variables
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	for _, name := range []string{"debug", "non-interactive", "json", "network", "timeout"} {
		if f := cmd.Flag(name); f != nil && f.Changed {
			v.Set(viperKey(name), f.Value.String())
		}
	}
	if os.Getenv("CI") == "true" {
		v.Set("non_interactive", true)
	}
}

func viperKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// newProgressSink picks the step reporter. JSON output stays clean of
// progress lines; the spinner only animates on a terminal.
func newProgressSink(cmd *cobra.Command, v *viper.Viper) usecase.ProgressSink {
	if v.GetBool("json") {
		return progress.NewNopSink()
	}
	interactive := !v.GetBool("non_interactive") && isatty.IsTerminal(os.Stdout.Fd())
	return progress.NewReporter(cmd.OutOrStdout(), interactive)
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	if cmd.Context() == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return a, nil
}

// requireNetwork returns the configured network, asking for one when the
// session is interactive
func requireNetwork(cmd *cobra.Command, a *app.App) (*domainconfig.Network, error) {
	if a.Config.Network != nil {
		return a.Config.Network, nil
	}
	if a.Config.NonInteractive {
		return nil, &domain.MissingConfigurationError{Keys: []string{"network (--network or BADGECTL_NETWORK)"}}
	}

	picked, err := a.Selector.SelectNetwork(cmd.Context(), domain.SupportedNetworks())
	if err != nil {
		return nil, err
	}
	network, err := config.ResolveNetwork(a.Config, picked.Name)
	if err != nil {
		return nil, err
	}
	a.Config.Network = network
	return network, nil
}
