package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/thebadge/badgectl/internal/domain/config"
)

const (
	// ConfigFileName is the project configuration file looked up from the working directory
	ConfigFileName = "badgectl.toml"

	defaultDataDir      = ".badgectl"
	defaultArtifactsDir = "artifacts"
	defaultPlanFile     = "deploy/plan.yaml"
	defaultRegistryFile = "registry.toml"
)

// projectMarkers identify a project root, in order of preference
var projectMarkers = []string{ConfigFileName, "hardhat.config.ts", "hardhat.config.js"}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	loadEnvFiles(projectRoot)

	file, err := loadBadgeFile(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        projectPath(projectRoot, file.Project.DataDir, defaultDataDir),
		ArtifactsDir:   projectPath(projectRoot, file.Project.Artifacts, defaultArtifactsDir),
		PlanFile:       projectPath(projectRoot, firstNonEmpty(v.GetString("plan"), file.Project.Plan), defaultPlanFile),
		RegistryFile:   projectPath(projectRoot, file.Project.Registry, defaultRegistryFile),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		Networks:       file.Networks,
		Verify:         file.Verify,
		Tenderly:       file.Tenderly,
	}

	applyVerifyDefaults(&cfg.Verify)
	if c := v.GetInt("concurrency"); c > 0 {
		cfg.Verify.Concurrency = c
	}
	applyTenderlyEnv(&cfg.Tenderly)

	if networkName := firstNonEmpty(v.GetString("network"), file.Network); networkName != "" {
		network, err := ResolveNetwork(cfg, networkName)
		if err != nil {
			return nil, err
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find badgectl.toml or a Hardhat config
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a TheBadge project (%s not found)", strings.Join(projectMarkers, ", "))
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("BADGECTL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "30m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("json", false)
	v.SetDefault("project_root", projectRoot)

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

func applyVerifyDefaults(vc *config.VerifyConfig) {
	if vc.Concurrency <= 0 {
		vc.Concurrency = 4
	}
	if vc.PollInterval <= 0 {
		vc.PollInterval = defaultPollInterval
	}
	if vc.Timeout <= 0 {
		vc.Timeout = defaultVerifyTimeout
	}
}

func projectPath(projectRoot, value, fallback string) string {
	p := firstNonEmpty(value, fallback)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectRoot, p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
