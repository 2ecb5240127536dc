package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/thebadge/badgectl/internal/domain/config"
)

const (
	defaultPollInterval  = 5 * time.Second
	defaultVerifyTimeout = 3 * time.Minute
)

// BadgeFile represents the raw badgectl.toml structure
type BadgeFile struct {
	// Network used when --network is not given
	Network  string                          `toml:"network"`
	Project  ProjectSection                  `toml:"project"`
	Networks map[string]config.NetworkConfig `toml:"networks"`
	Verify   config.VerifyConfig             `toml:"verify"`
	Tenderly config.TenderlyConfig           `toml:"tenderly"`
}

// ProjectSection holds project relative paths
type ProjectSection struct {
	Artifacts string `toml:"artifacts"`
	Plan      string `toml:"plan"`
	Registry  string `toml:"registry"`
	DataDir   string `toml:"data_dir"`
}

// loadEnvFiles loads .env and .env.local so ${VAR} references can expand.
// Variables already present in the environment win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadBadgeFile reads badgectl.toml. A missing file yields an empty config
// so Hardhat projects work with environment variables alone.
func loadBadgeFile(projectRoot string) (*BadgeFile, error) {
	path := filepath.Join(projectRoot, ConfigFileName)

	var file BadgeFile
	if _, err := os.Stat(path); os.IsNotExist(err) {
		file.Networks = make(map[string]config.NetworkConfig)
		return &file, nil
	}

	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	networks := make(map[string]config.NetworkConfig, len(file.Networks))
	for name, nc := range file.Networks {
		nc.RPCURL = os.ExpandEnv(nc.RPCURL)
		nc.PrivateKey = os.ExpandEnv(nc.PrivateKey)
		nc.ExplorerAPIURL = os.ExpandEnv(nc.ExplorerAPIURL)
		nc.ExplorerAPIKey = os.ExpandEnv(nc.ExplorerAPIKey)
		networks[strings.ToLower(name)] = nc
	}
	file.Networks = networks

	file.Network = os.ExpandEnv(file.Network)
	file.Tenderly.Account = os.ExpandEnv(file.Tenderly.Account)
	file.Tenderly.Project = os.ExpandEnv(file.Tenderly.Project)
	file.Tenderly.AccessKey = os.ExpandEnv(file.Tenderly.AccessKey)

	return &file, nil
}

// applyTenderlyEnv fills unset Tenderly settings from TENDERLY_* variables
func applyTenderlyEnv(tc *config.TenderlyConfig) {
	if tc.Account == "" {
		tc.Account = os.Getenv("TENDERLY_ACCOUNT")
	}
	if tc.Project == "" {
		tc.Project = os.Getenv("TENDERLY_PROJECT")
	}
	if tc.AccessKey == "" {
		tc.AccessKey = os.Getenv("TENDERLY_ACCESS_KEY")
	}
	if tc.APIURL == "" {
		tc.APIURL = "https://api.tenderly.co"
	}
}
