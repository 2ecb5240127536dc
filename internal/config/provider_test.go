package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebadge/badgectl/internal/domain"
	domainconfig "github.com/thebadge/badgectl/internal/domain/config"
)

const testBadgeFile = `
network = "sepolia"

[project]
artifacts = "build/artifacts"
plan = "deploy/suite.yaml"

[networks.sepolia]
rpc_url = "${TEST_SEPOLIA_RPC}"
private_key = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
confirmations = 2

[networks.gnosis]
rpc_url = "https://rpc.gnosischain.com"

[verify]
concurrency = 2
poll_interval = "1s"

[tenderly]
account = "thebadge"
project = "contracts"
access_key = "${TEST_TENDERLY_KEY}"
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))
	}
	return dir
}

func TestProvider(t *testing.T) {
	t.Setenv("TEST_SEPOLIA_RPC", "https://sepolia.example.org")
	t.Setenv("TEST_TENDERLY_KEY", "tenderly-secret")
	t.Setenv(domainconfig.ExplorerKeyEnvVar, "etherscan-secret")

	dir := writeProject(t, testBadgeFile)
	v := SetupViper(dir, nil)

	cfg, err := Provider(v)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, ".badgectl"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "build/artifacts"), cfg.ArtifactsDir)
	assert.Equal(t, filepath.Join(dir, "deploy/suite.yaml"), cfg.PlanFile)
	assert.Equal(t, filepath.Join(dir, "registry.toml"), cfg.RegistryFile)

	require.NotNil(t, cfg.Network)
	assert.Equal(t, domain.Sepolia, cfg.Network.ID)
	assert.Equal(t, "https://sepolia.example.org", cfg.Network.RPCURL)
	assert.Equal(t, uint64(2), cfg.Network.Confirmations)
	assert.Equal(t, "etherscan-secret", cfg.Network.ExplorerAPIKey)
	assert.Equal(t, "https://api-sepolia.etherscan.io/api", cfg.Network.NetworkConfig.ExplorerAPIURL)

	assert.Equal(t, 2, cfg.Verify.Concurrency)
	assert.Equal(t, time.Second, cfg.Verify.PollInterval)
	assert.Equal(t, defaultVerifyTimeout, cfg.Verify.Timeout)

	assert.True(t, cfg.Tenderly.Enabled())
	assert.Equal(t, "tenderly-secret", cfg.Tenderly.AccessKey)
}

func TestProviderFlagOverrides(t *testing.T) {
	dir := writeProject(t, testBadgeFile)
	v := SetupViper(dir, nil)
	v.Set("network", "100")
	v.Set("plan", "other.yaml")
	v.Set("concurrency", 8)

	cfg, err := Provider(v)
	require.NoError(t, err)

	assert.Equal(t, domain.Gnosis, cfg.Network.ID)
	assert.Equal(t, "https://rpc.gnosischain.com", cfg.Network.RPCURL)
	assert.Equal(t, filepath.Join(dir, "other.yaml"), cfg.PlanFile)
	assert.Equal(t, 8, cfg.Verify.Concurrency)
}

func TestProviderUnsupportedNetwork(t *testing.T) {
	dir := writeProject(t, testBadgeFile)
	v := SetupViper(dir, nil)
	v.Set("network", "mainnet")

	_, err := Provider(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedNetwork))
}

func TestProviderWithoutConfigFile(t *testing.T) {
	t.Setenv("SEPOLIA_URL", "https://env.example.org")
	t.Setenv(domainconfig.PrivateKeyEnvVar, "0xabc")

	dir := writeProject(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hardhat.config.ts"), []byte("export default {}"), 0644))

	v := SetupViper(dir, nil)
	v.Set("network", "sepolia")

	cfg, err := Provider(v)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.Network.RPCURL)
	assert.Equal(t, "0xabc", cfg.Network.PrivateKey)
	assert.Equal(t, 4, cfg.Verify.Concurrency)
	assert.Equal(t, "https://api.tenderly.co", cfg.Tenderly.APIURL)
}

func TestProviderLoadsDotEnv(t *testing.T) {
	dir := writeProject(t, testBadgeFile)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TEST_SEPOLIA_RPC=https://dotenv.example.org\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("TEST_SEPOLIA_RPC") })

	cfg, err := Provider(SetupViper(dir, nil))
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example.org", cfg.Network.RPCURL)
}

func TestFindProjectRoot(t *testing.T) {
	dir := writeProject(t, testBadgeFile)
	nested := filepath.Join(dir, "deploy", "scripts")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	root, err := FindProjectRoot()
	require.NoError(t, err)

	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, want, got)
}
