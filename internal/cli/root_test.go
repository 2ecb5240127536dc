package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebadge/badgectl/internal/domain"
)

const (
	storeAddress   = "0x00000000000000000000000000000000000000a1"
	arbitorAddress = "0x00000000000000000000000000000000000000a2"
)

const testPlan = `name: thebadge
contracts:
  - name: TheBadgeStore
    kind: store
    proxy: true
    args: ["@deployer"]
  - name: TheBadge
    proxy: true
    args: ["@deployer", "@TheBadgeStore"]
grants:
  - contract: TheBadgeStore
    kind: named
    role: TheBadge
    grantee: "@TheBadge"
`

func init() {
	color.NoColor = true
}

// newProject creates a project directory and isolates the test from the
// caller's environment
func newProject(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"WALLET_PRIVATE_KEY", "ETHERSCAN_API_KEY", "SEPOLIA_URL", "GNOSIS_URL",
		"BADGECTL_NETWORK", "BADGECTL_JSON", "BADGECTL_NON_INTERACTIVE", "CI",
		"TENDERLY_ACCOUNT", "TENDERLY_PROJECT", "TENDERLY_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	files := map[string]string{
		"badgectl.toml":    "[project]\nplan = \"deploy/plan.yaml\"\n",
		"deploy/plan.yaml": testPlan,
		"registry.toml": "[sepolia]\n" +
			"TheBadge = \"\"\n" +
			"TheBadgeStore = \"" + storeAddress + "\"\n" +
			"KlerosArbitror = \"" + arbitorAddress + "\"\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	dir := newProject(t)

	out, err := runCLI(t, dir, "plan", "--network", "sepolia")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan thebadge on sepolia (chain 11155111)")
	assert.Contains(t, out, storeAddress)
	assert.Contains(t, out, "(registry)")
	assert.Contains(t, out, "TheBadgeStore.addPermittedContract(TheBadge, @TheBadge)")
	assert.Contains(t, out, "1 to deploy, 1 to attach. Nothing was sent.")
}

func TestPlanCommandJSON(t *testing.T) {
	dir := newProject(t)

	out, err := runCLI(t, dir, "plan", "-n", "11155111", "--json")
	require.NoError(t, err)

	var got struct {
		Network    string `json:"network"`
		Operations []struct {
			Contract  string `json:"contract"`
			Operation string `json:"operation"`
			Address   string `json:"address"`
		} `json:"operations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sepolia", got.Network)
	require.Len(t, got.Operations, 2)
	assert.Equal(t, "TheBadgeStore", got.Operations[0].Contract)
	assert.Equal(t, "attach", got.Operations[0].Operation)
	assert.Equal(t, storeAddress, got.Operations[0].Address)
	assert.Equal(t, "deploy", got.Operations[1].Operation)
}

func TestResolveCommand(t *testing.T) {
	dir := newProject(t)

	out, err := runCLI(t, dir, "resolve", "KlerosArbitror", "-n", "sepolia")
	require.NoError(t, err)
	assert.Equal(t, arbitorAddress+"  (registry)\n", out)

	_, err = runCLI(t, dir, "resolve", "TheBadge", "-n", "sepolia")
	assert.EqualError(t, err, "TheBadge is not deployed on sepolia")
}

func TestAddressesExport(t *testing.T) {
	dir := newProject(t)

	out, err := runCLI(t, dir, "addresses", "--export", "-n", "sepolia")
	require.NoError(t, err)
	assert.Contains(t, out, "[sepolia]")
	assert.Contains(t, out, `TheBadgeStore = "`+storeAddress+`"`)
	assert.NotContains(t, out, "TheBadge =")
}

func TestNetworksCommandJSON(t *testing.T) {
	dir := newProject(t)
	t.Setenv("SEPOLIA_URL", "http://sepolia.invalid")

	out, err := runCLI(t, dir, "networks", "--json")
	require.NoError(t, err)

	var got []struct {
		Name    string `json:"name"`
		ChainID uint64 `json:"chainId"`
		Known   int    `json:"knownAddresses"`
		RPC     bool   `json:"rpc"`
		Signer  bool   `json:"signer"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, len(domain.SupportedNetworks()))

	for _, n := range got {
		if n.Name == "sepolia" {
			assert.Equal(t, uint64(11155111), n.ChainID)
			assert.True(t, n.RPC)
			assert.False(t, n.Signer)
			assert.GreaterOrEqual(t, n.Known, 2)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{
			name: "no network in non-interactive mode",
			args: []string{"plan", "--non-interactive"},
			is:   domain.ErrMissingConfiguration,
		},
		{
			name: "unsupported network",
			args: []string{"plan", "-n", "mainnet"},
			is:   domain.ErrUnsupportedNetwork,
		},
		{
			name: "deploy without a signer",
			args: []string{"deploy", "-n", "sepolia", "--non-interactive"},
			is:   domain.ErrMissingConfiguration,
		},
		{
			name: "upgrade without a signer",
			args: []string{"upgrade", "TheBadge", "-n", "sepolia", "--non-interactive"},
			is:   domain.ErrMissingConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newProject(t)
			_, err := runCLI(t, dir, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestVerifyLocalNetworkIsSkipped(t *testing.T) {
	dir := newProject(t)

	out, err := runCLI(t, dir, "verify", "-n", "localhost")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing verified on localhost: local chain")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "badgectl version dev")
	assert.Contains(t, out, "ledger: "+filepath.Join(".badgectl", "deployments.json"))
	assert.Contains(t, out, "sepolia(11155111)")
	assert.Contains(t, out, "gnosis(100)")
}

func TestMultiSelectModel(t *testing.T) {
	items := []selectItem{{label: "TheBadge"}, {label: "TheBadgeStore"}, {label: "TheBadgeModels"}}
	var m tea.Model = initialMultiSelectModel(items, "pick")

	press := func(msg tea.KeyMsg) {
		m, _ = m.Update(msg)
	}

	press(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.(multiSelectModel).done, "enter needs a selection")

	press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" ")})
	press(tea.KeyMsg{Type: tea.KeyDown})
	press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" ")})
	press(tea.KeyMsg{Type: tea.KeyEnter})

	final := m.(multiSelectModel)
	assert.True(t, final.done)
	assert.Equal(t, []int{1, 2}, final.chosen())
	assert.Empty(t, final.View())

	m = initialMultiSelectModel(items, "pick")
	press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Equal(t, []int{0, 1, 2}, m.(multiSelectModel).chosen())
	press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, m.(multiSelectModel).cancelled)
}
