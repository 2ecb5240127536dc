package interactive

import (
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
)

func TestSelectNetworkNonInteractive(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
	_, err := s.SelectNetwork(context.Background(), domain.SupportedNetworks())
	assert.ErrorContains(t, err, "--network")
}

func TestSelectNetworkSingle(t *testing.T) {
	sepolia, err := domain.NetworkByID(domain.Sepolia)
	require.NoError(t, err)

	got, err := NewSelectorAdapter(&config.RuntimeConfig{}).SelectNetwork(context.Background(), []domain.Network{sepolia})
	require.NoError(t, err)
	assert.Equal(t, sepolia, got)
}

func TestFuzzySearcher(t *testing.T) {
	color.NoColor = true
	options := formatNetworkOptions([]domain.Network{
		{ID: domain.Sepolia, Name: "sepolia", Testnet: true},
		{ID: domain.Gnosis, Name: "gnosis"},
	})
	assert.Equal(t, []string{"sepolia (11155111) testnet", "gnosis (100)"}, options)

	search := fuzzySearcher(options)
	assert.True(t, search("", 1))
	assert.True(t, search("SEP", 0))
	assert.True(t, search("gns", 1))
	assert.False(t, search("polygon", 1))
}
