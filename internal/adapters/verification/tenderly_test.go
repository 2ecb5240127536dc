package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
)

func tenderlyConfig(apiURL string) *config.RuntimeConfig {
	return &config.RuntimeConfig{Tenderly: config.TenderlyConfig{
		Account:   "thebadge",
		Project:   "contracts",
		AccessKey: "secret",
		APIURL:    apiURL,
	}}
}

func TestTenderlyVerify(t *testing.T) {
	var got tenderlyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/account/thebadge/project/contracts/contracts", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Access-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	v := NewTenderlyVerifier(tenderlyConfig(srv.URL), testLog)
	req := testRequest(explorerNetwork(""))

	out, err := v.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "https://dashboard.tenderly.co/thebadge/contracts/contract/11155111/"+strings.ToLower(req.Address.Hex()), out.URL)

	require.Len(t, got.Contracts, 1)
	c := got.Contracts[0]
	assert.Equal(t, "contracts/TheBadgeStore.sol:TheBadgeStore", c.ContractToVerify)
	assert.Equal(t, "0.8.17", c.Compiler.Version)
	assert.JSONEq(t, `{"optimizer":{"enabled":true}}`, string(c.Compiler.Settings))
	assert.Equal(t, req.Address.Hex(), c.Networks["11155111"].Address)
}

func TestTenderlyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"compiler version not supported"}}`))
	}))
	defer srv.Close()

	v := NewTenderlyVerifier(tenderlyConfig(srv.URL), testLog)
	_, err := v.Verify(context.Background(), testRequest(explorerNetwork("")))
	assert.ErrorContains(t, err, "HTTP 400: compiler version not supported")
}

func TestTenderlyAvailable(t *testing.T) {
	ok, _ := NewTenderlyVerifier(tenderlyConfig(""), testLog).Available(explorerNetwork(""))
	assert.True(t, ok)

	ok, reason := NewTenderlyVerifier(&config.RuntimeConfig{}, testLog).Available(explorerNetwork(""))
	assert.False(t, ok)
	assert.Contains(t, reason, "TENDERLY_ACCESS_KEY")

	local := &config.Network{Network: domain.Network{ID: domain.Localhost, Name: "localhost"}}
	ok, _ = NewTenderlyVerifier(tenderlyConfig(""), testLog).Available(local)
	assert.False(t, ok)
}

func TestNewVerifiers(t *testing.T) {
	verifiers := NewVerifiers(&config.RuntimeConfig{}, testLog)
	require.Len(t, verifiers, 2)
	assert.Equal(t, "etherscan", verifiers[0].Name())
	assert.Equal(t, "tenderly", verifiers[1].Name())
}
