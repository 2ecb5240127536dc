package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// EtherscanVerifier submits standard JSON input to Etherscan-compatible explorers
type EtherscanVerifier struct {
	client       *resty.Client
	pollInterval time.Duration
	timeout      time.Duration
	log          *slog.Logger
}

// NewEtherscanVerifier creates a verifier for Etherscan-compatible APIs
func NewEtherscanVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *EtherscanVerifier {
	v := &EtherscanVerifier{
		client: resty.New().
			SetTimeout(30*time.Second).
			SetRetryCount(2).
			SetHeader("Accept", "application/json"),
		pollInterval: 5 * time.Second,
		timeout:      3 * time.Minute,
		log:          log.With("component", "etherscan"),
	}
	if cfg != nil && cfg.Verify.PollInterval > 0 {
		v.pollInterval = cfg.Verify.PollInterval
	}
	if cfg != nil && cfg.Verify.Timeout > 0 {
		v.timeout = cfg.Verify.Timeout
	}
	return v
}

// etherscanResponse is the envelope of every Etherscan API answer.
// Result is a string for submissions and a list for source lookups.
type etherscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (r *etherscanResponse) text() string {
	var s string
	if err := json.Unmarshal(r.Result, &s); err == nil {
		return s
	}
	return string(r.Result)
}

type sourceCodeEntry struct {
	SourceCode   string `json:"SourceCode"`
	ContractName string `json:"ContractName"`
}

// Name implements usecase.ContractVerifier
func (v *EtherscanVerifier) Name() string {
	return "etherscan"
}

// Available implements usecase.ContractVerifier
func (v *EtherscanVerifier) Available(network *config.Network) (bool, string) {
	if network == nil {
		return false, "no network"
	}
	if network.IsLocal() {
		return false, "local network has no explorer"
	}
	if network.NetworkConfig.ExplorerAPIURL == "" {
		return false, fmt.Sprintf("no explorer API known for %s", network.Name)
	}
	if !network.HasExplorerKey() {
		return false, config.ExplorerKeyEnvVar + " is not set"
	}
	return true, ""
}

// Verify implements usecase.ContractVerifier
func (v *EtherscanVerifier) Verify(ctx context.Context, req usecase.VerificationRequest) (*usecase.VerifierOutcome, error) {
	if ok, reason := v.Available(req.Network); !ok {
		return nil, fmt.Errorf("etherscan unavailable: %s", reason)
	}
	if req.BuildInfo == nil || len(req.BuildInfo.Input) == 0 {
		return nil, fmt.Errorf("no compiler input for %s", req.Contract)
	}

	outcome := &usecase.VerifierOutcome{URL: codeURL(req.Network.Network.ExplorerURL, req.Address.Hex())}

	verified, err := v.isVerified(ctx, req.Network, req.Address.Hex())
	if err != nil {
		v.log.Debug("source lookup failed, submitting anyway", "address", req.Address.Hex(), "error", err)
	}
	if verified {
		outcome.AlreadyVerified = true
	} else {
		guid, already, err := v.submit(ctx, req)
		if err != nil {
			return nil, err
		}
		if already {
			outcome.AlreadyVerified = true
		} else if err := v.waitForResult(ctx, req.Network, guid); err != nil {
			return nil, err
		}
	}

	if req.Proxy != nil {
		// Linking the proxy page is cosmetic; the implementation is what counts
		if err := v.linkProxy(ctx, req); err != nil {
			v.log.Warn("failed to link proxy to implementation", "proxy", req.Proxy.Hex(), "error", err)
		} else {
			outcome.URL = codeURL(req.Network.Network.ExplorerURL, req.Proxy.Hex())
		}
	}
	return outcome, nil
}

func (v *EtherscanVerifier) get(ctx context.Context, network *config.Network, params map[string]string) (*etherscanResponse, error) {
	var out etherscanResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", network.ExplorerAPIKey).
		SetResult(&out).
		Get(network.NetworkConfig.ExplorerAPIURL)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("explorer returned HTTP %d", resp.StatusCode())
	}
	return &out, nil
}

func (v *EtherscanVerifier) post(ctx context.Context, network *config.Network, form map[string]string) (*etherscanResponse, error) {
	var out etherscanResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetQueryParam("apikey", network.ExplorerAPIKey).
		SetFormData(form).
		SetResult(&out).
		Post(network.NetworkConfig.ExplorerAPIURL)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("explorer returned HTTP %d", resp.StatusCode())
	}
	return &out, nil
}

func (v *EtherscanVerifier) isVerified(ctx context.Context, network *config.Network, address string) (bool, error) {
	resp, err := v.get(ctx, network, map[string]string{
		"module":  "contract",
		"action":  "getsourcecode",
		"address": address,
	})
	if err != nil {
		return false, err
	}
	if resp.Status != "1" {
		return false, fmt.Errorf("%s", resp.text())
	}
	var entries []sourceCodeEntry
	if err := json.Unmarshal(resp.Result, &entries); err != nil {
		return false, fmt.Errorf("unexpected getsourcecode result: %w", err)
	}
	return len(entries) > 0 && entries[0].SourceCode != "", nil
}

// submit returns the submission guid, or already=true when the explorer
// reports the contract as verified
func (v *EtherscanVerifier) submit(ctx context.Context, req usecase.VerificationRequest) (guid string, already bool, err error) {
	form := map[string]string{
		"module":          "contract",
		"action":          "verifysourcecode",
		"contractaddress": req.Address.Hex(),
		"sourceCode":      string(req.BuildInfo.Input),
		"codeformat":      "solidity-standard-json-input",
		"contractname":    req.Artifact.FullyQualifiedName(),
		"compilerversion": req.BuildInfo.CompilerVersion(),
	}
	if req.ConstructorArgs != "" {
		form["constructorArguements"] = req.ConstructorArgs // Etherscan's spelling
	}

	v.log.Debug("submitting source", "contract", req.Contract, "address", req.Address.Hex())
	resp, err := v.post(ctx, req.Network, form)
	if err != nil {
		return "", false, err
	}
	result := resp.text()
	if resp.Status != "1" {
		if isAlreadyVerified(result) {
			return "", true, nil
		}
		return "", false, fmt.Errorf("submission rejected: %s", result)
	}
	return result, false, nil
}

func (v *EtherscanVerifier) waitForResult(ctx context.Context, network *config.Network, guid string) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()
	for {
		resp, err := v.get(ctx, network, map[string]string{
			"module": "contract",
			"action": "checkverifystatus",
			"guid":   guid,
		})
		if err != nil {
			return err
		}
		result := resp.text()
		switch {
		case isPending(result):
			v.log.Debug("verification pending", "guid", guid)
		case resp.Status == "1", isAlreadyVerified(result):
			return nil
		default:
			return fmt.Errorf("verification failed: %s", result)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("verification %s still pending: %w", guid, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (v *EtherscanVerifier) linkProxy(ctx context.Context, req usecase.VerificationRequest) error {
	resp, err := v.post(ctx, req.Network, map[string]string{
		"module":                 "contract",
		"action":                 "verifyproxycontract",
		"address":                req.Proxy.Hex(),
		"expectedimplementation": req.Address.Hex(),
	})
	if err != nil {
		return err
	}
	if resp.Status != "1" {
		return fmt.Errorf("%s", resp.text())
	}
	return nil
}

func isPending(result string) bool {
	return strings.Contains(strings.ToLower(result), "pending")
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}

func codeURL(explorerURL, address string) string {
	if explorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s#code", strings.TrimSuffix(explorerURL, "/"), address)
}

var _ usecase.ContractVerifier = (*EtherscanVerifier)(nil)
