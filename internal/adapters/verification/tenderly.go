package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

const (
	defaultTenderlyAPI       = "https://api.tenderly.co"
	defaultTenderlyDashboard = "https://dashboard.tenderly.co"
)

// TenderlyVerifier pushes sources to a Tenderly project
type TenderlyVerifier struct {
	client  *resty.Client
	account string
	project string
	enabled bool
	log     *slog.Logger
}

// NewTenderlyVerifier creates a Tenderly verifier. It reports itself
// unavailable when the project is not configured.
func NewTenderlyVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *TenderlyVerifier {
	tc := cfg.Tenderly
	apiURL := tc.APIURL
	if apiURL == "" {
		apiURL = defaultTenderlyAPI
	}
	return &TenderlyVerifier{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(apiURL, "/")).
			SetTimeout(60*time.Second).
			SetHeader("X-Access-Key", tc.AccessKey).
			SetHeader("Content-Type", "application/json"),
		account: tc.Account,
		project: tc.Project,
		enabled: tc.Enabled(),
		log:     log.With("component", "tenderly"),
	}
}

// tenderlyRequest is the body of the project verification endpoint
type tenderlyRequest struct {
	Contracts []tenderlyContract `json:"contracts"`
}

type tenderlyContract struct {
	ContractToVerify string                     `json:"contractToVerify"`
	Sources          json.RawMessage            `json:"sources"`
	Compiler         tenderlyCompiler           `json:"compiler"`
	Networks         map[string]tenderlyAddress `json:"networks"`
}

type tenderlyCompiler struct {
	Version  string          `json:"version"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

type tenderlyAddress struct {
	Address string `json:"address"`
}

// standardInput is the part of the solc input Tenderly needs
type standardInput struct {
	Sources  json.RawMessage `json:"sources"`
	Settings json.RawMessage `json:"settings"`
}

type tenderlyError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Name implements usecase.ContractVerifier
func (v *TenderlyVerifier) Name() string {
	return "tenderly"
}

// Available implements usecase.ContractVerifier
func (v *TenderlyVerifier) Available(network *config.Network) (bool, string) {
	if network != nil && network.IsLocal() {
		return false, "local network"
	}
	if !v.enabled {
		return false, "Tenderly is not configured (TENDERLY_ACCOUNT, TENDERLY_PROJECT, TENDERLY_ACCESS_KEY)"
	}
	return true, ""
}

// Verify implements usecase.ContractVerifier
func (v *TenderlyVerifier) Verify(ctx context.Context, req usecase.VerificationRequest) (*usecase.VerifierOutcome, error) {
	if ok, reason := v.Available(req.Network); !ok {
		return nil, fmt.Errorf("tenderly unavailable: %s", reason)
	}
	if req.BuildInfo == nil || len(req.BuildInfo.Input) == 0 {
		return nil, fmt.Errorf("no compiler input for %s", req.Contract)
	}

	var input standardInput
	if err := json.Unmarshal(req.BuildInfo.Input, &input); err != nil {
		return nil, fmt.Errorf("invalid compiler input: %w", err)
	}

	chainID := strconv.FormatUint(uint64(req.Network.ID), 10)
	body := tenderlyRequest{Contracts: []tenderlyContract{{
		ContractToVerify: req.Artifact.FullyQualifiedName(),
		Sources:          input.Sources,
		Compiler: tenderlyCompiler{
			Version:  strings.TrimPrefix(req.BuildInfo.SolcVersion, "v"),
			Settings: input.Settings,
		},
		Networks: map[string]tenderlyAddress{chainID: {Address: req.Address.Hex()}},
	}}}

	v.log.Debug("submitting source", "contract", req.Contract, "address", req.Address.Hex())

	var apiErr tenderlyError
	resp, err := v.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"account": v.account, "project": v.project}).
		SetBody(body).
		SetError(&apiErr).
		Post("/api/v1/account/{account}/project/{project}/contracts")
	if err != nil {
		return nil, fmt.Errorf("tenderly request failed: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return nil, fmt.Errorf("tenderly returned HTTP %d: %s", resp.StatusCode(), msg)
	}

	return &usecase.VerifierOutcome{
		URL: fmt.Sprintf("%s/%s/%s/contract/%s/%s", defaultTenderlyDashboard, v.account, v.project, chainID, strings.ToLower(req.Address.Hex())),
	}, nil
}

var _ usecase.ContractVerifier = (*TenderlyVerifier)(nil)
