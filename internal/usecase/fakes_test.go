package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

const testDeployer = "0x00000000000000000000000000000000000000d1"

// sepolia returns a network with everything needed to send transactions
func sepolia() *config.Network {
	n, _ := domain.NetworkByID(domain.Sepolia)
	return &config.Network{
		Network: n,
		NetworkConfig: config.NetworkConfig{
			RPCURL:         "http://sepolia.test",
			PrivateKey:     "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
			ExplorerAPIKey: "key",
		},
	}
}

// memLedger is an in-memory AddressLedger
type memLedger struct {
	mu        sync.Mutex
	records   []*models.DeploymentRecord
	grants    map[string]*models.GrantRecord
	appendErr error
}

func (l *memLedger) Append(_ context.Context, r *models.DeploymentRecord) (*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return nil, l.appendErr
	}
	var epoch uint64
	for _, existing := range l.records {
		if existing.ChainID == r.ChainID && existing.ContractName == r.ContractName && existing.Epoch > epoch {
			epoch = existing.Epoch
		}
	}
	saved := *r
	saved.Epoch = epoch + 1
	saved.ID = models.RecordID(saved.ChainID, saved.ContractName, saved.Epoch)
	l.records = append(l.records, &saved)
	return &saved, nil
}

func (l *memLedger) Latest(ctx context.Context, chainID uint64, contract string) (*models.DeploymentRecord, error) {
	history, _ := l.History(ctx, chainID, contract)
	if len(history) == 0 {
		return nil, domain.ErrNotFound
	}
	return history[len(history)-1], nil
}

func (l *memLedger) History(_ context.Context, chainID uint64, contract string) ([]*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.DeploymentRecord
	for _, r := range l.records {
		if r.ChainID == chainID && r.ContractName == contract {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *memLedger) ListLatest(ctx context.Context, chainID uint64) ([]*models.DeploymentRecord, error) {
	l.mu.Lock()
	names := map[string]bool{}
	for _, r := range l.records {
		if r.ChainID == chainID {
			names[r.ContractName] = true
		}
	}
	l.mu.Unlock()

	var out []*models.DeploymentRecord
	for name := range names {
		r, _ := l.Latest(ctx, chainID, name)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContractName < out[j].ContractName })
	return out, nil
}

func (l *memLedger) UpdateVerification(_ context.Context, id string, info models.VerificationInfo) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.ID == id {
			r.Verification = info
			return nil
		}
	}
	return domain.ErrNotFound
}

func (l *memLedger) GrantApplied(_ context.Context, chainID uint64, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.grants[models.GrantRecordID(chainID, key)]
	return ok, nil
}

func (l *memLedger) RecordGrant(_ context.Context, g *models.GrantRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return l.appendErr
	}
	if l.grants == nil {
		l.grants = map[string]*models.GrantRecord{}
	}
	l.grants[models.GrantRecordID(g.ChainID, g.Key)] = g
	return nil
}

func (l *memLedger) grantCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.grants)
}

func (l *memLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// staticRegistry is a fixed AddressRegistry
type staticRegistry domain.AddressTable

func (r staticRegistry) KnownAddress(network domain.NetworkID, contract string) (string, bool) {
	return domain.AddressTable(r).Lookup(network, contract)
}

func (r staticRegistry) Addresses(network domain.NetworkID) map[string]string {
	return r[network]
}

// staticPlan returns the same plan for any path
type staticPlan struct {
	plan *models.DeploymentPlan
}

func (p staticPlan) LoadPlan(context.Context, string) (*models.DeploymentPlan, error) {
	return p.plan, nil
}

// memArtifacts serves an artifact for any name not listed as missing
type memArtifacts struct {
	missing map[string]bool
}

func (a memArtifacts) GetArtifact(_ context.Context, name string) (*models.Artifact, error) {
	if a.missing[name] {
		return nil, fmt.Errorf("artifact %s: %w", name, domain.ErrNotFound)
	}
	return &models.Artifact{
		ContractName: name,
		SourceName:   "contracts/" + name + ".sol",
		Bytecode:     "0x6080",
	}, nil
}

func (a memArtifacts) GetBuildInfo(_ context.Context, artifact *models.Artifact) (*models.BuildInfo, error) {
	return &models.BuildInfo{ID: "b1", SolcVersion: "0.8.17", SolcLongVersion: "0.8.17+commit.8df45f5f"}, nil
}

// MockConnector is a testify mock of ChainConnector
type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context, network *config.Network) (usecase.ChainSession, error) {
	args := m.Called(ctx, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(usecase.ChainSession), args.Error(1)
}

// deployCall captures one creation transaction
type deployCall struct {
	Contract string
	Artifact string
	Args     []string
	Address  common.Address
}

// fakeSession simulates a chain: each creation gets the next address
type fakeSession struct {
	mu         sync.Mutex
	next       int64
	deploys    []deployCall
	txs        []usecase.ContractCall
	upgrades   [][2]common.Address
	failDeploy map[string]bool
	failTx     map[string]bool
	heldRoles  map[string]bool
	impls      map[common.Address]common.Address
	closed     bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		next:       0x100,
		failDeploy: map[string]bool{},
		failTx:     map[string]bool{},
		heldRoles:  map[string]bool{},
		impls:      map[common.Address]common.Address{},
	}
}

func (s *fakeSession) Account() common.Address {
	return common.HexToAddress(testDeployer)
}

func (s *fakeSession) Deploy(_ context.Context, contract string, artifact *models.Artifact, args []string) (*usecase.TxOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDeploy[contract] {
		return &usecase.TxOutcome{TxHash: "0xfa11"}, errors.New("execution reverted")
	}
	s.next++
	addr := common.BigToAddress(big.NewInt(s.next))
	s.deploys = append(s.deploys, deployCall{Contract: contract, Artifact: artifact.ContractName, Args: args, Address: addr})
	if artifact.ContractName == models.DefaultProxyArtifact && len(args) > 0 {
		s.impls[addr] = common.HexToAddress(args[0])
	}
	return &usecase.TxOutcome{
		TxHash:          fmt.Sprintf("0x%064x", s.next),
		BlockNumber:     uint64(s.next),
		ContractAddress: addr,
	}, nil
}

func (s *fakeSession) Transact(_ context.Context, call usecase.ContractCall) (*usecase.TxOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(call.Args) > 0 && s.failTx[call.Args[0]] {
		return &usecase.TxOutcome{TxHash: "0xfa12"}, errors.New("execution reverted")
	}
	s.txs = append(s.txs, call)
	return &usecase.TxOutcome{TxHash: fmt.Sprintf("0x%064x", len(s.txs))}, nil
}

func (s *fakeSession) Call(_ context.Context, call usecase.ContractCall) ([]any, error) {
	if call.Method != models.RoleCheckMethodName || len(call.Args) != 2 {
		return nil, errors.New("unexpected call")
	}
	return []any{s.heldRoles[call.Args[0]+"/"+call.Args[1]]}, nil
}

func (s *fakeSession) EncodeCall(_ *models.Artifact, method string, args []string) ([]byte, error) {
	return []byte(method), nil
}

func (s *fakeSession) ImplementationAddress(_ context.Context, proxy common.Address) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.impls[proxy], nil
}

func (s *fakeSession) AdminAddress(context.Context, common.Address) (common.Address, error) {
	return common.Address{}, nil
}

func (s *fakeSession) UpgradeProxy(_ context.Context, proxy, impl common.Address) (*usecase.TxOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upgrades = append(s.upgrades, [2]common.Address{proxy, impl})
	s.impls[proxy] = impl
	return &usecase.TxOutcome{TxHash: "0xab", BlockNumber: 99}, nil
}

func (s *fakeSession) Close() { s.closed = true }

// deployedContracts lists contract names in creation order, proxies once
func (s *fakeSession) deployedContracts() []string {
	var names []string
	for _, d := range s.deploys {
		if len(names) > 0 && names[len(names)-1] == d.Contract {
			continue
		}
		names = append(names, d.Contract)
	}
	return names
}

// nopLocker always grants the lock
type nopLocker struct{}

func (nopLocker) Lock(context.Context, domain.NetworkID, common.Address) (func() error, error) {
	return func() error { return nil }, nil
}

// busyLocker refuses every lock, as if another run held the account
type busyLocker struct {
	mu      sync.Mutex
	account common.Address
}

func (l *busyLocker) Lock(_ context.Context, _ domain.NetworkID, account common.Address) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.account = account
	return nil, fmt.Errorf("account %s is locked by another run", account.Hex())
}

// fakeVerifier fails for the listed contracts
type fakeVerifier struct {
	name      string
	available bool
	fail      map[string]bool
	mu        sync.Mutex
	seen      []usecase.VerificationRequest
}

func (v *fakeVerifier) Name() string { return v.name }

func (v *fakeVerifier) Available(*config.Network) (bool, string) {
	if !v.available {
		return false, "no api key"
	}
	return true, ""
}

func (v *fakeVerifier) Verify(_ context.Context, req usecase.VerificationRequest) (*usecase.VerifierOutcome, error) {
	v.mu.Lock()
	v.seen = append(v.seen, req)
	v.mu.Unlock()
	if v.fail[req.Contract] {
		return nil, errors.New("bytecode does not match")
	}
	return &usecase.VerifierOutcome{URL: "https://explorer.test/address/" + req.Address.Hex()}, nil
}

// recordingProgress captures stages
type recordingProgress struct {
	mu     sync.Mutex
	stages []string
}

func (p *recordingProgress) OnProgress(_ context.Context, e usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, e.Stage)
}
func (p *recordingProgress) Info(string)  {}
func (p *recordingProgress) Error(string) {}

// badgePlan is the four contract plan used across tests
func badgePlan() *models.DeploymentPlan {
	return &models.DeploymentPlan{
		Name: "thebadge",
		Steps: []models.PlanStep{
			{Contract: "Facade", Kind: models.StepKindFacade, Artifact: "Facade", Deps: []string{"Store", "Users"}, Args: []string{"@Store", "@Users"}, Index: 0},
			{Contract: "Models", Artifact: "Models", Proxy: true, Deps: []string{"Store", "Users"}, Args: []string{"@deployer", "@Store", "@Users"}, Index: 1},
			{Contract: "Users", Artifact: "Users", Proxy: true, Deps: []string{"Store"}, Args: []string{"@deployer", "@Store"}, Index: 2},
			{Contract: "Store", Kind: models.StepKindStore, Artifact: "Store", Proxy: true, Args: []string{"@deployer"}, Index: 3},
		},
		Grants: []models.PermissionGrant{
			{Contract: "Store", Kind: models.GrantKindNamed, Role: "Users", Grantee: "@Users"},
			{Contract: "Store", Kind: models.GrantKindNamed, Role: "Models", Grantee: "@Models"},
			{Contract: "Store", Kind: models.GrantKindNamed, Role: "Facade", Grantee: "@Facade"},
			{Contract: "Users", Kind: models.GrantKindRole, Role: "USER_MANAGER_ROLE", Grantee: "@Models"},
		},
	}
}

type harness struct {
	ledger    *memLedger
	registry  staticRegistry
	session   *fakeSession
	connector *MockConnector
	verifier  *fakeVerifier
	progress  *recordingProgress
	artifacts memArtifacts
	locker    usecase.AccountLocker
	plan      *models.DeploymentPlan
}

func newHarness(plan *models.DeploymentPlan) *harness {
	h := &harness{
		ledger:    &memLedger{},
		registry:  staticRegistry{},
		session:   newFakeSession(),
		connector: &MockConnector{},
		verifier:  &fakeVerifier{name: "etherscan", available: true, fail: map[string]bool{}},
		progress:  &recordingProgress{},
		artifacts: memArtifacts{missing: map[string]bool{}},
		locker:    nopLocker{},
		plan:      plan,
	}
	h.connector.On("Connect", mock.Anything, mock.Anything).Return(h.session, nil)
	return h
}

func (h *harness) resolver() *usecase.ResolveAddress {
	return usecase.NewResolveAddress(h.ledger, h.registry, testLog)
}

func (h *harness) verify() *usecase.VerifyContracts {
	return usecase.NewVerifyContracts(h.resolver(), h.ledger, h.artifacts, nil, []usecase.ContractVerifier{h.verifier}, &config.RuntimeConfig{Verify: config.VerifyConfig{Concurrency: 2}}, nil, testLog)
}

func (h *harness) deploy() *usecase.DeployContracts {
	planner := usecase.NewPlanDeployment(staticPlan{h.plan}, h.resolver(), testLog)
	return usecase.NewDeployContracts(planner, h.artifacts, h.ledger, h.connector, h.locker, h.verify(), h.progress, testLog)
}

func (h *harness) upgrade() *usecase.UpgradeContracts {
	return usecase.NewUpgradeContracts(staticPlan{h.plan}, h.resolver(), h.artifacts, h.ledger, h.connector, h.locker, h.progress, testLog)
}
