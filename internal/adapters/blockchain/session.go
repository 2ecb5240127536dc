package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	abiadapter "github.com/thebadge/badgectl/internal/adapters/abi"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

// Client is the part of ethclient.Client a session needs
type Client interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// SessionOptions tune how transactions are sent and awaited
type SessionOptions struct {
	// Confirmations to wait for after inclusion; 0 and 1 both mean inclusion
	Confirmations uint64
	// GasPrice forces legacy transactions at a fixed price when set
	GasPrice *big.Int
	// Timeout bounds the wait for each transaction
	Timeout      time.Duration
	PollInterval time.Duration
}

// Connector dials networks and opens signing sessions
type Connector struct {
	cfg    *config.RuntimeConfig
	parser *abiadapter.Parser
	log    *slog.Logger
}

// NewConnector creates a new chain connector
func NewConnector(cfg *config.RuntimeConfig, parser *abiadapter.Parser, log *slog.Logger) *Connector {
	return &Connector{cfg: cfg, parser: parser, log: log.With("component", "chain")}
}

// Connect implements usecase.ChainConnector
func (c *Connector) Connect(ctx context.Context, network *config.Network) (usecase.ChainSession, error) {
	key, err := network.SignerKey()
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID.Uint64() != uint64(network.ID) {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: %s expects %d, RPC reports %d", network.Name, network.ID, chainID.Uint64())
	}

	opts := SessionOptions{Confirmations: network.Confirmations}
	if c.cfg != nil {
		opts.Timeout = c.cfg.Timeout
	}
	if network.GasPriceGwei > 0 {
		opts.GasPrice = new(big.Int).Mul(new(big.Int).SetUint64(network.GasPriceGwei), big.NewInt(1e9))
	}

	session, err := NewSession(client, key, chainID, c.parser, opts, c.log.With("network", network.Name))
	if err != nil {
		client.Close()
		return nil, err
	}
	session.closer = client.Close
	return session, nil
}

// Session signs with one key and waits for every transaction it sends
type Session struct {
	client  Client
	parser  *abiadapter.Parser
	auth    *bind.TransactOpts
	account common.Address
	opts    SessionOptions
	log     *slog.Logger
	closer  func()
}

// NewSession creates a session over an established client
func NewSession(client Client, key *ecdsa.PrivateKey, chainID *big.Int, parser *abiadapter.Parser, opts SessionOptions, log *slog.Logger) (*Session, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	if parser == nil {
		parser = abiadapter.NewParser()
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Session{
		client:  client,
		parser:  parser,
		auth:    auth,
		account: auth.From,
		opts:    opts,
		log:     log,
	}, nil
}

// Account implements usecase.ChainSession
func (s *Session) Account() common.Address {
	return s.account
}

// Close implements usecase.ChainSession
func (s *Session) Close() {
	if s.closer != nil {
		s.closer()
	}
}

func (s *Session) transactOpts(ctx context.Context) *bind.TransactOpts {
	auth := *s.auth
	auth.Context = ctx
	if s.opts.GasPrice != nil {
		auth.GasPrice = s.opts.GasPrice
	}
	return &auth
}

// Deploy implements usecase.ChainSession
func (s *Session) Deploy(ctx context.Context, contract string, artifact *models.Artifact, args []string) (*usecase.TxOutcome, error) {
	if !artifact.HasBytecode() {
		return nil, fmt.Errorf("%s has no bytecode; is it abstract or an interface?", artifact.ContractName)
	}
	if strings.Contains(artifact.Bytecode, "__$") {
		return nil, fmt.Errorf("%s has unlinked libraries", artifact.ContractName)
	}
	bytecode, err := hexutil.Decode(artifact.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode for %s: %w", artifact.ContractName, err)
	}

	parsed, err := s.parser.Parse(artifact)
	if err != nil {
		return nil, err
	}
	values, packed, err := s.parser.ConstructorArgs(artifact, args)
	if err != nil {
		return nil, err
	}

	s.log.Debug("deploying", "contract", contract, "artifact", artifact.ContractName, "args", len(values))

	address, tx, _, err := bind.DeployContract(s.transactOpts(ctx), *parsed, bytecode, s.client, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to send deployment: %w", err)
	}

	outcome, err := s.wait(ctx, tx)
	if outcome != nil {
		outcome.ContractAddress = address
		outcome.EncodedArgs = hexutil.Encode(packed)
	}
	return outcome, err
}

// Transact implements usecase.ChainSession
func (s *Session) Transact(ctx context.Context, call usecase.ContractCall) (*usecase.TxOutcome, error) {
	parsed, method, values, err := s.prepare(call)
	if err != nil {
		return nil, err
	}

	s.log.Debug("sending transaction", "contract", call.Contract, "method", method.Sig, "to", call.Address.Hex())

	bound := bind.NewBoundContract(call.Address, *parsed, s.client, s.client, s.client)
	tx, err := bound.Transact(s.transactOpts(ctx), method.Name, values...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", call.Contract, call.Method, err)
	}
	return s.wait(ctx, tx)
}

// Call implements usecase.ChainSession
func (s *Session) Call(ctx context.Context, call usecase.ContractCall) ([]any, error) {
	parsed, method, values, err := s.prepare(call)
	if err != nil {
		return nil, err
	}

	var out []any
	bound := bind.NewBoundContract(call.Address, *parsed, s.client, s.client, s.client)
	if err := bound.Call(&bind.CallOpts{Context: ctx, From: s.account}, &out, method.Name, values...); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", call.Contract, call.Method, err)
	}
	return out, nil
}

// EncodeCall implements usecase.ChainSession
func (s *Session) EncodeCall(artifact *models.Artifact, method string, args []string) ([]byte, error) {
	data, _, err := s.parser.PackCall(artifact, method, args)
	return data, err
}

func (s *Session) prepare(call usecase.ContractCall) (*abi.ABI, *abi.Method, []any, error) {
	parsed, err := s.parser.Parse(call.Artifact)
	if err != nil {
		return nil, nil, nil, err
	}
	method, err := abiadapter.FindMethod(parsed, call.Method, len(call.Args))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", call.Contract, err)
	}
	values, err := abiadapter.ConvertArgs(method.Inputs, call.Args)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s.%s: %w", call.Contract, call.Method, err)
	}
	return parsed, method, values, nil
}

// wait blocks until tx is mined and confirmed. A reverted transaction
// returns its outcome together with the error.
func (s *Session) wait(ctx context.Context, tx *types.Transaction) (*usecase.TxOutcome, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(ctx, s.client, tx)
	if err != nil {
		return &usecase.TxOutcome{TxHash: tx.Hash().Hex()}, fmt.Errorf("failed waiting for %s: %w", tx.Hash().Hex(), err)
	}

	outcome := &usecase.TxOutcome{
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return outcome, fmt.Errorf("transaction %s reverted in block %d", outcome.TxHash, outcome.BlockNumber)
	}

	if err := s.waitConfirmations(ctx, outcome.BlockNumber); err != nil {
		return outcome, err
	}
	s.log.Debug("transaction mined", "tx", outcome.TxHash, "block", outcome.BlockNumber, "gas", outcome.GasUsed)
	return outcome, nil
}

func (s *Session) waitConfirmations(ctx context.Context, block uint64) error {
	if s.opts.Confirmations <= 1 {
		return nil
	}
	target := block + s.opts.Confirmations - 1

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		head, err := s.client.BlockNumber(ctx)
		if err == nil && head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d confirmations: %w", s.opts.Confirmations, ctx.Err())
		case <-ticker.C:
		}
	}
}

var _ usecase.ChainConnector = (*Connector)(nil)
var _ usecase.ChainSession = (*Session)(nil)
