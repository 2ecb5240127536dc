package blockchain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// Inspector reads proxy slots without a signer. Clients are cached per RPC URL.
type Inspector struct {
	mu      sync.Mutex
	clients map[string]*ethclient.Client
	timeout time.Duration
}

// NewInspector creates a new proxy inspector
func NewInspector() *Inspector {
	return &Inspector{
		clients: make(map[string]*ethclient.Client),
		timeout: 10 * time.Second,
	}
}

func (i *Inspector) client(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if c, ok := i.clients[rpcURL]; ok {
		return c, nil
	}
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	i.clients[rpcURL] = c
	return c, nil
}

// ImplementationAddress implements usecase.ProxyInspector
func (i *Inspector) ImplementationAddress(ctx context.Context, network *config.Network, proxy common.Address) (common.Address, error) {
	if err := network.RequireRPC(); err != nil {
		return common.Address{}, err
	}
	c, err := i.client(ctx, network.RPCURL)
	if err != nil {
		return common.Address{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	return readSlot(ctx, c, proxy, ImplementationSlot)
}

// Close releases every cached client
func (i *Inspector) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for url, c := range i.clients {
		c.Close()
		delete(i.clients, url)
	}
}

var _ usecase.ProxyInspector = (*Inspector)(nil)
