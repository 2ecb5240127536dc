package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// LocksDir is created under the data directory
const LocksDir = "locks"

// AccountLocker serializes runs that send from the same account on the
// same network, across processes. Nonces would collide otherwise.
type AccountLocker struct {
	dir        string
	retryDelay time.Duration
	log        *slog.Logger
}

// NewAccountLocker creates a locker keeping its lock files under dataDir/locks
func NewAccountLocker(cfg *config.RuntimeConfig, log *slog.Logger) *AccountLocker {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(cfg.ProjectRoot, ".badgectl")
	}
	return &AccountLocker{
		dir:        filepath.Join(dataDir, LocksDir),
		retryDelay: 250 * time.Millisecond,
		log:        log.With("component", "locker"),
	}
}

// Path returns the lock file for an account on a network
func (l *AccountLocker) Path(network domain.NetworkID, account common.Address) string {
	return filepath.Join(l.dir, fmt.Sprintf("%d-%s.lock", network, strings.ToLower(account.Hex())))
}

// Lock implements usecase.AccountLocker. It waits until the lock is free
// or ctx is done.
func (l *AccountLocker) Lock(ctx context.Context, network domain.NetworkID, account common.Address) (func() error, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	path := l.Path(network, account)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		l.log.Info("waiting for another run using this account", "account", account.Hex(), "chain", uint64(network))
		locked, err = fl.TryLockContext(ctx, l.retryDelay)
		if err != nil || !locked {
			return nil, fmt.Errorf("account %s is locked by another run on chain %d: %w", account.Hex(), network, contextErr(ctx, err))
		}
	}

	l.log.Debug("account locked", "path", path)
	return fl.Unlock, nil
}

func contextErr(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	return ctx.Err()
}

var _ usecase.AccountLocker = (*AccountLocker)(nil)
