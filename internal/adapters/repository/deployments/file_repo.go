package deployments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

const (
	DataDir         = ".badgectl"
	DeploymentsFile = "deployments.json"
	ledgerVersion   = "1"
)

// ledgerFile is the on-disk layout of the ledger
type ledgerFile struct {
	Version string                              `json:"version"`
	Records map[string]*models.DeploymentRecord `json:"records"`
	Grants  map[string]*models.GrantRecord      `json:"grants,omitempty"`
}

// chainKey indexes records of one contract on one chain
type chainKey struct {
	chainID  uint64
	contract string
}

// FileRepository stores deployment records in a json file. Records are only
// ever added; the verification status is the one mutable field.
type FileRepository struct {
	dir     string
	mu      sync.RWMutex
	writeMu sync.Mutex
	fileMu  *flock.Flock
	records map[string]*models.DeploymentRecord
	byChain map[chainKey][]*models.DeploymentRecord
	grants  map[string]*models.GrantRecord
	now     func() time.Time
}

// NewFileRepository opens (or creates) the ledger in dir
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	m := &FileRepository{
		dir:     dir,
		fileMu:  flock.New(filepath.Join(dir, DeploymentsFile+".lock")),
		records: make(map[string]*models.DeploymentRecord),
		byChain: make(map[chainKey][]*models.DeploymentRecord),
		grants:  make(map[string]*models.GrantRecord),
		now:     time.Now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	return m, nil
}

// NewFileRepositoryFromConfig opens the ledger in the configured data dir
func NewFileRepositoryFromConfig(cfg *config.RuntimeConfig) (*FileRepository, error) {
	dir := cfg.DataDir
	if dir == "" {
		dir = filepath.Join(cfg.ProjectRoot, DataDir)
	}
	return NewFileRepository(dir)
}

// Path returns the ledger file location
func (m *FileRepository) Path() string {
	return filepath.Join(m.dir, DeploymentsFile)
}

// load replaces the in-memory state with the file contents. Callers hold mu.
func (m *FileRepository) load() error {
	data, err := os.ReadFile(m.Path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("corrupt ledger %s: %w", m.Path(), err)
	}

	m.records = make(map[string]*models.DeploymentRecord, len(file.Records))
	for id, r := range file.Records {
		r.ID = id
		m.records[id] = r
	}
	m.grants = file.Grants
	if m.grants == nil {
		m.grants = make(map[string]*models.GrantRecord)
	}
	m.rebuildLookups()
	return nil
}

// save writes the ledger atomically. Callers hold mu.
func (m *FileRepository) save() error {
	data, err := json.MarshalIndent(ledgerFile{Version: ledgerVersion, Records: m.records, Grants: m.grants}, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first
	tmpPath := m.Path() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmpPath, m.Path())
}

func (m *FileRepository) rebuildLookups() {
	m.byChain = make(map[chainKey][]*models.DeploymentRecord)
	for _, r := range m.records {
		key := chainKey{r.ChainID, r.ContractName}
		m.byChain[key] = append(m.byChain[key], r)
	}
	for _, history := range m.byChain {
		sort.Slice(history, func(i, j int) bool { return history[i].Epoch < history[j].Epoch })
	}
}

// withFileLock reloads the ledger under an exclusive file lock so records
// appended by another process are never overwritten
func (m *FileRepository) withFileLock(ctx context.Context, fn func() error) error {
	// flock handles are not reentrant across goroutines
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	locked, err := m.fileMu.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to lock ledger: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock ledger %s", m.Path())
	}
	defer m.fileMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.load(); err != nil {
		return err
	}
	return fn()
}

// Append implements usecase.AddressLedger
func (m *FileRepository) Append(ctx context.Context, record *models.DeploymentRecord) (*models.DeploymentRecord, error) {
	if record.ContractName == "" || record.Address == "" {
		return nil, fmt.Errorf("record needs a contract name and an address")
	}

	var saved *models.DeploymentRecord
	err := m.withFileLock(ctx, func() error {
		r := *record
		history := m.byChain[chainKey{r.ChainID, r.ContractName}]
		r.Epoch = 1
		if n := len(history); n > 0 {
			r.Epoch = history[n-1].Epoch + 1
		}
		r.ID = models.RecordID(r.ChainID, r.ContractName, r.Epoch)
		if r.CreatedAt.IsZero() {
			r.CreatedAt = m.now()
		}
		if r.Action == "" {
			r.Action = models.RecordActionDeploy
		}

		m.records[r.ID] = &r
		m.rebuildLookups()
		if err := m.save(); err != nil {
			delete(m.records, r.ID)
			m.rebuildLookups()
			return fmt.Errorf("failed to save ledger: %w", err)
		}
		saved = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	copied := *saved
	return &copied, nil
}

// Latest implements usecase.AddressLedger
func (m *FileRepository) Latest(ctx context.Context, chainID uint64, contract string) (*models.DeploymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.byChain[chainKey{chainID, contract}]
	if len(history) == 0 {
		return nil, domain.ErrNotFound
	}
	r := *history[len(history)-1]
	return &r, nil
}

// History implements usecase.AddressLedger, oldest first
func (m *FileRepository) History(ctx context.Context, chainID uint64, contract string) ([]*models.DeploymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.byChain[chainKey{chainID, contract}]
	out := make([]*models.DeploymentRecord, len(history))
	for i, r := range history {
		copied := *r
		out[i] = &copied
	}
	return out, nil
}

// ListLatest implements usecase.AddressLedger
func (m *FileRepository) ListLatest(ctx context.Context, chainID uint64) ([]*models.DeploymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.DeploymentRecord
	for key, history := range m.byChain {
		if key.chainID != chainID || len(history) == 0 {
			continue
		}
		r := *history[len(history)-1]
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].ContractName) < strings.ToLower(out[j].ContractName)
	})
	return out, nil
}

// UpdateVerification implements usecase.AddressLedger
func (m *FileRepository) UpdateVerification(ctx context.Context, id string, info models.VerificationInfo) error {
	return m.withFileLock(ctx, func() error {
		r, ok := m.records[id]
		if !ok {
			return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
		}
		previous := r.Verification
		r.Verification = info
		if err := m.save(); err != nil {
			r.Verification = previous
			return fmt.Errorf("failed to save ledger: %w", err)
		}
		return nil
	})
}

// GrantApplied implements usecase.AddressLedger
func (m *FileRepository) GrantApplied(ctx context.Context, chainID uint64, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.grants[models.GrantRecordID(chainID, key)]
	return ok, nil
}

// RecordGrant implements usecase.AddressLedger. Recording the same key
// twice keeps the first record.
func (m *FileRepository) RecordGrant(ctx context.Context, grant *models.GrantRecord) error {
	if grant.Key == "" {
		return fmt.Errorf("grant record needs a key")
	}

	return m.withFileLock(ctx, func() error {
		id := models.GrantRecordID(grant.ChainID, grant.Key)
		if _, ok := m.grants[id]; ok {
			return nil
		}

		g := *grant
		if g.CreatedAt.IsZero() {
			g.CreatedAt = m.now()
		}
		m.grants[id] = &g
		if err := m.save(); err != nil {
			delete(m.grants, id)
			return fmt.Errorf("failed to save ledger: %w", err)
		}
		return nil
	})
}

var _ usecase.AddressLedger = (*FileRepository)(nil)
