package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

// debugFile is the Hardhat .dbg.json sidecar of an artifact
type debugFile struct {
	Format    string `json:"_format"`
	BuildInfo string `json:"buildInfo"`
}

// Repository indexes Hardhat artifacts under the artifacts directory
type Repository struct {
	artifactsDir string
	log          *slog.Logger

	mu        sync.RWMutex
	indexed   bool
	byName    map[string][]*models.Artifact // key: contract name
	byFQN     map[string]*models.Artifact   // key: "contracts/Foo.sol:Foo"
	buildInfo map[string]*models.BuildInfo  // key: build-info path
}

// NewRepository creates a new artifact repository
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		artifactsDir: cfg.ArtifactsDir,
		log:          log.With("component", "artifacts"),
		byName:       make(map[string][]*models.Artifact),
		byFQN:        make(map[string]*models.Artifact),
		buildInfo:    make(map[string]*models.BuildInfo),
	}
}

// Index walks the artifacts directory once
func (r *Repository) Index() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed {
		return nil
	}

	if _, err := os.Stat(r.artifactsDir); os.IsNotExist(err) {
		return fmt.Errorf("artifacts directory %s not found; compile the contracts first", r.artifactsDir)
	}

	err := filepath.WalkDir(r.artifactsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}
		return r.processArtifact(path)
	})
	if err != nil {
		return err
	}

	r.indexed = true
	r.log.Debug("artifacts indexed", "dir", r.artifactsDir, "contracts", len(r.byFQN))
	return nil
}

// processArtifact reads one artifact and its debug sidecar. Callers hold mu.
func (r *Repository) processArtifact(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var artifact models.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		// Not every json file under artifacts is a contract artifact
		r.log.Debug("skipping unparseable artifact", "path", path, "error", err)
		return nil
	}
	if artifact.ContractName == "" || !strings.HasPrefix(artifact.Format, "hh-sol-artifact") {
		return nil
	}
	artifact.Path = path

	dbgPath := strings.TrimSuffix(path, ".json") + ".dbg.json"
	if raw, err := os.ReadFile(dbgPath); err == nil {
		var dbg debugFile
		if err := json.Unmarshal(raw, &dbg); err == nil && dbg.BuildInfo != "" {
			artifact.BuildInfoPath = filepath.Clean(filepath.Join(filepath.Dir(dbgPath), dbg.BuildInfo))
		}
	}

	r.byFQN[artifact.FullyQualifiedName()] = &artifact
	r.byName[artifact.ContractName] = append(r.byName[artifact.ContractName], &artifact)
	return nil
}

// GetArtifact implements usecase.ArtifactRepository. name is a contract
// name or a fully qualified "path/Source.sol:Name".
func (r *Repository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if err := r.Index(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.Contains(name, ":") {
		if a, ok := r.byFQN[name]; ok {
			return a, nil
		}
		return nil, fmt.Errorf("artifact %s: %w", name, domain.ErrNotFound)
	}

	matches := r.byName[name]
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("artifact %s: %w", name, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.FullyQualifiedName()
		}
		sort.Strings(names)
		return nil, fmt.Errorf("artifact %s is ambiguous, use one of: %s", name, strings.Join(names, ", "))
	}
}

// GetBuildInfo implements usecase.ArtifactRepository
func (r *Repository) GetBuildInfo(ctx context.Context, artifact *models.Artifact) (*models.BuildInfo, error) {
	if artifact.BuildInfoPath == "" {
		return nil, fmt.Errorf("no build info for %s; recompile with hardhat", artifact.FullyQualifiedName())
	}

	r.mu.RLock()
	cached, ok := r.buildInfo[artifact.BuildInfoPath]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	data, err := os.ReadFile(artifact.BuildInfoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read build info for %s: %w", artifact.ContractName, err)
	}
	var info models.BuildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse build info %s: %w", artifact.BuildInfoPath, err)
	}

	r.mu.Lock()
	r.buildInfo[artifact.BuildInfoPath] = &info
	r.mu.Unlock()
	return &info, nil
}

var _ usecase.ArtifactRepository = (*Repository)(nil)
