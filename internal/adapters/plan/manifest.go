package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
	"gopkg.in/yaml.v3"
)

// Manifest is the YAML layout of a deployment plan.
//
//	name: thebadge
//	contracts:
//	  - name: TheBadgeStore
//	    kind: store
//	    proxy: true
//	    args: ["@deployer"]
//	grants:
//	  - contract: TheBadgeStore
//	    kind: named
//	    role: TheBadgeUsers
//	    grantee: "@TheBadgeUsers"
type Manifest struct {
	Name      string          `yaml:"name"`
	Contracts []ContractEntry `yaml:"contracts"`
	Grants    []GrantEntry    `yaml:"grants,omitempty"`
}

// ContractEntry is one contract of the manifest
type ContractEntry struct {
	Name          string      `yaml:"name"`
	Kind          string      `yaml:"kind,omitempty"`
	Artifact      string      `yaml:"artifact,omitempty"`
	Proxy         bool        `yaml:"proxy,omitempty"`
	ProxyArtifact string      `yaml:"proxy_artifact,omitempty"`
	Initializer   string      `yaml:"initializer,omitempty"`
	Deps          []string    `yaml:"deps,omitempty"`
	Args          []yaml.Node `yaml:"args,omitempty"`
}

// GrantEntry is one permission grant of the manifest
type GrantEntry struct {
	Contract string `yaml:"contract"`
	Kind     string `yaml:"kind,omitempty"`
	Role     string `yaml:"role"`
	Grantee  string `yaml:"grantee"`
	Method   string `yaml:"method,omitempty"`
}

// Loader reads plan manifests relative to the project root
type Loader struct {
	projectRoot string
	defaultPath string
}

// NewLoader creates a new manifest loader
func NewLoader(cfg *config.RuntimeConfig) *Loader {
	return &Loader{
		projectRoot: cfg.ProjectRoot,
		defaultPath: cfg.PlanFile,
	}
}

// LoadPlan implements usecase.PlanLoader. An empty path loads the configured plan.
func (l *Loader) LoadPlan(ctx context.Context, path string) (*models.DeploymentPlan, error) {
	if path == "" {
		path = l.defaultPath
	}
	if path == "" {
		return nil, &domain.MissingConfigurationError{Keys: []string{"project.plan"}}
	}
	if !filepath.IsAbs(path) && l.projectRoot != "" {
		path = filepath.Join(l.projectRoot, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plan file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	plan, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if plan.Name == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return plan, nil
}

// Parse converts manifest YAML into a deployment plan, keeping declaration order
func Parse(data []byte) (*models.DeploymentPlan, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	plan := &models.DeploymentPlan{Name: m.Name}
	for i, c := range m.Contracts {
		args, err := scalarArgs(c.Args)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", c.Name, err)
		}
		artifact := c.Artifact
		if artifact == "" {
			artifact = c.Name
		}
		plan.Steps = append(plan.Steps, models.PlanStep{
			Contract:      c.Name,
			Kind:          models.StepKind(strings.ToLower(c.Kind)),
			Artifact:      artifact,
			Proxy:         c.Proxy,
			ProxyArtifact: c.ProxyArtifact,
			Initializer:   c.Initializer,
			Args:          args,
			Deps:          c.Deps,
			Index:         i,
		})
	}

	for _, g := range m.Grants {
		kind := models.GrantKind(strings.ToLower(g.Kind))
		if kind == "" {
			kind = models.GrantKindRole
		}
		plan.Grants = append(plan.Grants, models.PermissionGrant{
			Contract: g.Contract,
			Kind:     kind,
			Role:     g.Role,
			Grantee:  g.Grantee,
			Method:   g.Method,
		})
	}

	return plan, nil
}

// scalarArgs flattens argument nodes to strings. Sequences become JSON
// arrays so array parameters can be expressed inline.
func scalarArgs(nodes []yaml.Node) ([]string, error) {
	args := make([]string, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		switch n.Kind {
		case yaml.ScalarNode:
			args = append(args, n.Value)
		case yaml.SequenceNode:
			var values []any
			if err := n.Decode(&values); err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			encoded, err := json.Marshal(values)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			args = append(args, string(encoded))
		default:
			return nil, fmt.Errorf("argument %d at line %d must be a scalar or a list", i, n.Line)
		}
	}
	return args, nil
}

var _ usecase.PlanLoader = (*Loader)(nil)
