package models

import (
	"fmt"
	"strings"
)

// StepKind classifies a plan contract for ordering purposes
type StepKind string

const (
	StepKindStore      StepKind = "store"
	StepKindCore       StepKind = "core"
	StepKindFacade     StepKind = "facade"
	StepKindController StepKind = "controller"
	StepKindExternal   StepKind = "external"
)

// Rank orders kinds among steps whose dependencies are all satisfied:
// storage first, controllers last.
func (k StepKind) Rank() int {
	switch k {
	case StepKindStore:
		return 0
	case StepKindCore, "":
		return 1
	case StepKindFacade:
		return 2
	case StepKindController:
		return 3
	default:
		return 4
	}
}

// Valid reports whether k is a known kind (empty means core)
func (k StepKind) Valid() bool {
	switch k {
	case "", StepKindStore, StepKindCore, StepKindFacade, StepKindController, StepKindExternal:
		return true
	}
	return false
}

const (
	// RefPrefix marks an argument that references another plan contract
	RefPrefix = "@"
	// DeployerRef resolves to the signing account
	DeployerRef = "@deployer"
	// DefaultInitializer is called through the proxy constructor
	DefaultInitializer = "initialize"
	// DefaultProxyArtifact is the OpenZeppelin ERC1967 proxy
	DefaultProxyArtifact = "ERC1967Proxy"
)

// PlanStep is one contract of a deployment plan
type PlanStep struct {
	Contract    string   `json:"contract"`
	Kind        StepKind `json:"kind,omitempty"`
	Artifact    string   `json:"artifact"`
	Proxy       bool     `json:"proxy"`
	Initializer string   `json:"initializer,omitempty"`
	Args        []string `json:"args,omitempty"`

	// ProxyArtifact is the proxy contract deployed in front of the implementation
	ProxyArtifact string `json:"proxyArtifact,omitempty"`
	// Deps holds explicit dependencies; see Dependencies for the full set
	Deps []string `json:"deps,omitempty"`
	// Index is the declaration position in the manifest
	Index int `json:"-"`
}

// InitializerName returns the initializer used for proxied deployments
func (s PlanStep) InitializerName() string {
	if s.Initializer == "" {
		return DefaultInitializer
	}
	return s.Initializer
}

// ProxyArtifactName returns the artifact deployed as the proxy
func (s PlanStep) ProxyArtifactName() string {
	if s.ProxyArtifact == "" {
		return DefaultProxyArtifact
	}
	return s.ProxyArtifact
}

// References returns the contracts named by @references in the args
func (s PlanStep) References() []string {
	return references(s.Args)
}

// GrantKind selects the call shape of a permission grant
type GrantKind string

const (
	// GrantKindRole calls method(bytes32 role, address grantee)
	GrantKindRole GrantKind = "role"
	// GrantKindNamed calls method(string name, address grantee)
	GrantKindNamed GrantKind = "named"
)

const (
	DefaultRoleMethod   = "grantRole"
	DefaultNamedMethod  = "addPermittedContract"
	DefaultAdminRole    = "DEFAULT_ADMIN_ROLE"
	RoleCheckMethodName = "hasRole"
)

// PermissionGrant wires a permission from a grantor contract to a grantee
type PermissionGrant struct {
	Contract string    `json:"contract"`
	Kind     GrantKind `json:"kind"`
	Role     string    `json:"role"`
	Grantee  string    `json:"grantee"`
	Method   string    `json:"method,omitempty"`
}

// MethodName returns the contract method invoked for the grant
func (g PermissionGrant) MethodName() string {
	if g.Method != "" {
		return g.Method
	}
	if g.Kind == GrantKindNamed {
		return DefaultNamedMethod
	}
	return DefaultRoleMethod
}

func (g PermissionGrant) String() string {
	return fmt.Sprintf("%s.%s(%s, %s)", g.Contract, g.MethodName(), g.Role, g.Grantee)
}

// References returns the plan contracts the grant depends on
func (g PermissionGrant) References() []string {
	refs := []string{g.Contract}
	return append(refs, references([]string{g.Grantee})...)
}

// DeploymentPlan is the declarative description of a suite deployment
type DeploymentPlan struct {
	Name   string            `json:"name"`
	Steps  []PlanStep        `json:"steps"`
	Grants []PermissionGrant `json:"grants,omitempty"`
}

// Step returns the step for a contract name
func (p *DeploymentPlan) Step(contract string) (PlanStep, bool) {
	for _, s := range p.Steps {
		if s.Contract == contract {
			return s, true
		}
	}
	return PlanStep{}, false
}

// ProxySteps returns the proxied steps in declaration order
func (p *DeploymentPlan) ProxySteps() []PlanStep {
	var steps []PlanStep
	for _, s := range p.Steps {
		if s.Proxy {
			steps = append(steps, s)
		}
	}
	return steps
}

// IsReference reports whether an argument names another plan contract
func IsReference(arg string) bool {
	return strings.HasPrefix(arg, RefPrefix) && arg != DeployerRef && len(arg) > 1
}

func references(args []string) []string {
	var refs []string
	for _, a := range args {
		if IsReference(a) {
			refs = append(refs, strings.TrimPrefix(a, RefPrefix))
		}
	}
	return refs
}

// Dependencies returns explicit deps plus @references, deduplicated in order
func (s PlanStep) Dependencies() []string {
	seen := make(map[string]bool)
	var deps []string
	for _, d := range append(append([]string{}, s.Deps...), s.References()...) {
		if !seen[d] {
			seen[d] = true
			deps = append(deps, d)
		}
	}
	return deps
}
