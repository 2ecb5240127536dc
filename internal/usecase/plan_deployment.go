package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/models"
)

// ExecutionPlan is a deployment plan ordered and resolved against one network
type ExecutionPlan struct {
	Network    domain.Network
	Plan       *models.DeploymentPlan
	Operations []models.Operation
	// External holds addresses of referenced contracts the plan does not deploy
	External map[string]*ResolvedAddress
}

// Count returns the number of operations of a kind
func (p *ExecutionPlan) Count(kind models.OperationKind) int {
	n := 0
	for _, op := range p.Operations {
		if op.Kind() == kind {
			n++
		}
	}
	return n
}

// PlanDeploymentParams contains parameters for planning a deployment
type PlanDeploymentParams struct {
	Network  domain.NetworkID
	PlanFile string
}

// PlanDeployment loads the manifest, orders it and decides Deploy or Attach
// for every step. It sends no transactions.
type PlanDeployment struct {
	loader   PlanLoader
	resolver *ResolveAddress
	log      *slog.Logger
}

// NewPlanDeployment creates a new PlanDeployment use case
func NewPlanDeployment(loader PlanLoader, resolver *ResolveAddress, log *slog.Logger) *PlanDeployment {
	return &PlanDeployment{
		loader:   loader,
		resolver: resolver,
		log:      log.With("component", "planner"),
	}
}

// Run executes the use case
func (uc *PlanDeployment) Run(ctx context.Context, params PlanDeploymentParams) (*ExecutionPlan, error) {
	network, err := domain.NetworkByID(params.Network)
	if err != nil {
		return nil, err
	}

	plan, err := uc.loader.LoadPlan(ctx, params.PlanFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	return uc.Prepare(ctx, network, plan)
}

// Prepare orders an already loaded plan and resolves it against network
func (uc *PlanDeployment) Prepare(ctx context.Context, network domain.Network, plan *models.DeploymentPlan) (*ExecutionPlan, error) {
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}

	ordered, err := NewDependencyGraph(plan).TopologicalSort()
	if err != nil {
		return nil, err
	}

	exec := &ExecutionPlan{
		Network:  network,
		Plan:     plan,
		External: make(map[string]*ResolvedAddress),
	}

	for _, step := range ordered {
		resolved, err := uc.resolver.Resolve(ctx, network.ID, step.Contract)
		switch {
		case err == nil:
			exec.Operations = append(exec.Operations, models.AttachOp{
				Step:    step,
				Address: resolved.Address,
				Source:  string(resolved.Source),
				Epoch:   resolved.Epoch,
			})
		case errors.Is(err, domain.ErrNotDeployed):
			exec.Operations = append(exec.Operations, models.DeployOp{Step: step})
		default:
			return nil, err
		}
	}

	// Contracts referenced but not deployed by the plan must already exist
	for _, name := range externalReferences(plan) {
		resolved, err := uc.resolver.Resolve(ctx, network.ID, name)
		if err != nil {
			return nil, fmt.Errorf("plan references %s which is not part of the plan: %w", name, err)
		}
		exec.External[name] = resolved
	}

	uc.log.Debug("plan prepared",
		"network", network.Name,
		"deploy", exec.Count(models.OperationDeploy),
		"attach", exec.Count(models.OperationAttach),
		"grants", len(plan.Grants))

	return exec, nil
}

// ValidatePlan checks a plan for structural errors and reports all of them
func ValidatePlan(plan *models.DeploymentPlan) error {
	var result *multierror.Error

	if plan == nil || len(plan.Steps) == 0 {
		return fmt.Errorf("invalid plan: no contracts defined")
	}

	names := make(map[string]bool, len(plan.Steps))
	for _, step := range plan.Steps {
		if step.Contract == "" {
			result = multierror.Append(result, fmt.Errorf("contract at position %d has no name", step.Index))
			continue
		}
		if names[step.Contract] {
			result = multierror.Append(result, fmt.Errorf("contract %s is declared twice", step.Contract))
		}
		names[step.Contract] = true
		if !step.Kind.Valid() {
			result = multierror.Append(result, fmt.Errorf("contract %s has unknown kind %q", step.Contract, step.Kind))
		}
	}

	for _, step := range plan.Steps {
		for _, dep := range step.Deps {
			if dep == step.Contract {
				result = multierror.Append(result, fmt.Errorf("contract %s depends on itself", step.Contract))
			} else if !names[dep] {
				result = multierror.Append(result, fmt.Errorf("contract %s depends on non-existent contract %s", step.Contract, dep))
			}
		}
	}

	for i, grant := range plan.Grants {
		if !names[grant.Contract] {
			result = multierror.Append(result, fmt.Errorf("grant %d targets %s which is not part of the plan", i+1, grant.Contract))
		}
		if grant.Role == "" || grant.Grantee == "" {
			result = multierror.Append(result, fmt.Errorf("grant %d on %s needs a role and a grantee", i+1, grant.Contract))
		}
		if grant.Kind != models.GrantKindRole && grant.Kind != models.GrantKindNamed {
			result = multierror.Append(result, fmt.Errorf("grant %d on %s has unknown kind %q", i+1, grant.Contract, grant.Kind))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	return nil
}

// externalReferences returns @references to contracts outside the plan, sorted
func externalReferences(plan *models.DeploymentPlan) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(names []string) {
		for _, name := range names {
			if _, ok := plan.Step(name); ok || seen[name] {
				continue
			}
			seen[name] = true
			refs = append(refs, name)
		}
	}
	for _, step := range plan.Steps {
		add(step.References())
	}
	for _, grant := range plan.Grants {
		add(grant.References())
	}
	sort.Strings(refs)
	return refs
}

// DependencyGraph represents contract dependencies within a plan
type DependencyGraph struct {
	nodes map[string]models.PlanStep
	edges map[string][]string // dependency -> dependents
}

// NewDependencyGraph creates a dependency graph from a plan. References to
// contracts outside the plan do not create edges.
func NewDependencyGraph(plan *models.DeploymentPlan) *DependencyGraph {
	graph := &DependencyGraph{
		nodes: make(map[string]models.PlanStep),
		edges: make(map[string][]string),
	}

	for _, step := range plan.Steps {
		graph.nodes[step.Contract] = step
	}

	for _, step := range plan.Steps {
		for _, dep := range step.Dependencies() {
			if _, ok := graph.nodes[dep]; ok {
				graph.edges[dep] = append(graph.edges[dep], step.Contract)
			}
		}
	}

	return graph
}

// TopologicalSort returns steps so that every contract follows its
// dependencies. Among ready steps the lower kind rank goes first, then
// the earlier declaration.
func (g *DependencyGraph) TopologicalSort() ([]models.PlanStep, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		inDegree[name] = 0
	}
	for _, dependents := range g.edges {
		for _, dependent := range dependents {
			inDegree[dependent]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	g.sortReady(queue)

	var result []models.PlanStep
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, g.nodes[current])

		for _, dependent := range g.edges[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
		g.sortReady(queue)
	}

	if len(result) != len(g.nodes) {
		var cycleNodes []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycleNodes = append(cycleNodes, name)
			}
		}
		sort.Strings(cycleNodes)
		return nil, &domain.CycleError{Contracts: cycleNodes}
	}

	return result, nil
}

func (g *DependencyGraph) sortReady(queue []string) {
	sort.SliceStable(queue, func(i, j int) bool {
		a, b := g.nodes[queue[i]], g.nodes[queue[j]]
		if a.Kind.Rank() != b.Kind.Rank() {
			return a.Kind.Rank() < b.Kind.Rank()
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Contract < b.Contract
	})
}
