package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

// PlanRenderer prints a dry run of a deployment plan
type PlanRenderer struct {
	out io.Writer
}

// NewPlanRenderer creates a new plan renderer
func NewPlanRenderer(out io.Writer) *PlanRenderer {
	return &PlanRenderer{out: out}
}

// RenderPlan lists the operation chosen for every step, in execution order
func (r *PlanRenderer) RenderPlan(exec *usecase.ExecutionPlan) error {
	headerStyle.Fprintf(r.out, "Plan %s on %s (chain %d)\n\n", exec.Plan.Name, exec.Network.Name, exec.Network.ID)

	t := newTable(r.out, table.Row{"#", "Contract", "Operation", "Detail"})
	for i, op := range exec.Operations {
		step := op.Target()
		t.AppendRow(table.Row{i + 1, step.Contract, operationLabel(op.Kind()), operationDetail(op)})
	}
	t.Render()

	if len(exec.External) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "External references:")
		names := lo.Keys(exec.External)
		sort.Strings(names)
		for _, name := range names {
			ext := exec.External[name]
			fmt.Fprintf(r.out, "  %s  %s  %s\n", name, addressStyle.Sprint(ext.Address), faintStyle.Sprintf("(%s)", ext.Source))
		}
	}

	if len(exec.Plan.Grants) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Grants:")
		for _, g := range exec.Plan.Grants {
			fmt.Fprintf(r.out, "  %s\n", g)
		}
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%d to deploy, %d to attach. Nothing was sent.\n",
		exec.Count(models.OperationDeploy), exec.Count(models.OperationAttach))
	return nil
}

func operationLabel(kind models.OperationKind) string {
	switch kind {
	case models.OperationDeploy:
		return successStyle.Sprint(string(kind))
	case models.OperationUpgrade:
		return warnStyle.Sprint(string(kind))
	}
	return faintStyle.Sprint(string(kind))
}

func operationDetail(op models.Operation) string {
	switch o := op.(type) {
	case models.AttachOp:
		return fmt.Sprintf("%s  %s", addressStyle.Sprint(o.Address), faintStyle.Sprintf("(%s)", o.Source))
	case models.UpgradeOp:
		return fmt.Sprintf("proxy %s", o.Proxy)
	case models.DeployOp:
		parts := []string{o.Step.Artifact}
		if o.Step.Proxy {
			parts = append(parts, fmt.Sprintf("behind %s, %s()", o.Step.ProxyArtifactName(), o.Step.InitializerName()))
		}
		if len(o.Step.Args) > 0 {
			parts = append(parts, "args "+strings.Join(o.Step.Args, ", "))
		}
		return strings.Join(parts, "  ")
	}
	return ""
}

type operationJSON struct {
	Contract  string   `json:"contract"`
	Operation string   `json:"operation"`
	Artifact  string   `json:"artifact,omitempty"`
	Proxy     bool     `json:"proxy,omitempty"`
	Args      []string `json:"args,omitempty"`
	Address   string   `json:"address,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// RenderPlanJSON writes the plan as JSON
func (r *PlanRenderer) RenderPlanJSON(exec *usecase.ExecutionPlan) error {
	ops := lo.Map(exec.Operations, func(op models.Operation, _ int) operationJSON {
		step := op.Target()
		out := operationJSON{
			Contract:  step.Contract,
			Operation: string(op.Kind()),
			Artifact:  step.Artifact,
			Proxy:     step.Proxy,
			Args:      step.Args,
		}
		if a, ok := op.(models.AttachOp); ok {
			out.Address = a.Address
			out.Source = a.Source
		}
		return out
	})
	return WriteJSON(r.out, struct {
		Plan       string                   `json:"plan"`
		Network    string                   `json:"network"`
		ChainID    uint64                   `json:"chainId"`
		Operations []operationJSON          `json:"operations"`
		Grants     []models.PermissionGrant `json:"grants,omitempty"`
	}{
		Plan:       exec.Plan.Name,
		Network:    exec.Network.Name,
		ChainID:    uint64(exec.Network.ID),
		Operations: ops,
		Grants:     exec.Plan.Grants,
	})
}
