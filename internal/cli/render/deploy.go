package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

// DeployRenderer prints the summary of a plan run. Per-step lines are
// printed by the progress reporter while the run is in flight.
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// RenderDeployResult renders the step table and the outcome line
func (r *DeployRenderer) RenderDeployResult(result *usecase.DeployContractsResult) error {
	if result == nil {
		return nil
	}

	fmt.Fprintln(r.out)
	if len(result.Steps) > 0 {
		t := newTable(r.out, table.Row{"Contract", "Operation", "Address", "Detail"})
		for _, s := range result.Steps {
			t.AppendRow(table.Row{s.Contract, string(s.Operation), addressStyle.Sprint(orDash(s.Address)), stepDetail(s)})
		}
		t.Render()
		fmt.Fprintln(r.out)
	}

	granted := lo.CountBy(result.Grants, func(g usecase.GrantResult) bool { return g.Err == nil && !g.AlreadyGranted })
	held := lo.CountBy(result.Grants, func(g usecase.GrantResult) bool { return g.AlreadyGranted })
	if len(result.Grants) > 0 {
		fmt.Fprintf(r.out, "Grants: %d sent, %d already in place\n", granted, held)
	}

	if v := result.Verification; v != nil {
		r.renderVerification(v)
	}

	total := 0
	if result.Plan != nil {
		total = len(result.Plan.Operations)
	}
	deployed := len(result.Deployed)
	attached := len(result.Attached())

	if result.FailedStep != "" {
		completed := lo.CountBy(result.Steps, func(s usecase.StepResult) bool { return s.Err == nil })
		fmt.Fprintln(r.out, errorStyle.Sprintf("Stopped at %s after %d of %d steps on %s. Completed steps are recorded; nothing was rolled back.",
			result.FailedStep, completed, total, result.Network.Name))
		return nil
	}

	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Deployed %d and attached %d contracts on %s in %s",
		deployed, attached, result.Network.Name, formatDuration(result.Duration))))
	if result.Account != "" {
		fmt.Fprintln(r.out, faintStyle.Sprintf("   from %s", result.Account))
	}
	return nil
}

func (r *DeployRenderer) renderVerification(v *usecase.VerifyContractsResult) {
	switch {
	case v.SkipReason != "":
		fmt.Fprintln(r.out, FormatWarning("Verification skipped: "+v.SkipReason))
	case v.FailureCount > 0:
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Verification: %d verified, %d failed (rerun with `badgectl verify`)", v.SuccessCount, v.FailureCount)))
	default:
		fmt.Fprintf(r.out, "Verification: %d verified\n", v.SuccessCount)
	}
}

func stepDetail(s usecase.StepResult) string {
	switch {
	case s.Err != nil:
		return errorStyle.Sprint(s.Err.Error())
	case s.Operation == models.OperationAttach:
		return faintStyle.Sprintf("from %s", s.Source)
	case s.Implementation != "":
		return fmt.Sprintf("impl %s", s.Implementation)
	case s.TxHash != "":
		return faintStyle.Sprintf("tx %s", s.TxHash)
	}
	return ""
}

type stepJSON struct {
	Contract       string `json:"contract"`
	Operation      string `json:"operation"`
	Address        string `json:"address,omitempty"`
	Implementation string `json:"implementation,omitempty"`
	Source         string `json:"source,omitempty"`
	TxHash         string `json:"txHash,omitempty"`
	Error          string `json:"error,omitempty"`
}

type grantJSON struct {
	Grant          string `json:"grant"`
	TxHash         string `json:"txHash,omitempty"`
	AlreadyGranted bool   `json:"alreadyGranted,omitempty"`
	Error          string `json:"error,omitempty"`
}

type deployJSON struct {
	Network      string       `json:"network"`
	ChainID      uint64       `json:"chainId"`
	Account      string       `json:"account,omitempty"`
	Steps        []stepJSON   `json:"steps"`
	Grants       []grantJSON  `json:"grants,omitempty"`
	FailedStep   string       `json:"failedStep,omitempty"`
	Verification []verifyJSON `json:"verification,omitempty"`
	Duration     string       `json:"duration"`
}

// RenderDeployJSON writes the result as JSON
func (r *DeployRenderer) RenderDeployJSON(result *usecase.DeployContractsResult) error {
	if result == nil {
		return nil
	}
	out := deployJSON{
		Network:    result.Network.Name,
		ChainID:    uint64(result.Network.ID),
		Account:    result.Account,
		FailedStep: result.FailedStep,
		Duration:   result.Duration.String(),
		Steps: lo.Map(result.Steps, func(s usecase.StepResult, _ int) stepJSON {
			return stepJSON{
				Contract:       s.Contract,
				Operation:      string(s.Operation),
				Address:        s.Address,
				Implementation: s.Implementation,
				Source:         s.Source,
				TxHash:         s.TxHash,
				Error:          errString(s.Err),
			}
		}),
		Grants: lo.Map(result.Grants, func(g usecase.GrantResult, _ int) grantJSON {
			return grantJSON{Grant: g.Grant.String(), TxHash: g.TxHash, AlreadyGranted: g.AlreadyGranted, Error: errString(g.Err)}
		}),
	}
	if result.Verification != nil {
		out.Verification = verificationsJSON(result.Verification.Results)
	}
	return WriteJSON(r.out, out)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
