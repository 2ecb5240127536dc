package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

// VerifyRenderer handles rendering of verification results
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// RenderVerifyResult renders one row per contract with a column per verifier
func (r *VerifyRenderer) RenderVerifyResult(result *usecase.VerifyContractsResult) error {
	if result == nil {
		return nil
	}

	for _, s := range result.SkippedVerifiers {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%s skipped: %s", Title(s.Verifier), s.Reason)))
	}
	if result.SkipReason != "" {
		fmt.Fprintln(r.out, warnStyle.Sprintf("Nothing verified on %s: %s", result.Network.Name, result.SkipReason))
		return nil
	}
	if len(result.Results) == 0 {
		fmt.Fprintln(r.out, warnStyle.Sprint("No contracts to verify."))
		return nil
	}

	verifiers := verifierNames(result.Results)
	header := table.Row{"Contract", "Address", "Status"}
	for _, v := range verifiers {
		header = append(header, Title(v))
	}

	fmt.Fprintln(r.out)
	t := newTable(r.out, header)
	for _, cv := range result.Results {
		row := table.Row{cv.Contract, addressStyle.Sprint(orDash(cv.Address)), statusLabel(cv)}
		byName := lo.KeyBy(cv.Verifiers, func(v usecase.VerifierResult) string { return v.Verifier })
		for _, name := range verifiers {
			row = append(row, verifierCell(byName[name]))
		}
		t.AppendRow(row)
	}
	t.Render()
	fmt.Fprintln(r.out)

	if result.FailureCount > 0 {
		fmt.Fprintln(r.out, errorStyle.Sprintf("%d verified, %d failed on %s", result.SuccessCount, result.FailureCount, result.Network.Name))
		for _, cv := range result.Results {
			if cv.Err != nil {
				fmt.Fprintf(r.out, "  %s: %v\n", cv.Contract, cv.Err)
			}
		}
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%d verified on %s", result.SuccessCount, result.Network.Name)))
	return nil
}

func verifierNames(results []*usecase.ContractVerification) []string {
	var names []string
	for _, cv := range results {
		for _, v := range cv.Verifiers {
			names = append(names, v.Verifier)
		}
	}
	return lo.Uniq(names)
}

func statusLabel(cv *usecase.ContractVerification) string {
	if cv.Skipped {
		return faintStyle.Sprint("skipped")
	}
	switch cv.Status {
	case models.VerificationStatusVerified:
		return successStyle.Sprint("verified")
	case models.VerificationStatusPartial:
		return warnStyle.Sprint("partial")
	case models.VerificationStatusFailed:
		return errorStyle.Sprint("failed")
	}
	return faintStyle.Sprint("unverified")
}

func verifierCell(v usecase.VerifierResult) string {
	switch v.Status {
	case usecase.VerifierStatusVerified:
		if v.URL != "" {
			return successStyle.Sprint("✓ ") + v.URL
		}
		return successStyle.Sprint("✓")
	case usecase.VerifierStatusFailed:
		return errorStyle.Sprint("✗ ") + v.Reason
	case usecase.VerifierStatusSkipped:
		return faintStyle.Sprint("- " + v.Reason)
	}
	return "-"
}

type verifierJSON struct {
	Verifier string `json:"verifier"`
	Status   string `json:"status"`
	URL      string `json:"url,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type verifyJSON struct {
	Contract       string         `json:"contract"`
	Address        string         `json:"address,omitempty"`
	Implementation string         `json:"implementation,omitempty"`
	Status         string         `json:"status"`
	Skipped        bool           `json:"skipped,omitempty"`
	SkipReason     string         `json:"skipReason,omitempty"`
	Verifiers      []verifierJSON `json:"verifiers,omitempty"`
	Error          string         `json:"error,omitempty"`
}

func verificationsJSON(results []*usecase.ContractVerification) []verifyJSON {
	return lo.Map(results, func(cv *usecase.ContractVerification, _ int) verifyJSON {
		return verifyJSON{
			Contract:       cv.Contract,
			Address:        cv.Address,
			Implementation: cv.Implementation,
			Status:         string(cv.Status),
			Skipped:        cv.Skipped,
			SkipReason:     cv.SkipReason,
			Error:          errString(cv.Err),
			Verifiers: lo.Map(cv.Verifiers, func(v usecase.VerifierResult, _ int) verifierJSON {
				return verifierJSON(v)
			}),
		}
	})
}

// RenderVerifyJSON writes the result as JSON
func (r *VerifyRenderer) RenderVerifyJSON(result *usecase.VerifyContractsResult) error {
	if result == nil {
		return nil
	}
	return WriteJSON(r.out, struct {
		Network    string       `json:"network"`
		ChainID    uint64       `json:"chainId"`
		Results    []verifyJSON `json:"results"`
		Verified   int          `json:"verified"`
		Failed     int          `json:"failed"`
		SkipReason string       `json:"skipReason,omitempty"`
	}{
		Network:    result.Network.Name,
		ChainID:    uint64(result.Network.ID),
		Results:    verificationsJSON(result.Results),
		Verified:   result.SuccessCount,
		Failed:     result.FailureCount,
		SkipReason: result.SkipReason,
	})
}
