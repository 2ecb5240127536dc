package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/thebadge/badgectl/internal/usecase"
)

// UpgradeRenderer prints the summary of an upgrade run
type UpgradeRenderer struct {
	out io.Writer
}

// NewUpgradeRenderer creates a new upgrade renderer
func NewUpgradeRenderer(out io.Writer) *UpgradeRenderer {
	return &UpgradeRenderer{out: out}
}

// RenderUpgradeResult renders the proxies touched and the outcome line
func (r *UpgradeRenderer) RenderUpgradeResult(result *usecase.UpgradeContractsResult) error {
	if result == nil {
		return nil
	}

	fmt.Fprintln(r.out)
	if len(result.Upgrades) > 0 {
		t := newTable(r.out, table.Row{"Contract", "Proxy", "Previous", "New implementation"})
		for _, u := range result.Upgrades {
			next := addressStyle.Sprint(orDash(u.NewImplementation))
			if u.Err != nil {
				next = errorStyle.Sprint(u.Err.Error())
			}
			t.AppendRow(table.Row{u.Contract, u.Proxy, faintStyle.Sprint(orDash(u.PreviousImplementation)), next})
		}
		t.Render()
		fmt.Fprintln(r.out)
	}

	if result.FailedStep != "" {
		done := lo.CountBy(result.Upgrades, func(u usecase.UpgradeResult) bool { return u.Err == nil })
		fmt.Fprintln(r.out, errorStyle.Sprintf("Stopped at %s after %d of %d upgrades on %s",
			result.FailedStep, done, len(result.Operations), result.Network.Name))
		return nil
	}

	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Upgraded %d proxies on %s in %s",
		len(result.Upgrades), result.Network.Name, formatDuration(result.Duration))))
	return nil
}

type upgradeJSON struct {
	Contract               string `json:"contract"`
	Proxy                  string `json:"proxy"`
	PreviousImplementation string `json:"previousImplementation,omitempty"`
	NewImplementation      string `json:"newImplementation,omitempty"`
	TxHash                 string `json:"txHash,omitempty"`
	Error                  string `json:"error,omitempty"`
}

// RenderUpgradeJSON writes the result as JSON
func (r *UpgradeRenderer) RenderUpgradeJSON(result *usecase.UpgradeContractsResult) error {
	if result == nil {
		return nil
	}
	return WriteJSON(r.out, struct {
		Network    string        `json:"network"`
		ChainID    uint64        `json:"chainId"`
		Account    string        `json:"account,omitempty"`
		Upgrades   []upgradeJSON `json:"upgrades"`
		FailedStep string        `json:"failedStep,omitempty"`
	}{
		Network:    result.Network.Name,
		ChainID:    uint64(result.Network.ID),
		Account:    result.Account,
		FailedStep: result.FailedStep,
		Upgrades: lo.Map(result.Upgrades, func(u usecase.UpgradeResult, _ int) upgradeJSON {
			return upgradeJSON{
				Contract:               u.Contract,
				Proxy:                  u.Proxy,
				PreviousImplementation: u.PreviousImplementation,
				NewImplementation:      u.NewImplementation,
				TxHash:                 u.TxHash,
				Error:                  errString(u.Err),
			}
		}),
	})
}
