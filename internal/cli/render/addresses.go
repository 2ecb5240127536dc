package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/thebadge/badgectl/internal/config"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/usecase"
)

// AddressesRenderer renders resolved addresses
type AddressesRenderer struct {
	out io.Writer
}

// NewAddressesRenderer creates a new addresses renderer
func NewAddressesRenderer(out io.Writer) *AddressesRenderer {
	return &AddressesRenderer{out: out}
}

// RenderResolved prints one resolved address
func (r *AddressesRenderer) RenderResolved(resolved *usecase.ResolvedAddress) error {
	detail := string(resolved.Source)
	if resolved.Source == usecase.SourceLedger {
		detail = fmt.Sprintf("%s, epoch %d", resolved.Source, resolved.Epoch)
	}
	fmt.Fprintf(r.out, "%s  %s\n", resolved.Address, faintStyle.Sprintf("(%s)", detail))
	return nil
}

// RenderAddresses prints the resolver view of a network as a table
func (r *AddressesRenderer) RenderAddresses(network domain.Network, resolved []*usecase.ResolvedAddress) error {
	if len(resolved) == 0 {
		fmt.Fprintf(r.out, "No known addresses on %s\n", network.Name)
		return nil
	}

	headerStyle.Fprintf(r.out, "%s (chain %d)\n\n", network.Name, network.ID)
	t := newTable(r.out, table.Row{"Contract", "Address", "Source", "Epoch", "Verified"})
	for _, a := range resolved {
		epoch, verified := "-", "-"
		if a.Record != nil {
			epoch = fmt.Sprint(a.Epoch)
			verified = string(a.Record.Verification.Status)
			if verified == "" {
				verified = "-"
			}
		}
		t.AppendRow(table.Row{a.Contract, addressStyle.Sprint(a.Address), string(a.Source), epoch, verified})
	}
	t.Render()
	return nil
}

// RenderExport prints the addresses in registry.toml format so they can be
// checked into another project
func (r *AddressesRenderer) RenderExport(network domain.Network, resolved []*usecase.ResolvedAddress) error {
	addresses := lo.SliceToMap(resolved, func(a *usecase.ResolvedAddress) (string, string) {
		return a.Contract, a.Address
	})
	data, err := config.EncodeRegistry(network, addresses)
	if err != nil {
		return fmt.Errorf("failed to encode addresses: %w", err)
	}
	_, err = r.out.Write(data)
	return err
}

type addressJSON struct {
	Contract string `json:"contract"`
	Address  string `json:"address"`
	Source   string `json:"source"`
	Epoch    uint64 `json:"epoch,omitempty"`
}

// RenderAddressesJSON writes the addresses as JSON
func (r *AddressesRenderer) RenderAddressesJSON(network domain.Network, resolved []*usecase.ResolvedAddress) error {
	return WriteJSON(r.out, struct {
		Network   string        `json:"network"`
		ChainID   uint64        `json:"chainId"`
		Addresses []addressJSON `json:"addresses"`
	}{
		Network: network.Name,
		ChainID: uint64(network.ID),
		Addresses: lo.Map(resolved, func(a *usecase.ResolvedAddress, _ int) addressJSON {
			return addressJSON{Contract: a.Contract, Address: a.Address, Source: string(a.Source), Epoch: a.Epoch}
		}),
	})
}
