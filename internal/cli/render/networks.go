package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/thebadge/badgectl/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList renders the supported networks and how far each is configured
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	t := newTable(r.out, table.Row{"Network", "Chain ID", "Type", "Known", "RPC", "Signer", "Explorer key"})
	for _, n := range result.Networks {
		kind := "mainnet"
		if n.Network.Testnet {
			kind = "testnet"
		}
		t.AppendRow(table.Row{n.Network.Name, uint64(n.Network.ID), kind, n.Known, check(n.HasRPC), check(n.HasSigner), check(n.HasExplorer)})
	}
	t.Render()

	ready := lo.CountBy(result.Networks, func(n usecase.NetworkStatus) bool { return n.HasRPC && n.HasSigner })
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%d of %d networks ready to deploy\n", ready, len(result.Networks))
	return nil
}

func check(ok bool) string {
	if ok {
		return successStyle.Sprint("✓")
	}
	return faintStyle.Sprint("-")
}

type networkJSON struct {
	Name        string `json:"name"`
	ChainID     uint64 `json:"chainId"`
	Testnet     bool   `json:"testnet"`
	Known       int    `json:"knownAddresses"`
	HasRPC      bool   `json:"rpc"`
	HasSigner   bool   `json:"signer"`
	HasExplorer bool   `json:"explorerKey"`
}

// RenderNetworksJSON writes the network list as JSON
func (r *NetworksRenderer) RenderNetworksJSON(result *usecase.ListNetworksResult) error {
	return WriteJSON(r.out, lo.Map(result.Networks, func(n usecase.NetworkStatus, _ int) networkJSON {
		return networkJSON{
			Name:        n.Network.Name,
			ChainID:     uint64(n.Network.ID),
			Testnet:     n.Network.Testnet,
			Known:       n.Known,
			HasRPC:      n.HasRPC,
			HasSigner:   n.HasSigner,
			HasExplorer: n.HasExplorer,
		}
	}))
}
