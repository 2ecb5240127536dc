package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/thebadge/badgectl/internal/domain"
	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectNetwork prompts for one of the supported networks
func (s *SelectorAdapter) SelectNetwork(ctx context.Context, networks []domain.Network) (domain.Network, error) {
	if s.config.NonInteractive {
		return domain.Network{}, fmt.Errorf("no network given; pass --network in non-interactive mode")
	}
	if len(networks) == 0 {
		return domain.Network{}, fmt.Errorf("no networks to select from")
	}
	if len(networks) == 1 {
		return networks[0], nil
	}

	options := formatNetworkOptions(networks)
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, type to filter, Enter to select"),
	}

	prompt := promptui.Select{
		Label:     "Select a network",
		Items:     options,
		Templates: templates,
		Size:      len(options),
		Searcher:  fuzzySearcher(options),
	}

	index, _, err := prompt.Run()
	if err != nil {
		return domain.Network{}, fmt.Errorf("selection cancelled: %w", err)
	}
	return networks[index], nil
}

// formatNetworkOptions renders "sepolia (11155111) testnet"
func formatNetworkOptions(networks []domain.Network) []string {
	options := make([]string, len(networks))
	for i, n := range networks {
		name := color.New(color.FgWhite, color.Bold).Sprint(n.Name)
		id := color.New(color.FgBlue).Sprintf("(%d)", n.ID)
		options[i] = fmt.Sprintf("%s %s", name, id)
		if n.Testnet {
			options[i] += " " + color.New(color.FgYellow).Sprint("testnet")
		}
	}
	return options
}

// fuzzySearcher matches by substring first, then fuzzily
func fuzzySearcher(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}
		input = strings.ToLower(input)
		item := strings.ToLower(items[index])
		if strings.Contains(item, input) {
			return true
		}
		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

var _ usecase.NetworkSelector = (*SelectorAdapter)(nil)
