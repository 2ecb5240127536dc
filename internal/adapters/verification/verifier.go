package verification

import (
	"log/slog"

	"github.com/thebadge/badgectl/internal/domain/config"
	"github.com/thebadge/badgectl/internal/usecase"
)

// NewVerifiers returns every explorer the coordinator may submit to.
// Each one decides per network whether it is configured.
func NewVerifiers(cfg *config.RuntimeConfig, log *slog.Logger) []usecase.ContractVerifier {
	return []usecase.ContractVerifier{
		NewEtherscanVerifier(cfg, log),
		NewTenderlyVerifier(cfg, log),
	}
}
