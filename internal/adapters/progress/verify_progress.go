package progress

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

func (r *Reporter) verifyFinished(event usecase.ProgressEvent) {
	cv, ok := event.Metadata.(*usecase.ContractVerification)
	if !ok {
		return
	}

	verifiers := func(status string) string {
		names := lo.FilterMap(cv.Verifiers, func(v usecase.VerifierResult, _ int) (string, bool) {
			return v.Verifier, v.Status == status
		})
		return strings.Join(names, ", ")
	}

	switch {
	case cv.Skipped:
		r.line.println(skipColor, fmt.Sprintf("• %s  skipped: %s", cv.Contract, cv.SkipReason))
	case cv.Status == models.VerificationStatusVerified:
		r.line.println(okColor, fmt.Sprintf("✓ %s  verified on %s", cv.Contract, verifiers(usecase.VerifierStatusVerified)))
	case cv.Status == models.VerificationStatusPartial:
		r.line.println(warnColor, fmt.Sprintf("! %s  verified on %s, failed on %s", cv.Contract,
			verifiers(usecase.VerifierStatusVerified), verifiers(usecase.VerifierStatusFailed)))
	default:
		r.line.println(errColor, fmt.Sprintf("✗ %s  verification failed: %v", cv.Contract, cv.Err))
	}
}
