package progress

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/thebadge/badgectl/internal/domain/models"
	"github.com/thebadge/badgectl/internal/usecase"
)

var (
	okColor   = color.New(color.FgGreen)
	skipColor = color.New(color.FgWhite, color.Faint)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	infoColor = color.New(color.FgCyan)
)

// Reporter prints a line for every plan step, grant and verification as
// it finishes. With a terminal it animates the step in flight.
type Reporter struct {
	line *spinnerLine
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer, interactive bool) *Reporter {
	return &Reporter{line: newSpinnerLine(out, interactive)}
}

// OnProgress implements usecase.ProgressSink
func (r *Reporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case usecase.StagePlanCreated:
		r.planCreated(event)
	case usecase.StageStepStarting:
		if event.Spinner {
			r.line.start(fmt.Sprintf("%s %s", counter(event), event.Message))
		}
	case usecase.StageStepCompleted, usecase.StageStepFailed:
		r.line.stop()
		r.stepFinished(event)
	case usecase.StageGrantStarting:
		r.line.start("Granting " + event.Message)
	case usecase.StageGrantCompleted, usecase.StageGrantFailed:
		r.line.stop()
		r.grantFinished(event)
	case usecase.StageVerifyStarting:
		r.line.start("Verifying " + event.Message)
	case usecase.StageVerifyCompleted:
		r.verifyFinished(event)
	case usecase.StageDeployFinished:
		r.line.stop()
	}
}

// Info implements usecase.ProgressSink
func (r *Reporter) Info(message string) {
	r.line.println(infoColor, message)
}

// Error implements usecase.ProgressSink
func (r *Reporter) Error(message string) {
	r.line.println(errColor, message)
}

func counter(event usecase.ProgressEvent) string {
	if event.Total == 0 {
		return ""
	}
	return fmt.Sprintf("[%d/%d]", event.Current, event.Total)
}

func (r *Reporter) planCreated(event usecase.ProgressEvent) {
	exec, ok := event.Metadata.(*usecase.ExecutionPlan)
	if !ok {
		return
	}
	r.line.println(infoColor, fmt.Sprintf("Deploying %s to %s: %s", exec.Plan.Name, exec.Network.Name, event.Message))
}

func (r *Reporter) stepFinished(event usecase.ProgressEvent) {
	prefix := counter(event)

	switch res := event.Metadata.(type) {
	case usecase.StepResult:
		if res.Err != nil {
			r.line.println(errColor, fmt.Sprintf("✗ %s %s: %v", prefix, res.Contract, res.Err))
			return
		}
		switch res.Operation {
		case models.OperationAttach:
			r.line.println(skipColor, fmt.Sprintf("• %s %s  %s  (%s)", prefix, res.Contract, res.Address, res.Source))
		default:
			r.line.println(okColor, fmt.Sprintf("✓ %s %s  %s", prefix, res.Contract, res.Address))
		}

	case usecase.UpgradeResult:
		if res.Err != nil {
			r.line.println(errColor, fmt.Sprintf("✗ %s %s: %v", prefix, res.Contract, res.Err))
			return
		}
		r.line.println(okColor, fmt.Sprintf("✓ %s %s  %s → %s", prefix, res.Contract, res.Proxy, res.NewImplementation))

	default:
		r.line.println(nil, fmt.Sprintf("%s %s", prefix, event.Message))
	}
}

func (r *Reporter) grantFinished(event usecase.ProgressEvent) {
	res, ok := event.Metadata.(usecase.GrantResult)
	if !ok {
		return
	}
	switch {
	case res.Err != nil:
		r.line.println(errColor, fmt.Sprintf("✗ %s: %v", res.Grant, res.Err))
	case res.AlreadyGranted:
		r.line.println(skipColor, fmt.Sprintf("• %s  (already granted)", res.Grant))
	default:
		r.line.println(okColor, fmt.Sprintf("✓ %s", res.Grant))
	}
}

var _ usecase.ProgressSink = (*Reporter)(nil)
