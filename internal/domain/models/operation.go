package models

// OperationKind tags the variants of Operation
type OperationKind string

const (
	OperationDeploy  OperationKind = "deploy"
	OperationAttach  OperationKind = "attach"
	OperationUpgrade OperationKind = "upgrade"
)

// Operation is what the orchestrator does for one plan step.
// It is closed over DeployOp, AttachOp and UpgradeOp.
type Operation interface {
	Kind() OperationKind
	Target() PlanStep
	operation()
}

// DeployOp sends a creation transaction (implementation plus proxy for proxied steps)
type DeployOp struct {
	Step PlanStep
}

// AttachOp reuses an address that is already known; no transaction
type AttachOp struct {
	Step    PlanStep
	Address string
	// Source is where the address came from: "ledger" or "registry"
	Source string
	Epoch  uint64
}

// UpgradeOp deploys a new implementation behind an existing proxy
type UpgradeOp struct {
	Step    PlanStep
	Proxy   string
	Current *DeploymentRecord
}

func (DeployOp) Kind() OperationKind  { return OperationDeploy }
func (AttachOp) Kind() OperationKind  { return OperationAttach }
func (UpgradeOp) Kind() OperationKind { return OperationUpgrade }

func (o DeployOp) Target() PlanStep  { return o.Step }
func (o AttachOp) Target() PlanStep  { return o.Step }
func (o UpgradeOp) Target() PlanStep { return o.Step }

func (DeployOp) operation()  {}
func (AttachOp) operation()  {}
func (UpgradeOp) operation() {}
