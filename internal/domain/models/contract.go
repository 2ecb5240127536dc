package models

import (
	"encoding/json"
	"strings"
)

// Artifact represents a Hardhat compilation artifact
type Artifact struct {
	Format           string          `json:"_format"`
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode"`

	// Path of the artifact file; not part of the Hardhat format
	Path string `json:"-"`
	// BuildInfoPath is resolved from the sibling .dbg.json file
	BuildInfoPath string `json:"-"`
}

// FullyQualifiedName returns "path/to/Source.sol:Name"
func (a *Artifact) FullyQualifiedName() string {
	return a.SourceName + ":" + a.ContractName
}

// HasBytecode reports whether the artifact is deployable
func (a *Artifact) HasBytecode() bool {
	code := strings.TrimPrefix(a.Bytecode, "0x")
	return code != ""
}

// BuildInfo is the Hardhat build-info file holding the solc standard JSON input
type BuildInfo struct {
	ID              string          `json:"id"`
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

// CompilerVersion returns the version string explorers expect, e.g. "v0.8.17+commit.8df45f5f"
func (b *BuildInfo) CompilerVersion() string {
	v := b.SolcLongVersion
	if v == "" {
		v = b.SolcVersion
	}
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
