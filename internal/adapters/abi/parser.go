package abi

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/thebadge/badgectl/internal/domain/models"
)

// Parser parses artifact ABIs once and packs calls against them
type Parser struct {
	mu    sync.Mutex
	cache map[string]*abi.ABI // key: artifact path or fully qualified name
}

// NewParser creates a new ABI parser
func NewParser() *Parser {
	return &Parser{cache: make(map[string]*abi.ABI)}
}

// Parse returns the parsed ABI of an artifact
func (p *Parser) Parse(artifact *models.Artifact) (*abi.ABI, error) {
	if artifact == nil {
		return nil, fmt.Errorf("no artifact")
	}
	key := artifact.Path
	if key == "" {
		key = artifact.FullyQualifiedName()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if parsed, ok := p.cache[key]; ok {
		return parsed, nil
	}

	parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI of %s: %w", artifact.ContractName, err)
	}
	p.cache[key] = &parsed
	return &parsed, nil
}

// FindMethod finds a method by its Solidity name and argument count.
// go-ethereum renames overloads (upgradeTo, upgradeTo0); the returned
// method's Name is the key to pack with.
func FindMethod(parsed *abi.ABI, name string, argCount int) (*abi.Method, error) {
	var found []abi.Method
	for _, m := range parsed.Methods {
		if m.RawName == name {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("method %s not found", name)
	}
	for i := range found {
		if len(found[i].Inputs) == argCount {
			return &found[i], nil
		}
	}
	return nil, fmt.Errorf("method %s does not take %d arguments", name, argCount)
}

// FindInitializeMethod returns the initializer to call through a proxy
func FindInitializeMethod(parsed *abi.ABI, name string, argCount int) (*abi.Method, error) {
	m, err := FindMethod(parsed, name, argCount)
	if err != nil {
		return nil, fmt.Errorf("initializer: %w", err)
	}
	return m, nil
}

// PackCall encodes a method call from manifest arguments
func (p *Parser) PackCall(artifact *models.Artifact, method string, args []string) ([]byte, *abi.Method, error) {
	parsed, err := p.Parse(artifact)
	if err != nil {
		return nil, nil, err
	}
	m, err := FindMethod(parsed, method, len(args))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", artifact.ContractName, err)
	}
	values, err := ConvertArgs(m.Inputs, args)
	if err != nil {
		return nil, nil, fmt.Errorf("%s.%s: %w", artifact.ContractName, method, err)
	}
	data, err := parsed.Pack(m.Name, values...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s.%s: %w", artifact.ContractName, method, err)
	}
	return data, m, nil
}

// ConstructorArgs converts and packs constructor arguments. The packed
// bytes are what explorers expect appended to the creation code.
func (p *Parser) ConstructorArgs(artifact *models.Artifact, args []string) ([]any, []byte, error) {
	parsed, err := p.Parse(artifact)
	if err != nil {
		return nil, nil, err
	}
	values, err := ConvertArgs(parsed.Constructor.Inputs, args)
	if err != nil {
		return nil, nil, fmt.Errorf("%s constructor: %w", artifact.ContractName, err)
	}
	packed, err := parsed.Pack("", values...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s constructor: %w", artifact.ContractName, err)
	}
	return values, packed, nil
}
