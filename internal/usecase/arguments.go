package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/thebadge/badgectl/internal/domain/models"
)

var bytes32Pattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// RoleID returns the bytes32 identifier of an AccessControl role:
// zero for DEFAULT_ADMIN_ROLE, literal 32-byte hex as is, keccak256 of the name otherwise.
func RoleID(role string) string {
	switch {
	case role == models.DefaultAdminRole:
		return common.Hash{}.Hex()
	case bytes32Pattern.MatchString(role):
		return strings.ToLower(role)
	default:
		return crypto.Keccak256Hash([]byte(role)).Hex()
	}
}

// resolveArgs replaces @deployer and @Contract references with addresses
func resolveArgs(args []string, addresses map[string]string, deployer common.Address) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		switch {
		case arg == models.DeployerRef:
			out[i] = deployer.Hex()
		case models.IsReference(arg):
			name := strings.TrimPrefix(arg, models.RefPrefix)
			addr, ok := addresses[name]
			if !ok || addr == "" {
				return nil, fmt.Errorf("argument %s does not resolve to a deployed contract", arg)
			}
			out[i] = addr
		default:
			out[i] = arg
		}
	}
	return out, nil
}
