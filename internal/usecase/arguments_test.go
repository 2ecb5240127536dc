package usecase

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleID(t *testing.T) {
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000000", RoleID("DEFAULT_ADMIN_ROLE"))
	// keccak256("MINTER_ROLE")
	assert.Equal(t, "0x9f2df0fed2c77648de5860a4cc508cd0818c85b8b8a1ab4ceeef8d981c8956a6", RoleID("MINTER_ROLE"))
	assert.Equal(t,
		"0x9f2df0fed2c77648de5860a4cc508cd0818c85b8b8a1ab4ceeef8d981c8956a6",
		RoleID("0x9F2DF0FED2C77648DE5860A4CC508CD0818C85B8B8A1AB4CEEEF8D981C8956A6"))
}

func TestResolveArgs(t *testing.T) {
	deployer := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	addresses := map[string]string{"Store": "0x00000000000000000000000000000000000000a1"}

	got, err := resolveArgs([]string{"@deployer", "@Store", "42", "kleros"}, addresses, deployer)
	require.NoError(t, err)
	assert.Equal(t, []string{deployer.Hex(), "0x00000000000000000000000000000000000000a1", "42", "kleros"}, got)

	_, err = resolveArgs([]string{"@Users"}, addresses, deployer)
	assert.ErrorContains(t, err, "@Users")
}
