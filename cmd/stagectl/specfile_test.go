package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ergopf.dev/framework/address"
	"ergopf.dev/framework/chain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func ctlTree(seed string) []byte {
	sum := chain.Blake2b256([]byte(seed))
	return append([]byte{0x00, 0x08, 0xcd}, sum[:]...)
}

func ctlAddress(t *testing.T, net address.Network, tree []byte) string {
	t.Helper()
	addr, err := address.NewEncoder(net).EncodeTree(tree)
	require.NoError(t, err)
	return addr
}

func TestLoadSpecsFull(t *testing.T) {
	bountyAddr := ctlAddress(t, address.Mainnet, ctlTree("toml-bounty"))
	tokenID := chain.TokenID(chain.Blake2b256([]byte("toml-token")))

	path := writeFile(t, "specs.toml", fmt.Sprintf(`
[[spec]]
name = "bounty"
address = %q
min_value = 2000000

[[spec]]
name = "vault"

[[spec.tokens]]
id = %q
min = 1
max = 10

[[spec.registers]]
id = "R4"
equals = "05c801"

[[spec.registers]]
id = "R5"
type = "bytes"
`, bountyAddr, hex.EncodeToString(tokenID[:])))

	specs, err := loadSpecs(path, address.Mainnet)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	require.Equal(t, "bounty", specs[0].name)
	require.Equal(t, bountyAddr, specs[0].spec.Address())
	value := specs[0].spec.Value()
	require.NotNil(t, value)
	require.Equal(t, uint64(2_000_000), value.Min)
	require.Zero(t, value.Max)

	require.Equal(t, "vault", specs[1].name)
	require.Empty(t, specs[1].spec.Address())
	require.Nil(t, specs[1].spec.Value())

	tokens := specs[1].spec.Tokens()
	require.Len(t, tokens, 1)
	require.Equal(t, tokenID, tokens[0].ID)
	require.Equal(t, uint64(1), tokens[0].Min)
	require.Equal(t, uint64(10), tokens[0].Max)

	regs := specs[1].spec.Registers()
	require.Len(t, regs, 2)
	require.Equal(t, chain.R4, regs[0].ID)
	require.Equal(t, chain.CONST_TYPE_LONG, regs[0].Type)
	require.NotNil(t, regs[0].Equals)
	require.True(t, regs[0].Equals.Equal(chain.LongConst(100)))
	require.Equal(t, chain.R5, regs[1].ID)
	require.Equal(t, chain.CONST_TYPE_BYTES, regs[1].Type)
	require.Nil(t, regs[1].Equals)
}

func TestLoadSpecsNetworkFollowsFlag(t *testing.T) {
	tree := ctlTree("toml-net")
	addr := ctlAddress(t, address.Testnet, tree)
	path := writeFile(t, "specs.toml", fmt.Sprintf("[[spec]]\nname = \"s\"\naddress = %q\n", addr))

	specs, err := loadSpecs(path, address.Testnet)
	require.NoError(t, err)
	require.Equal(t, address.Testnet, specs[0].spec.Network())
}

func TestLoadSpecsRejects(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty file", "", "no [[spec]] entries"},
		{"unnamed spec", "[[spec]]\nmin_value = 1\n", "has no name"},
		{
			"duplicate name",
			"[[spec]]\nname = \"a\"\n\n[[spec]]\nname = \"a\"\n",
			"duplicate spec",
		},
		{
			"bad token hex",
			"[[spec]]\nname = \"a\"\n[[spec.tokens]]\nid = \"zz\"\n",
			"want 64 hex chars",
		},
		{
			"short token id",
			"[[spec]]\nname = \"a\"\n[[spec.tokens]]\nid = \"1234\"\n",
			"want 64 hex chars",
		},
		{
			"bad register id",
			"[[spec]]\nname = \"a\"\n[[spec.registers]]\nid = \"R3\"\ntype = \"long\"\n",
			"invalid register id",
		},
		{
			"register without constraint",
			"[[spec]]\nname = \"a\"\n[[spec.registers]]\nid = \"R4\"\n",
			"need type or equals",
		},
		{
			"type conflicts equals",
			"[[spec]]\nname = \"a\"\n[[spec.registers]]\nid = \"R4\"\ntype = \"int\"\nequals = \"05c801\"\n",
			"does not match",
		},
		{
			"bad equals hex",
			"[[spec]]\nname = \"a\"\n[[spec.registers]]\nid = \"R4\"\nequals = \"zz\"\n",
			"equals hex",
		},
		{
			"equals trailing bytes",
			"[[spec]]\nname = \"a\"\n[[spec.registers]]\nid = \"R4\"\nequals = \"05c801ff\"\n",
			"trailing bytes",
		},
		{
			"unknown type",
			"[[spec]]\nname = \"a\"\n[[spec.registers]]\nid = \"R4\"\ntype = \"float\"\n",
			"unknown register type",
		},
		{"broken toml", "[[spec\n", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "specs.toml", tc.content)
			_, err := loadSpecs(path, address.Mainnet)
			require.Error(t, err)
			if tc.wantErr != "" {
				require.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
