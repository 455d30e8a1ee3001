package stage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"ergopf.dev/framework/address"
	"ergopf.dev/framework/chain"
)

type bountyStage struct{}

func (bountyStage) StageName() string { return "MathBounty" }

type escrowStage struct{}

func (escrowStage) StageName() string { return "Escrow" }

const bountyMinValue = 100

// minValuePredicate is the running example rule: a box inhabits the stage
// only when it carries at least bountyMinValue nanoErgs.
func minValuePredicate(b *chain.Box) error {
	if b.Value < bountyMinValue {
		return InvalidErgsValue(fmt.Sprintf("value %d below minimum %d", b.Value, bountyMinValue))
	}
	return nil
}

func stageTree(seed string) []byte {
	sum := chain.Blake2b256([]byte(seed))
	return append([]byte{0x00, 0x08, 0xcd}, sum[:]...)
}

func stageAddress(t *testing.T, network address.Network, tree []byte) string {
	t.Helper()
	addr, err := address.NewEncoder(network).EncodeTree(tree)
	require.NoError(t, err)
	return addr
}

func stageBoxAt(tree []byte, value uint64) *chain.Box {
	return &chain.Box{
		Value:          value,
		ErgoTree:       append([]byte(nil), tree...),
		CreationHeight: 50_000,
		TxID:           chain.Blake2b256([]byte("stage-test-tx")),
		Index:          0,
	}
}

func TestVerifyBoxSuccess(t *testing.T) {
	tree := stageTree("bounty")
	addr := stageAddress(t, address.Mainnet, tree)
	s := New[bountyStage](nil, addr, minValuePredicate)

	box := stageBoxAt(tree, 250)
	sb, err := s.VerifyBox(box)
	require.NoError(t, err)
	require.NotNil(t, sb)

	require.Equal(t, uint64(250), sb.Value())
	require.Equal(t, box.ID(), sb.ID())
	require.Equal(t, "MathBounty", sb.StageName())
	require.Equal(t, *box, sb.Box())
}

func TestVerifyBoxAddressMismatch(t *testing.T) {
	addr := stageAddress(t, address.Mainnet, stageTree("expected"))

	calls := 0
	s := New[bountyStage](nil, addr, func(b *chain.Box) error {
		calls++
		return minValuePredicate(b)
	})

	sb, err := s.VerifyBox(stageBoxAt(stageTree("imposter"), 250))
	require.Nil(t, sb)
	require.Error(t, err)

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, BOX_ERR_INVALID_P2S_ADDRESS, code)
	require.Equal(t, string(BOX_ERR_INVALID_P2S_ADDRESS), err.Error())
	require.Equal(t, 0, calls, "predicate must not run on address failure")
}

func TestVerifyBoxPredicateFailure(t *testing.T) {
	tree := stageTree("bounty")
	addr := stageAddress(t, address.Mainnet, tree)
	s := New[bountyStage](nil, addr, minValuePredicate)

	sb, err := s.VerifyBox(stageBoxAt(tree, 99))
	require.Nil(t, sb)

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, BOX_ERR_INVALID_ERGS_VALUE, code)
	require.Contains(t, err.Error(), "value 99 below minimum 100")
}

func TestVerifyBoxAddressBeforePredicate(t *testing.T) {
	// A box failing both checks reports only the address failure.
	addr := stageAddress(t, address.Mainnet, stageTree("expected"))
	s := New[bountyStage](nil, addr, minValuePredicate)

	_, err := s.VerifyBox(stageBoxAt(stageTree("imposter"), 1))
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, BOX_ERR_INVALID_P2S_ADDRESS, code)
}

func TestVerifyBoxMalformedInputs(t *testing.T) {
	tree := stageTree("bounty")
	addr := stageAddress(t, address.Mainnet, tree)

	t.Run("nil box", func(t *testing.T) {
		s := New[bountyStage](nil, addr, minValuePredicate)
		_, err := s.VerifyBox(nil)
		code, ok := CodeOf(err)
		require.True(t, ok)
		require.Equal(t, BOX_ERR_OTHER, code)
	})

	t.Run("nil predicate", func(t *testing.T) {
		s := New[bountyStage](nil, addr, nil)
		_, err := s.VerifyBox(stageBoxAt(tree, 250))
		code, ok := CodeOf(err)
		require.True(t, ok)
		require.Equal(t, BOX_ERR_OTHER, code)
	})

	t.Run("empty tree", func(t *testing.T) {
		s := New[bountyStage](nil, addr, minValuePredicate)
		box := stageBoxAt(tree, 250)
		box.ErgoTree = nil
		_, err := s.VerifyBox(box)
		code, ok := CodeOf(err)
		require.True(t, ok)
		require.Equal(t, BOX_ERR_INVALID_P2S_ADDRESS, code)
	})

	t.Run("garbage descriptor address", func(t *testing.T) {
		s := New[bountyStage](nil, "definitely-not-an-address", minValuePredicate)
		_, err := s.VerifyBox(stageBoxAt(tree, 250))
		code, ok := CodeOf(err)
		require.True(t, ok)
		require.Equal(t, BOX_ERR_INVALID_P2S_ADDRESS, code)
	})
}

func TestVerifyBoxErrorNormalization(t *testing.T) {
	tree := stageTree("bounty")
	addr := stageAddress(t, address.Mainnet, tree)

	t.Run("plain error becomes OTHER", func(t *testing.T) {
		s := New[bountyStage](nil, addr, func(*chain.Box) error {
			return errors.New("ledger burped")
		})
		_, err := s.VerifyBox(stageBoxAt(tree, 250))
		code, ok := CodeOf(err)
		require.True(t, ok)
		require.Equal(t, BOX_ERR_OTHER, code)
		require.Contains(t, err.Error(), "ledger burped")
	})

	t.Run("wrapped coded error keeps its code", func(t *testing.T) {
		s := New[bountyStage](nil, addr, func(*chain.Box) error {
			return fmt.Errorf("token rule: %w", InvalidTokens("missing bounty token"))
		})
		_, err := s.VerifyBox(stageBoxAt(tree, 250))
		code, ok := CodeOf(err)
		require.True(t, ok)
		require.Equal(t, BOX_ERR_INVALID_TOKENS, code)
	})
}

func TestVerifyBoxClonesBox(t *testing.T) {
	tree := stageTree("bounty")
	addr := stageAddress(t, address.Mainnet, tree)
	s := New[bountyStage](nil, addr, minValuePredicate)

	box := stageBoxAt(tree, 250)
	box.Tokens = []chain.Token{{ID: chain.TokenID(chain.Blake2b256([]byte("tok"))), Amount: 5}}

	sb, err := s.VerifyBox(box)
	require.NoError(t, err)
	wantID := sb.ID()

	// Caller-side mutation after the fact must not reach the witness.
	box.Value = 0
	box.ErgoTree[0] ^= 0xff
	box.Tokens[0].Amount = 999

	require.Equal(t, uint64(250), sb.Value())
	require.Equal(t, wantID, sb.ID())

	// Mutating an exported copy must not either.
	out := sb.Box()
	out.ErgoTree[0] ^= 0xff
	toks := sb.Tokens()
	toks[0].Amount = 1
	require.Equal(t, wantID, sb.ID())
	require.Equal(t, uint64(5), sb.Tokens()[0].Amount)
}

func TestVerifyBoxPredicateSeesInput(t *testing.T) {
	tree := stageTree("bounty")
	addr := stageAddress(t, address.Mainnet, tree)
	box := stageBoxAt(tree, 250)

	var seen *chain.Box
	s := New[bountyStage](nil, addr, func(b *chain.Box) error {
		seen = b
		return nil
	})

	_, err := s.VerifyBox(box)
	require.NoError(t, err)
	require.Same(t, box, seen)
}

func TestStageDescriptorImmutable(t *testing.T) {
	tree := stageTree("bounty")
	addr := stageAddress(t, address.Mainnet, tree)

	hardcoded := map[string]chain.Constant{
		"min_value": chain.LongConst(bountyMinValue),
	}
	s := New[bountyStage](hardcoded, addr, minValuePredicate)

	hardcoded["min_value"] = chain.LongConst(1)
	hardcoded["extra"] = chain.BoolConst(true)

	c, ok := s.Hardcoded("min_value")
	require.True(t, ok)
	require.True(t, c.Equal(chain.LongConst(bountyMinValue)))
	_, ok = s.Hardcoded("extra")
	require.False(t, ok)

	snapshot := s.HardcodedValues()
	snapshot["min_value"] = chain.LongConst(2)
	c, _ = s.Hardcoded("min_value")
	require.True(t, c.Equal(chain.LongConst(bountyMinValue)))
}

func TestStageAccessors(t *testing.T) {
	tree := stageTree("bounty")
	addr := stageAddress(t, address.Mainnet, tree)
	s := New[bountyStage](nil, addr, minValuePredicate)

	require.Equal(t, addr, s.P2SAddress())
	require.Equal(t, address.Mainnet, s.Network())
	require.Equal(t, "MathBounty", s.StageName())
}

func TestNewOnNetworkTestnet(t *testing.T) {
	tree := stageTree("testnet-bounty")
	testnetAddr := stageAddress(t, address.Testnet, tree)
	box := stageBoxAt(tree, 250)

	testnetStage := NewOnNetwork[bountyStage](address.Testnet, nil, testnetAddr, minValuePredicate)
	_, err := testnetStage.VerifyBox(box)
	require.NoError(t, err)

	// The same descriptor address on a mainnet stage can never match: the
	// mainnet encoder renders a different string for the same tree.
	mainnetStage := New[bountyStage](nil, testnetAddr, minValuePredicate)
	_, err = mainnetStage.VerifyBox(box)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, BOX_ERR_INVALID_P2S_ADDRESS, code)
}

func TestDistinctStageTagsCoexist(t *testing.T) {
	tree := stageTree("shared-script")
	addr := stageAddress(t, address.Mainnet, tree)
	box := stageBoxAt(tree, 250)

	bounty := New[bountyStage](nil, addr, minValuePredicate)
	escrow := New[escrowStage](nil, addr, minValuePredicate)

	b, err := bounty.VerifyBox(box)
	require.NoError(t, err)
	e, err := escrow.VerifyBox(box)
	require.NoError(t, err)

	require.Equal(t, "MathBounty", b.StageName())
	require.Equal(t, "Escrow", e.StageName())
	require.IsType(t, bountyStage{}, b.Tag())
	require.IsType(t, escrowStage{}, e.Tag())
}
