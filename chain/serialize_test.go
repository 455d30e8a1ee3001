package chain

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testTokenID(seed string) TokenID {
	return TokenID(Blake2b256([]byte(seed)))
}

func testTree(seed string) []byte {
	sum := Blake2b256([]byte(seed))
	return append([]byte{0x00, 0x08, 0xcd}, sum[:]...)
}

func testBoxFixture() *Box {
	txid := Blake2b256([]byte("fixture-tx"))
	return &Box{
		Value:          2 * MIN_BOX_VALUE,
		ErgoTree:       testTree("fixture-tree"),
		CreationHeight: 414_474,
		Tokens: []Token{
			{ID: testTokenID("token-a"), Amount: 1},
			{ID: testTokenID("token-b"), Amount: 5_000},
		},
		Registers: Registers{
			LongConst(99),
			BytesConst([]byte("receipt")),
			BoolConst(true),
		},
		TxID:  txid,
		Index: 3,
	}
}

func TestBoxBytesRoundTrip(t *testing.T) {
	box := testBoxFixture()

	enc := BoxBytes(box)
	got, err := ParseBoxBytes(enc)
	require.NoError(t, err)
	require.Equal(t, box, got)
	require.True(t, bytes.Equal(enc, BoxBytes(got)))
}

func TestBoxBytesRoundTripMinimal(t *testing.T) {
	box := &Box{
		Value:          1,
		ErgoTree:       []byte{0xaa},
		CreationHeight: 0,
	}

	got, err := ParseBoxBytes(BoxBytes(box))
	require.NoError(t, err)
	require.Equal(t, box, got)
}

func TestParseBoxBytesRejectsTrailing(t *testing.T) {
	enc := append(BoxBytes(testBoxFixture()), 0x00)
	_, err := ParseBoxBytes(enc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "trailing")
}

func TestParseBoxBytesRejectsTruncation(t *testing.T) {
	enc := BoxBytes(testBoxFixture())
	for _, cut := range []int{1, len(enc) / 2, len(enc) - 1} {
		_, err := ParseBoxBytes(enc[:cut])
		require.Error(t, err, "prefix of %d bytes", cut)
	}
}

func TestParseBoxBytesCaps(t *testing.T) {
	t.Run("input size", func(t *testing.T) {
		_, err := ParseBoxBytes(make([]byte, MAX_BOX_SIZE_BYTES+1))
		require.Error(t, err)
	})

	t.Run("tree size", func(t *testing.T) {
		raw := Uvlq(1).Encode()
		raw = append(raw, Uvlq(MAX_TREE_SIZE_BYTES+1).Encode()...)
		_, err := ParseBoxBytes(raw)
		require.Error(t, err)
		require.Contains(t, err.Error(), "tree exceeds")
	})

	t.Run("creation height", func(t *testing.T) {
		raw := Uvlq(1).Encode()
		raw = append(raw, Uvlq(1).Encode()...)
		raw = append(raw, 0xaa)
		raw = append(raw, Uvlq(uint64(math.MaxUint32)+1).Encode()...)
		_, err := ParseBoxBytes(raw)
		require.Error(t, err)
		require.Contains(t, err.Error(), "creation height")
	})

	t.Run("token count", func(t *testing.T) {
		raw := Uvlq(1).Encode()
		raw = append(raw, Uvlq(1).Encode()...)
		raw = append(raw, 0xaa)
		raw = append(raw, Uvlq(7).Encode()...)
		raw = append(raw, Uvlq(MAX_TOKENS_PER_BOX+1).Encode()...)
		_, err := ParseBoxBytes(raw)
		require.Error(t, err)
		require.Contains(t, err.Error(), "token count")
	})
}

func TestBoxIDDeterministic(t *testing.T) {
	box := testBoxFixture()
	require.Equal(t, box.ID(), box.ID())
	require.Equal(t, box.ID(), box.Clone().ID())
}

func TestBoxIDSensitivity(t *testing.T) {
	base := testBoxFixture()

	mutated := base.Clone()
	mutated.Value++
	require.NotEqual(t, base.ID(), mutated.ID())

	mutated = base.Clone()
	mutated.Index++
	require.NotEqual(t, base.ID(), mutated.ID())

	mutated = base.Clone()
	mutated.ErgoTree[0] ^= 0x01
	require.NotEqual(t, base.ID(), mutated.ID())
}

func TestBoxCloneIsDeep(t *testing.T) {
	box := testBoxFixture()
	clone := box.Clone()

	clone.ErgoTree[0] ^= 0xff
	clone.Tokens[0].Amount = 777

	require.Equal(t, testBoxFixture(), box)
}

func TestCandidatePlacement(t *testing.T) {
	cand := &BoxCandidate{
		Value:          MIN_BOX_VALUE,
		ErgoTree:       testTree("placement"),
		CreationHeight: 10,
		Tokens:         []Token{{ID: testTokenID("t"), Amount: 2}},
	}
	txid := Blake2b256([]byte("placing-tx"))

	box := cand.Box(txid, 1)
	require.Equal(t, cand.Value, box.Value)
	require.Equal(t, cand.ErgoTree, box.ErgoTree)
	require.Equal(t, txid, box.TxID)
	require.Equal(t, uint16(1), box.Index)

	enc := BoxBytes(box)
	require.True(t, bytes.HasPrefix(enc, CandidateBytes(cand)))
}

func TestRegistersGet(t *testing.T) {
	regs := Registers{LongConst(1), BoolConst(true)}

	c, ok := regs.Get(R4)
	require.True(t, ok)
	require.True(t, c.Equal(LongConst(1)))

	c, ok = regs.Get(R5)
	require.True(t, ok)
	require.True(t, c.Equal(BoolConst(true)))

	_, ok = regs.Get(R6)
	require.False(t, ok)
	_, ok = regs.Get(RegisterID(3))
	require.False(t, ok)
	_, ok = regs.Get(RegisterID(10))
	require.False(t, ok)
}
