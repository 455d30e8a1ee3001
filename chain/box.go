package chain

import (
	"encoding/hex"
	"fmt"
)

type BoxID [32]byte

func (id BoxID) String() string { return hex.EncodeToString(id[:]) }

type TokenID [32]byte

func (id TokenID) String() string { return hex.EncodeToString(id[:]) }

type Token struct {
	ID     TokenID
	Amount uint64
}

type RegisterID uint8

const (
	R4 RegisterID = 4
	R5 RegisterID = 5
	R6 RegisterID = 6
	R7 RegisterID = 7
	R8 RegisterID = 8
	R9 RegisterID = 9
)

func (r RegisterID) String() string {
	return fmt.Sprintf("R%d", uint8(r))
}

// ParseRegisterID parses the textual register name "R4" through "R9".
func ParseRegisterID(s string) (RegisterID, error) {
	if len(s) != 2 || s[0] != 'R' || s[1] < '4' || s[1] > '9' {
		return 0, fmt.Errorf("registers: invalid register id %q", s)
	}
	return RegisterID(s[1] - '0'), nil
}

// Registers holds the optional typed registers. The representation is dense
// by construction: element 0 is R4, element 1 is R5, and so on. Gaps are
// inexpressible, which is exactly the serialization rule.
type Registers []Constant

// Get returns the constant stored in the given register, if populated.
func (r Registers) Get(id RegisterID) (Constant, bool) {
	if id < MIN_REGISTER_ID || id > MAX_REGISTER_ID {
		return Constant{}, false
	}
	i := int(id - MIN_REGISTER_ID)
	if i >= len(r) {
		return Constant{}, false
	}
	return r[i], true
}

func (r Registers) Clone() Registers {
	if r == nil {
		return nil
	}
	return append(Registers(nil), r...)
}

// Box is a transaction output as observed on-chain. Fields are caller-owned;
// code that must not share state with the caller clones the box.
type Box struct {
	Value          uint64
	ErgoTree       []byte
	CreationHeight uint32
	Tokens         []Token
	Registers      Registers
	TxID           [32]byte
	Index          uint16
}

func (b *Box) Clone() *Box {
	if b == nil {
		return nil
	}
	out := &Box{
		Value:          b.Value,
		ErgoTree:       append([]byte(nil), b.ErgoTree...),
		CreationHeight: b.CreationHeight,
		Tokens:         append([]Token(nil), b.Tokens...),
		Registers:      b.Registers.Clone(),
		TxID:           b.TxID,
		Index:          b.Index,
	}
	return out
}

// TokenAmount returns the total amount of the given token carried by the box.
func (b *Box) TokenAmount(id TokenID) uint64 {
	var sum uint64
	for _, t := range b.Tokens {
		if t.ID == id {
			sum += t.Amount
		}
	}
	return sum
}

// ID is the blake2b-256 digest of the canonical box serialization. It is
// recomputed on every call; boxes are plain data and carry no cache.
func (b *Box) ID() BoxID {
	return BoxID(Blake2b256(BoxBytes(b)))
}

// BoxCandidate is a box under construction: everything but the placement
// (transaction id and output index) that inclusion in a transaction assigns.
type BoxCandidate struct {
	Value          uint64
	ErgoTree       []byte
	CreationHeight uint32
	Tokens         []Token
	Registers      Registers
}

func (c *BoxCandidate) Clone() *BoxCandidate {
	if c == nil {
		return nil
	}
	return &BoxCandidate{
		Value:          c.Value,
		ErgoTree:       append([]byte(nil), c.ErgoTree...),
		CreationHeight: c.CreationHeight,
		Tokens:         append([]Token(nil), c.Tokens...),
		Registers:      c.Registers.Clone(),
	}
}

// Box places the candidate at (txid, index), producing the full box.
func (c *BoxCandidate) Box(txid [32]byte, index uint16) *Box {
	return &Box{
		Value:          c.Value,
		ErgoTree:       append([]byte(nil), c.ErgoTree...),
		CreationHeight: c.CreationHeight,
		Tokens:         append([]Token(nil), c.Tokens...),
		Registers:      c.Registers.Clone(),
		TxID:           txid,
		Index:          index,
	}
}
