// Package txbuild assembles unsigned transactions from verified inputs and
// declaratively built output candidates. Signing and submission are the
// caller's business.
package txbuild

import (
	"fmt"

	"ergopf.dev/framework/address"
	"ergopf.dev/framework/chain"
)

// NewCandidate builds an output candidate paying the given address. The
// address is resolved to its script; the result passes the box rules before
// it is returned.
func NewCandidate(enc address.Encoder, value uint64, addr string, tokens []chain.Token, registers chain.Registers, height uint32) (*chain.BoxCandidate, error) {
	tree, err := enc.TreeFor(addr)
	if err != nil {
		return nil, fmt.Errorf("txbuild: resolve address: %w", err)
	}
	cand := &chain.BoxCandidate{
		Value:          value,
		ErgoTree:       tree,
		CreationHeight: height,
		Tokens:         append([]chain.Token(nil), tokens...),
		Registers:      registers.Clone(),
	}
	if err := chain.CheckCandidate(cand); err != nil {
		return nil, fmt.Errorf("txbuild: %w", err)
	}
	return cand, nil
}

// feeTree is the protocol's miner-fee collection script. Fee outputs pay to
// it; miners claim them when building a block.
var feeTree = []byte{
	0x10, 0x01, 0x04, 0x02, 0xd1, 0x91, 0xa3, 0x7b,
	0x86, 0x72, 0x64, 0x65, 0x73, 0x92, 0xc1, 0xa7,
}

// FeeTree returns a copy of the miner-fee script.
func FeeTree() []byte {
	return append([]byte(nil), feeTree...)
}

// FeeAddress renders the miner-fee script as an address on the given
// network. It is computed, never stored as a literal.
func FeeAddress(network address.Network) (string, error) {
	return address.NewEncoder(network).EncodeTree(feeTree)
}

// FeeCandidate builds the fee output of a transaction. The amount must be
// able to stand as a box of its own.
func FeeCandidate(amount uint64, height uint32) (*chain.BoxCandidate, error) {
	if amount < chain.MIN_BOX_VALUE {
		return nil, fmt.Errorf("txbuild: fee %d below minimum box value %d", amount, chain.MIN_BOX_VALUE)
	}
	cand := &chain.BoxCandidate{
		Value:          amount,
		ErgoTree:       FeeTree(),
		CreationHeight: height,
	}
	if err := chain.CheckCandidate(cand); err != nil {
		return nil, fmt.Errorf("txbuild: %w", err)
	}
	return cand, nil
}

// ChangeCandidate builds the change output returning leftover value and
// tokens to the owner.
func ChangeCandidate(enc address.Encoder, amount uint64, tokens []chain.Token, ownerAddr string, height uint32) (*chain.BoxCandidate, error) {
	if amount < chain.MIN_BOX_VALUE {
		return nil, fmt.Errorf("txbuild: change %d below minimum box value %d", amount, chain.MIN_BOX_VALUE)
	}
	return NewCandidate(enc, amount, ownerAddr, tokens, nil, height)
}
