package chain

import (
	"fmt"
	"math"
)

// CandidateBytes encodes the placement-independent part of a box: value,
// script, creation height, tokens, registers. Encoders never validate;
// CheckCandidate is the gate for semantic rules.
func CandidateBytes(c *BoxCandidate) []byte {
	out := make([]byte, 0, 64+len(c.ErgoTree))
	out = append(out, Uvlq(c.Value).Encode()...)
	out = append(out, Uvlq(len(c.ErgoTree)).Encode()...)
	out = append(out, c.ErgoTree...)
	out = append(out, Uvlq(c.CreationHeight).Encode()...)
	out = append(out, Uvlq(len(c.Tokens)).Encode()...)
	for _, tok := range c.Tokens {
		out = append(out, tok.ID[:]...)
		out = append(out, Uvlq(tok.Amount).Encode()...)
	}
	out = append(out, Uvlq(len(c.Registers)).Encode()...)
	for _, reg := range c.Registers {
		out = append(out, reg.Encode()...)
	}
	return out
}

// BoxBytes is the canonical box serialization: the candidate encoding
// followed by the placement (txid, output index). Box IDs hash these bytes.
func BoxBytes(b *Box) []byte {
	cand := BoxCandidate{
		Value:          b.Value,
		ErgoTree:       b.ErgoTree,
		CreationHeight: b.CreationHeight,
		Tokens:         b.Tokens,
		Registers:      b.Registers,
	}
	out := CandidateBytes(&cand)
	out = append(out, b.TxID[:]...)
	out = append(out, Uvlq(b.Index).Encode()...)
	return out
}

func readUvlq(b []byte, off *int, name string) (uint64, error) {
	u, used, err := DecodeUvlq(b[*off:])
	if err != nil {
		return 0, fmt.Errorf("box: %s: %w", name, err)
	}
	*off += used
	return uint64(u), nil
}

func readRaw(b []byte, off *int, n int, name string) ([]byte, error) {
	if *off+n > len(b) {
		return nil, fmt.Errorf("box: %s truncated", name)
	}
	v := b[*off : *off+n]
	*off += n
	return v, nil
}

// ParseBoxBytes is the strict inverse of BoxBytes. It enforces structural
// bounds (sizes, counts, canonical VLQ) and rejects trailing bytes; semantic
// rules stay with CheckBox.
func ParseBoxBytes(b []byte) (*Box, error) {
	if len(b) > MAX_BOX_SIZE_BYTES {
		return nil, fmt.Errorf("box: exceeds %d bytes", MAX_BOX_SIZE_BYTES)
	}
	off := 0

	value, err := readUvlq(b, &off, "value")
	if err != nil {
		return nil, err
	}

	treeLen, err := readUvlq(b, &off, "tree length")
	if err != nil {
		return nil, err
	}
	if treeLen > MAX_TREE_SIZE_BYTES {
		return nil, fmt.Errorf("box: tree exceeds %d bytes", MAX_TREE_SIZE_BYTES)
	}
	// #nosec G115 -- treeLen bounded by MAX_TREE_SIZE_BYTES above.
	tree, err := readRaw(b, &off, int(treeLen), "tree")
	if err != nil {
		return nil, err
	}

	height, err := readUvlq(b, &off, "creation height")
	if err != nil {
		return nil, err
	}
	if height > math.MaxUint32 {
		return nil, fmt.Errorf("box: creation height overflows u32")
	}

	tokenCount, err := readUvlq(b, &off, "token count")
	if err != nil {
		return nil, err
	}
	if tokenCount > MAX_TOKENS_PER_BOX {
		return nil, fmt.Errorf("box: token count exceeds %d", MAX_TOKENS_PER_BOX)
	}
	tokens := make([]Token, 0, tokenCount)
	for i := uint64(0); i < tokenCount; i++ {
		idBytes, err := readRaw(b, &off, 32, "token id")
		if err != nil {
			return nil, err
		}
		var id TokenID
		copy(id[:], idBytes)
		amount, err := readUvlq(b, &off, "token amount")
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, Token{ID: id, Amount: amount})
	}
	if len(tokens) == 0 {
		tokens = nil
	}

	regCount, err := readUvlq(b, &off, "register count")
	if err != nil {
		return nil, err
	}
	if regCount > uint64(MAX_REGISTER_ID-MIN_REGISTER_ID+1) {
		return nil, fmt.Errorf("box: register count exceeds %d", MAX_REGISTER_ID-MIN_REGISTER_ID+1)
	}
	var regs Registers
	for i := uint64(0); i < regCount; i++ {
		c, used, err := DecodeConstant(b[off:])
		if err != nil {
			return nil, fmt.Errorf("box: register %s: %w", MIN_REGISTER_ID+RegisterID(i), err)
		}
		off += used
		regs = append(regs, c)
	}

	txidBytes, err := readRaw(b, &off, 32, "txid")
	if err != nil {
		return nil, err
	}
	var txid [32]byte
	copy(txid[:], txidBytes)

	index, err := readUvlq(b, &off, "index")
	if err != nil {
		return nil, err
	}
	if index > math.MaxUint16 {
		return nil, fmt.Errorf("box: index overflows u16")
	}

	if off != len(b) {
		return nil, fmt.Errorf("box: %d trailing bytes", len(b)-off)
	}

	// #nosec G115 -- height and index are range-checked above.
	return &Box{
		Value:          value,
		ErgoTree:       append([]byte(nil), tree...),
		CreationHeight: uint32(height),
		Tokens:         tokens,
		Registers:      regs,
		TxID:           txid,
		Index:          uint16(index),
	}, nil
}
