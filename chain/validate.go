package chain

import "fmt"

// CheckCandidate applies the semantic box rules an output must satisfy
// before it can be placed in a transaction: positive value, a non-empty
// script within bounds, positive token amounts, valid register payloads,
// and an overall serialized size under the cap.
func CheckCandidate(c *BoxCandidate) error {
	if c == nil {
		return fmt.Errorf("box: nil candidate")
	}
	if c.Value == 0 {
		return fmt.Errorf("box: value must be > 0")
	}
	if len(c.ErgoTree) == 0 {
		return fmt.Errorf("box: empty tree")
	}
	if len(c.ErgoTree) > MAX_TREE_SIZE_BYTES {
		return fmt.Errorf("box: tree exceeds %d bytes", MAX_TREE_SIZE_BYTES)
	}
	if len(c.Tokens) > MAX_TOKENS_PER_BOX {
		return fmt.Errorf("box: token count exceeds %d", MAX_TOKENS_PER_BOX)
	}
	for i, tok := range c.Tokens {
		if tok.Amount == 0 {
			return fmt.Errorf("box: token %d amount must be > 0", i)
		}
	}
	if len(c.Registers) > int(MAX_REGISTER_ID-MIN_REGISTER_ID+1) {
		return fmt.Errorf("box: register count exceeds %d", MAX_REGISTER_ID-MIN_REGISTER_ID+1)
	}
	for i, reg := range c.Registers {
		if err := checkRegisterConstant(reg); err != nil {
			return fmt.Errorf("box: register %s: %w", MIN_REGISTER_ID+RegisterID(i), err)
		}
	}
	if size := len(CandidateBytes(c)); size > MAX_BOX_SIZE_BYTES {
		return fmt.Errorf("box: serialized size %d exceeds %d", size, MAX_BOX_SIZE_BYTES)
	}
	return nil
}

// CheckBox applies CheckCandidate's rules to a placed box.
func CheckBox(b *Box) error {
	if b == nil {
		return fmt.Errorf("box: nil box")
	}
	cand := BoxCandidate{
		Value:          b.Value,
		ErgoTree:       b.ErgoTree,
		CreationHeight: b.CreationHeight,
		Tokens:         b.Tokens,
		Registers:      b.Registers,
	}
	if err := CheckCandidate(&cand); err != nil {
		return err
	}
	if size := len(BoxBytes(b)); size > MAX_BOX_SIZE_BYTES {
		return fmt.Errorf("box: serialized size %d exceeds %d", size, MAX_BOX_SIZE_BYTES)
	}
	return nil
}

func checkRegisterConstant(c Constant) error {
	switch c.Type() {
	case CONST_TYPE_BOOLEAN, CONST_TYPE_INT, CONST_TYPE_LONG:
		return nil
	case CONST_TYPE_BYTES:
		if len(c.raw) > MAX_CONSTANT_BYTES {
			return fmt.Errorf("constant: byte collection exceeds %d bytes", MAX_CONSTANT_BYTES)
		}
		return nil
	case CONST_TYPE_GROUP_ELEMENT:
		p, err := c.GroupElement()
		if err != nil {
			return err
		}
		return checkGroupElement(p)
	default:
		return fmt.Errorf("constant: unknown type tag 0x%02x", uint8(c.Type()))
	}
}
