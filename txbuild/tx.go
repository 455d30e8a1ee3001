package txbuild

import (
	"fmt"

	"ergopf.dev/framework/chain"
)

// Spendable is anything that can stand as a transaction input. Both raw
// boxes and stage-verified witnesses qualify.
type Spendable interface {
	ID() chain.BoxID
}

type UnsignedInput struct {
	BoxID chain.BoxID
}

// DataInput is a box a script may read without spending it.
type DataInput struct {
	BoxID chain.BoxID
}

// InputFrom references a spendable box as an unsigned input.
func InputFrom(s Spendable) UnsignedInput {
	return UnsignedInput{BoxID: s.ID()}
}

// DataInputFrom references a box as a read-only input.
func DataInputFrom(s Spendable) DataInput {
	return DataInput{BoxID: s.ID()}
}

// UnsignedTx is a fully assembled transaction awaiting signatures.
type UnsignedTx struct {
	Inputs     []UnsignedInput
	DataInputs []DataInput
	Outputs    []*chain.BoxCandidate
}

// NewUnsignedTx assembles a transaction from already-built parts. At least
// one input and one output are required and every output must pass the box
// rules.
func NewUnsignedTx(inputs []UnsignedInput, dataInputs []DataInput, outputs []*chain.BoxCandidate) (*UnsignedTx, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("txbuild: no inputs")
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("txbuild: no outputs")
	}
	cloned := make([]*chain.BoxCandidate, 0, len(outputs))
	for i, c := range outputs {
		if err := chain.CheckCandidate(c); err != nil {
			return nil, fmt.Errorf("txbuild: output %d: %w", i, err)
		}
		cloned = append(cloned, c.Clone())
	}
	return &UnsignedTx{
		Inputs:     append([]UnsignedInput(nil), inputs...),
		DataInputs: append([]DataInput(nil), dataInputs...),
		Outputs:    cloned,
	}, nil
}

// OutputValue sums the nanoErg carried by all outputs.
func (tx *UnsignedTx) OutputValue() (uint64, error) {
	var sum uint64
	for _, c := range tx.Outputs {
		var err error
		sum, err = addU64(sum, c.Value)
		if err != nil {
			return 0, err
		}
	}
	return sum, nil
}
