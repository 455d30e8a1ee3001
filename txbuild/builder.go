package txbuild

import (
	"errors"
	"fmt"
	"sort"

	"ergopf.dev/framework/address"
	"ergopf.dev/framework/chain"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrDustChange         = errors.New("change below minimum box value")
)

func addU64(a, b uint64) (uint64, error) {
	if b > ^uint64(0)-a {
		return 0, fmt.Errorf("txbuild: u64 overflow")
	}
	return a + b, nil
}

func subU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, fmt.Errorf("txbuild: u64 underflow")
	}
	return a - b, nil
}

// Builder accumulates inputs and outputs, then settles fee and change in
// Build. All value arithmetic is overflow-checked.
type Builder struct {
	enc    address.Encoder
	height uint32
	fee    uint64

	inputs     []UnsignedInput
	inputValue uint64
	inputTok   map[chain.TokenID]uint64

	dataInputs []DataInput

	outputs     []*chain.BoxCandidate
	outputValue uint64
	outputTok   map[chain.TokenID]uint64
}

// NewBuilder starts a transaction at the given height. The fee defaults to
// SAFE_TX_FEE; SetFee overrides it.
func NewBuilder(enc address.Encoder, height uint32) *Builder {
	return &Builder{
		enc:       enc,
		height:    height,
		fee:       chain.SAFE_TX_FEE,
		inputTok:  make(map[chain.TokenID]uint64),
		outputTok: make(map[chain.TokenID]uint64),
	}
}

func (b *Builder) SetFee(fee uint64) *Builder {
	b.fee = fee
	return b
}

// AddInput records a box being spent: its id for the input list, its value
// and tokens for the settlement arithmetic.
func (b *Builder) AddInput(id chain.BoxID, value uint64, tokens []chain.Token) error {
	newValue, err := addU64(b.inputValue, value)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		sum, err := addU64(b.inputTok[tok.ID], tok.Amount)
		if err != nil {
			return err
		}
		b.inputTok[tok.ID] = sum
	}
	b.inputValue = newValue
	b.inputs = append(b.inputs, UnsignedInput{BoxID: id})
	return nil
}

// AddBoxInput is AddInput for a raw box.
func (b *Builder) AddBoxInput(box *chain.Box) error {
	if box == nil {
		return fmt.Errorf("txbuild: nil box")
	}
	return b.AddInput(box.ID(), box.Value, box.Tokens)
}

func (b *Builder) AddDataInput(id chain.BoxID) {
	b.dataInputs = append(b.dataInputs, DataInput{BoxID: id})
}

// AddOutput appends a candidate. It must pass the box rules and carry at
// least the minimum box value.
func (b *Builder) AddOutput(c *chain.BoxCandidate) error {
	if err := chain.CheckCandidate(c); err != nil {
		return fmt.Errorf("txbuild: %w", err)
	}
	if c.Value < chain.MIN_BOX_VALUE {
		return fmt.Errorf("txbuild: output value %d below minimum box value %d", c.Value, chain.MIN_BOX_VALUE)
	}
	newValue, err := addU64(b.outputValue, c.Value)
	if err != nil {
		return err
	}
	for _, tok := range c.Tokens {
		sum, err := addU64(b.outputTok[tok.ID], tok.Amount)
		if err != nil {
			return err
		}
		b.outputTok[tok.ID] = sum
	}
	b.outputValue = newValue
	b.outputs = append(b.outputs, c.Clone())
	return nil
}

// PayTo is shorthand for adding a plain value transfer to an address.
func (b *Builder) PayTo(addr string, value uint64) error {
	cand, err := NewCandidate(b.enc, value, addr, nil, nil, b.height)
	if err != nil {
		return err
	}
	return b.AddOutput(cand)
}

// Build settles the transaction: a fee output is appended, leftover value
// and tokens go to a change output at changeAddr, and the balance must come
// out exact. Inputs short on value or tokens fail with the dedicated
// sentinel errors; leftover value too small to stand as a change box fails
// with ErrDustChange.
func (b *Builder) Build(changeAddr string) (*UnsignedTx, error) {
	if len(b.inputs) == 0 {
		return nil, fmt.Errorf("txbuild: no inputs")
	}

	spend, err := addU64(b.outputValue, b.fee)
	if err != nil {
		return nil, err
	}
	if spend > b.inputValue {
		return nil, fmt.Errorf("%w: inputs %d, outputs plus fee %d", ErrInsufficientFunds, b.inputValue, spend)
	}
	change, err := subU64(b.inputValue, spend)
	if err != nil {
		return nil, err
	}

	changeTokens, err := b.tokenChange()
	if err != nil {
		return nil, err
	}

	outputs := append([]*chain.BoxCandidate(nil), b.outputs...)

	feeCand, err := FeeCandidate(b.fee, b.height)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, feeCand)

	switch {
	case change == 0 && len(changeTokens) == 0:
		// Exact settlement, no change box.
	case change < chain.MIN_BOX_VALUE:
		return nil, fmt.Errorf("%w: %d nanoErg left over", ErrDustChange, change)
	default:
		changeCand, err := ChangeCandidate(b.enc, change, changeTokens, changeAddr, b.height)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, changeCand)
	}

	return NewUnsignedTx(b.inputs, b.dataInputs, outputs)
}

// tokenChange computes per-token input minus output, failing on deficit.
// The result is ordered by id so builds are reproducible.
func (b *Builder) tokenChange() ([]chain.Token, error) {
	var out []chain.Token
	for id, in := range b.inputTok {
		spent := b.outputTok[id]
		if spent > in {
			return nil, fmt.Errorf("%w: token %s: inputs %d, outputs %d", ErrInsufficientTokens, id, in, spent)
		}
		if left := in - spent; left > 0 {
			out = append(out, chain.Token{ID: id, Amount: left})
		}
	}
	for id, spent := range b.outputTok {
		if _, ok := b.inputTok[id]; !ok && spent > 0 {
			return nil, fmt.Errorf("%w: token %s not among inputs", ErrInsufficientTokens, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
