// Package boxspec describes boxes declaratively: an address, a value range,
// token bounds, and register shapes. A spec can verify boxes directly or be
// bridged into the verification core as a predicate.
package boxspec

import (
	"fmt"

	"ergopf.dev/framework/address"
	"ergopf.dev/framework/chain"
	"ergopf.dev/framework/stage"
)

// ValueRange bounds a box's nanoErg value. Max 0 means unbounded above.
type ValueRange struct {
	Min uint64
	Max uint64
}

func (r ValueRange) contains(v uint64) bool {
	if v < r.Min {
		return false
	}
	if r.Max != 0 && v > r.Max {
		return false
	}
	return true
}

// TokenSpec bounds the total amount of one token. Max 0 means unbounded.
type TokenSpec struct {
	ID  chain.TokenID
	Min uint64
	Max uint64
}

// RegisterSpec constrains one register. Equals nil accepts any value of the
// required type.
type RegisterSpec struct {
	ID     chain.RegisterID
	Type   chain.ConstType
	Equals *chain.Constant
}

// BoxSpec is an immutable description of the boxes a protocol step expects.
// An empty address means any script is acceptable.
type BoxSpec struct {
	addr      string
	value     *ValueRange
	tokens    []TokenSpec
	registers []RegisterSpec
	encoder   address.Encoder
}

// New builds a mainnet spec. Nil sections impose no constraint.
func New(addr string, value *ValueRange, tokens []TokenSpec, registers []RegisterSpec) *BoxSpec {
	return NewOnNetwork(address.Mainnet, addr, value, tokens, registers)
}

func NewOnNetwork(network address.Network, addr string, value *ValueRange, tokens []TokenSpec, registers []RegisterSpec) *BoxSpec {
	s := &BoxSpec{
		addr:    addr,
		tokens:  append([]TokenSpec(nil), tokens...),
		encoder: address.NewEncoder(network),
	}
	if value != nil {
		v := *value
		s.value = &v
	}
	for _, r := range registers {
		if r.Equals != nil {
			eq := *r.Equals
			r.Equals = &eq
		}
		s.registers = append(s.registers, r)
	}
	return s
}

func (s *BoxSpec) Address() string          { return s.addr }
func (s *BoxSpec) Network() address.Network { return s.encoder.Network() }

func (s *BoxSpec) Value() *ValueRange {
	if s.value == nil {
		return nil
	}
	v := *s.value
	return &v
}

func (s *BoxSpec) Tokens() []TokenSpec {
	return append([]TokenSpec(nil), s.tokens...)
}

func (s *BoxSpec) Registers() []RegisterSpec {
	out := make([]RegisterSpec, 0, len(s.registers))
	for _, r := range s.registers {
		if r.Equals != nil {
			eq := *r.Equals
			r.Equals = &eq
		}
		out = append(out, r)
	}
	return out
}

// VerifyBox checks the box against every section of the spec, in the fixed
// order address, value, tokens, registers. The first failure wins.
func (s *BoxSpec) VerifyBox(b *chain.Box) error {
	if b == nil {
		return stage.OtherError("nil box")
	}
	if s.addr != "" {
		got, err := s.encoder.EncodeTree(b.ErgoTree)
		if err != nil || got != s.addr {
			return stage.InvalidP2SAddress()
		}
	}
	if err := s.checkValue(b); err != nil {
		return err
	}
	if err := s.checkTokens(b); err != nil {
		return err
	}
	return s.checkRegisters(b)
}

// Predicate bridges the spec's value, token, and register rules into the
// verification core. The address rule stays with the core, which recomputes
// it before any predicate runs.
func (s *BoxSpec) Predicate() stage.Predicate {
	return func(b *chain.Box) error {
		if err := s.checkValue(b); err != nil {
			return err
		}
		if err := s.checkTokens(b); err != nil {
			return err
		}
		return s.checkRegisters(b)
	}
}

func (s *BoxSpec) checkValue(b *chain.Box) error {
	if s.value == nil {
		return nil
	}
	if !s.value.contains(b.Value) {
		if s.value.Max == 0 {
			return stage.InvalidErgsValue(fmt.Sprintf("value %d below minimum %d", b.Value, s.value.Min))
		}
		return stage.InvalidErgsValue(fmt.Sprintf("value %d outside [%d, %d]", b.Value, s.value.Min, s.value.Max))
	}
	return nil
}

func (s *BoxSpec) checkTokens(b *chain.Box) error {
	for _, spec := range s.tokens {
		amount := b.TokenAmount(spec.ID)
		if amount < spec.Min {
			return stage.InvalidTokens(fmt.Sprintf("token %s amount %d below minimum %d", spec.ID, amount, spec.Min))
		}
		if spec.Max != 0 && amount > spec.Max {
			return stage.InvalidTokens(fmt.Sprintf("token %s amount %d above maximum %d", spec.ID, amount, spec.Max))
		}
	}
	return nil
}

func (s *BoxSpec) checkRegisters(b *chain.Box) error {
	for _, spec := range s.registers {
		c, ok := b.Registers.Get(spec.ID)
		if !ok {
			return stage.InvalidRegisters(fmt.Sprintf("%s not populated", spec.ID))
		}
		if c.Type() != spec.Type {
			return stage.InvalidRegisters(fmt.Sprintf("%s holds %s, want %s", spec.ID, c.Type(), spec.Type))
		}
		if spec.Equals != nil && !c.Equal(*spec.Equals) {
			return stage.InvalidRegisters(fmt.Sprintf("%s does not match the required constant", spec.ID))
		}
	}
	return nil
}
