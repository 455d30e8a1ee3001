// Package stage verifies that on-chain boxes inhabit a protocol stage: a
// fixed script address plus the business rules a box at that address must
// satisfy. A successful verification is witnessed by a StageBox value,
// which cannot be built any other way.
package stage

import (
	"errors"

	"ergopf.dev/framework/address"
	"ergopf.dev/framework/chain"
)

// StageType names one stage of a protocol. Implementations are zero-sized
// marker types; the compiler then separates boxes of different stages.
type StageType interface {
	StageName() string
}

// Predicate holds the business rules of a stage. Implementations must be
// pure: deterministic, free of I/O, and without captured mutable state.
// Verification calls the predicate exactly once per box.
//
// A predicate reports failures through the constructor helpers in this
// package. Any other non-nil error is treated as BOX_ERR_OTHER.
type Predicate func(*chain.Box) error

// Stage is the descriptor of one protocol stage. It is immutable after
// construction; a single value may serve any number of concurrent
// verifications.
type Stage[T StageType] struct {
	hardcoded  map[string]chain.Constant
	p2sAddress string
	predicate  Predicate
	encoder    address.Encoder
}

// New builds a mainnet stage descriptor. Inputs are stored verbatim: the
// address is not validated and the hardcoded table is not interpreted.
// Every malformed input surfaces later, as a verification failure.
func New[T StageType](hardcoded map[string]chain.Constant, p2sAddress string, predicate Predicate) *Stage[T] {
	return NewOnNetwork[T](address.Mainnet, hardcoded, p2sAddress, predicate)
}

// NewOnNetwork builds a stage descriptor whose address check runs against
// the given network.
func NewOnNetwork[T StageType](network address.Network, hardcoded map[string]chain.Constant, p2sAddress string, predicate Predicate) *Stage[T] {
	s := &Stage[T]{
		hardcoded:  make(map[string]chain.Constant, len(hardcoded)),
		p2sAddress: p2sAddress,
		predicate:  predicate,
		encoder:    address.NewEncoder(network),
	}
	for k, v := range hardcoded {
		s.hardcoded[k] = v
	}
	return s
}

// StageName returns the marker type's name without needing an instance.
func (s *Stage[T]) StageName() string {
	var tag T
	return tag.StageName()
}

func (s *Stage[T]) P2SAddress() string { return s.p2sAddress }

func (s *Stage[T]) Network() address.Network { return s.encoder.Network() }

// Hardcoded looks up one entry of the descriptor's hardcoded-value table.
// Verification itself never consults the table; it exists for predicate
// authors and tooling.
func (s *Stage[T]) Hardcoded(key string) (chain.Constant, bool) {
	c, ok := s.hardcoded[key]
	return c, ok
}

// HardcodedValues returns a copy of the hardcoded-value table.
func (s *Stage[T]) HardcodedValues() map[string]chain.Constant {
	out := make(map[string]chain.Constant, len(s.hardcoded))
	for k, v := range s.hardcoded {
		out[k] = v
	}
	return out
}

// VerifyBox checks that the box inhabits this stage. The script address is
// recomputed from the box's own tree and compared first; only on a match do
// the predicate's rules run. The first failed check wins and verification
// stops there.
//
// On success the returned StageBox wraps a private copy of the box, so
// later caller-side mutation cannot reach the verified value.
func (s *Stage[T]) VerifyBox(b *chain.Box) (*StageBox[T], error) {
	if b == nil {
		return nil, boxerr(BOX_ERR_OTHER, "nil box")
	}
	if s.predicate == nil {
		return nil, boxerr(BOX_ERR_OTHER, "nil predicate")
	}

	got, err := s.encoder.EncodeTree(b.ErgoTree)
	if err != nil || got != s.p2sAddress {
		return nil, boxerr(BOX_ERR_INVALID_P2S_ADDRESS, "")
	}

	if err := s.predicate(b); err != nil {
		var v *VerificationError
		if errors.As(err, &v) && v != nil {
			return nil, v
		}
		return nil, boxerr(BOX_ERR_OTHER, err.Error())
	}

	var tag T
	return &StageBox[T]{tag: tag, box: *b.Clone()}, nil
}

// StageBox witnesses that a box passed verification against the stage T.
// Both fields are unexported: the only way to obtain one is VerifyBox, and
// holding one is proof the checks ran. The wrapped box is never
// re-validated.
type StageBox[T StageType] struct {
	tag T
	box chain.Box
}

// Box returns a deep copy of the verified box. The witness's own copy
// stays untouched no matter what the caller does with the result.
func (sb *StageBox[T]) Box() chain.Box {
	return *sb.box.Clone()
}

func (sb *StageBox[T]) Value() uint64 { return sb.box.Value }

func (sb *StageBox[T]) ID() chain.BoxID { return sb.box.ID() }

func (sb *StageBox[T]) Tokens() []chain.Token {
	return append([]chain.Token(nil), sb.box.Tokens...)
}

func (sb *StageBox[T]) Registers() chain.Registers {
	return sb.box.Registers.Clone()
}

func (sb *StageBox[T]) Tag() T { return sb.tag }

func (sb *StageBox[T]) StageName() string { return sb.tag.StageName() }
