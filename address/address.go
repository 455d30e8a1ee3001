// Package address implements the canonical text encoding of box scripts and
// public keys: a head byte carrying network and type, the body, and a
// four-byte blake2b checksum, rendered in base58.
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"ergopf.dev/framework/chain"
)

type Network byte

const (
	Mainnet Network = 0x00
	Testnet Network = 0x10
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return fmt.Sprintf("network(0x%02x)", byte(n))
	}
}

// Type is the low nibble of the head byte.
type Type byte

const (
	P2PK Type = 0x01
	P2S  Type = 0x03
)

const checksumLen = 4

var (
	ErrEmptyTree        = errors.New("empty script")
	ErrTreeTooLarge     = errors.New("script too large")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidChecksum  = errors.New("invalid checksum")
	ErrUnknownNetwork   = errors.New("unknown network")
	ErrWrongNetwork     = errors.New("wrong network")
	ErrNotScriptAddress = errors.New("not a script address")
)

// Encoder renders and reads addresses for one fixed network. The zero value
// is a mainnet encoder.
type Encoder struct {
	network Network
}

func NewEncoder(n Network) Encoder { return Encoder{network: n} }

func (e Encoder) Network() Network { return e.network }

// EncodeTree renders the pay-to-script address of a serialized box script.
// Equal trees always yield equal addresses on a given network.
func (e Encoder) EncodeTree(tree []byte) (string, error) {
	if len(tree) == 0 {
		return "", ErrEmptyTree
	}
	if len(tree) > chain.MAX_TREE_SIZE_BYTES {
		return "", ErrTreeTooLarge
	}
	return e.encode(P2S, tree), nil
}

// EncodeP2PK renders the pay-to-public-key address of a compressed point.
func (e Encoder) EncodeP2PK(pub [33]byte) string {
	return e.encode(P2PK, pub[:])
}

func (e Encoder) encode(t Type, body []byte) string {
	payload := make([]byte, 0, 1+len(body)+checksumLen)
	payload = append(payload, byte(e.network)|byte(t))
	payload = append(payload, body...)
	sum := chain.Blake2b256(payload)
	payload = append(payload, sum[:checksumLen]...)
	return base58.Encode(payload)
}

// Decoded is the parsed form of an address that passed checksum, network,
// and shape checks.
type Decoded struct {
	Network Network
	Type    Type
	Body    []byte
}

// Decode parses and verifies an address. The checksum is checked before any
// interpretation; addresses from a different network are rejected.
func (e Encoder) Decode(addr string) (*Decoded, error) {
	raw := base58.Decode(addr)
	if len(raw) < 1+checksumLen {
		return nil, ErrInvalidAddress
	}
	content := raw[:len(raw)-checksumLen]
	sum := chain.Blake2b256(content)
	if !bytes.Equal(sum[:checksumLen], raw[len(raw)-checksumLen:]) {
		return nil, ErrInvalidChecksum
	}

	head := content[0]
	network := Network(head & 0xf0)
	typ := Type(head & 0x0f)
	if network != Mainnet && network != Testnet {
		return nil, fmt.Errorf("%w: head 0x%02x", ErrUnknownNetwork, head)
	}
	if network != e.network {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongNetwork, network, e.network)
	}

	body := content[1:]
	switch typ {
	case P2PK:
		if len(body) != 33 {
			return nil, fmt.Errorf("%w: p2pk body must be 33 bytes", ErrInvalidAddress)
		}
	case P2S:
		if len(body) == 0 {
			return nil, fmt.Errorf("%w: empty p2s body", ErrInvalidAddress)
		}
		if len(body) > chain.MAX_TREE_SIZE_BYTES {
			return nil, fmt.Errorf("%w: p2s body exceeds tree cap", ErrInvalidAddress)
		}
	default:
		return nil, fmt.Errorf("%w: unknown type 0x%02x", ErrInvalidAddress, head)
	}

	return &Decoded{
		Network: network,
		Type:    typ,
		Body:    append([]byte(nil), body...),
	}, nil
}

// TreeOf returns the script a pay-to-script address commits to.
func (e Encoder) TreeOf(addr string) ([]byte, error) {
	d, err := e.Decode(addr)
	if err != nil {
		return nil, err
	}
	if d.Type != P2S {
		return nil, ErrNotScriptAddress
	}
	return d.Body, nil
}

// p2pkTreePrefix is the script header that wraps a bare public key:
// header byte, then the prove-dlog opcode pair.
var p2pkTreePrefix = []byte{0x00, 0x08, 0xcd}

// P2PKTree expands a compressed public key into its box script form.
func P2PKTree(pub [33]byte) []byte {
	out := make([]byte, 0, len(p2pkTreePrefix)+33)
	out = append(out, p2pkTreePrefix...)
	out = append(out, pub[:]...)
	return out
}

// TreeFor resolves any supported address to the box script it pays to.
func (e Encoder) TreeFor(addr string) ([]byte, error) {
	d, err := e.Decode(addr)
	if err != nil {
		return nil, err
	}
	switch d.Type {
	case P2S:
		return d.Body, nil
	case P2PK:
		var pub [33]byte
		copy(pub[:], d.Body)
		return P2PKTree(pub), nil
	default:
		return nil, ErrInvalidAddress
	}
}
