package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// boxJSON is the explorer/node wire shape for a box. Registers carry the
// full constant encoding (type tag included) as hex, one entry per key.
type boxJSON struct {
	BoxID               string            `json:"boxId,omitempty"`
	Value               uint64            `json:"value"`
	ErgoTree            string            `json:"ergoTree"`
	CreationHeight      uint32            `json:"creationHeight"`
	Assets              []assetJSON       `json:"assets"`
	AdditionalRegisters map[string]string `json:"additionalRegisters"`
	TransactionID       string            `json:"transactionId"`
	Index               uint16            `json:"index"`
}

type assetJSON struct {
	TokenID string `json:"tokenId"`
	Amount  uint64 `json:"amount"`
}

func MarshalBoxJSON(b *Box) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("box: nil box")
	}
	if len(b.Registers) > int(MAX_REGISTER_ID-MIN_REGISTER_ID+1) {
		return nil, fmt.Errorf("box: register count exceeds %d", MAX_REGISTER_ID-MIN_REGISTER_ID+1)
	}
	out := boxJSON{
		BoxID:               b.ID().String(),
		Value:               b.Value,
		ErgoTree:            hex.EncodeToString(b.ErgoTree),
		CreationHeight:      b.CreationHeight,
		Assets:              make([]assetJSON, 0, len(b.Tokens)),
		AdditionalRegisters: make(map[string]string, len(b.Registers)),
		TransactionID:       hex.EncodeToString(b.TxID[:]),
		Index:               b.Index,
	}
	for _, tok := range b.Tokens {
		out.Assets = append(out.Assets, assetJSON{TokenID: tok.ID.String(), Amount: tok.Amount})
	}
	for i, reg := range b.Registers {
		// #nosec G115 -- register count checked above.
		id := MIN_REGISTER_ID + RegisterID(i)
		out.AdditionalRegisters[id.String()] = hex.EncodeToString(reg.Encode())
	}
	return json.Marshal(out)
}

// ParseBoxJSON decodes an explorer-shaped box. The canonical encoding must
// fit MAX_BOX_SIZE_BYTES; when the payload carries a boxId it is
// cross-checked against the recomputed one.
func ParseBoxJSON(data []byte) (*Box, error) {
	var in boxJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("box: json: %w", err)
	}

	tree, err := hex.DecodeString(in.ErgoTree)
	if err != nil {
		return nil, fmt.Errorf("box: ergoTree hex: %w", err)
	}
	if len(tree) == 0 {
		return nil, fmt.Errorf("box: empty tree")
	}
	if len(tree) > MAX_TREE_SIZE_BYTES {
		return nil, fmt.Errorf("box: tree exceeds %d bytes", MAX_TREE_SIZE_BYTES)
	}

	txid, err := parseHash32(in.TransactionID, "transactionId")
	if err != nil {
		return nil, err
	}

	if len(in.Assets) > MAX_TOKENS_PER_BOX {
		return nil, fmt.Errorf("box: token count exceeds %d", MAX_TOKENS_PER_BOX)
	}
	var tokens []Token
	for _, a := range in.Assets {
		id, err := parseHash32(a.TokenID, "tokenId")
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, Token{ID: TokenID(id), Amount: a.Amount})
	}

	regs, err := registersFromKeyed(in.AdditionalRegisters)
	if err != nil {
		return nil, err
	}

	box := &Box{
		Value:          in.Value,
		ErgoTree:       tree,
		CreationHeight: in.CreationHeight,
		Tokens:         tokens,
		Registers:      regs,
		TxID:           txid,
		Index:          in.Index,
	}

	raw := BoxBytes(box)
	if len(raw) > MAX_BOX_SIZE_BYTES {
		return nil, fmt.Errorf("box: exceeds %d bytes", MAX_BOX_SIZE_BYTES)
	}
	if in.BoxID != "" {
		want, err := parseHash32(in.BoxID, "boxId")
		if err != nil {
			return nil, err
		}
		if got := BoxID(Blake2b256(raw)); got != BoxID(want) {
			return nil, fmt.Errorf("box: id mismatch: payload %s, recomputed %s", in.BoxID, got)
		}
	}
	return box, nil
}

// registersFromKeyed maps a keyed register table ("R4" -> constant hex) onto
// the dense in-memory form, rejecting bad keys and gaps.
func registersFromKeyed(m map[string]string) (Registers, error) {
	if len(m) == 0 {
		return nil, nil
	}
	if len(m) > int(MAX_REGISTER_ID-MIN_REGISTER_ID+1) {
		return nil, fmt.Errorf("box: register count exceeds %d", MAX_REGISTER_ID-MIN_REGISTER_ID+1)
	}
	regs := make(Registers, len(m))
	for key, val := range m {
		id, err := ParseRegisterID(key)
		if err != nil {
			return nil, err
		}
		i := int(id - MIN_REGISTER_ID)
		if i >= len(regs) {
			return nil, fmt.Errorf("box: register gap before %s", id)
		}
		raw, err := hex.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("box: register %s hex: %w", id, err)
		}
		c, used, err := DecodeConstant(raw)
		if err != nil {
			return nil, fmt.Errorf("box: register %s: %w", id, err)
		}
		if used != len(raw) {
			return nil, fmt.Errorf("box: register %s: %d trailing bytes", id, len(raw)-used)
		}
		regs[i] = c
	}
	return regs, nil
}

func parseHash32(s, name string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("box: %s hex: %w", name, err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("box: %s must be 32 bytes, got %d", name, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
