package main

import (
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"

	"ergopf.dev/framework/address"
	"ergopf.dev/framework/boxspec"
	"ergopf.dev/framework/chain"
)

// Spec files are TOML:
//
//	[[spec]]
//	name = "bounty"
//	address = "..."
//	min_value = 1000000
//	max_value = 0          # 0 means unbounded
//
//	[[spec.tokens]]
//	id = "<64 hex chars>"
//	min = 1
//
//	[[spec.registers]]
//	id = "R4"
//	type = "long"          # bool | int | long | group | bytes
//	equals = "05c801"      # optional, full constant encoding in hex
type specFile struct {
	Spec []specEntry `toml:"spec"`
}

type specEntry struct {
	Name      string          `toml:"name"`
	Address   string          `toml:"address"`
	MinValue  uint64          `toml:"min_value"`
	MaxValue  uint64          `toml:"max_value"`
	Tokens    []tokenEntry    `toml:"tokens"`
	Registers []registerEntry `toml:"registers"`
}

type tokenEntry struct {
	ID  string `toml:"id"`
	Min uint64 `toml:"min"`
	Max uint64 `toml:"max"`
}

type registerEntry struct {
	ID     string `toml:"id"`
	Type   string `toml:"type"`
	Equals string `toml:"equals"`
}

type namedSpec struct {
	name string
	spec *boxspec.BoxSpec
}

// loadSpecs reads a spec file and builds the specs for the given
// network, preserving file order.
func loadSpecs(path string, net address.Network) ([]namedSpec, error) {
	var file specFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(file.Spec) == 0 {
		return nil, fmt.Errorf("%s: no [[spec]] entries", path)
	}
	seen := make(map[string]bool, len(file.Spec))
	specs := make([]namedSpec, 0, len(file.Spec))
	for i, e := range file.Spec {
		if e.Name == "" {
			return nil, fmt.Errorf("%s: spec %d has no name", path, i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%s: duplicate spec %q", path, e.Name)
		}
		seen[e.Name] = true
		spec, err := buildSpec(e, net)
		if err != nil {
			return nil, fmt.Errorf("%s: spec %q: %w", path, e.Name, err)
		}
		specs = append(specs, namedSpec{name: e.Name, spec: spec})
	}
	return specs, nil
}

func buildSpec(e specEntry, net address.Network) (*boxspec.BoxSpec, error) {
	var value *boxspec.ValueRange
	if e.MinValue != 0 || e.MaxValue != 0 {
		value = &boxspec.ValueRange{Min: e.MinValue, Max: e.MaxValue}
	}

	var tokens []boxspec.TokenSpec
	for _, te := range e.Tokens {
		raw, err := hex.DecodeString(te.ID)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("token id %q: want 64 hex chars", te.ID)
		}
		var id chain.TokenID
		copy(id[:], raw)
		tokens = append(tokens, boxspec.TokenSpec{ID: id, Min: te.Min, Max: te.Max})
	}

	var registers []boxspec.RegisterSpec
	for _, re := range e.Registers {
		id, err := chain.ParseRegisterID(re.ID)
		if err != nil {
			return nil, err
		}
		rs := boxspec.RegisterSpec{ID: id}
		if re.Equals != "" {
			raw, err := hex.DecodeString(re.Equals)
			if err != nil {
				return nil, fmt.Errorf("register %s equals hex: %w", id, err)
			}
			c, used, err := chain.DecodeConstant(raw)
			if err != nil {
				return nil, fmt.Errorf("register %s equals: %w", id, err)
			}
			if used != len(raw) {
				return nil, fmt.Errorf("register %s equals: %d trailing bytes", id, len(raw)-used)
			}
			rs.Equals = &c
			rs.Type = c.Type()
		}
		if re.Type != "" {
			typ, err := parseConstType(re.Type)
			if err != nil {
				return nil, err
			}
			if rs.Equals != nil && typ != rs.Type {
				return nil, fmt.Errorf("register %s: type %s does not match equals constant of type %s", id, typ, rs.Type)
			}
			rs.Type = typ
		} else if rs.Equals == nil {
			return nil, fmt.Errorf("register %s: need type or equals", id)
		}
		registers = append(registers, rs)
	}

	return boxspec.NewOnNetwork(net, e.Address, value, tokens, registers), nil
}

func parseConstType(s string) (chain.ConstType, error) {
	switch s {
	case "bool":
		return chain.CONST_TYPE_BOOLEAN, nil
	case "int":
		return chain.CONST_TYPE_INT, nil
	case "long":
		return chain.CONST_TYPE_LONG, nil
	case "group":
		return chain.CONST_TYPE_GROUP_ELEMENT, nil
	case "bytes":
		return chain.CONST_TYPE_BYTES, nil
	}
	return 0, fmt.Errorf("unknown register type %q", s)
}
