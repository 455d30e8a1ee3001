package main

import (
	"encoding/json"
	"fmt"
	"os"

	"ergopf.dev/framework/chain"
)

// loadBoxes reads a box snapshot file: either a bare JSON array of
// explorer-style boxes or an explorer page with an "items" field.
// Unlike the scanner's lenient explorer filtering, a malformed entry
// here is an error, so operators notice broken snapshots.
func loadBoxes(path string) ([]*chain.Box, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var page struct {
			Items []json.RawMessage `json:"items"`
		}
		if err2 := json.Unmarshal(data, &page); err2 != nil {
			return nil, fmt.Errorf("%s: neither a box array nor an items page", path)
		}
		items = page.Items
	}

	boxes := make([]*chain.Box, 0, len(items))
	for i, raw := range items {
		b, err := chain.ParseBoxJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: box %d: %w", path, i, err)
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}
