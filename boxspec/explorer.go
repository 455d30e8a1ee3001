package boxspec

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"ergopf.dev/framework/chain"
)

// UnspentEndpoint builds the explorer URL listing unspent boxes at the
// spec's address. The caller performs the fetch by its own means; nothing
// in this package touches the network.
func (s *BoxSpec) UnspentEndpoint(baseURL string) (string, error) {
	if s.addr == "" {
		return "", fmt.Errorf("explorer: spec has no address")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("explorer: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("explorer: base url must be absolute")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/boxes/unspent/byAddress/" + s.addr
	return u.String(), nil
}

type explorerPage struct {
	Items []json.RawMessage `json:"items"`
}

// ProcessExplorerResponse extracts the boxes matching the spec from an
// explorer listing. Individual entries that fail to parse or fail the spec
// are skipped; only an unreadable envelope is an error. Accepts both the
// paged {"items": [...]} shape and a bare array.
func (s *BoxSpec) ProcessExplorerResponse(data []byte) ([]*chain.Box, error) {
	var entries []json.RawMessage

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("explorer: response: %w", err)
		}
	} else {
		var page explorerPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("explorer: response: %w", err)
		}
		entries = page.Items
	}

	var out []*chain.Box
	for _, raw := range entries {
		box, err := chain.ParseBoxJSON(raw)
		if err != nil {
			continue
		}
		if err := s.VerifyBox(box); err != nil {
			continue
		}
		out = append(out, box)
	}
	return out, nil
}
