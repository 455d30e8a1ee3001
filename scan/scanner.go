// Package scan matches snapshots of boxes against registered box specs
// and records the results.
//
// A Scanner owns a store, a set of named specs and an address cache.
// Ingest feeds it a batch of boxes; every valid box is stored under its
// encoded address and checked against each spec, and matches are
// persisted so they can be read back later without re-verifying.
package scan

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"ergopf.dev/framework/address"
	"ergopf.dev/framework/boxspec"
	"ergopf.dev/framework/chain"
	"ergopf.dev/framework/store"
)

// addrCacheSize bounds the tree-to-address cache. Protocols reuse a
// handful of scripts across many boxes, so even a small cache absorbs
// nearly all encodings.
const addrCacheSize = 4096

type Scanner struct {
	store     *store.DB
	encoder   address.Encoder
	specs     map[string]*boxspec.BoxSpec
	addrCache *lru.Cache[string, string]
	log       zerolog.Logger
}

// Report summarizes one Ingest batch. A box that matches several specs
// counts once in Matched and once per spec in PerSpec.
type Report struct {
	Seen     int
	Matched  int
	Rejected int
	PerSpec  map[string]int
}

// New returns a scanner persisting into db and encoding addresses for
// the given network. Pass zerolog.Nop() to disable logging.
func New(db *store.DB, network address.Network, log zerolog.Logger) (*Scanner, error) {
	if db == nil {
		return nil, fmt.Errorf("scan: nil store")
	}
	cache, err := lru.New[string, string](addrCacheSize)
	if err != nil {
		return nil, fmt.Errorf("scan: address cache: %w", err)
	}
	return &Scanner{
		store:     db,
		encoder:   address.NewEncoder(network),
		specs:     make(map[string]*boxspec.BoxSpec),
		addrCache: cache,
		log:       log,
	}, nil
}

// Register adds a named spec. Names are permanent for the life of the
// scanner; registering the same name twice is an error.
func (s *Scanner) Register(name string, spec *boxspec.BoxSpec) error {
	if name == "" {
		return fmt.Errorf("scan: empty spec name")
	}
	if spec == nil {
		return fmt.Errorf("scan: nil spec %q", name)
	}
	if _, dup := s.specs[name]; dup {
		return fmt.Errorf("scan: spec %q already registered", name)
	}
	if spec.Network() != s.encoder.Network() {
		return fmt.Errorf("scan: spec %q is for %s, scanner is for %s",
			name, spec.Network(), s.encoder.Network())
	}
	s.specs[name] = spec
	return nil
}

// SpecNames returns the registered spec names in sorted order.
func (s *Scanner) SpecNames() []string {
	names := make([]string, 0, len(s.specs))
	for name := range s.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// addressOf encodes a box's tree through the cache. The cache key is
// the tree's digest rather than the tree itself to keep keys short.
func (s *Scanner) addressOf(tree []byte) (string, error) {
	sum := chain.Blake2b256(tree)
	key := string(sum[:])
	if addr, ok := s.addrCache.Get(key); ok {
		return addr, nil
	}
	addr, err := s.encoder.EncodeTree(tree)
	if err != nil {
		return "", err
	}
	s.addrCache.Add(key, addr)
	return addr, nil
}

// Ingest stores each box under its encoded address, checks it against
// every registered spec in name order and records the matches. Boxes
// failing chain.CheckBox, or whose tree cannot be encoded, are counted
// as rejected and skipped. The returned error reflects storage failures
// only; spec mismatches are reported, not errors.
func (s *Scanner) Ingest(boxes []*chain.Box) (Report, error) {
	report := Report{PerSpec: make(map[string]int)}
	names := s.SpecNames()
	for _, name := range names {
		report.PerSpec[name] = 0
	}

	for _, b := range boxes {
		if b == nil {
			continue
		}
		report.Seen++
		id := b.ID()

		if err := chain.CheckBox(b); err != nil {
			report.Rejected++
			s.log.Debug().
				Str("box", id.String()).
				Err(err).
				Msg("box skipped: fails box rules")
			continue
		}
		addr, err := s.addressOf(b.ErgoTree)
		if err != nil {
			report.Rejected++
			s.log.Debug().
				Str("box", id.String()).
				Err(err).
				Msg("box skipped: tree does not encode")
			continue
		}
		if err := s.store.PutBox(addr, b); err != nil {
			return report, fmt.Errorf("scan: store box %s: %w", id, err)
		}

		var hits []string
		for _, name := range names {
			if err := s.specs[name].VerifyBox(b); err != nil {
				continue
			}
			if err := s.store.PutMatch(name, id); err != nil {
				return report, fmt.Errorf("scan: record match %s for %s: %w", name, id, err)
			}
			report.PerSpec[name]++
			hits = append(hits, name)
		}
		if len(hits) > 0 {
			report.Matched++
		} else {
			report.Rejected++
		}
		s.log.Debug().
			Str("box", id.String()).
			Str("address", addr).
			Strs("matched", hits).
			Msg("box ingested")
	}

	s.log.Info().
		Int("seen", report.Seen).
		Int("matched", report.Matched).
		Int("rejected", report.Rejected).
		Msg("ingest complete")
	return report, nil
}

// Matches reads back the boxes previously recorded for the named spec.
func (s *Scanner) Matches(name string) ([]*chain.Box, error) {
	if _, ok := s.specs[name]; !ok {
		return nil, fmt.Errorf("scan: unknown spec %q", name)
	}
	return s.store.MatchedBoxes(name)
}
