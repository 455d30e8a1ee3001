// Package store persists box snapshots in a single bbolt file.
//
// The store is passive. Callers fetch boxes from wherever they like
// (explorer dumps, node APIs, test fixtures) and hand them in already
// parsed; nothing here talks to a ledger. Values are canonical box
// bytes, so every box read back re-derives the id it was stored under.
package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"ergopf.dev/framework/chain"
)

var (
	bucketBoxes     = []byte("boxes_by_id")
	bucketAddrIndex = []byte("box_ids_by_address")
	bucketMatches   = []byte("matches_by_spec")
	bucketMeta      = []byte("meta")
)

var keySnapshotHeight = []byte("snapshot_height")

// DB wraps one bbolt file holding box snapshots, an address index and
// recorded spec matches.
type DB struct {
	dir string
	db  *bolt.DB
}

// Open creates dir if needed and opens (or creates) boxes.db inside it.
func Open(dir string) (*DB, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "boxes.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketBoxes, bucketAddrIndex, bucketMatches, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{dir: dir, db: bdb}, nil
}

// Dir returns the directory the database file lives in.
func (d *DB) Dir() string { return d.dir }

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// Index key layout (bucketAddrIndex and bucketMatches):
//
//	owner bytes | 0x00 | box id 32
//
// Owners are base58 addresses or spec names, neither of which contains a
// NUL byte, so a cursor scan on owner||0x00 finds exactly the ids stored
// under that owner.
func ownerKey(owner string, id chain.BoxID) []byte {
	k := make([]byte, 0, len(owner)+1+len(id))
	k = append(k, owner...)
	k = append(k, 0x00)
	k = append(k, id[:]...)
	return k
}

func ownerPrefix(owner string) []byte {
	p := make([]byte, 0, len(owner)+1)
	p = append(p, owner...)
	p = append(p, 0x00)
	return p
}

func checkOwner(what, owner string) error {
	if owner == "" {
		return fmt.Errorf("store: empty %s", what)
	}
	if strings.IndexByte(owner, 0x00) >= 0 {
		return fmt.Errorf("store: %s contains NUL byte", what)
	}
	return nil
}

// PutBox stores b under its id and indexes it under addr. Boxes failing
// chain.CheckBox are rejected, so every stored record parses back through
// ParseBoxBytes. Re-putting the same box is idempotent.
func (d *DB) PutBox(addr string, b *chain.Box) error {
	if b == nil {
		return fmt.Errorf("store: nil box")
	}
	if err := checkOwner("address", addr); err != nil {
		return err
	}
	if err := chain.CheckBox(b); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	id := b.ID()
	raw := chain.BoxBytes(b)
	return d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketBoxes).Put(id[:], raw); err != nil {
			return err
		}
		return tx.Bucket(bucketAddrIndex).Put(ownerKey(addr, id), nil)
	})
}

func readBox(tx *bolt.Tx, id chain.BoxID) (*chain.Box, error) {
	v := tx.Bucket(bucketBoxes).Get(id[:])
	if v == nil {
		return nil, nil
	}
	// bbolt slices are only valid inside the transaction.
	b, err := chain.ParseBoxBytes(append([]byte(nil), v...))
	if err != nil {
		return nil, fmt.Errorf("store: box %s: %w", id, err)
	}
	return b, nil
}

// GetBox returns the stored box for id. The second return is false when
// the id is unknown.
func (d *DB) GetBox(id chain.BoxID) (*chain.Box, bool, error) {
	var out *chain.Box
	err := d.db.View(func(tx *bolt.Tx) error {
		b, err := readBox(tx, id)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

// DeleteBox removes id from the box bucket, from addr's index and from
// any recorded matches. Deleting an unknown id is a no-op.
func (d *DB) DeleteBox(addr string, id chain.BoxID) error {
	if err := checkOwner("address", addr); err != nil {
		return err
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketBoxes).Delete(id[:]); err != nil {
			return err
		}
		if err := tx.Bucket(bucketAddrIndex).Delete(ownerKey(addr, id)); err != nil {
			return err
		}
		// Collect first: deleting under a live cursor can skip entries.
		mb := tx.Bucket(bucketMatches)
		var stale [][]byte
		c := mb.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if len(k) > len(id) && bytes.Equal(k[len(k)-len(id):], id[:]) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := mb.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) idsUnder(bucket []byte, owner string) ([]chain.BoxID, error) {
	if err := checkOwner("owner", owner); err != nil {
		return nil, err
	}
	prefix := ownerPrefix(owner)
	var ids []chain.BoxID
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			rest := k[len(prefix):]
			if len(rest) != 32 {
				return fmt.Errorf("store: key under %q: want 32-byte id suffix, got %d", owner, len(rest))
			}
			var id chain.BoxID
			copy(id[:], rest)
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *DB) boxesUnder(bucket []byte, owner string) ([]*chain.Box, error) {
	if err := checkOwner("owner", owner); err != nil {
		return nil, err
	}
	prefix := ownerPrefix(owner)
	var out []*chain.Box
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			rest := k[len(prefix):]
			if len(rest) != 32 {
				return fmt.Errorf("store: key under %q: want 32-byte id suffix, got %d", owner, len(rest))
			}
			var id chain.BoxID
			copy(id[:], rest)
			b, err := readBox(tx, id)
			if err != nil {
				return err
			}
			if b == nil {
				return fmt.Errorf("store: entry under %q references missing box %s", owner, id)
			}
			out = append(out, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BoxIDsByAddress returns every box id indexed under addr, in key order.
func (d *DB) BoxIDsByAddress(addr string) ([]chain.BoxID, error) {
	return d.idsUnder(bucketAddrIndex, addr)
}

// BoxesByAddress loads every box indexed under addr. An index entry whose
// box is missing from the box bucket is reported as corruption.
func (d *DB) BoxesByAddress(addr string) ([]*chain.Box, error) {
	return d.boxesUnder(bucketAddrIndex, addr)
}

// PutMatch records that the box with id matched the spec registered
// under name. The box itself must already be stored via PutBox.
func (d *DB) PutMatch(spec string, id chain.BoxID) error {
	if err := checkOwner("spec name", spec); err != nil {
		return err
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketBoxes).Get(id[:]) == nil {
			return fmt.Errorf("store: match for unknown box %s", id)
		}
		return tx.Bucket(bucketMatches).Put(ownerKey(spec, id), nil)
	})
}

// DeleteMatch removes one recorded match. Unknown matches are a no-op.
func (d *DB) DeleteMatch(spec string, id chain.BoxID) error {
	if err := checkOwner("spec name", spec); err != nil {
		return err
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMatches).Delete(ownerKey(spec, id))
	})
}

// MatchIDs returns the ids recorded as matches for the named spec.
func (d *DB) MatchIDs(spec string) ([]chain.BoxID, error) {
	return d.idsUnder(bucketMatches, spec)
}

// MatchedBoxes loads the boxes recorded as matches for the named spec.
func (d *DB) MatchedBoxes(spec string) ([]*chain.Box, error) {
	return d.boxesUnder(bucketMatches, spec)
}

// SetSnapshotHeight records the ledger height the stored snapshot was
// taken at.
//
// Layout: height u64le.
func (d *DB) SetSnapshotHeight(h uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h)
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySnapshotHeight, buf[:])
	})
}

// SnapshotHeight returns the recorded snapshot height. The second return
// is false when none has been set.
func (d *DB) SnapshotHeight() (uint64, bool, error) {
	var (
		out uint64
		ok  bool
	)
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keySnapshotHeight)
		if v == nil {
			return nil
		}
		if len(v) != 8 {
			return fmt.Errorf("store: snapshot height: want 8 bytes, got %d", len(v))
		}
		out = binary.LittleEndian.Uint64(v)
		ok = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return out, ok, nil
}
