package chain

import "golang.org/x/crypto/blake2b"

// Blake2b256 is the protocol digest: box identifiers and address checksums
// are all derived from it.
func Blake2b256(b []byte) [32]byte {
	return blake2b.Sum256(b)
}
