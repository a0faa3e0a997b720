package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a compact identifier derived from a document's composite identity.
// It is used for keying dead-letter records.
type ID uint64

// IDFromIdentity generates a deterministic ID from a document identity using
// BLAKE2b hashing. Identical identities produce identical IDs.
func IDFromIdentity(identity string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(identity))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}
