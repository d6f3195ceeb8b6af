package blob

import (
	"golang.org/x/crypto/blake2b"
)

// Blake2b256 is the unkeyed 32 byte BLAKE2b used by Avail for extrinsic
// hashes. Multiple arguments are hashed as their concatenation.
func Blake2b256(data ...[]byte) [32]byte {
	if len(data) == 1 {
		return blake2b.Sum256(data[0])
	}
	// blake2b.New256 only fails for keys longer than 64 bytes
	h, _ := blake2b.New256(nil)
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
