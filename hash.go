package lsf

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint derives a 64-bit key fingerprint from a build seed, the key's
// ordinal position in the training set, and its feature bytes. Two calls
// with the same (seed, keyIndex, features) always return the same value,
// which is what lets the orchestrator see the same hash at build and
// query time.
//
// features may be nil when training keys are already unique by index; the
// seed and index are mixed into the digest either way, so keys without
// features still get distinct fingerprints per index and per seed.
func Fingerprint(seed uint64, keyIndex uint64, features []byte) uint64 {
	var prefix [16]byte
	binary.LittleEndian.PutUint64(prefix[0:8], seed)
	binary.LittleEndian.PutUint64(prefix[8:16], keyIndex)

	var d xxhash.Digest
	d.Reset()
	d.Write(prefix[:])
	if len(features) > 0 {
		d.Write(features)
	}
	return d.Sum64()
}

// Fingerprint allocates its xxhash.Digest on the stack per call (it's a
// value, not a pointer, until Write escapes it), so concurrent callers
// each get independent hash state without any pooling.
