package lsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/bits"
)

// ribbonBandWidth is the fixed band width: each key's equation touches
// exactly this many consecutive solution slots.
const ribbonBandWidth = 64

// ribbonMaxAttempts bounds the retry-with-a-fresh-seed loop that kicks in
// when a banded system turns out unsolvable for a given seed.
const ribbonMaxAttempts = 32

// ribbonVersion identifies the persisted ribbon layout.
const ribbonVersion uint32 = 1

// ribbonEntry is one (fingerprint, value) pair to insert into a ribbon.
type ribbonEntry struct {
	h     uint64
	value uint64
}

// ribbon is a constant-time GF(2) banded retrieval structure (a
// "ribbon filter"): built by an online Gaussian elimination keyed by
// pivot column, then solved by back-substitution from the highest pivot
// down.
//
// Every key maps to a (start, coeff) pair derived from its fingerprint and
// the ribbon's seed: the retrieval equation is
//
//	XOR over bits b of coeff where bit b is set: solution[start+b] == value
//
// solution is packed valueWidth bits per slot (via bitio's readInt/writeInt)
// rather than one machine word per slot, so the structure's actual size
// tracks about max_value_len*n/f bits instead of wasting up to 64 bits per slot
// regardless of how wide values actually are.
type ribbon struct {
	packed     []uint64
	numSlots   int
	bandWidth  int
	valueWidth int
	seed       uint64
}

// buildRibbon constructs a ribbon holding every entry's value, retrying
// with a freshly derived seed up to ribbonMaxAttempts times if the banded
// linear system turns out unsolvable for a given seed. overheadFactor
// (≈0.91) is the target fill rate: the slot count is sized to roughly
// n/overheadFactor, which gives the structure's ~10% space overhead over
// the raw payload.
func buildRibbon(entries []ribbonEntry, valueWidth int, overheadFactor float64, seed uint64) (*ribbon, error) {
	n := len(entries)
	numSlots := n + ribbonBandWidth
	if overheadFactor > 0 {
		numSlots = int(math.Ceil(float64(n)/overheadFactor)) + ribbonBandWidth
	}
	if numSlots < ribbonBandWidth {
		numSlots = ribbonBandWidth
	}

	trySeed := seed
	for attempt := 0; attempt < ribbonMaxAttempts; attempt++ {
		solution, ok := attemptRibbonBuild(entries, numSlots, trySeed)
		if ok {
			packed := make([]uint64, bitWords(numSlots*valueWidth))
			for slot, v := range solution {
				writeInt(packed, uint64(slot*valueWidth), uint8(valueWidth), v&loMask[valueWidth])
			}
			return &ribbon{
				packed:     packed,
				numSlots:   numSlots,
				bandWidth:  ribbonBandWidth,
				valueWidth: valueWidth,
				seed:       trySeed,
			}, nil
		}
		trySeed = splitmix64(trySeed + 1)
	}
	return nil, ErrBuildFailed
}

// attemptRibbonBuild runs one banded-elimination attempt. Rows are solved
// online: each new equation is reduced against whatever pivot rows already
// occupy its touched columns, walking to strictly higher pivots until it
// either claims a free column, cancels out entirely (redundant equation,
// absorbed), or contradicts itself (inconsistent system, attempt fails).
func attemptRibbonBuild(entries []ribbonEntry, numSlots int, seed uint64) ([]uint64, bool) {
	rowCoeff := make([]uint64, numSlots)
	rowValue := make([]uint64, numSlots)
	occupied := make([]bool, numSlots)
	startRange := uint64(numSlots - ribbonBandWidth + 1)

	for _, e := range entries {
		start, coeff := ribbonPosition(e.h, seed, startRange)
		value := e.value

		for {
			t := bits.TrailingZeros64(coeff)
			pivot := int(start) + t
			coeff >>= uint(t)

			if !occupied[pivot] {
				rowCoeff[pivot] = coeff
				rowValue[pivot] = value
				occupied[pivot] = true
				break
			}
			coeff ^= rowCoeff[pivot]
			value ^= rowValue[pivot]
			start = uint64(pivot)
			if coeff == 0 {
				if value != 0 {
					return nil, false
				}
				break
			}
		}
	}

	solution := make([]uint64, numSlots)
	for pivot := numSlots - 1; pivot >= 0; pivot-- {
		if !occupied[pivot] {
			continue
		}
		v := rowValue[pivot]
		for c, b := rowCoeff[pivot]>>1, 0; c != 0; c, b = c>>1, b+1 {
			if c&1 == 1 {
				v ^= solution[pivot+1+b]
			}
		}
		solution[pivot] = v
	}
	return solution, true
}

// Query evaluates the stored retrieval equation for fingerprint h.
func (r *ribbon) Query(h uint64) uint64 {
	startRange := uint64(r.numSlots - r.bandWidth + 1)
	start, coeff := ribbonPosition(h, r.seed, startRange)
	var v uint64
	for c, b := coeff, 0; c != 0; c, b = c>>1, b+1 {
		if c&1 == 1 {
			slot := int(start) + b
			v ^= readInt(r.packed, uint64(slot*r.valueWidth), uint8(r.valueWidth))
		}
	}
	return v
}

// sizeBytes reports the packed solution array's size, the figure Stats
// uses for bits/key accounting.
func (r *ribbon) sizeBytes() int {
	return 8 * len(r.packed)
}

// ribbonPosition derives a key's (start, coeff) pair from its fingerprint
// and the ribbon's seed: start selects the band's first column, coeff is a
// 64-bit mask of which of the band's columns the key's equation touches
// (always nonzero, so every equation constrains at least one column).
func ribbonPosition(h, seed, startRange uint64) (start, coeff uint64) {
	mixed := splitmix64(h ^ splitmix64(seed))
	start = mixed % startRange
	coeff = splitmix64(mixed) | 1
	return start, coeff
}

// splitmix64 is a standard fast-avalanche scrambler used here only to
// derive per-key band positions from a fingerprint and ribbon seed; it is
// not a cryptographic or collision-resistant hash, just a bit mixer, so it
// doesn't replace the xxhash-based Fingerprint used for the keys themselves.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// WriteTo serializes the ribbon: a 24-byte header (version, band width,
// value width, slot count, seed), then the packed solution words.
func (r *ribbon) WriteTo(w io.Writer) (int64, error) {
	var hdr [24]byte
	binary.LittleEndian.PutUint32(hdr[0:4], ribbonVersion)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(r.bandWidth))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(r.valueWidth))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(r.numSlots))
	binary.LittleEndian.PutUint64(hdr[16:24], r.seed)

	var n int64
	nn, err := w.Write(hdr[:])
	n += int64(nn)
	if err != nil {
		return n, err
	}

	buf := make([]byte, 8*len(r.packed))
	for i, word := range r.packed {
		binary.LittleEndian.PutUint64(buf[8*i:8*i+8], word)
	}
	nn, err = w.Write(buf)
	n += int64(nn)
	return n, err
}

// ReadFrom deserializes a ribbon written by WriteTo.
func (r *ribbon) ReadFrom(rd io.Reader) (int64, error) {
	var hdr [24]byte
	n, err := io.ReadFull(rd, hdr[:])
	if err != nil {
		return int64(n), err
	}
	if v := binary.LittleEndian.Uint32(hdr[0:4]); v != ribbonVersion {
		return int64(n), fmt.Errorf("%w: ribbon version %d", ErrBadVersion, v)
	}
	r.bandWidth = int(binary.LittleEndian.Uint32(hdr[4:8]))
	r.valueWidth = int(binary.LittleEndian.Uint32(hdr[8:12]))
	r.numSlots = int(binary.LittleEndian.Uint32(hdr[12:16]))
	r.seed = binary.LittleEndian.Uint64(hdr[16:24])

	packedWords := bitWords(r.numSlots * r.valueWidth)
	buf := make([]byte, 8*packedWords)
	nn, err := io.ReadFull(rd, buf)
	total := int64(n) + int64(nn)
	if err != nil {
		return total, err
	}
	r.packed = make([]uint64, packedWords)
	for i := range r.packed {
		r.packed[i] = binary.LittleEndian.Uint64(buf[8*i : 8*i+8])
	}
	return total, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *ribbon) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *ribbon) UnmarshalBinary(data []byte) error {
	_, err := r.ReadFrom(bytes.NewReader(data))
	return err
}
