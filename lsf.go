package lsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/bits"
)

// defaultOverheadFactor is the ribbon's target fill rate: how close to
// perfectly packed (1.0) the banded system runs; the slot count is sized
// to roughly n/defaultOverheadFactor.
const defaultOverheadFactor = 0.91

// containerMagic identifies a persisted LSF container.
var containerMagic = [4]byte{'L', 'S', 'F', '1'}

const containerVersion uint16 = 1

// TrainingKey is one (fingerprint, probability vector, label) triple, the
// input Build trains on.
type TrainingKey struct {
	H uint64
	P []float32
	Y Symbol
}

// Stats reports per-key size diagnostics as plain fields on the value
// Build returns, rather than as mutable package-level counters.
// ModelBitsPerKey is not tracked here: Build never sees a Model, only the
// probability vectors it already emitted, so a model's own footprint
// (FreqModel.ModelBytes, GaussModel.ModelBytes) is the caller's to fold
// into a combined total when it built the model itself.
type Stats struct {
	Keys                 int
	FilterBitsPerKey     float64
	CorrectionBitsPerKey float64
	TotalBitsPerKey      float64
	CrossEntropy         float64
}

// LSF is the built, immutable learned static function: two ribbons (filter
// and correction) plus the coder/policy configuration needed to decode
// them. Once built, queries never mutate it and are safe to issue
// concurrently.
type LSF struct {
	c          int
	kind       CoderKind
	policy     FilterPolicy
	factory    CoderFactory
	filter     *ribbon
	correction *ribbon
	maxLenF    int
	maxLenK    int
}

// Build runs the two-pass construction: encode every key's filter code,
// build the filter ribbon, then re-encode corrections against what that
// ribbon actually returns, and build the correction ribbon.
func Build(keys []TrainingKey, c int, kind CoderKind, policy FilterPolicy, seedFilter, seedCorrection uint64) (*LSF, Stats, error) {
	factory, err := factoryFor(kind)
	if err != nil {
		return nil, Stats{}, err
	}
	if policy == nil {
		policy = OptFilterPolicy{}
	}
	n := len(keys)

	p64s := make([][]float64, n)
	for i, k := range keys {
		if err := validateProbabilities(k.P, c); err != nil {
			return nil, Stats{}, err
		}
		p64s[i] = toFloat64(k.P)
	}

	// Pass 1: encode filters, accumulate the filter ribbon's value width.
	filterEntries := make([]ribbonEntry, n)
	filterLens := make([]int, n)
	maxLenF := 0
	crossEntropy := 0.0
	for i, k := range keys {
		filterWord, lenF := EncodeFilter(policy, factory, p64s[i], k.Y)
		if lenF > maxCodeBits {
			return nil, Stats{}, fmt.Errorf("%w: filter length %d", ErrCodeTooLong, lenF)
		}
		filterLens[i] = lenF
		if lenF > maxLenF {
			maxLenF = lenF
		}
		filterEntries[i] = ribbonEntry{h: k.H, value: filterWord | (uint64(1) << uint(lenF))}
		crossEntropy += math.Log2(clampProbability(float64(k.P[k.Y])))
	}
	if n > 0 {
		crossEntropy = -crossEntropy / float64(n)
	}

	RF, err := buildRibbon(filterEntries, maxLenF+1, defaultOverheadFactor, seedFilter)
	if err != nil {
		return nil, Stats{}, err
	}

	// Pass 2: recompute filters from what the ribbon actually returns for
	// each key, then encode corrections against that.
	correctionEntries := make([]ribbonEntry, n)
	maxLenK := 0
	for i, k := range keys {
		raw := RF.Query(k.H)
		filterWord, _ := stripTerminator(raw)
		corrWord, lenK := EncodeCorrection(policy, factory, p64s[i], k.Y, filterWord)
		if lenK > maxCodeBits {
			return nil, Stats{}, fmt.Errorf("%w: correction length %d", ErrCodeTooLong, lenK)
		}
		if lenK > maxLenK {
			maxLenK = lenK
		}
		correctionEntries[i] = ribbonEntry{h: k.H, value: corrWord | (uint64(1) << uint(lenK))}
	}

	RK, err := buildRibbon(correctionEntries, maxLenK+1, defaultOverheadFactor, seedCorrection)
	if err != nil {
		return nil, Stats{}, err
	}

	l := &LSF{
		c:          c,
		kind:       kind,
		policy:     policy,
		factory:    factory,
		filter:     RF,
		correction: RK,
		maxLenF:    maxLenF,
		maxLenK:    maxLenK,
	}

	stats := Stats{Keys: n, CrossEntropy: crossEntropy}
	if n > 0 {
		sumF, sumK := 0, 0
		for _, flen := range filterLens {
			sumF += flen
		}
		stats.FilterBitsPerKey = float64(sumF) / float64(n)
		for i := range keys {
			raw := RK.Query(keys[i].H)
			_, lenK := stripTerminator(raw)
			sumK += lenK
		}
		stats.CorrectionBitsPerKey = float64(sumK) / float64(n)
		stats.TotalBitsPerKey = float64(l.SizeBytes()) * 8 / float64(n)
	}
	return l, stats, nil
}

// Query recovers the label for a fingerprint/probability pair. h and p
// must be the same values used to train this key at build time; querying
// a non-training key returns an undefined label.
func (l *LSF) Query(h uint64, p []float32) (Symbol, error) {
	if err := validateProbabilities(p, l.c); err != nil {
		return 0, err
	}
	p64 := toFloat64(p)
	filterWord, _ := stripTerminator(l.filter.Query(h))
	corrWord, _ := stripTerminator(l.correction.Query(h))
	return Decode(l.policy, l.factory, p64, filterWord, corrWord), nil
}

// SizeBytes reports the ribbons' combined size. A model's own footprint,
// if the caller trained one, is reported by the model, not here.
func (l *LSF) SizeBytes() int {
	return l.filter.sizeBytes() + l.correction.sizeBytes()
}

// VerifyDeterminism re-queries every training key and confirms it still
// decodes to the label it was built with. If a model's Invoke isn't
// stable across build and query, an LSF silently returns wrong labels
// with no other symptom, so this is meant to run in tests and debug
// builds, not in the hot query path.
func (l *LSF) VerifyDeterminism(keys []TrainingKey) error {
	for _, k := range keys {
		got, err := l.Query(k.H, k.P)
		if err != nil {
			return err
		}
		if got != k.Y {
			return fmt.Errorf("%w: key hash %d got %d want %d", ErrModelNondeterministic, k.H, got, k.Y)
		}
	}
	return nil
}

// stripTerminator recovers (value, length) from a ribbon-stored word
// v | (1<<length): the terminator is the highest set bit.
func stripTerminator(raw uint64) (value uint64, length int) {
	if raw == 0 {
		return 0, 0
	}
	length = bits.Len64(raw) - 1
	value = raw &^ (uint64(1) << uint(length))
	return value, length
}

// toFloat64 widens a probability vector for the coder layer, which works
// in float64 internally for numerical headroom during ratio arithmetic.
func toFloat64(p []float32) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = float64(v)
	}
	return out
}

// WriteTo serializes the LSF as a self-describing container: a fixed
// little-endian header followed by the two ribbons' own serializations.
func (l *LSF) WriteTo(w io.Writer) (int64, error) {
	var hdr bytes.Buffer
	hdr.Write(containerMagic[:])
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], uint16(l.kind))
	hdr.Write(u16[:])
	hdr.WriteByte(byte(kMax))
	hdr.WriteByte(byte(containerVersion))
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(l.c))
	hdr.Write(u32[:])
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], l.filter.seed)
	hdr.Write(u64[:])
	binary.LittleEndian.PutUint64(u64[:], l.correction.seed)
	hdr.Write(u64[:])
	binary.LittleEndian.PutUint16(u16[:], uint16(l.maxLenF))
	hdr.Write(u16[:])
	binary.LittleEndian.PutUint16(u16[:], uint16(l.maxLenK))
	hdr.Write(u16[:])

	filterBytes, err := l.filter.MarshalBinary()
	if err != nil {
		return 0, err
	}
	correctionBytes, err := l.correction.MarshalBinary()
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(u32[:], uint32(len(filterBytes)))
	hdr.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], uint32(len(correctionBytes)))
	hdr.Write(u32[:])

	var n int64
	nn, err := w.Write(hdr.Bytes())
	n += int64(nn)
	if err != nil {
		return n, err
	}
	nn, err = w.Write(filterBytes)
	n += int64(nn)
	if err != nil {
		return n, err
	}
	nn, err = w.Write(correctionBytes)
	n += int64(nn)
	return n, err
}

// ReadFrom deserializes an LSF written by WriteTo. The coder kind persists;
// the filter policy does not (the container has no policy-kind field), so
// ReadFrom always reconstructs OptFilterPolicy.
func (l *LSF) ReadFrom(r io.Reader) (int64, error) {
	// magic[4] kind[2] kmax[1] version[1] numClasses[4] seedFilter[8]
	// seedCorrection[8] maxLenF[2] maxLenK[2] filterBytes[4] corrBytes[4]
	var hdr [40]byte
	n, err := io.ReadFull(r, hdr[:])
	total := int64(n)
	if err != nil {
		return total, err
	}
	if *(*[4]byte)(hdr[0:4]) != containerMagic {
		return total, ErrBadMagic
	}
	kind := CoderKind(binary.LittleEndian.Uint16(hdr[4:6]))
	// hdr[6] = filter_k_max, informational here.
	if v := hdr[7]; v != byte(containerVersion) {
		return total, fmt.Errorf("%w: container version %d", ErrBadVersion, v)
	}
	numClasses := binary.LittleEndian.Uint32(hdr[8:12])
	// hdr[12:20] and hdr[20:28] (seedFilter/seedCorrection) are redundant
	// with the per-ribbon headers unmarshaled below.
	maxLenF := int(binary.LittleEndian.Uint16(hdr[28:30]))
	maxLenK := int(binary.LittleEndian.Uint16(hdr[30:32]))
	filterRibbonBytes := binary.LittleEndian.Uint32(hdr[32:36])
	correctionRibbonBytes := binary.LittleEndian.Uint32(hdr[36:40])

	filterBuf := make([]byte, filterRibbonBytes)
	nn, err := io.ReadFull(r, filterBuf)
	total += int64(nn)
	if err != nil {
		return total, err
	}
	correctionBuf := make([]byte, correctionRibbonBytes)
	nn, err = io.ReadFull(r, correctionBuf)
	total += int64(nn)
	if err != nil {
		return total, err
	}

	factory, err := factoryFor(kind)
	if err != nil {
		return total, err
	}
	filter := &ribbon{}
	if err := filter.UnmarshalBinary(filterBuf); err != nil {
		return total, err
	}
	correction := &ribbon{}
	if err := correction.UnmarshalBinary(correctionBuf); err != nil {
		return total, err
	}

	l.c = int(numClasses)
	l.kind = kind
	l.policy = OptFilterPolicy{}
	l.factory = factory
	l.filter = filter
	l.correction = correction
	l.maxLenF = maxLenF
	l.maxLenK = maxLenK
	return total, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (l *LSF) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := l.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (l *LSF) UnmarshalBinary(data []byte) error {
	_, err := l.ReadFrom(bytes.NewReader(data))
	return err
}
