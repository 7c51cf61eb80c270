package lsf

import "math"

// Symbol is a label in [0, C).
type Symbol = uint16

// clampEpsilon is the numerical floor/ceiling applied to every branching
// probability a coder reports, keeping a walk from treating a 0 or 1
// probability as certain and looping forever.
const clampEpsilon = 1e-7

// maxCodeBits is the hard cap on a single coder walk's length, bounded by
// the 64-bit words the bit I/O layer packs codes into.
const maxCodeBits = 63

// clampProbability restricts p to [epsilon, 1-epsilon], guarding against
// the zero/one edges that would otherwise make a coder walk infinite or a
// reported probability of exactly 0 or 1.
func clampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return 0.5
	}
	if p < clampEpsilon {
		return clampEpsilon
	}
	if p > 1-clampEpsilon {
		return 1 - clampEpsilon
	}
	return p
}

// validateProbabilities rejects a probability vector that is the wrong
// length, contains NaN or a negative entry, or doesn't sum to ~1.
func validateProbabilities(p []float32, c int) error {
	if len(p) != c {
		return ErrDimensionMismatch
	}
	var sum float64
	for _, v := range p {
		if math.IsNaN(float64(v)) || v < 0 {
			return ErrInvalidProbabilities
		}
		sum += float64(v)
	}
	if math.Abs(sum-1) >= 1e-3 && c > 0 {
		return ErrInvalidProbabilities
	}
	return nil
}

// Coder is the shared stateful-walk interface implemented by every symbol
// coder (Huffman, Fano, armed, Shannon). A Coder instance is single-use:
// callers construct a fresh one per encode/decode walk via the coder's
// constructor, which takes the probability vector and, for encoding, the
// target Symbol.
//
// At every internal node the coder reports the probability of the
// less-probable ("rarer") child, always <= 0.5, and tracks internally
// whether the true/false branches were swapped to achieve that (the
// node's "flip" flag). NextBit(bit) always descends to the branch the
// caller names; Bit() reports back, post-flip, which physical branch that
// was — 0 meaning "the branch the coder would have predicted" and 1
// meaning "the other one". That 0/1 convention is what lets the filter
// layer treat "bit 0" and "predicted branch" as synonyms.
type Coder interface {
	// RelProbabilityAndAdvance reports the current node's branching
	// probability (of the rarer child, in [epsilon, 0.5]) and marks the
	// coder ready to receive the corresponding NextBit/NextEncodeBit call.
	// It must not be called again until the walk has advanced past the
	// current node.
	RelProbabilityAndAdvance() float64

	// HasFinished reports whether the walk has reached a leaf.
	HasFinished() bool

	// NextEncodeBit advances one level using the symbol passed at
	// construction time. Valid only when the coder was built in encode
	// mode (i.e. constructed with a target Symbol).
	NextEncodeBit()

	// NextBit advances one level along the branch named by bit (after
	// XOR-ing with the node's flip flag internally).
	NextBit(bit bool)

	// Bit reports the post-flip bit of the most recent descent: false
	// for the branch the coder predicted, true otherwise.
	Bit() bool

	// Result returns the decoded/encoded symbol. Valid only once
	// HasFinished reports true.
	Result() Symbol
}

// CoderFactory constructs a fresh Coder for a given probability vector,
// optionally pre-seeded with an encodeSymbol for encode-mode walks. Passing
// a nil encodeSymbol yields a decode-mode coder.
type CoderFactory func(p []float64, encodeSymbol *Symbol) Coder

// CoderKind identifies a coder implementation, used by the persisted
// container header to pick the matching CoderFactory on load.
type CoderKind uint16

const (
	CoderHuffman CoderKind = iota
	CoderFano
	CoderArmedFano
	CoderShannon
)

// factoryFor returns the CoderFactory for a given kind, wrapping Fano in
// the armed optimization when requested.
func factoryFor(kind CoderKind) (CoderFactory, error) {
	switch kind {
	case CoderHuffman:
		return newHuffmanCoder, nil
	case CoderFano:
		return newFanoCoder, nil
	case CoderArmedFano:
		return armed(newFanoCoder), nil
	case CoderShannon:
		return newShannonCoder, nil
	default:
		return nil, ErrBadVersion
	}
}

// armedState tracks an armedCoder's progress through its single root
// decision node and, after that, its delegation to the wrapped coder.
type armedState uint8

const (
	armedPending     armedState = iota // at the root node, not yet decided
	armedJustDisarmed                  // root resolved to "disarm" this level; inner not yet stepped
	armedDisarmed                      // fully delegating to inner
	armedExploded                     // root resolved to "explode"; result is sStar
)

// armedCoder wraps another coder with a "confident model" short-circuit:
// if some symbol s* has p[s*] > 0.5, the walk starts armed, reporting a
// single node with probability 1-p[s*]. Bit 0
// ("predicted") means "explode" — the result is s* without ever invoking
// the wrapped coder; bit 1 disarms into the wrapped coder restarted on p.
type armedCoder struct {
	wrap         CoderFactory
	p            []float64
	encodeSymbol *Symbol // nil in decode mode

	state armedState
	sStar Symbol
	inner Coder // built once disarmed (immediately, if there's no dominant symbol at all)
}

// armed returns a CoderFactory that wraps wrap with the armed optimization.
func armed(wrap CoderFactory) CoderFactory {
	return func(p []float64, encodeSymbol *Symbol) Coder {
		c := &armedCoder{wrap: wrap, p: p, encodeSymbol: encodeSymbol}
		sStar, ok := dominantSymbol(p)
		if !ok {
			// No symbol has probability > 0.5: there is no armed node at
			// all, so skip straight to the wrapped coder.
			c.state = armedDisarmed
			c.inner = wrap(p, encodeSymbol)
			return c
		}
		c.sStar = sStar
		return c
	}
}

// dominantSymbol returns the symbol with probability > 0.5, if any.
func dominantSymbol(p []float64) (Symbol, bool) {
	for i, v := range p {
		if v > 0.5 {
			return Symbol(i), true
		}
	}
	return 0, false
}

func (c *armedCoder) RelProbabilityAndAdvance() float64 {
	if c.state == armedPending {
		return clampProbability(1 - c.p[c.sStar])
	}
	return c.inner.RelProbabilityAndAdvance()
}

func (c *armedCoder) HasFinished() bool {
	switch c.state {
	case armedExploded:
		return true
	case armedPending:
		return false
	default:
		return c.inner.HasFinished()
	}
}

// NextEncodeBit, NextBit, and Bit agree on the convention every other
// coder uses: the root node's "rarer" outcome is disarming (probability
// 1-p[s*], always <= 0.5, is exactly what RelProbabilityAndAdvance
// reports for this node), so bit false means "predicted" (explode into
// s*, the dominant/majority symbol) and bit true means "disarm" (fall
// through to the wrapped coder). Getting this backwards would silently
// defeat the filter layer's compression: it marks the unpredicted branch
// with all-ones filter bits, so an inverted convention here would
// filter-compress the rare branch instead of the common one.
func (c *armedCoder) NextEncodeBit() {
	if c.state == armedPending {
		if *c.encodeSymbol == c.sStar {
			c.state = armedExploded
		} else {
			c.state = armedJustDisarmed
			c.inner = c.wrap(c.p, c.encodeSymbol)
		}
		return
	}
	c.inner.NextEncodeBit()
}

func (c *armedCoder) NextBit(bit bool) {
	if c.state == armedPending {
		if bit {
			c.state = armedJustDisarmed
			c.inner = c.wrap(c.p, nil)
		} else {
			c.state = armedExploded
		}
		return
	}
	c.inner.NextBit(bit)
}

func (c *armedCoder) Bit() bool {
	switch c.state {
	case armedExploded:
		return false
	case armedJustDisarmed:
		c.state = armedDisarmed
		return true
	default:
		return c.inner.Bit()
	}
}

func (c *armedCoder) Result() Symbol {
	if c.state == armedExploded {
		return c.sStar
	}
	return c.inner.Result()
}
