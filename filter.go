package lsf

// EncodeFilter walks coder factory in encode mode for symbol y and builds
// the filter string: at each level it takes the filter policy's k bits
// and appends them all-ones if the coder took the unpredicted (minority)
// branch, all-zeros if it took the predicted one. A level comes back
// all-ones exactly when the encoder chose the unpredicted branch, which
// is what lets Decode trust the predicted branch by default and only
// fall back to an explicit correction bit when a level's filter bits say
// otherwise — so a correct, confident prediction costs zero correction
// bits. Bits are packed LSB-first by level (level 0's bits occupy the
// lowest positions).
func EncodeFilter(policy FilterPolicy, factory CoderFactory, p []float64, y Symbol) (filter uint64, length int) {
	coder := factory(p, &y)
	depth := 0
	runningLen := 0
	var filterWord uint64

	for !coder.HasFinished() {
		pLevel := coder.RelProbabilityAndAdvance()
		k := policy.K(pLevel, depth, runningLen)
		coder.NextEncodeBit()
		b := coder.Bit()

		if k > 0 {
			if b { // unpredicted branch taken: all ones
				filterWord |= loMask[k] << uint(runningLen)
			}
			runningLen += k
		}
		depth++
	}
	return filterWord, runningLen
}

// EncodeCorrection re-walks coder factory in encode mode for the same
// symbol y, consuming the filter string the ribbon actually returned
// (filterWord, already stripped of its terminator bit by the caller), and
// emits one correction bit per level where that level's filter bits came
// back all-ones (meaning the coder's predicted branch was wrong and the
// real bit must be recorded explicitly). When the filter policy assigns
// k=0 at a level, the "low k bits equal all-ones" check compares two
// empty bit groups and is vacuously true — so a level with no filter
// bits always contributes a correction bit, carrying the decision
// uncompressed.
func EncodeCorrection(policy FilterPolicy, factory CoderFactory, p []float64, y Symbol, filterWord uint64) (correction uint64, length int) {
	coder := factory(p, &y)
	depth := 0
	runningLen := 0
	var corrWord uint64
	corrLen := 0
	f := filterWord

	for !coder.HasFinished() {
		pLevel := coder.RelProbabilityAndAdvance()
		k := policy.K(pLevel, depth, runningLen)
		coder.NextEncodeBit()
		b := coder.Bit()

		bits := f & loMask[k]
		f >>= uint(k)
		if bits == loMask[k] {
			if b {
				corrWord |= uint64(1) << uint(corrLen)
			}
			corrLen++
		}
		runningLen += k
		depth++
	}
	return corrWord, corrLen
}

// Decode reconstructs the original symbol from a filter string and a
// correction string using a fresh decode-mode coder: at each level it
// trusts the predicted branch unless the filter's bits at that level
// are all-ones, in which case it consumes one bit from the correction
// string instead.
func Decode(policy FilterPolicy, factory CoderFactory, p []float64, filterWord uint64, correctionWord uint64) Symbol {
	coder := factory(p, nil)
	depth := 0
	runningLen := 0
	f := filterWord
	corr := correctionWord

	for !coder.HasFinished() {
		pLevel := coder.RelProbabilityAndAdvance()
		k := policy.K(pLevel, depth, runningLen)

		bits := f & loMask[k]
		f >>= uint(k)
		if bits == loMask[k] {
			b := corr&1 == 1
			corr >>= 1
			coder.NextBit(b)
		} else {
			coder.NextBit(false)
		}
		runningLen += k
		depth++
	}
	return coder.Result()
}
