package lsf

import "testing"

func TestShannonSingleSymbol(t *testing.T) {
	p := []float64{1.0}
	bits, _ := walkEncode(newShannonCoder, p, 0)
	if len(bits) != 0 {
		t.Fatalf("single-symbol shannon walk should be empty, got %v", bits)
	}
	if got := walkDecode(newShannonCoder, p, nil); got != 0 {
		t.Fatalf("single-symbol shannon decode got %d want 0", got)
	}
}

func TestShannonRelProbabilityAlwaysHalf(t *testing.T) {
	p := []float64{0.7, 0.2, 0.1}
	_, probs := walkEncode(newShannonCoder, p, 0)
	for _, pr := range probs {
		if pr != 0.5 {
			t.Fatalf("shannon coder should report a uniform 0.5 at every level, got %v", pr)
		}
	}
}

func TestShannonLengthsFollowCeilLog2(t *testing.T) {
	p := []float64{0.5, 0.25, 0.125, 0.125}
	wantLengths := []int{1, 2, 3, 3}
	for y := Symbol(0); int(y) < len(p); y++ {
		bits, _ := walkEncode(newShannonCoder, p, y)
		if len(bits) != wantLengths[y] {
			t.Fatalf("shannon length for symbol %d: got %d want %d", y, len(bits), wantLengths[y])
		}
	}
}

func TestShannonManySymbolsRoundTrip(t *testing.T) {
	n := 16
	p := make([]float64, n)
	var sum float64
	for i := range p {
		p[i] = 1.0 / float64(uint64(1)<<uint(i%6+1))
		sum += p[i]
	}
	for i := range p {
		p[i] /= sum
	}
	for y := Symbol(0); int(y) < n; y++ {
		bits, _ := walkEncode(newShannonCoder, p, y)
		got := walkDecode(newShannonCoder, p, bits)
		if got != y {
			t.Fatalf("shannon round trip failed for symbol %d (got %d)", y, got)
		}
	}
}
