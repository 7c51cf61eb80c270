package lsf

import (
	"math/rand"
	"testing"
)

func TestReadWriteIntRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]uint64, 8)
	for i := 0; i < 2000; i++ {
		length := uint8(1 + rng.Intn(57)) // stay under ReadInt's 58-bit limit
		bitOffset := uint64(rng.Intn(8*64 - 64))
		value := rng.Uint64() & loMask[length]

		if err := WriteInt(data, bitOffset, length, value); err != nil {
			t.Fatalf("WriteInt: %v", err)
		}
		got := ReadInt(data, bitOffset, length)
		if got != value {
			t.Fatalf("roundtrip mismatch at offset=%d length=%d: got %d want %d", bitOffset, length, got, value)
		}
	}
}

func TestWriteIntPreservesNeighbors(t *testing.T) {
	data := make([]uint64, 2)
	for i := range data {
		data[i] = ^uint64(0)
	}
	if err := WriteInt(data, 10, 5, 0); err != nil {
		t.Fatalf("WriteInt: %v", err)
	}
	if got := readInt(data, 0, 10); got != loMask[10] {
		t.Fatalf("bits before the write were clobbered: %x", got)
	}
	if got := readInt(data, 15, 10); got != loMask[10] {
		t.Fatalf("bits after the write were clobbered: %x", got)
	}
}

func TestWriteIntSpanningWordBoundary(t *testing.T) {
	data := make([]uint64, 2)
	const length = 20
	const value = uint64(0xABCDE)
	if err := WriteInt(data, 60, length, value); err != nil {
		t.Fatalf("WriteInt: %v", err)
	}
	got := ReadInt(data, 60, length)
	if got != value {
		t.Fatalf("spanning write/read mismatch: got %x want %x", got, value)
	}
}

func TestReadIntPanicsAtLength58(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for length>=58")
		}
	}()
	ReadInt(make([]uint64, 2), 0, 58)
}

func TestWriteIntErrorsAtLength64(t *testing.T) {
	err := WriteInt(make([]uint64, 2), 0, 64, 1)
	if err == nil {
		t.Fatalf("expected error for length>=64")
	}
}

func TestBitReverseInvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for n := 0; n <= 64; n++ {
		for trial := 0; trial < 20; trial++ {
			var x uint64
			if n > 0 {
				x = rng.Uint64() & loMask[minInt(n, 64)]
			}
			r := BitReverse(x, n)
			back := BitReverse(r, n)
			if back != x {
				t.Fatalf("bit_reverse(bit_reverse(x,%d),%d) = %x, want %x", n, n, back, x)
			}
		}
	}
}

func TestBitReverseKnownValues(t *testing.T) {
	if got := BitReverse(0b1, 1); got != 0b1 {
		t.Fatalf("reverse of single bit: got %b", got)
	}
	if got := BitReverse(0b10, 2); got != 0b01 {
		t.Fatalf("reverse 10 -> 01: got %b", got)
	}
	if got := BitReverse(0b1000_0000, 8); got != 0b0000_0001 {
		t.Fatalf("reverse byte: got %b", got)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
