package lsf

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint(42, 7, []byte("feature-bytes"))
	b := Fingerprint(42, 7, []byte("feature-bytes"))
	if a != b {
		t.Fatalf("Fingerprint not deterministic: %x != %x", a, b)
	}
}

func TestFingerprintVariesWithInputs(t *testing.T) {
	base := Fingerprint(1, 1, []byte("x"))
	if v := Fingerprint(2, 1, []byte("x")); v == base {
		t.Fatalf("seed change did not affect fingerprint")
	}
	if v := Fingerprint(1, 2, []byte("x")); v == base {
		t.Fatalf("key index change did not affect fingerprint")
	}
	if v := Fingerprint(1, 1, []byte("y")); v == base {
		t.Fatalf("feature bytes change did not affect fingerprint")
	}
}

func TestFingerprintNilFeatures(t *testing.T) {
	a := Fingerprint(5, 9, nil)
	b := Fingerprint(5, 9, nil)
	if a != b {
		t.Fatalf("nil-feature fingerprint not deterministic")
	}
	if a == Fingerprint(5, 10, nil) {
		t.Fatalf("nil-feature fingerprint ignored key index")
	}
}
