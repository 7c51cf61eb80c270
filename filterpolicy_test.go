package lsf

import "testing"

func TestOptFilterPolicyThresholds(t *testing.T) {
	pol := OptFilterPolicy{}
	// T[k] = 1/(2^(k+1)+1); p=0.5 is above T[0]=1/3≈0.333 (and so above
	// every later threshold), meaning k stays 0 (a uniform distribution
	// earns no filter bits at all).
	if k := pol.K(0.5, 0, 0); k != 0 {
		t.Fatalf("K(0.5): got %d want 0", k)
	}
	// A very small probability should earn a large k (bounded by kMax).
	if k := pol.K(1e-9, 0, 0); k != kMax {
		t.Fatalf("K(1e-9): got %d want %d", k, kMax)
	}
	if k := pol.K(0, 0, 0); k != kMax {
		t.Fatalf("K(0): got %d want %d", k, kMax)
	}
}

func TestOptFilterPolicyClampsToRunningBudget(t *testing.T) {
	pol := OptFilterPolicy{}
	k := pol.K(1e-9, 0, 60)
	if k > 3 {
		t.Fatalf("K should clamp so k+runningFilterLen<=63, got k=%d with running=60", k)
	}
	if k < 0 {
		t.Fatalf("K must never be negative, got %d", k)
	}
}

func TestNoFilterPolicyAlwaysZero(t *testing.T) {
	pol := NoFilterPolicy{}
	for _, p := range []float64{0, 0.001, 0.5, 0.999} {
		if k := pol.K(p, 3, 10); k != 0 {
			t.Fatalf("NoFilterPolicy.K(%v) = %d, want 0", p, k)
		}
	}
}

func TestOnlyRootFilterPolicyNonzeroOnlyAtRoot(t *testing.T) {
	pol := OnlyRootFilterPolicy{}
	if k := pol.K(1e-9, 0, 0); k == 0 {
		t.Fatalf("OnlyRootFilterPolicy should contribute bits at depth 0")
	}
	if k := pol.K(1e-9, 1, 0); k != 0 {
		t.Fatalf("OnlyRootFilterPolicy should contribute nothing past depth 0, got %d", k)
	}
}

func TestClampFilterLen(t *testing.T) {
	if got := clampFilterLen(10, 58); got != 5 {
		t.Fatalf("clampFilterLen(10,58): got %d want 5", got)
	}
	if got := clampFilterLen(5, 63); got != 0 {
		t.Fatalf("clampFilterLen(5,63): got %d want 0", got)
	}
	if got := clampFilterLen(5, 10); got != 5 {
		t.Fatalf("clampFilterLen(5,10): got %d want 5 (no clamp needed)", got)
	}
}
