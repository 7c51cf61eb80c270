package lsf_test

import (
	"fmt"

	lsf "github.com/gvinciguerra/LearnedStaticFunction"
)

func Example() {
	keys := []lsf.TrainingKey{
		{H: lsf.Fingerprint(1, 0, nil), P: []float32{0.9, 0.05, 0.03, 0.02}, Y: 0},
		{H: lsf.Fingerprint(1, 1, nil), P: []float32{0.1, 0.8, 0.05, 0.05}, Y: 1},
		{H: lsf.Fingerprint(1, 2, nil), P: []float32{0.25, 0.25, 0.25, 0.25}, Y: 3},
	}

	built, _, err := lsf.Build(keys, 4, lsf.CoderArmedFano, lsf.OptFilterPolicy{}, 10, 20)
	if err != nil {
		fmt.Println("build failed:", err)
		return
	}

	for _, k := range keys {
		y, err := built.Query(k.H, k.P)
		if err != nil {
			fmt.Println("query failed:", err)
			return
		}
		fmt.Println(y)
	}
	// Output:
	// 0
	// 1
	// 3
}
