// Package lsf implements a learned static function: a compact, immutable
// key->label retrieval structure that exploits an auxiliary probabilistic
// model to store near-entropy corrections instead of full labels.
//
// # Overview
//
// Given a training set of (fingerprint, label) pairs and a model that
// predicts a probability distribution over labels from a key's features,
// Build produces an LSF whose size approaches the cross-entropy
// H(y|M(x)) rather than log2(C) bits per key. Labels are recovered from
// the same (fingerprint, probability vector) pair at query time; querying
// a key outside the training set returns an undefined label.
//
// # Pipeline
//
// Build runs two passes. Pass one walks a prefix-free symbol coder
// (Huffman-like, bucketed-Fano-like, armed, or Shannon) over each key's
// model probabilities and true label, building a filter string (per coder
// level, all-ones where the coder's predicted branch was wrong) and stores
// it in a ribbon retrieval structure keyed by fingerprint. Pass two
// re-walks the coder, this time checking what the filter ribbon will
// actually return for each key, and emits a correction string holding
// only the bits of levels whose filter bits come back all-ones; that goes
// into a second ribbon.
// Query reverses the process: read both ribbons, then decode.
//
// # When to Use an LSF
//
// LSFs are a good fit for:
//   - Static key->label maps where a cheap auxiliary model already
//     predicts most labels correctly
//   - Workloads where the model's accuracy makes log2(C) bits/key
//     wasteful and true entropy-coded storage is worth the complexity
//   - Read-only, build-once-query-many deployments
//
// # When NOT to Use an LSF
//
// An LSF is not suitable for:
//   - Mutable key-value stores (no updates or deletions)
//   - Non-training-set queries (lookups are undefined outside the
//     training keys)
//   - Cases with no usable model: without predictive signal, the
//     structure degenerates to paying close to log2(C) bits/key anyway,
//     plus the filter/correction bookkeeping overhead
//
// # Basic Usage
//
//	keys := []lsf.TrainingKey{
//		{H: fp0, P: []float32{0.9, 0.05, 0.03, 0.02}, Y: 0},
//		{H: fp1, P: []float32{0.25, 0.25, 0.25, 0.25}, Y: 3},
//	}
//	built, stats, err := lsf.Build(keys, 4, lsf.CoderArmedFano, lsf.OptFilterPolicy{}, seedF, seedK)
//	if err != nil {
//		// handle lsf.ErrBuildFailed, lsf.ErrInvalidProbabilities, ...
//	}
//	y, err := built.Query(fp0, []float32{0.9, 0.05, 0.03, 0.02})
//
//	data, _ := built.MarshalBinary()
//	var reloaded lsf.LSF
//	reloaded.UnmarshalBinary(data)
//
// # Performance Characteristics
//
// Build is two linear passes over the training set plus two ribbon
// constructions (each amortized linear in key count, each query O(1)
// word operations bounded by the 64-bit band width). SizeBytes reports
// the two ribbons' combined size; Stats.TotalBitsPerKey and
// Stats.CrossEntropy together show how close the structure landed to the
// theoretical lower bound.
package lsf
