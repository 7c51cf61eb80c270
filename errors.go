package lsf

import "errors"

// Sentinel errors returned by the core package. Callers should use
// errors.Is against these rather than comparing strings, since most
// sites wrap them with additional context via fmt.Errorf("%w: ...").
var (
	// ErrCodeTooLong is returned when a coder walk or a filter/correction
	// encoding would exceed 63 bits.
	ErrCodeTooLong = errors.New("lsf: code exceeds 63 bits")

	// ErrBuildFailed is returned when ribbon construction exhausts its
	// retry budget.
	ErrBuildFailed = errors.New("lsf: ribbon construction failed")

	// ErrInvalidProbabilities is returned when a probability vector
	// contains NaN, a negative value, or doesn't sum to ~1.
	ErrInvalidProbabilities = errors.New("lsf: invalid probability vector")

	// ErrDimensionMismatch is returned when a probability vector's
	// length doesn't match the number of classes C.
	ErrDimensionMismatch = errors.New("lsf: probability vector dimension mismatch")

	// ErrModelNondeterministic is returned by debug self-checks when a
	// training key re-encoded at query time decodes to a different
	// label than it was built with.
	ErrModelNondeterministic = errors.New("lsf: model produced different output on re-invocation")

	// ErrBadMagic is returned by ReadFrom when the container header
	// doesn't start with the expected magic bytes.
	ErrBadMagic = errors.New("lsf: not an LSF container")

	// ErrBadVersion is returned by ReadFrom when the container's coder
	// kind or layout is not recognized by this build.
	ErrBadVersion = errors.New("lsf: unsupported container version")
)
