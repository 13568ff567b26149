package walls

import "errors"

var (
	// ErrEmptyCandidates means extraction produced no lines at all: the
	// scan was too sparse or too noisy.
	ErrEmptyCandidates = errors.New("no line candidates")

	// ErrNoQuadrupleFound means no width pair and length pair formed a
	// rectangle. It is returned on its own when the fallback is disabled.
	ErrNoQuadrupleFound = errors.New("no consistent 4-wall combination")

	// ErrFallbackUnavailable means the 3-wall fallback found no parallel
	// pair with a perpendicular wall either. Errors carrying it also match
	// ErrNoQuadrupleFound.
	ErrFallbackUnavailable = errors.New("no perpendicular pair for 3-wall fallback")
)
