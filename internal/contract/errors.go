package contract

import "errors"

// Error classes surfaced by the core. Match them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid modifier")
	ErrTransient  = errors.New("transient network failure")
	ErrOracle     = errors.New("oracle computation failed")
	ErrBadChart   = errors.New("unusable chart file")
)

// IsScoreLocal reports whether err only concerns a single score, so a batch
// can record it and continue.
func IsScoreLocal(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrOracle) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadChart)
}
