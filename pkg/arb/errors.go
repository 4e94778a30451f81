package arb

import "errors"

var (
	// ErrInvalidInput marks a malformed configuration; fatal for that
	// configuration run only.
	ErrInvalidInput = errors.New("invalid input configuration")

	// ErrDataUnavailable marks missing pool or feed data; affected paths
	// degrade to zero-result output.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrNumericOverflow marks pricing math that exceeded the representable
	// range; the offending path is discarded, siblings are unaffected.
	ErrNumericOverflow = errors.New("numeric overflow in pricing")

	// ErrPersistence marks a file or document-store write failure. Not
	// retried automatically; the in-memory ranking stays valid.
	ErrPersistence = errors.New("persistence failure")
)
