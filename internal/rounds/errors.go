package rounds

import "errors"

var (
	// ErrRoundNotFound means no sessions exist inside a refined round span.
	ErrRoundNotFound = errors.New("round not found")

	// ErrInvalidQuery marks requests rejected before any data access, such
	// as unknown sort fields or inverted ranges.
	ErrInvalidQuery = errors.New("invalid query")
)
