package core

import "errors"

// Errors returned by parsing, loading and querying.
var (
	// ErrMalformedInput marks a document that cannot be turned into a run. The file is skipped.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnresolvableDate marks a document whose date is found in neither header nor filename.
	ErrUnresolvableDate = errors.New("unresolvable date")

	// ErrNoData is returned when a load yields no runs at all, or a query targets an empty series.
	ErrNoData = errors.New("no data")

	// ErrInternalInvariant is returned when the summary engine cannot place a window.
	ErrInternalInvariant = errors.New("internal invariant violated")
)
