package find

import "errors"

var (
	// ErrIndexOutOfRange is returned when a result index is neither -1 nor a valid position
	ErrIndexOutOfRange = errors.New("result index out of range")
	// ErrStaleResults is returned when the document changed since the results were computed
	ErrStaleResults = errors.New("search results are stale")
	// ErrNoCurrentResult is returned by operations that need a selected result
	ErrNoCurrentResult = errors.New("no current result")
)
