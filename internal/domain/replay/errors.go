package replay

import "errors"

// Sentinel kinds for replay parsing errors.
var (
	// ErrInvalidEncoding marks a payload that promised a replay but could
	// not be decoded. Absent or semantically empty replays are not errors;
	// Parse returns nil for those.
	ErrInvalidEncoding = errors.New("invalid replay encoding")
)
