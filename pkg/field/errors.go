package field

import "errors"

// ErrMalformedFrame marks a scan that cannot be turned into a vector.
// The frame is skipped; it is never fatal.
var ErrMalformedFrame = errors.New("malformed scan frame")
