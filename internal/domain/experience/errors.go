package experience

import "errors"

// ErrInvalidFormat reports a literal that is negative, malformed, or encodes a month >= 12.
var ErrInvalidFormat = errors.New("invalid experience format")
