package palcalc

import (
	"github.com/maax3v3/palcalc/internal/imaging"
	"github.com/maax3v3/palcalc/internal/quantizer"
)

// DecodeError reports an image that could not be read or decoded.
// Use errors.As to retrieve the offending path.
type DecodeError = imaging.DecodeError

// ErrDegenerateInput is returned when the input holds no pixels at all.
var ErrDegenerateInput = quantizer.ErrDegenerateInput
