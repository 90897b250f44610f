package usecases

import "errors"

// ErrInvalidLocation is returned when a reference point is outside
// [-90,90] x [-180,180] or not a number.
var ErrInvalidLocation = errors.New("invalid location")

// ErrInvalidDataset is returned when an import is refused. The wrapped
// finder error names the reason.
var ErrInvalidDataset = errors.New("invalid dataset")
