package finder

import (
	"errors"
	"fmt"
	"math"
)

// Reasons a parsed dataset is refused before it replaces the stored one.
var (
	ErrNoCenters      = errors.New("dataset has no centers")
	ErrNonFinite      = errors.New("dataset has a coordinate that is not a finite number")
	ErrTooManyDropped = errors.New("dataset drops too many lines")
)

// Check reports whether res is fit to replace a stored dataset. A dataset
// must hold at least one center and only finite coordinates. When
// maxDropRatio is positive, the share of dropped data lines must not
// exceed it.
func (res ParseResult) Check(maxDropRatio float64) error {
	if len(res.Centers) == 0 {
		return ErrNoCenters
	}
	for _, c := range res.Centers {
		if !finite(c.Latitude) || !finite(c.Longitude) {
			return fmt.Errorf("%w: %q", ErrNonFinite, c.Name)
		}
	}
	if maxDropRatio > 0 {
		ratio := float64(res.Dropped) / float64(len(res.Centers)+res.Dropped)
		if ratio > maxDropRatio {
			return fmt.Errorf("%w: %.0f%% of its lines", ErrTooManyDropped, ratio*100)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
