// Package valuespace produces the integer identifiers substituted into
// request paths and query strings.
package valuespace

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidBounds is returned when Lower > Upper.
var ErrInvalidBounds = errors.New("invalid value space bounds")

const (
	DefaultLower = 0
	DefaultUpper = 4096
)

// Space is an inclusive integer range. It holds no state and is safe to share.
type Space struct {
	Lower int `mapstructure:"lower" yaml:"lower"`
	Upper int `mapstructure:"upper" yaml:"upper"`
}

func Default() Space {
	return Space{Lower: DefaultLower, Upper: DefaultUpper}
}

func (s Space) Validate() error {
	if s.Lower > s.Upper {
		return fmt.Errorf("%w: lower %d > upper %d", ErrInvalidBounds, s.Lower, s.Upper)
	}
	return nil
}

// Span returns Upper-Lower, one less than the number of distinct values. It
// does not overflow, even when the range covers every int.
func (s Space) Span() uint64 {
	return uint64(int64(s.Upper)) - uint64(int64(s.Lower))
}

// Sample draws a uniform value in [Lower, Upper]. rnd must not be shared
// between goroutines; each virtual user owns its own generator.
func (s Space) Sample(rnd *rand.Rand) int {
	if s.Upper <= s.Lower {
		return s.Lower
	}
	span := s.Span()
	if span < math.MaxInt64 {
		return int(int64(s.Lower) + rnd.Int63n(int64(span)+1))
	}
	// The range is wider than int63: draw 64 bits and reject the overshoot.
	for {
		if u := rnd.Uint64(); u <= span {
			return int(int64(s.Lower) + int64(u))
		}
	}
}

// NewSource returns a generator for a single virtual user.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
