// Package series computes time-weighted statistics over sparse sample series.
package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/lucasjlepore/lapstat/opt"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

// ErrIntegrity marks a series whose timestamps decrease.
var ErrIntegrity = errors.New("data integrity")

// Point is one retained (timestamp, value) sample.
type Point struct {
	Time  time.Time
	Value int
}

// Series is an ordered run of points. Gaps left by dropped samples are
// bridged by the neighbouring points.
type Series []Point

// Average is the result of WeightedAverage.
type Average struct {
	// Mean is absent when the series covers no time.
	Mean    opt.Value[float64]
	Covered time.Duration
}

// IntegrityError reports the first pair of points whose timestamp goes
// backwards. Index is the position of Next in the series.
type IntegrityError struct {
	Index int
	Prev  time.Time
	Next  time.Time
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("timestamp decreases at point %d: %s -> %s",
		e.Index, e.Prev.UTC().Format(isoMillis), e.Next.UTC().Format(isoMillis))
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// fold sums every consecutive segment. weighted is Σ(v1+v2)·Δms, i.e. twice
// the midpoint value times the segment length in milliseconds, so the sum
// stays exact.
func fold(s Series) (weighted int64, totalMS int64, covered time.Duration, err error) {
	for i := 1; i < len(s); i++ {
		prev, next := s[i-1], s[i]
		dt := next.Time.Sub(prev.Time)
		if dt < 0 {
			return 0, 0, 0, &IntegrityError{Index: i, Prev: prev.Time, Next: next.Time}
		}
		ms := dt.Milliseconds()
		weighted += int64(prev.Value+next.Value) * ms
		totalMS += ms
		covered += dt
	}
	return weighted, totalMS, covered, nil
}

// WeightedAverage returns the duration-weighted mean of s, where each segment
// between consecutive points counts with the midpoint of its two values.
// Fewer than two points, or zero total duration, give an absent mean.
func WeightedAverage(s Series) (Average, error) {
	weighted, totalMS, covered, err := fold(s)
	if err != nil {
		return Average{}, err
	}
	if totalMS == 0 {
		return Average{Covered: covered}, nil
	}
	return Average{
		Mean:    opt.Some(float64(weighted) / float64(2*totalMS)),
		Covered: covered,
	}, nil
}

// Peak returns the largest raw value in s.
func Peak(s Series) opt.Value[int] {
	if len(s) == 0 {
		return opt.None[int]()
	}
	peak := s[0].Value
	for _, p := range s[1:] {
		if p.Value > peak {
			peak = p.Value
		}
	}
	return opt.Some(peak)
}

// FormatClock renders d as MM:SS, truncated to whole seconds. Minutes are not
// wrapped into hours.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
