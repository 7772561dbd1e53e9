package activity

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/lapstat/opt"
)

// DecodeFIT decodes an activity FIT file into the document model: one
// activity, one lap per lap message, one track per lap. Records go to the
// last lap that started at or before them; earlier records go to the first
// lap. Invalid FIT sentinels become absent values.
func DecodeFIT(r io.Reader) (*Document, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode fit: %w", ErrFormat, err)
	}
	act, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("%w: activity FIT expected: %w", ErrFormat, err)
	}

	starts := lapStarts(act.Laps)
	tracks := make([]Track, len(starts))
	for _, rec := range act.Records {
		if rec == nil {
			continue
		}
		tp := recordTrackpoint(rec)
		i := 0
		if ts, ok := tp.Time.Get(); ok {
			i = lapIndexAt(starts, ts)
		}
		tracks[i].Trackpoints = append(tracks[i].Trackpoints, tp)
	}

	a := Activity{Laps: make([]Lap, 0, len(tracks))}
	for _, t := range tracks {
		a.Laps = append(a.Laps, Lap{Tracks: []Track{t}})
	}
	return &Document{Activities: []Activity{a}}, nil
}

// lapStarts returns one start time per lap message. A file without laps is
// treated as a single lap starting at the zero time.
func lapStarts(laps []*fit.LapMsg) []time.Time {
	starts := make([]time.Time, 0, len(laps))
	for _, lap := range laps {
		if lap == nil {
			continue
		}
		starts = append(starts, validTimeOrZero(lap.StartTime))
	}
	if len(starts) == 0 {
		starts = append(starts, time.Time{})
	}
	return starts
}

func lapIndexAt(starts []time.Time, ts time.Time) int {
	i := sort.Search(len(starts), func(i int) bool {
		return starts[i].After(ts)
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

func recordTrackpoint(rec *fit.RecordMsg) Trackpoint {
	var tp Trackpoint
	if ts := validTimeOrZero(rec.Timestamp); !ts.IsZero() {
		tp.Time = opt.Some(ts.UTC())
	}
	if rec.HeartRate != math.MaxUint8 {
		tp.HeartRate = opt.Some(int(rec.HeartRate))
	}
	if rec.Power != math.MaxUint16 {
		tp.Power = opt.Some(int(rec.Power))
	}
	return tp
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}
