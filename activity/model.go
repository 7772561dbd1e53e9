// Package activity holds the typed activity document and its decoders.
package activity

import (
	"time"

	"github.com/lucasjlepore/lapstat/opt"
)

// Document is the root of a decoded activity export.
type Document struct {
	Activities []Activity
}

// Activity is one recorded session.
type Activity struct {
	Laps []Lap
}

// Lap groups the tracks recorded between two lap presses.
type Lap struct {
	Tracks []Track
}

// Track is a contiguous run of trackpoints.
type Track struct {
	Trackpoints []Trackpoint
}

// Trackpoint is one sample. Every field may be missing independently.
type Trackpoint struct {
	Time      opt.Value[time.Time]
	HeartRate opt.Value[int] // bpm
	Power     opt.Value[int] // watts
}

// Laps returns every lap in document order, activities concatenated.
func (d *Document) Laps() []Lap {
	if d == nil {
		return nil
	}
	n := 0
	for _, a := range d.Activities {
		n += len(a.Laps)
	}
	laps := make([]Lap, 0, n)
	for _, a := range d.Activities {
		laps = append(laps, a.Laps...)
	}
	return laps
}

// Trackpoints returns the lap's trackpoints with its tracks concatenated.
func (l Lap) Trackpoints() []Trackpoint {
	n := 0
	for _, t := range l.Tracks {
		n += len(t.Trackpoints)
	}
	out := make([]Trackpoint, 0, n)
	for _, t := range l.Tracks {
		out = append(out, t.Trackpoints...)
	}
	return out
}

// Stats counts the document's elements, for diagnostics.
type Stats struct {
	Activities  int
	Laps        int
	Trackpoints int
}

func (d *Document) Stats() Stats {
	var s Stats
	if d == nil {
		return s
	}
	s.Activities = len(d.Activities)
	for _, a := range d.Activities {
		s.Laps += len(a.Laps)
		for _, l := range a.Laps {
			for _, t := range l.Tracks {
				s.Trackpoints += len(t.Trackpoints)
			}
		}
	}
	return s
}
