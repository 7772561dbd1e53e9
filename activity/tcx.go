package activity

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/lapstat/opt"
)

// TimeLayout is the only accepted trackpoint time shape. Fractional seconds
// are optional when parsing.
const TimeLayout = "2006-01-02T15:04:05Z"

// TimeLayoutMillis renders a time back in the accepted shape.
const TimeLayoutMillis = "2006-01-02T15:04:05.000Z"

// Raw TCX shape. Optional elements are pointers so absence survives the
// structural pass. Elements are matched by local name, so the Garmin
// namespaces (ns3:TPX etc.) need no special handling.
type rawDatabase struct {
	XMLName    xml.Name       `xml:"TrainingCenterDatabase"`
	Activities *rawActivities `xml:"Activities"`
}

type rawActivities struct {
	Activity []rawActivity `xml:"Activity"`
}

type rawActivity struct {
	Laps []rawLap `xml:"Lap"`
}

type rawLap struct {
	Tracks []rawTrack `xml:"Track"`
}

type rawTrack struct {
	Trackpoints []rawTrackpoint `xml:"Trackpoint"`
}

type rawTrackpoint struct {
	Time       *string        `xml:"Time"`
	HeartRate  *rawHeartRate  `xml:"HeartRateBpm"`
	Extensions *rawExtensions `xml:"Extensions"`
}

type rawHeartRate struct {
	Value *string `xml:"Value"`
}

type rawExtensions struct {
	TPX *rawTPX `xml:"TPX"`
}

type rawTPX struct {
	Watts *string `xml:"Watts"`
}

// DecodeTCX decodes a Training Center XML document. Missing Time,
// HeartRateBpm or power extensions are tolerated; present values that do not
// parse fail the whole document with a *FieldError.
func DecodeTCX(r io.Reader) (*Document, error) {
	var raw rawDatabase
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode tcx: %w", ErrFormat, err)
	}
	if raw.Activities == nil {
		return nil, formatErrorf("tcx: missing Activities element")
	}
	return raw.validate()
}

func (raw *rawDatabase) validate() (*Document, error) {
	doc := &Document{Activities: make([]Activity, 0, len(raw.Activities.Activity))}
	for ai, ra := range raw.Activities.Activity {
		a := Activity{Laps: make([]Lap, 0, len(ra.Laps))}
		for li, rl := range ra.Laps {
			lap := Lap{Tracks: make([]Track, 0, len(rl.Tracks))}
			for ti, rt := range rl.Tracks {
				track := Track{Trackpoints: make([]Trackpoint, 0, len(rt.Trackpoints))}
				for pi, rp := range rt.Trackpoints {
					tp, err := rp.validate()
					if err != nil {
						var fe *FieldError
						if errors.As(err, &fe) {
							fe.Activity, fe.Lap, fe.Track, fe.Trackpoint = ai+1, li+1, ti+1, pi+1
						}
						return nil, err
					}
					track.Trackpoints = append(track.Trackpoints, tp)
				}
				lap.Tracks = append(lap.Tracks, track)
			}
			a.Laps = append(a.Laps, lap)
		}
		doc.Activities = append(doc.Activities, a)
	}
	return doc, nil
}

func (rp rawTrackpoint) validate() (Trackpoint, error) {
	var tp Trackpoint
	if rp.Time != nil {
		ts, err := ParseTime(*rp.Time)
		if err != nil {
			return tp, &FieldError{Field: "Time", Value: *rp.Time, Err: err}
		}
		tp.Time = opt.Some(ts)
	}
	if rp.HeartRate != nil {
		if rp.HeartRate.Value == nil {
			return tp, &FieldError{Field: "HeartRateBpm", Err: errors.New("missing Value element")}
		}
		bpm, err := parseCount(*rp.HeartRate.Value)
		if err != nil {
			return tp, &FieldError{Field: "HeartRateBpm", Value: *rp.HeartRate.Value, Err: err}
		}
		tp.HeartRate = opt.Some(bpm)
	}
	if rp.Extensions != nil && rp.Extensions.TPX != nil && rp.Extensions.TPX.Watts != nil {
		watts, err := parseCount(*rp.Extensions.TPX.Watts)
		if err != nil {
			return tp, &FieldError{Field: "Watts", Value: *rp.Extensions.TPX.Watts, Err: err}
		}
		tp.Power = opt.Some(watts)
	}
	return tp, nil
}

// ParseTime parses a trackpoint time in TimeLayout.
func ParseTime(s string) (time.Time, error) {
	ts, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.New("expected YYYY-MM-DDTHH:MM:SS[.fff]Z")
	}
	return ts.UTC(), nil
}

// parseCount parses a non-negative base-10 integer that fits 16 bits, the
// range of heart rate and power in both TCX and FIT.
func parseCount(s string) (int, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) {
			return 0, ne.Err
		}
		return 0, err
	}
	return int(n), nil
}
