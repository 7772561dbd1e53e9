// Package lapstat turns an activity document into per-lap summaries:
// elapsed time, time-weighted average power and heart rate, and peak heart
// rate.
package lapstat

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lucasjlepore/lapstat/activity"
	"github.com/lucasjlepore/lapstat/opt"
	"github.com/lucasjlepore/lapstat/series"
)

// LapSeries holds the two sparse series of one lap.
type LapSeries struct {
	Lap       int // 1-indexed
	HeartRate series.Series
	Power     series.Series
}

// Summary is the per-lap report row.
type Summary struct {
	Lap           int                `json:"lap"`
	Duration      time.Duration      `json:"-"`
	DurationS     float64            `json:"duration_s"`
	AvgPower      opt.Value[float64] `json:"avg_power_w"`
	AvgHeartRate  opt.Value[float64] `json:"avg_hr_bpm"`
	PeakHeartRate opt.Value[int]     `json:"max_hr_bpm"`
	// Err is set when the lap was kept despite failing its computation.
	Err error `json:"-"`
}

// Options controls SummarizeDocument.
type Options struct {
	// SkipInvalidLaps keeps going when a lap's timestamps decrease, marking
	// that lap with Err instead of failing the whole run.
	SkipInvalidLaps bool
	Logger          *slog.Logger
}

// Flatten builds the heart-rate and power series of every lap in document
// order. Tracks within a lap are concatenated. A trackpoint without a time
// feeds neither series.
func Flatten(doc *activity.Document) []LapSeries {
	laps := doc.Laps()
	out := make([]LapSeries, 0, len(laps))
	for i, lap := range laps {
		out = append(out, flattenLap(i+1, lap))
	}
	return out
}

func flattenLap(n int, lap activity.Lap) LapSeries {
	ls := LapSeries{Lap: n}
	for _, tp := range lap.Trackpoints() {
		ts, ok := tp.Time.Get()
		if !ok {
			continue
		}
		if bpm, ok := tp.HeartRate.Get(); ok {
			ls.HeartRate = append(ls.HeartRate, series.Point{Time: ts, Value: bpm})
		}
		if watts, ok := tp.Power.Get(); ok {
			ls.Power = append(ls.Power, series.Point{Time: ts, Value: watts})
		}
	}
	return ls
}

// Summarize computes one lap's summary. Duration comes from the heart-rate
// series; the power series only contributes its average.
func Summarize(ls LapSeries) (Summary, error) {
	hr, err := series.WeightedAverage(ls.HeartRate)
	if err != nil {
		return Summary{}, fmt.Errorf("lap %d: heart rate: %w", ls.Lap, err)
	}
	power, err := series.WeightedAverage(ls.Power)
	if err != nil {
		return Summary{}, fmt.Errorf("lap %d: power: %w", ls.Lap, err)
	}
	return Summary{
		Lap:           ls.Lap,
		Duration:      hr.Covered,
		DurationS:     hr.Covered.Seconds(),
		AvgPower:      power.Mean,
		AvgHeartRate:  hr.Mean,
		PeakHeartRate: series.Peak(ls.HeartRate),
	}, nil
}

// SummarizeDocument summarizes the selected laps of doc in document order.
// Unselected laps are not computed.
func SummarizeDocument(doc *activity.Document, sel Selection, opts Options) ([]Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	all := Flatten(doc)
	out := make([]Summary, 0, len(all))
	for _, ls := range all {
		if !sel.Contains(ls.Lap) {
			continue
		}
		s, err := Summarize(ls)
		if err != nil {
			if !opts.SkipInvalidLaps {
				return nil, err
			}
			logger.Warn("skipping invalid lap", "lap", ls.Lap, "err", err)
			s = Summary{Lap: ls.Lap, Err: err}
		}
		logger.Debug("lap summarized",
			"lap", ls.Lap,
			"hr_points", len(ls.HeartRate),
			"power_points", len(ls.Power),
		)
		out = append(out, s)
	}
	for _, n := range sel.Missing(len(all)) {
		logger.Warn("selected lap not in document", "lap", n, "laps", len(all))
	}
	return out, nil
}
