package pipeline

import (
	"log/slog"

	"github.com/lucasjlepore/lapstat"
	"github.com/lucasjlepore/lapstat/activity"
)

// Options configures one lapstat run.
type Options struct {
	InputPath       string
	Selection       lapstat.Selection
	SkipInvalidLaps bool

	// SamplesPath, when set, receives the flattened series of the selected
	// laps.
	SamplesPath   string
	SamplesFormat string // parquet|csv

	Logger *slog.Logger
}

// Result is everything a run produced.
type Result struct {
	Format      activity.Format
	Stats       activity.Stats
	Summaries   []lapstat.Summary
	SamplesPath string
	SampleRows  int
}

// SampleRow is one sparse-series entry in the samples export.
type SampleRow struct {
	Lap      int     `json:"lap"`
	Series   string  `json:"series"` // heart_rate|power
	TSUTCISO string  `json:"ts_utc_iso"`
	ElapsedS float64 `json:"elapsed_s"`
	Value    int     `json:"value"`
}

const (
	SeriesHeartRate = "heart_rate"
	SeriesPower     = "power"
)
