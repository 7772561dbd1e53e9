// Package pipeline runs lapstat end to end: decode, flatten, summarize and
// optionally export the flattened samples.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucasjlepore/lapstat"
	"github.com/lucasjlepore/lapstat/activity"
	"github.com/lucasjlepore/lapstat/series"
)

// Run decodes the input, summarizes the selected laps and writes the samples
// export if one was requested. Nothing is written when any step fails before
// the export.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.InputPath) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	samplesFormat, err := parseSamplesFormat(opts.SamplesFormat)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	doc, format, err := activity.Open(opts.InputPath)
	if err != nil {
		return nil, err
	}
	stats := doc.Stats()
	logger.Debug("decoded activity document",
		"path", opts.InputPath,
		"format", format,
		"activities", stats.Activities,
		"laps", stats.Laps,
		"trackpoints", stats.Trackpoints,
	)

	summaries, err := lapstat.SummarizeDocument(doc, opts.Selection, lapstat.Options{
		SkipInvalidLaps: opts.SkipInvalidLaps,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Format:    format,
		Stats:     stats,
		Summaries: summaries,
	}
	if opts.SamplesPath == "" {
		return res, nil
	}

	rows := buildSampleRows(lapstat.Flatten(doc), opts.Selection)
	switch samplesFormat {
	case "csv":
		err = writeSamplesCSV(opts.SamplesPath, rows)
	default:
		err = writeSamplesParquet(opts.SamplesPath, rows)
	}
	if err != nil {
		return nil, fmt.Errorf("write samples %s: %w", samplesFormat, err)
	}
	logger.Info("wrote samples", "path", opts.SamplesPath, "format", samplesFormat, "rows", len(rows))

	res.SamplesPath = opts.SamplesPath
	res.SampleRows = len(rows)
	return res, nil
}

func parseSamplesFormat(s string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(s))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported samples format %q (expected parquet|csv)", s)
	}
	return format, nil
}

func buildSampleRows(laps []lapstat.LapSeries, sel lapstat.Selection) []SampleRow {
	rows := make([]SampleRow, 0, 1024)
	for _, ls := range laps {
		if !sel.Contains(ls.Lap) {
			continue
		}
		rows = appendSeriesRows(rows, ls.Lap, SeriesHeartRate, ls.HeartRate)
		rows = appendSeriesRows(rows, ls.Lap, SeriesPower, ls.Power)
	}
	return rows
}

func appendSeriesRows(rows []SampleRow, lap int, name string, s series.Series) []SampleRow {
	for _, p := range s {
		rows = append(rows, SampleRow{
			Lap:      lap,
			Series:   name,
			TSUTCISO: p.Time.UTC().Format(activity.TimeLayoutMillis),
			ElapsedS: p.Time.Sub(s[0].Time).Seconds(),
			Value:    p.Value,
		})
	}
	return rows
}

func writeSamplesCSV(path string, rows []SampleRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"lap", "series", "ts_utc_iso", "elapsed_s", "value"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Lap),
			r.Series,
			r.TSUTCISO,
			strconv.FormatFloat(r.ElapsedS, 'f', 3, 64),
			strconv.Itoa(r.Value),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

type sampleParquetRow struct {
	Lap      int64   `parquet:"name=lap, type=INT64"`
	Series   string  `parquet:"name=series, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TSUTCISO string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8"`
	ElapsedS float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	Value    int64   `parquet:"name=value, type=INT64"`
}

func writeSamplesParquet(path string, rows []SampleRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(sampleParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := sampleParquetRow{
			Lap:      int64(r.Lap),
			Series:   r.Series,
			TSUTCISO: r.TSUTCISO,
			ElapsedS: r.ElapsedS,
			Value:    int64(r.Value),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}
