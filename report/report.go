// Package report renders lap summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lucasjlepore/lapstat"
	"github.com/lucasjlepore/lapstat/opt"
	"github.com/lucasjlepore/lapstat/series"
)

// Absent is printed in place of a value the lap has no data for.
const Absent = "--"

// Header is the first line of the text report.
const Header = "Lap\tmm:ss\tavgW\tavgHR\tmaxHR"

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a -format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (expected text|json)", s)
	}
}

// Write renders summaries to w in format f.
func Write(w io.Writer, f Format, summaries []lapstat.Summary) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, summaries)
	default:
		return WriteText(w, summaries)
	}
}

// WriteText writes the tab-separated lap table.
func WriteText(w io.Writer, summaries []lapstat.Summary) error {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, s := range summaries {
		b.WriteString(Line(s))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Line renders one lap row.
func Line(s lapstat.Summary) string {
	if s.Err != nil {
		return fmt.Sprintf("%2d\t%s\t%s\t%s\t%s", s.Lap, Absent, Absent, Absent, Absent)
	}
	return fmt.Sprintf("%2d\t%s\t%s\t%s\t%s",
		s.Lap,
		series.FormatClock(s.Duration),
		formatRounded(s.AvgPower),
		formatRounded(s.AvgHeartRate),
		formatInt(s.PeakHeartRate),
	)
}

func formatRounded(v opt.Value[float64]) string {
	f, ok := v.Get()
	if !ok {
		return Absent
	}
	return strconv.FormatFloat(math.Round(f), 'f', 0, 64)
}

func formatInt(v opt.Value[int]) string {
	n, ok := v.Get()
	if !ok {
		return Absent
	}
	return strconv.Itoa(n)
}

type jsonLap struct {
	lapstat.Summary
	Clock string `json:"mm_ss"`
	Error string `json:"error,omitempty"`
}

type jsonReport struct {
	Laps []jsonLap `json:"laps"`
}

// WriteJSON writes the summaries as one indented JSON object. Absent values
// are null.
func WriteJSON(w io.Writer, summaries []lapstat.Summary) error {
	out := jsonReport{Laps: make([]jsonLap, 0, len(summaries))}
	for _, s := range summaries {
		row := jsonLap{Summary: s, Clock: series.FormatClock(s.Duration)}
		if s.Err != nil {
			row.Error = s.Err.Error()
		}
		out.Laps = append(out.Laps, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
