package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/lapstat"
	"github.com/lucasjlepore/lapstat/opt"
)

func sampleSummaries() []lapstat.Summary {
	return []lapstat.Summary{
		{
			Lap:           1,
			Duration:      4*time.Minute + 5*time.Second + 900*time.Millisecond,
			DurationS:     245.9,
			AvgPower:      opt.Some(212.5),
			AvgHeartRate:  opt.Some(141.49),
			PeakHeartRate: opt.Some(158),
		},
		{
			Lap:      2,
			AvgPower: opt.Some(175.0),
		},
		{
			Lap: 12,
			Err: errors.New("lap 12: heart rate: timestamp decreases"),
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleSummaries()))

	want := strings.Join([]string{
		"Lap\tmm:ss\tavgW\tavgHR\tmaxHR",
		" 1\t04:05\t213\t141\t158",
		" 2\t00:00\t175\t--\t--",
		"12\t--\t--\t--\t--",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, nil))
	assert.Equal(t, Header+"\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleSummaries()))

	var got struct {
		Laps []map[string]any `json:"laps"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Laps, 3)

	assert.Equal(t, "04:05", got.Laps[0]["mm_ss"])
	assert.Equal(t, 212.5, got.Laps[0]["avg_power_w"])
	assert.Equal(t, 158.0, got.Laps[0]["max_hr_bpm"])
	assert.NotContains(t, got.Laps[0], "error")

	assert.Nil(t, got.Laps[1]["avg_hr_bpm"])
	assert.Nil(t, got.Laps[1]["max_hr_bpm"])

	assert.Equal(t, "lap 12: heart rate: timestamp decreases", got.Laps[2]["error"])
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
