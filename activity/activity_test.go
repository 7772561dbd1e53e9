package activity

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"

	"github.com/lucasjlepore/lapstat/opt"
)

const tcxHeader = `<?xml version="1.0" encoding="UTF-8"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2"
  xmlns:ns3="http://www.garmin.com/xmlschemas/ActivityExtension/v2">
<Activities>
`

const tcxFooter = `</Activities>
</TrainingCenterDatabase>
`

func tcxDoc(activities ...string) string {
	return tcxHeader + strings.Join(activities, "\n") + tcxFooter
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return ts.UTC()
}

// cmp needs to see through opt.Value's unexported fields.
var optCmp = cmp.Comparer(func(a, b Trackpoint) bool {
	at, aok := a.Time.Get()
	bt, bok := b.Time.Get()
	return aok == bok && at.Equal(bt) && a.HeartRate == b.HeartRate && a.Power == b.Power
})

func TestDecodeTCXOptionalFields(t *testing.T) {
	doc := tcxDoc(`
<Activity Sport="Biking">
  <Id>2023-05-14T07:30:00Z</Id>
  <Lap StartTime="2023-05-14T07:30:00Z">
    <TotalTimeSeconds>60</TotalTimeSeconds>
    <Track>
      <Trackpoint>
        <Time>2023-05-14T07:30:00Z</Time>
        <HeartRateBpm><Value>120</Value></HeartRateBpm>
        <Extensions><ns3:TPX><ns3:Watts>210</ns3:Watts></ns3:TPX></Extensions>
      </Trackpoint>
      <Trackpoint>
        <Time>2023-05-14T07:30:01.250Z</Time>
        <DistanceMeters>12.5</DistanceMeters>
      </Trackpoint>
      <Trackpoint>
        <HeartRateBpm><Value>125</Value></HeartRateBpm>
        <Extensions><ns3:TPX><ns3:Watts>220</ns3:Watts></ns3:TPX></Extensions>
      </Trackpoint>
      <Trackpoint>
        <Time>2023-05-14T07:30:03Z</Time>
        <Extensions><ns3:TPX><ns3:Speed>8.1</ns3:Speed></ns3:TPX></Extensions>
      </Trackpoint>
    </Track>
  </Lap>
</Activity>`)

	got, err := DecodeTCX(strings.NewReader(doc))
	require.NoError(t, err)

	want := &Document{Activities: []Activity{{Laps: []Lap{{Tracks: []Track{{Trackpoints: []Trackpoint{
		{
			Time:      opt.Some(mustTime(t, "2023-05-14T07:30:00Z")),
			HeartRate: opt.Some(120),
			Power:     opt.Some(210),
		},
		{Time: opt.Some(mustTime(t, "2023-05-14T07:30:01.25Z"))},
		{HeartRate: opt.Some(125), Power: opt.Some(220)},
		{Time: opt.Some(mustTime(t, "2023-05-14T07:30:03Z"))},
	}}}}}}}}
	if diff := cmp.Diff(want, got, optCmp); diff != "" {
		t.Fatalf("decoded document mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTCXHierarchy(t *testing.T) {
	lap := func(n int) string {
		var b strings.Builder
		b.WriteString("<Lap><Track>")
		for i := 0; i < n; i++ {
			b.WriteString("<Trackpoint><Time>2023-05-14T07:30:00Z</Time></Trackpoint>")
		}
		b.WriteString("</Track><Track><Trackpoint/></Track></Lap>")
		return b.String()
	}
	doc := tcxDoc(
		"<Activity>"+lap(1)+lap(2)+"</Activity>",
		"<Activity>"+lap(3)+"</Activity>",
	)

	got, err := DecodeTCX(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, Stats{Activities: 2, Laps: 3, Trackpoints: 9}, got.Stats())

	laps := got.Laps()
	require.Len(t, laps, 3)
	assert.Len(t, laps[0].Trackpoints(), 2)
	assert.Len(t, laps[1].Trackpoints(), 3)
	assert.Len(t, laps[2].Trackpoints(), 4)
}

func TestDecodeTCXEmptyActivities(t *testing.T) {
	got, err := DecodeTCX(strings.NewReader(tcxDoc()))
	require.NoError(t, err)
	assert.Empty(t, got.Laps())
}

func TestDecodeTCXMalformedValues(t *testing.T) {
	cases := []struct {
		name  string
		point string
		field string
	}{
		{"time not utc", `<Time>2023-05-14T07:30:00+02:00</Time>`, "Time"},
		{"time garbage", `<Time>yesterday</Time>`, "Time"},
		{"time empty", `<Time></Time>`, "Time"},
		{"heart rate text", `<HeartRateBpm><Value>fast</Value></HeartRateBpm>`, "HeartRateBpm"},
		{"heart rate negative", `<HeartRateBpm><Value>-3</Value></HeartRateBpm>`, "HeartRateBpm"},
		{"heart rate no value", `<HeartRateBpm></HeartRateBpm>`, "HeartRateBpm"},
		{"watts decimal", `<Extensions><TPX><Watts>210.5</Watts></TPX></Extensions>`, "Watts"},
		{"watts overflow", `<Extensions><TPX><Watts>70000</Watts></TPX></Extensions>`, "Watts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := tcxDoc(`<Activity><Lap>
<Track><Trackpoint><Time>2023-05-14T07:30:00Z</Time></Trackpoint></Track>
<Track><Trackpoint><Time>2023-05-14T07:30:01Z</Time></Trackpoint><Trackpoint>` + tc.point + `</Trackpoint></Track>
</Lap></Activity>`)

			_, err := DecodeTCX(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.field, fe.Field)
			assert.Equal(t, 1, fe.Activity)
			assert.Equal(t, 1, fe.Lap)
			assert.Equal(t, 2, fe.Track)
			assert.Equal(t, 2, fe.Trackpoint)
			assert.Contains(t, err.Error(), "activity 1 lap 1 track 2 trackpoint 2: invalid "+tc.field)
		})
	}
}

func TestDecodeTCXStructuralErrors(t *testing.T) {
	cases := map[string]string{
		"not xml":        "hello",
		"wrong root":     `<gpx><trk/></gpx>`,
		"no activities":  `<TrainingCenterDatabase><Courses/></TrainingCenterDatabase>`,
		"unclosed":       tcxHeader + "<Activity><Lap>",
		"empty document": "",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTCX(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat), err.Error())
		})
	}
}

func TestParseTimeRoundTrip(t *testing.T) {
	for _, s := range []string{
		"2023-05-14T07:30:00Z",
		"2023-05-14T07:30:00.5Z",
		"2023-05-14T07:30:00.125Z",
		"1999-12-31T23:59:59.999Z",
	} {
		ts, err := ParseTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.UTC, ts.Location())

		again, err := ParseTime(ts.Format(TimeLayoutMillis))
		require.NoError(t, err)
		assert.True(t, ts.Equal(again), s)
	}
}

func buildTestFIT(t *testing.T) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	require.NoError(t, err)
	act, err := file.Activity()
	require.NoError(t, err)

	start := time.Date(2026, 2, 26, 23, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, 20 * time.Second} {
		lap := fit.NewLapMsg()
		lap.StartTime = start.Add(offset)
		lap.Timestamp = start.Add(offset + 20*time.Second)
		act.Laps = append(act.Laps, lap)
	}

	samples := []struct {
		sec   int
		hr    uint8
		power uint16
	}{
		{0, 100, 150},
		{10, 140, 0xFFFF},
		{20, 120, 200},
		{30, 0xFF, 250},
		{40, 130, 260},
	}
	for _, s := range samples {
		rec := fit.NewRecordMsg()
		rec.Timestamp = start.Add(time.Duration(s.sec) * time.Second)
		rec.HeartRate = s.hr
		rec.Power = s.power
		act.Records = append(act.Records, rec)
	}

	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))
	return buf.Bytes()
}

func TestDecodeFITAssignsRecordsToLaps(t *testing.T) {
	doc, err := DecodeFIT(bytes.NewReader(buildTestFIT(t)))
	require.NoError(t, err)

	laps := doc.Laps()
	require.Len(t, laps, 2)

	first := laps[0].Trackpoints()
	require.Len(t, first, 2)
	assert.Equal(t, opt.Some(100), first[0].HeartRate)
	assert.Equal(t, opt.Some(150), first[0].Power)
	assert.Equal(t, opt.Some(140), first[1].HeartRate)
	assert.False(t, first[1].Power.IsPresent())

	second := laps[1].Trackpoints()
	require.Len(t, second, 3)
	assert.False(t, second[1].HeartRate.IsPresent())
	assert.Equal(t, opt.Some(250), second[1].Power)
	ts, ok := second[0].Time.Get()
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2026, 2, 26, 23, 0, 20, 0, time.UTC)))
}

func TestDecodeSniffsFormat(t *testing.T) {
	_, format, err := Decode(bytes.NewReader(buildTestFIT(t)))
	require.NoError(t, err)
	assert.Equal(t, FormatFIT, format)

	_, format, err = Decode(strings.NewReader(tcxDoc()))
	require.NoError(t, err)
	assert.Equal(t, FormatTCX, format)

	_, format, err = Decode(strings.NewReader("<"))
	require.Error(t, err)
	assert.Equal(t, FormatTCX, format)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ride.tcx")
	require.NoError(t, os.WriteFile(path, []byte(tcxDoc("<Activity><Lap/></Activity>")), 0o644))

	doc, format, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, FormatTCX, format)
	assert.Len(t, doc.Laps(), 1)

	_, _, err = Open(filepath.Join(dir, "missing.tcx"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInput))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.tcx")
	require.NoError(t, os.WriteFile(bad, []byte(tcxDoc(`<Activity><Lap><Track><Trackpoint><Time>x</Time></Trackpoint></Track></Lap></Activity>`)), 0o644))
	_, _, err = Open(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Contains(t, err.Error(), bad)
}
