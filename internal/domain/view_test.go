package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2021, time.August, 1, 18, 30, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { SetClock(nil) })
}

func testViewOptions() ViewOptions {
	return ViewOptions{TopN: 4, Precision: 1}
}

func TestBuildViews_Province(t *testing.T) {
	freezeClock(t)
	s := Series{Kind: SourceProvince, Points: provincePoints(), Metadata: SeriesMetadata{Total: 21360}}

	views := BuildViews(s, testViewOptions())
	require.Len(t, views, 3)

	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
		assert.Equal(t, testNow, v.GeneratedAt)
		assert.Equal(t, "province", v.Series)
	}
	assert.Equal(t, []string{
		"province:ranking:cumulative",
		"province:ranking:incremental",
		"province:table:cumulative",
	}, ids)

	cumulative := views[0]
	assert.Equal(t, []string{"Bắc Giang", "Bắc Ninh", testHanoi, "Hải Dương"}, labelsOf(cumulative.Points))
	require.Len(t, cumulative.Ticks, 5)
	assert.Equal(t, "0", cumulative.Ticks[0].Label)
	assert.Equal(t, "5.6K", cumulative.Ticks[4].Label)

	incremental := views[1]
	assert.Equal(t, []string{"TP. Hồ Chí Minh", "Bắc Giang", testHanoi, "Bắc Ninh"}, labelsOf(incremental.Points))

	// The input series is untouched by either ranking.
	assert.Equal(t, provincePoints(), s.Points)
}

func TestBuildViews_ProvinceTable(t *testing.T) {
	freezeClock(t)
	s := Series{Kind: SourceProvince, Points: pointsN(25)}
	s.Points[0].Incremental = 120
	s.Points[0].Cumulative = 4500

	views := BuildViews(s, testViewOptions())
	table := views[len(views)-1]

	assert.Equal(t, ViewTable, table.Type)
	assert.Len(t, table.Points, 25)
	require.Len(t, table.Rows, DefaultInitialWindow)
	assert.Equal(t, TableRow{Rank: 1, Label: "p00", Today: "+120", Total: "4,500"}, table.Rows[0])
	assert.Equal(t, TableRow{Rank: 2, Label: "p01", Today: "0", Total: "24"}, table.Rows[1])

	want := &TableState{VisibleCount: 10, Expandable: true, ToggleLabel: LabelShowMore}
	if diff := cmp.Diff(want, table.Table); diff != "" {
		t.Fatalf("table state mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTableView_AfterExpand(t *testing.T) {
	s := Series{Kind: SourceProvince, Points: pointsN(12)}
	p := NewPaginator(len(s.Points), PaginatorConfig{})
	p.Expand()

	v := BuildTableView(s, MetricCumulative, p, testNow)
	assert.Len(t, v.Rows, 12)
	assert.Equal(t, 18, v.Table.VisibleCount)
	assert.False(t, v.Table.Expandable)
	assert.Equal(t, LabelCollapse, v.Table.ToggleLabel)
}

func TestBuildViews_DailySeries(t *testing.T) {
	freezeClock(t)
	s := Series{Kind: SourceVaccine, Dose: DoseFirst, Points: pointsN(40), Ratio: 0.071}

	views := BuildViews(s, testViewOptions())
	require.Len(t, views, len(Metrics)*len(Ranges))

	byID := make(map[string]View, len(views))
	for _, v := range views {
		assert.Equal(t, ViewTimeSeries, v.Type)
		assert.InEpsilon(t, 0.071, v.Ratio, 1e-9)
		byID[v.ID] = v
	}

	week, ok := byID["vaccine.first:timeseries:incremental:week"]
	require.True(t, ok)
	assert.Len(t, week.Points, 7)
	assert.Equal(t, "p33", week.Points[0].Label, "time series keep chronological order")

	all, ok := byID["vaccine.first:timeseries:cumulative:all"]
	require.True(t, ok)
	assert.Len(t, all.Points, 40)
}

func TestBuildViews_EmptySeries(t *testing.T) {
	freezeClock(t)
	views := BuildViews(Series{Kind: SourceProvince}, testViewOptions())
	require.Len(t, views, 3)

	for _, v := range views {
		assert.NotNil(t, v.Points)
		assert.Empty(t, v.Points)
	}
	assert.Equal(t, []AxisTick{{Value: 0, Label: "0"}}, views[0].Ticks)

	table := views[2]
	assert.Empty(t, table.Rows)
	assert.False(t, table.Table.Expandable)
}

func TestAxisTicks(t *testing.T) {
	points := []CanonicalPoint{{Label: "a", Cumulative: 2000}, {Label: "b", Cumulative: 500}}
	ticks := AxisTicks(points, MetricCumulative, 1)

	labels := make([]string, len(ticks))
	for i, tick := range ticks {
		labels[i] = tick.Label
	}
	assert.Equal(t, []string{"0", "500", "1K", "1.5K", "2K"}, labels)
}

func TestAxisTicks_NearMaxFloat(t *testing.T) {
	points := []CanonicalPoint{{Label: "a", Incremental: 1, Cumulative: 1.5e308}}
	ticks := AxisTicks(points, MetricCumulative, 1)

	require.Len(t, ticks, 5)
	for _, tick := range ticks {
		assert.False(t, math.IsInf(tick.Value, 0), "tick %q overflowed", tick.Label)
	}
	assert.InDelta(t, 1.5e308, ticks[4].Value, 0)
}

func TestBuildViews_HugeValuesSerialize(t *testing.T) {
	freezeClock(t)
	s := Series{Kind: SourceProvince, Points: []CanonicalPoint{{Label: "A", Incremental: 1, Cumulative: 1.5e308}}}

	for _, v := range BuildViews(s, testViewOptions()) {
		_, err := SerializeView(v)
		assert.NoError(t, err, v.ID)
	}
}

func TestSerializeView(t *testing.T) {
	freezeClock(t)
	s := Series{Kind: SourceProvince, Points: provincePoints()}
	v := BuildViews(s, testViewOptions())[0]

	out, err := SerializeView(v)
	require.NoError(t, err)
	assert.Equal(t, []byte("province:ranking:cumulative"), out.Key)
	assert.Equal(t, "province", out.Headers[SourceKindHeader])
	assert.Equal(t, "ranking", out.Headers["view"])
	assert.Equal(t, "cumulative", out.Headers["metric"])
	assert.Equal(t, "2021-08-01T18:30:00Z", out.Headers["generated_at"])

	var roundtrip View
	require.NoError(t, json.Unmarshal(out.Value, &roundtrip))
	if diff := cmp.Diff(v.Points, roundtrip.Points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
}
